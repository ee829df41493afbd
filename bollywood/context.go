package bollywood

// Context provides information and capabilities to an Actor during message processing.
type Context interface {
	// Engine returns the Actor Engine managing this actor.
	Engine() *Engine
	// Self returns the PID of the actor processing the message.
	Self() *PID
	// Sender returns the PID of the actor that sent the message, if available.
	Sender() *PID
	// Message returns the actual message being processed.
	Message() interface{}
	// RequestID is non-empty when the message was delivered through Engine.Ask.
	RequestID() string
	// Reply answers an Ask. Only the first reply is delivered.
	Reply(response interface{})
}

type context struct {
	engine   *Engine
	self     *PID
	envelope *messageEnvelope
	replied  bool
}

func (c *context) Engine() *Engine      { return c.engine }
func (c *context) Self() *PID           { return c.self }
func (c *context) Sender() *PID         { return c.envelope.Sender }
func (c *context) Message() interface{} { return c.envelope.Message }
func (c *context) RequestID() string    { return c.envelope.RequestID }

func (c *context) Reply(response interface{}) {
	if c.replied || c.envelope.replyCh == nil {
		return
	}
	c.replied = true
	// replyCh is buffered with capacity 1, so this never blocks.
	c.envelope.replyCh <- response
}
