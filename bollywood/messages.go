package bollywood

// --- System Messages ---

// Started is the first message an actor receives, once its goroutine is running.
type Started struct{}

// Stopping is sent to an actor to signal it should prepare to stop.
// No more user messages will be delivered after Stopping.
type Stopping struct{}

// Stopped is the final message an actor receives before its goroutine exits.
type Stopped struct{}

// --- Message Envelope ---

// messageEnvelope wraps a user message with sender and request information.
type messageEnvelope struct {
	Sender    *PID
	Message   interface{}
	RequestID string
	replyCh   chan interface{}
}

func isSystemMessage(msg interface{}) bool {
	switch msg.(type) {
	case Stopping, Stopped:
		return true
	}
	return false
}
