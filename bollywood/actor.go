package bollywood

// Actor handles one message at a time from its mailbox.
type Actor interface {
	Receive(ctx Context)
}

// PID addresses a spawned actor. It stays valid after the actor stops;
// sends to a stopped PID are dropped.
type PID struct {
	ID string
}

func (pid *PID) String() string {
	if pid == nil {
		return "<nil>"
	}
	return pid.ID
}

// Producer builds a fresh actor for each spawn.
type Producer func() Actor

// Props describe how to spawn an actor.
type Props struct {
	producer    Producer
	mailboxSize int
}

func NewProps(producer Producer) *Props {
	if producer == nil {
		panic("bollywood: producer cannot be nil")
	}
	return &Props{producer: producer, mailboxSize: defaultMailboxSize}
}

// WithMailboxSize sets the mailbox capacity; non-positive sizes are ignored.
func (p *Props) WithMailboxSize(size int) *Props {
	if size > 0 {
		p.mailboxSize = size
	}
	return p
}

func (p *Props) produce() Actor { return p.producer() }
