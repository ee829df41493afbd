// File: bollywood/process.go
package bollywood

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
)

const defaultMailboxSize = 1024

// process represents the running instance of an actor, including its state and mailbox.
type process struct {
	engine  *Engine
	pid     *PID
	actor   Actor
	mailbox chan *messageEnvelope
	props   *Props
	stopCh  chan struct{}
	stopped atomic.Bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, props.mailboxSize),
		stopCh:  make(chan struct{}),
	}
}

// sendMessage enqueues an envelope without blocking. It reports whether the
// envelope was accepted. Pending asks are answered with an error when dropped.
func (p *process) sendMessage(envelope *messageEnvelope) bool {
	if p.stopped.Load() && !isSystemMessage(envelope.Message) {
		failRequest(envelope, ErrActorStopped)
		return false
	}

	select {
	case p.mailbox <- envelope:
		return true
	default:
		p.engine.log.Warn().
			Str("actor", p.pid.ID).
			Str("message", fmt.Sprintf("%T", envelope.Message)).
			Msg("mailbox full, dropping message")
		failRequest(envelope, ErrMailboxFull)
		return false
	}
}

// run is the main loop for the actor process.
func (p *process) run() {
	defer p.engine.remove(p.pid)
	defer p.drain()

	p.actor = p.props.produce()
	if p.actor == nil {
		p.engine.log.Error().Str("actor", p.pid.ID).Msg("producer returned nil actor")
		p.stopped.Store(true)
		return
	}

	p.invokeReceive(&messageEnvelope{Message: Started{}})

	for {
		select {
		case <-p.stopCh:
			p.finish()
			return
		case envelope := <-p.mailbox:
			switch envelope.Message.(type) {
			case Stopping:
				p.finish()
				return
			case Stopped:
				p.engine.log.Warn().Str("actor", p.pid.ID).Msg("unexpected Stopped message in mailbox")
				continue
			}
			if p.stopped.Load() {
				failRequest(envelope, ErrActorStopped)
				continue
			}
			p.invokeReceive(envelope)
		}
	}
}

// finish runs the Stopping and Stopped handlers exactly once.
func (p *process) finish() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	p.invokeReceive(&messageEnvelope{Message: Stopping{}})
	p.invokeReceive(&messageEnvelope{Message: Stopped{}})
}

// drain answers any asks still sitting in the mailbox after the loop exits.
func (p *process) drain() {
	for {
		select {
		case envelope := <-p.mailbox:
			failRequest(envelope, ErrActorStopped)
		default:
			return
		}
	}
}

// invokeReceive calls the actor's Receive method, recovering from panics within it.
// A panicking actor is stopped.
func (p *process) invokeReceive(envelope *messageEnvelope) {
	ctx := &context{
		engine:   p.engine,
		self:     p.pid,
		envelope: envelope,
	}

	defer func() {
		if r := recover(); r != nil {
			p.engine.log.Error().
				Str("actor", p.pid.ID).
				Str("message", fmt.Sprintf("%T", envelope.Message)).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("actor panicked during Receive")
			ctx.Reply(fmt.Errorf("%w: %v", ErrActorPanicked, r))
			if !isSystemMessage(envelope.Message) {
				p.requestStop()
			}
		}
	}()

	p.actor.Receive(ctx)

	if envelope.replyCh != nil && !ctx.replied {
		ctx.Reply(ErrNoReply)
	}
}

func (p *process) requestStop() {
	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}
}

func failRequest(envelope *messageEnvelope, err error) {
	if envelope.replyCh == nil {
		return
	}
	select {
	case envelope.replyCh <- err:
	default:
	}
}
