package bollywood

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrActorNotFound is returned by Ask when the target PID is unknown.
	ErrActorNotFound = errors.New("bollywood: actor not found")
	// ErrActorStopped is delivered to asks that reach a stopped actor.
	ErrActorStopped = errors.New("bollywood: actor stopped")
	// ErrMailboxFull is delivered to asks dropped because the mailbox was full.
	ErrMailboxFull = errors.New("bollywood: mailbox full")
	// ErrAskTimeout is returned by Ask when no reply arrives in time.
	ErrAskTimeout = errors.New("bollywood: ask timed out")
	// ErrNoReply is delivered when the actor handled an ask without replying.
	ErrNoReply = errors.New("bollywood: actor did not reply")
	// ErrActorPanicked wraps the panic value of an actor that crashed handling an ask.
	ErrActorPanicked = errors.New("bollywood: actor panicked")
	// ErrEngineStopping is returned when the engine no longer accepts work.
	ErrEngineStopping = errors.New("bollywood: engine is stopping")
)

// Engine manages the lifecycle and message dispatching for actors.
type Engine struct {
	pidCounter uint64
	reqCounter uint64
	actors     map[string]*process
	mu         sync.RWMutex
	stopping   atomic.Bool
	log        zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for engine and actor diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = logger.With().Str("component", "bollywood").Logger()
	}
}

// NewEngine creates a new actor engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		actors: make(map[string]*process),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) nextPID() *PID {
	id := atomic.AddUint64(&e.pidCounter, 1)
	return &PID{ID: fmt.Sprintf("actor-%d", id)}
}

// Spawn creates and starts a new actor based on the provided Props.
// It returns nil when the engine is shutting down.
func (e *Engine) Spawn(props *Props) *PID {
	if e.stopping.Load() {
		e.log.Warn().Msg("engine is stopping, cannot spawn new actors")
		return nil
	}

	pid := e.nextPID()
	proc := newProcess(e, pid, props)

	e.mu.Lock()
	e.actors[pid.ID] = proc
	e.mu.Unlock()

	go proc.run()
	return pid
}

func (e *Engine) lookup(pid *PID) (*process, bool) {
	if pid == nil {
		return nil, false
	}
	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()
	return proc, ok
}

// Send delivers a message to the actor identified by the PID.
// sender can be nil if the message originates from outside the actor system.
func (e *Engine) Send(pid *PID, message interface{}, sender *PID) {
	proc, ok := e.lookup(pid)
	if !ok {
		e.log.Debug().Str("actor", pid.String()).Str("message", fmt.Sprintf("%T", message)).Msg("actor not found, dropping message")
		return
	}
	proc.sendMessage(&messageEnvelope{Sender: sender, Message: message})
}

// Ask sends a message and waits for the actor to answer it via Context.Reply.
// When the reply is an error value it is returned as the error.
func (e *Engine) Ask(pid *PID, message interface{}, timeout time.Duration) (interface{}, error) {
	if e.stopping.Load() {
		return nil, ErrEngineStopping
	}
	proc, ok := e.lookup(pid)
	if !ok {
		return nil, ErrActorNotFound
	}

	envelope := &messageEnvelope{
		Message:   message,
		RequestID: fmt.Sprintf("req-%d", atomic.AddUint64(&e.reqCounter, 1)),
		replyCh:   make(chan interface{}, 1),
	}
	proc.sendMessage(envelope)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-envelope.replyCh:
		if err, isErr := reply.(error); isErr {
			return nil, err
		}
		return reply, nil
	case <-timer.C:
		return nil, ErrAskTimeout
	}
}

// Stop requests an actor to stop. It processes Stopping and then Stopped
// before its goroutine exits.
func (e *Engine) Stop(pid *PID) {
	if proc, ok := e.lookup(pid); ok {
		proc.sendMessage(&messageEnvelope{Message: Stopping{}})
	}
}

// Alive reports whether the actor is still registered with the engine.
func (e *Engine) Alive(pid *PID) bool {
	_, ok := e.lookup(pid)
	return ok
}

func (e *Engine) remove(pid *PID) {
	e.mu.Lock()
	delete(e.actors, pid.ID)
	e.mu.Unlock()
}

// Shutdown stops all actors and waits up to timeout for them to terminate.
func (e *Engine) Shutdown(timeout time.Duration) {
	if !e.stopping.CompareAndSwap(false, true) {
		return
	}

	e.mu.RLock()
	procs := make([]*process, 0, len(e.actors))
	for _, proc := range e.actors {
		procs = append(procs, proc)
	}
	e.mu.RUnlock()

	e.log.Info().Int("actors", len(procs)).Msg("engine shutdown initiated")
	for _, proc := range procs {
		proc.requestStop()
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		e.mu.RLock()
		remaining := len(e.actors)
		e.mu.RUnlock()
		if remaining == 0 {
			e.log.Info().Msg("all actors stopped")
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	e.mu.Lock()
	e.log.Warn().Int("actors", len(e.actors)).Msg("engine shutdown timeout, actors did not stop gracefully")
	e.actors = make(map[string]*process)
	e.mu.Unlock()
}
