// Package tournament builds single-elimination brackets and advances winners
// as game matches complete.
package tournament

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lguibr/pongarena/store"
)

// DeadlineScheduler arms the no-show deadline of a freshly created follow-on match.
type DeadlineScheduler interface {
	ScheduleNoShow(matchID string)
}

// Engine owns bracket creation and progression. Work on one tournament is
// serialized by a keyed mutex; different tournaments proceed in parallel.
type Engine struct {
	store *store.Store
	log   zerolog.Logger
	locks *keyedMutex

	rngMu sync.Mutex
	rng   *rand.Rand

	schedMu   sync.RWMutex
	scheduler DeadlineScheduler
}

type Option func(*Engine)

// WithRand injects the source used to shuffle participants.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithScheduler sets the no-show deadline scheduler.
func WithScheduler(s DeadlineScheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

func NewEngine(st *store.Store, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store: st,
		log:   logger.With().Str("component", "tournament").Logger(),
		locks: newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// SetScheduler replaces the deadline scheduler. The lifecycle controller
// depends on the engine, so it is attached after both exist.
func (e *Engine) SetScheduler(s DeadlineScheduler) {
	e.schedMu.Lock()
	e.scheduler = s
	e.schedMu.Unlock()
}

func (e *Engine) schedule(matchIDs []string) {
	e.schedMu.RLock()
	s := e.scheduler
	e.schedMu.RUnlock()
	if s == nil {
		return
	}
	for _, id := range matchIDs {
		s.ScheduleNoShow(id)
	}
}

func (e *Engine) shuffle(ids []string) {
	e.rngMu.Lock()
	e.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	e.rngMu.Unlock()
}
