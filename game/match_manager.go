// File: game/match_manager.go
package game

import (
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/lguibr/pongarena/bollywood"
	"github.com/lguibr/pongarena/utils"
)

// MatchManagerActor owns the session table: match id -> match actor.
// Entries are added on the first join and removed when the match actor
// reports MatchClosed.
type MatchManagerActor struct {
	engine   *bollywood.Engine
	cfg      utils.Config
	recorder Recorder
	base     zerolog.Logger
	log      zerolog.Logger
	selfPID  *bollywood.PID
	matches  map[string]*bollywood.PID
	seed     func() *rand.Rand
}

// NewMatchManagerProducer creates a producer for the MatchManagerActor.
func NewMatchManagerProducer(engine *bollywood.Engine, cfg utils.Config, recorder Recorder, logger zerolog.Logger) bollywood.Producer {
	return func() bollywood.Actor {
		return &MatchManagerActor{
			engine:   engine,
			cfg:      cfg,
			recorder: recorder,
			base:     logger,
			log:      logger.With().Str("component", "match_manager").Logger(),
			matches:  make(map[string]*bollywood.PID),
			seed: func() *rand.Rand {
				return rand.New(rand.NewSource(time.Now().UnixNano()))
			},
		}
	}
}

// Receive Method
func (a *MatchManagerActor) Receive(ctx bollywood.Context) {
	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		a.log.Info().Str("pid", a.selfPID.String()).Msg("match manager started")

	case EnsureMatchRequest:
		a.handleEnsure(ctx, msg.Spec)

	case LookupMatchRequest:
		pid, ok := a.matches[msg.MatchID]
		ctx.Reply(LookupMatchResponse{PID: pid, Found: ok})

	case ListMatchesRequest:
		ids := lo.Keys(a.matches)
		sort.Strings(ids)
		ctx.Reply(ids)

	case MatchClosed:
		a.handleMatchClosed(msg)

	case bollywood.Stopping:
		a.log.Info().Int("matches", len(a.matches)).Msg("match manager stopping, shutting down all matches")
		for _, pid := range a.matches {
			a.engine.Stop(pid)
		}
		a.matches = make(map[string]*bollywood.PID)

	case bollywood.Stopped:
		a.log.Info().Msg("match manager stopped")

	default:
		a.log.Warn().Str("message", typeName(msg)).Msg("match manager received unknown message")
	}
}

func (a *MatchManagerActor) handleEnsure(ctx bollywood.Context, spec MatchSpec) {
	if pid, ok := a.matches[spec.MatchID]; ok && a.engine.Alive(pid) {
		ctx.Reply(pid)
		return
	}

	props := bollywood.NewProps(NewMatchActorProducer(a.engine, a.cfg, spec, MatchDeps{
		Recorder:   a.recorder,
		ManagerPID: a.selfPID,
		Logger:     a.base,
		Rand:       a.seed(),
	}))
	pid := a.engine.Spawn(props)
	if pid == nil {
		ctx.Reply(bollywood.ErrEngineStopping)
		return
	}
	a.matches[spec.MatchID] = pid
	a.log.Info().Str("match_id", spec.MatchID).Str("pid", pid.String()).Int("live", len(a.matches)).Msg("match registered")
	ctx.Reply(pid)
}

func (a *MatchManagerActor) handleMatchClosed(msg MatchClosed) {
	pid, ok := a.matches[msg.MatchID]
	if !ok || pid.ID != msg.PID.ID {
		return
	}
	delete(a.matches, msg.MatchID)
	a.log.Info().Str("match_id", msg.MatchID).Int("live", len(a.matches)).Msg("match released")
}
