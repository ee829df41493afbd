// File: game/match_actor.go
package game

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/lguibr/pongarena/bollywood"
	"github.com/lguibr/pongarena/utils"
)

// MatchDeps are the collaborators of a match actor.
type MatchDeps struct {
	Recorder   Recorder
	ManagerPID *bollywood.PID
	Logger     zerolog.Logger
	Rand       *rand.Rand       // defaults to a time-seeded source
	Now        func() time.Time // defaults to time.Now
}

// MatchActor owns everything about one live match: the GameState, the
// player sockets, the authenticated set, paddle intents and the timers that
// drive the countdown and the tick. All of it is touched only from Receive.
type MatchActor struct {
	engine   *bollywood.Engine
	cfg      utils.Config
	spec     MatchSpec
	recorder Recorder
	manager  *bollywood.PID
	selfPID  *bollywood.PID
	log      zerolog.Logger
	rng      *rand.Rand
	now      func() time.Time

	phase         Phase
	state         *GameState
	sockets       map[string]PlayerConn
	authenticated map[string]bool
	intents       map[string]Direction
	countdown     int
	countdownLoop *loopHandle
	tickLoop      *loopHandle
	closed        bool
}

// NewMatchActorProducer creates a producer for the MatchActor of spec.
func NewMatchActorProducer(engine *bollywood.Engine, cfg utils.Config, spec MatchSpec, deps MatchDeps) bollywood.Producer {
	return func() bollywood.Actor {
		rng := deps.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		now := deps.Now
		if now == nil {
			now = time.Now
		}
		recorder := deps.Recorder
		if recorder == nil {
			recorder = NopRecorder{}
		}
		return &MatchActor{
			engine:        engine,
			cfg:           cfg,
			spec:          spec,
			recorder:      recorder,
			manager:       deps.ManagerPID,
			log:           deps.Logger.With().Str("component", "match").Str("match_id", spec.MatchID).Logger(),
			rng:           rng,
			now:           now,
			phase:         PhaseInit,
			state:         NewGameState(spec.Player1ID, spec.Player2ID, cfg, rng),
			sockets:       make(map[string]PlayerConn),
			authenticated: make(map[string]bool),
			intents:       make(map[string]Direction),
		}
	}
}

// Receive is the main message handler for the MatchActor.
func (a *MatchActor) Receive(ctx bollywood.Context) {
	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		liveMatches.Inc()
		a.log.Debug().Str("pid", a.selfPID.String()).Msg("match actor started")

	case gameTick:
		a.handleTick()

	case PaddleIntent:
		a.handleIntent(msg)

	case countdownTick:
		a.handleCountdown()

	case PlayerJoinRequest:
		a.handleJoin(ctx, msg)

	case PlayerLeft:
		a.handleLeave(msg)

	case StartMatchRequest:
		a.handleStartRequest(ctx)

	case ForfeitRequest:
		a.handleForfeit(ctx, msg)

	case EndGameRequest:
		a.handleEndGame(ctx)

	case PresenceRequest:
		ctx.Reply(a.presence())

	case bollywood.Stopping:
		a.stopLoops()
		if !a.closed {
			a.closeSockets()
			a.notifyClosed()
			a.closed = true
		}

	case bollywood.Stopped:
		liveMatches.Dec()
		a.log.Debug().Msg("match actor stopped")

	default:
		a.log.Warn().Str("message", typeName(msg)).Msg("match actor received unknown message")
	}
}

// currentIntents returns the directions consumed by the next tick.
func (a *MatchActor) currentIntents() Intents {
	in := Intents{Player1: DirectionStop, Player2: DirectionStop}
	if d, ok := a.intents[a.spec.Player1ID]; ok {
		in.Player1 = d
	}
	if d, ok := a.intents[a.spec.Player2ID]; ok {
		in.Player2 = d
	}
	return in
}

func (a *MatchActor) presence() PresenceResponse {
	users := make([]string, 0, len(a.authenticated))
	for _, id := range []string{a.spec.Player1ID, a.spec.Player2ID} {
		if a.authenticated[id] {
			users = append(users, id)
		}
	}
	return PresenceResponse{MatchID: a.spec.MatchID, Phase: a.phase, Authenticated: users}
}
