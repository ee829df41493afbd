package game

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/lguibr/pongarena/bollywood"
	"github.com/lguibr/pongarena/utils"
)

// Registry is the public API of the session table. It hides the manager and
// match actors behind request/response calls.
type Registry struct {
	engine     *bollywood.Engine
	managerPID *bollywood.PID
	timeout    time.Duration
	log        zerolog.Logger
}

// NewRegistry spawns the match manager on engine.
func NewRegistry(engine *bollywood.Engine, cfg utils.Config, recorder Recorder, logger zerolog.Logger) (*Registry, error) {
	pid := engine.Spawn(bollywood.NewProps(NewMatchManagerProducer(engine, cfg, recorder, logger)))
	if pid == nil {
		return nil, bollywood.ErrEngineStopping
	}
	timeout := cfg.AskTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Registry{
		engine:     engine,
		managerPID: pid,
		timeout:    timeout,
		log:        logger.With().Str("component", "registry").Logger(),
	}, nil
}

// Session is one player's handle on a live match.
type Session struct {
	MatchID string
	UserID  string
	pid     *bollywood.PID
	engine  *bollywood.Engine
}

// Move forwards a paddle intent to the match.
func (s *Session) Move(dir Direction) {
	s.engine.Send(s.pid, PaddleIntent{UserID: s.UserID, Direction: dir}, nil)
}

// Leave deregisters conn from the match.
func (s *Session) Leave(conn PlayerConn) {
	s.engine.Send(s.pid, PlayerLeft{UserID: s.UserID, Conn: conn}, nil)
}

// Join registers an authenticated connection, creating the match entry on
// first use. The match starts once both players have joined.
func (r *Registry) Join(spec MatchSpec, userID string, conn PlayerConn) (*Session, error) {
	var lastErr error
	// A match actor that is tearing down may still be in the table; retry
	// once it has been released.
	for attempt := 0; attempt < 3; attempt++ {
		reply, err := r.engine.Ask(r.managerPID, EnsureMatchRequest{Spec: spec}, r.timeout)
		if err != nil {
			return nil, err
		}
		pid := reply.(*bollywood.PID)

		_, err = r.engine.Ask(pid, PlayerJoinRequest{UserID: userID, Conn: conn}, r.timeout)
		if err == nil {
			return &Session{MatchID: spec.MatchID, UserID: userID, pid: pid, engine: r.engine}, nil
		}
		if !errors.Is(err, bollywood.ErrActorNotFound) && !errors.Is(err, bollywood.ErrActorStopped) {
			return nil, err
		}
		lastErr = err
		time.Sleep(10 * time.Millisecond)
	}
	return nil, lastErr
}

func (r *Registry) lookup(matchID string) (*bollywood.PID, bool, error) {
	reply, err := r.engine.Ask(r.managerPID, LookupMatchRequest{MatchID: matchID}, r.timeout)
	if err != nil {
		return nil, false, err
	}
	resp := reply.(LookupMatchResponse)
	return resp.PID, resp.Found, nil
}

// askMatch sends msg to the live match; live is false when no entry exists
// or it vanished before answering.
func (r *Registry) askMatch(matchID string, msg interface{}) (reply interface{}, live bool, err error) {
	pid, found, err := r.lookup(matchID)
	if err != nil || !found {
		return nil, false, err
	}
	reply, err = r.engine.Ask(pid, msg, r.timeout)
	if errors.Is(err, bollywood.ErrActorNotFound) || errors.Is(err, bollywood.ErrActorStopped) {
		return nil, false, nil
	}
	return reply, true, err
}

// StartMatch begins the countdown of a live match whose players are both
// authenticated.
func (r *Registry) StartMatch(matchID string) error {
	_, live, err := r.askMatch(matchID, StartMatchRequest{})
	if err != nil {
		return err
	}
	if !live {
		return utils.NewNotFoundError(utils.CodeMatchNotLive, "match %s is not live", matchID)
	}
	return nil
}

// EndGame stops a live match now. live is false when there was nothing to end.
func (r *Registry) EndGame(matchID string) (ack EndGameAck, live bool, err error) {
	reply, live, err := r.askMatch(matchID, EndGameRequest{})
	if err != nil || !live {
		return EndGameAck{}, live, err
	}
	return reply.(EndGameAck), true, nil
}

// Forfeit ends a live match with winnerID as winner. ended is false when the
// match was not live or already over.
func (r *Registry) Forfeit(matchID, winnerID string) (ended bool, err error) {
	reply, live, err := r.askMatch(matchID, ForfeitRequest{WinnerID: winnerID})
	if err != nil || !live {
		return false, err
	}
	return reply.(bool), nil
}

// Presence reports who is authenticated on a live match.
func (r *Registry) Presence(matchID string) (PresenceResponse, bool, error) {
	reply, live, err := r.askMatch(matchID, PresenceRequest{})
	if err != nil || !live {
		return PresenceResponse{MatchID: matchID}, live, err
	}
	return reply.(PresenceResponse), true, nil
}

// LiveMatches lists the ids of all matches with a running entry.
func (r *Registry) LiveMatches() ([]string, error) {
	reply, err := r.engine.Ask(r.managerPID, ListMatchesRequest{}, r.timeout)
	if err != nil {
		return nil, err
	}
	return reply.([]string), nil
}
