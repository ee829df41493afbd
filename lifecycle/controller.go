// Package lifecycle persists match transitions and enforces the no-show policy.
package lifecycle

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/lguibr/pongarena/archive"
	"github.com/lguibr/pongarena/game"
	"github.com/lguibr/pongarena/store"
	"github.com/lguibr/pongarena/utils"
)

var noShowsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pongarena_no_shows_total",
	Help: "No-show deadlines that fired, by outcome.",
}, []string{"outcome"})

// LiveMatches is the view of the session table the controller needs.
type LiveMatches interface {
	Presence(matchID string) (game.PresenceResponse, bool, error)
	Forfeit(matchID, winnerID string) (bool, error)
	EndGame(matchID string) (game.EndGameAck, bool, error)
	StartMatch(matchID string) error
}

// Advancer propagates a completed game into its tournament.
type Advancer interface {
	AdvanceOnCompletion(ctx context.Context, matchID string) error
}

// Controller implements game.Recorder and tournament.DeadlineScheduler.
type Controller struct {
	store     *store.Store
	cfg       utils.Config
	log       zerolog.Logger
	scheduler gocron.Scheduler
	archiver  archive.Archiver

	advancerMu sync.RWMutex
	advancer   Advancer

	liveMu sync.RWMutex
	live   LiveMatches

	jobsMu sync.Mutex
	jobs   map[string]uuid.UUID

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Controller)

func WithArchiver(a archive.Archiver) Option {
	return func(c *Controller) { c.archiver = a }
}

func WithAdvancer(a Advancer) Option {
	return func(c *Controller) { c.advancer = a }
}

// WithRand injects the source used to pick a winner when nobody showed up.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

// NewController starts the deadline scheduler. Call Shutdown to stop it.
func NewController(st *store.Store, cfg utils.Config, logger zerolog.Logger, opts ...Option) (*Controller, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("lifecycle: scheduler: %w", err)
	}
	c := &Controller{
		store:     st,
		cfg:       cfg,
		log:       logger.With().Str("component", "lifecycle").Logger(),
		scheduler: sched,
		archiver:  archive.Nop{},
		jobs:      make(map[string]uuid.UUID),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	sched.Start()
	return c, nil
}

// AttachRegistry wires the live session table. The registry is built with
// the controller as its recorder, so it is attached afterwards.
func (c *Controller) AttachRegistry(live LiveMatches) {
	c.liveMu.Lock()
	c.live = live
	c.liveMu.Unlock()
}

// SetAdvancer wires the tournament engine after construction.
func (c *Controller) SetAdvancer(a Advancer) {
	c.advancerMu.Lock()
	c.advancer = a
	c.advancerMu.Unlock()
}

func (c *Controller) liveMatches() LiveMatches {
	c.liveMu.RLock()
	defer c.liveMu.RUnlock()
	return c.live
}

func (c *Controller) tournament() Advancer {
	c.advancerMu.RLock()
	defer c.advancerMu.RUnlock()
	return c.advancer
}

// Shutdown stops the scheduler; pending deadlines are dropped.
func (c *Controller) Shutdown() error {
	if err := c.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("lifecycle: scheduler shutdown: %w", err)
	}
	return nil
}

// MarkInProgress persists PENDING -> IN_PROGRESS. A match already in
// progress (a restarted entry) is accepted.
func (c *Controller) MarkInProgress(ctx context.Context, matchID string) error {
	err := c.store.UpdateMatchStatus(ctx, matchID, store.MatchInProgress)
	if err == nil || !utils.IsCode(err, utils.CodeMatchInvalidStatusTransition) {
		return err
	}
	m, ferr := c.store.FindMatch(ctx, matchID)
	if ferr != nil {
		return ferr
	}
	switch {
	case m.Status == store.MatchInProgress:
		return nil
	case m.Status.Terminal():
		return utils.NewStateError(utils.CodeMatchAlreadyComplete, "match %s is %s", matchID, m.Status)
	}
	return err
}

// RecordResult persists the end of a match. Recording the same match twice
// is a no-op.
func (c *Controller) RecordResult(ctx context.Context, res game.Result) error {
	c.CancelNoShow(res.MatchID)

	var (
		applied bool
		err     error
	)
	if res.Abandoned {
		applied, err = c.store.AbandonMatch(ctx, res.MatchID)
	} else {
		applied, err = c.store.CompleteMatch(ctx, store.MatchResult{
			MatchID:      res.MatchID,
			Player1Score: res.Player1.Score,
			Player2Score: res.Player2.Score,
			WinnerID:     res.WinnerID,
			Disconnected: res.Disconnected,
		})
	}
	if err != nil {
		return fmt.Errorf("record result of %s: %w", res.MatchID, err)
	}
	if !applied {
		c.log.Debug().Str("match_id", res.MatchID).Msg("result already recorded")
		return nil
	}

	c.log.Info().Str("match_id", res.MatchID).Str("winner", res.WinnerID).
		Bool("abandoned", res.Abandoned).Bool("disconnected", res.Disconnected).Msg("result recorded")
	return c.afterTerminal(ctx, res.MatchID, !res.Abandoned)
}

// afterTerminal advances the tournament and archives the summary.
func (c *Controller) afterTerminal(ctx context.Context, matchID string, completed bool) error {
	var advanceErr error
	if adv := c.tournament(); adv != nil && completed {
		if err := adv.AdvanceOnCompletion(ctx, matchID); err != nil {
			c.log.Warn().Err(err).Str("match_id", matchID).Msg("tournament advance failed")
			advanceErr = fmt.Errorf("advance tournament for %s: %w", matchID, err)
		}
	}

	m, err := c.store.FindMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if err := c.archiver.Archive(ctx, summaryOf(m)); err != nil {
		c.log.Warn().Err(err).Str("match_id", matchID).Msg("archiving match failed")
	}
	return advanceErr
}

func summaryOf(m *store.Match) archive.MatchSummary {
	s := archive.MatchSummary{
		MatchID:      m.ID,
		Status:       string(m.Status),
		Player1ID:    m.Player1ID,
		Player2ID:    m.Player2ID,
		Player1Score: m.Player1Score,
		Player2Score: m.Player2Score,
		WinnerID:     m.WinnerID(),
		Disconnected: m.Disconnected,
		EndedAt:      time.Now().UTC(),
	}
	if m.TournamentID != nil {
		s.TournamentID = *m.TournamentID
	}
	if m.EndedAt != nil {
		s.EndedAt = m.EndedAt.UTC()
	}
	return s
}

// CreateChallenge opens an ad-hoc match between two users and arms its
// no-show deadline.
func (c *Controller) CreateChallenge(ctx context.Context, challengerID, opponentID string) (*store.Match, error) {
	if opponentID == "" || opponentID == challengerID {
		return nil, utils.NewStateError(utils.CodeInvalidRequest, "a challenge needs two different players")
	}
	m := &store.Match{Player1ID: challengerID, Player2ID: opponentID}
	if err := c.store.CreateMatch(ctx, m); err != nil {
		return nil, err
	}
	c.ScheduleNoShow(m.ID)
	c.log.Info().Str("match_id", m.ID).Str("player1", challengerID).Str("player2", opponentID).Msg("challenge created")
	return m, nil
}

// StartMatch asks the live entry of matchID to begin its countdown.
func (c *Controller) StartMatch(ctx context.Context, matchID string) error {
	m, err := c.store.FindMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if m.Status.Terminal() {
		return utils.NewStateError(utils.CodeMatchAlreadyComplete, "match %s is %s", matchID, m.Status)
	}
	live := c.liveMatches()
	if live == nil {
		return utils.NewNotFoundError(utils.CodeMatchNotLive, "match %s is not live", matchID)
	}
	return live.StartMatch(matchID)
}

// EndGame ends matchID now. A live game is won by the leader or abandoned on
// a tie; a match nobody joined is abandoned; a finished match is returned as is.
func (c *Controller) EndGame(ctx context.Context, matchID string) (*store.Match, error) {
	m, err := c.store.FindMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() {
		return m, nil
	}

	if live := c.liveMatches(); live != nil {
		ack, isLive, err := live.EndGame(matchID)
		if err != nil {
			return nil, err
		}
		if isLive {
			c.log.Info().Str("match_id", matchID).Str("winner", ack.WinnerID).Bool("abandoned", ack.Abandoned).Msg("live match ended")
			return c.store.FindMatch(ctx, matchID)
		}
	}

	if err := c.RecordResult(ctx, game.Result{MatchID: matchID, Abandoned: true}); err != nil {
		return nil, err
	}
	return c.store.FindMatch(ctx, matchID)
}
