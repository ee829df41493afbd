package lifecycle

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/lguibr/pongarena/game"
)

// NoShowOutcome is what a fired deadline did.
type NoShowOutcome string

const (
	NoShowSkipped     NoShowOutcome = "skipped"      // the match was already over
	NoShowBothPresent NoShowOutcome = "both_present" // both players are connected
	NoShowForfeited   NoShowOutcome = "forfeited"
)

// ScheduleNoShow arms the deadline of matchID, replacing any earlier one.
func (c *Controller) ScheduleNoShow(matchID string) {
	at := time.Now().Add(c.cfg.NoShowTimeout)
	job, err := c.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(c.fireNoShow, matchID),
		gocron.WithName("no-show:"+matchID),
	)
	if err != nil {
		c.log.Error().Err(err).Str("match_id", matchID).Msg("scheduling no-show deadline failed")
		return
	}

	c.jobsMu.Lock()
	old, replaced := c.jobs[matchID]
	c.jobs[matchID] = job.ID()
	c.jobsMu.Unlock()
	if replaced {
		_ = c.scheduler.RemoveJob(old)
	}
	c.log.Debug().Str("match_id", matchID).Time("at", at).Msg("no-show deadline scheduled")
}

// CancelNoShow drops the pending deadline of matchID, if any.
func (c *Controller) CancelNoShow(matchID string) {
	c.jobsMu.Lock()
	id, ok := c.jobs[matchID]
	delete(c.jobs, matchID)
	c.jobsMu.Unlock()
	if !ok {
		return
	}
	if err := c.scheduler.RemoveJob(id); err != nil {
		// Already fired or removed.
		c.log.Debug().Err(err).Str("match_id", matchID).Msg("no-show job not removed")
	}
}

// Pending reports whether matchID has an armed deadline.
func (c *Controller) Pending(matchID string) bool {
	c.jobsMu.Lock()
	defer c.jobsMu.Unlock()
	_, ok := c.jobs[matchID]
	return ok
}

func (c *Controller) fireNoShow(matchID string) {
	c.jobsMu.Lock()
	delete(c.jobs, matchID)
	c.jobsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PersistTimeout)
	defer cancel()
	outcome, err := c.ResolveNoShow(ctx, matchID)
	if err != nil {
		c.log.Error().Err(err).Str("match_id", matchID).Msg("no-show deadline failed")
		return
	}
	noShowsResolved.WithLabelValues(string(outcome)).Inc()
}

// ResolveNoShow applies the no-show policy to matchID: with nobody
// connected a random player wins, with one connected that player wins, with
// both connected nothing happens. A live entry ends the game itself so its
// clients receive game_end.
func (c *Controller) ResolveNoShow(ctx context.Context, matchID string) (NoShowOutcome, error) {
	m, err := c.store.FindMatch(ctx, matchID)
	if err != nil {
		return "", err
	}
	if m.Status.Terminal() {
		return NoShowSkipped, nil
	}

	var (
		present []string
		isLive  bool
	)
	live := c.liveMatches()
	if live != nil {
		p, ok, err := live.Presence(matchID)
		if err != nil {
			return "", err
		}
		present, isLive = p.Authenticated, ok
	}

	var winner string
	switch len(present) {
	case 0:
		players := m.Players()
		c.rngMu.Lock()
		winner = players[c.rng.Intn(len(players))]
		c.rngMu.Unlock()
	case 1:
		winner = present[0]
	default:
		c.log.Info().Str("match_id", matchID).Msg("no-show deadline: both players present")
		return NoShowBothPresent, nil
	}

	if isLive {
		ended, err := live.Forfeit(matchID, winner)
		if err != nil {
			return "", err
		}
		if ended {
			c.log.Info().Str("match_id", matchID).Str("winner", winner).Msg("no-show forfeit applied to live match")
			return NoShowForfeited, nil
		}
	}

	// Not live, or the entry went away under us: record directly.
	err = c.RecordResult(ctx, game.Result{
		MatchID:      matchID,
		Player1:      game.PlayerState{UserID: m.Player1ID},
		Player2:      game.PlayerState{UserID: m.Player2ID},
		WinnerID:     winner,
		Disconnected: true,
	})
	if err != nil {
		return "", err
	}
	c.log.Info().Str("match_id", matchID).Str("winner", winner).Int("present", len(present)).Msg("no-show forfeit recorded")
	return NoShowForfeited, nil
}

var _ game.Recorder = (*Controller)(nil)
