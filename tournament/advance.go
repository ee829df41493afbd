package tournament

import (
	"context"

	"github.com/lguibr/pongarena/store"
	"github.com/lguibr/pongarena/utils"
)

// winnerOf picks the winner of a finished game: the persisted winner flag,
// else the strictly higher score.
func winnerOf(m *store.Match) string {
	if id := m.WinnerID(); id != "" {
		return id
	}
	switch {
	case m.Player1Score > m.Player2Score:
		return m.Player1ID
	case m.Player2Score > m.Player1Score:
		return m.Player2ID
	}
	return ""
}

// AdvanceOnCompletion moves the winner of a completed tournament game into
// the next slot. Games outside a tournament are ignored, and a slot that is
// already complete is left alone.
func (e *Engine) AdvanceOnCompletion(ctx context.Context, matchID string) error {
	m, err := e.store.FindMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if m.TournamentID == nil || m.TournamentMatchID == nil {
		return nil
	}

	unlock := e.locks.Lock(*m.TournamentID)
	defer unlock()

	var created []string
	err = e.store.Transaction(ctx, func(tx *store.Store) error {
		m, err := tx.FindMatch(ctx, matchID)
		if err != nil {
			return err
		}
		slot, err := tx.FindTournamentMatch(ctx, *m.TournamentMatchID)
		if err != nil {
			return err
		}
		if slot.Status == store.SlotCompleted {
			return nil
		}
		if !m.Status.Terminal() {
			return utils.NewStateError(utils.CodeMatchInvalidStatusTransition, "match %s is still %s", m.ID, m.Status)
		}

		winner := ""
		if m.Status == store.MatchCompleted {
			winner = winnerOf(m)
		}
		if winner == "" {
			return utils.NewStateError(utils.CodeTournamentMatchNoWinner, "match %s has no winner", m.ID)
		}
		if !slot.HasPlayer(winner) {
			return utils.NewStateError(utils.CodeTournamentMatchInvalidWinner, "winner %s is not seeded in slot %s", winner, slot.ID)
		}

		if err := e.completeSlot(ctx, tx, slot, winner); err != nil {
			return err
		}
		created, err = e.settle(ctx, tx, slot.TournamentID)
		return err
	})
	if err != nil {
		return err
	}

	e.schedule(created)
	return nil
}

// CompleteTournamentMatch resolves a slot by hand, for ties and slots whose
// game was abandoned. A linked game that is still open is completed with the
// same winner.
func (e *Engine) CompleteTournamentMatch(ctx context.Context, slotID, winnerID string) (*store.TournamentMatch, error) {
	slot, err := e.store.FindTournamentMatch(ctx, slotID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(slot.TournamentID)
	defer unlock()

	var created []string
	err = e.store.Transaction(ctx, func(tx *store.Store) error {
		slot, err = tx.FindTournamentMatch(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.Status == store.SlotCompleted {
			return utils.NewStateError(utils.CodeMatchAlreadyComplete, "tournament match %s is already complete", slotID)
		}
		if !slot.HasPlayer(winnerID) {
			return utils.NewStateError(utils.CodeTournamentMatchInvalidWinner, "user %s is not seeded in slot %s", winnerID, slotID)
		}

		if slot.MatchID != nil {
			m, err := tx.FindMatch(ctx, *slot.MatchID)
			if err != nil {
				return err
			}
			if !m.Status.Terminal() {
				_, err := tx.CompleteMatch(ctx, store.MatchResult{
					MatchID:      m.ID,
					Player1Score: m.Player1Score,
					Player2Score: m.Player2Score,
					WinnerID:     winnerID,
				})
				if err != nil {
					return err
				}
			}
		}

		if err := e.completeSlot(ctx, tx, slot, winnerID); err != nil {
			return err
		}
		created, err = e.settle(ctx, tx, slot.TournamentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("slot_id", slotID).Str("winner", winnerID).Msg("tournament match completed manually")
	e.schedule(created)
	return slot, nil
}

// StartTournamentMatch creates the game match of a seeded slot that has none.
func (e *Engine) StartTournamentMatch(ctx context.Context, slotID string) (*store.Match, error) {
	slot, err := e.store.FindTournamentMatch(ctx, slotID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(slot.TournamentID)
	defer unlock()

	var m *store.Match
	err = e.store.Transaction(ctx, func(tx *store.Store) error {
		slot, err := tx.FindTournamentMatch(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.MatchID != nil {
			return utils.NewResourceError(utils.CodeMatchAlreadyExists, "tournament match %s already has match %s", slotID, *slot.MatchID)
		}
		if slot.Status == store.SlotCompleted {
			return utils.NewStateError(utils.CodeMatchAlreadyComplete, "tournament match %s is already complete", slotID)
		}
		if len(slot.Players()) != 2 {
			return utils.NewStateError(utils.CodeMatchNotReady, "tournament match %s needs two seeded players", slotID)
		}
		m, err = e.createGameMatch(ctx, tx, slot)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.schedule([]string{m.ID})
	return m, nil
}
