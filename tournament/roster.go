package tournament

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/samber/lo"

	"github.com/lguibr/pongarena/store"
	"github.com/lguibr/pongarena/utils"
)

// Create opens a PENDING tournament. The creator takes the first seat.
func (e *Engine) Create(ctx context.Context, name string, typ store.TournamentType, creatorID string) (*store.Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, utils.NewStateError(utils.CodeInvalidRequest, "tournament name is required")
	}
	if !typ.Valid() {
		return nil, utils.NewStateError(utils.CodeInvalidRequest, "unknown tournament type %q", typ)
	}

	id := uuid.NewString()
	t := &store.Tournament{
		ID:        id,
		Name:      name,
		Slug:      slug.Make(name) + "-" + id[:8],
		Type:      typ,
		Status:    store.TournamentPending,
		CreatorID: creatorID,
	}
	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateTournament(ctx, t); err != nil {
			return err
		}
		if creatorID == "" {
			return nil
		}
		return tx.AddParticipant(ctx, id, creatorID, 0)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("tournament_id", id).Str("slug", t.Slug).Str("type", string(typ)).Msg("tournament created")
	return e.store.FindTournament(ctx, id)
}

// Join adds userID to the roster. Joining twice is a no-op. The bracket is
// created in the same transaction once the roster reaches capacity.
func (e *Engine) Join(ctx context.Context, tournamentID, userID string) (*store.Tournament, error) {
	unlock := e.locks.Lock(tournamentID)
	defer unlock()

	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		t, err := tx.LockTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		if lo.Contains(t.ParticipantIDs(), userID) {
			return nil
		}
		if t.Status != store.TournamentPending {
			return utils.NewStateError(utils.CodeTournamentAlreadyStarted, "tournament %s is %s", t.ID, t.Status)
		}
		capacity := t.Type.Capacity()
		if len(t.Participants) >= capacity {
			return utils.NewStateError(utils.CodeTournamentFull, "tournament %s is full", t.ID)
		}

		seat := 0
		if len(t.Participants) > 0 {
			seat = lo.MaxBy(t.Participants, func(a, b store.TournamentParticipant) bool { return a.Seat > b.Seat }).Seat + 1
		}
		if err := tx.AddParticipant(ctx, t.ID, userID, seat); err != nil {
			return err
		}
		e.log.Info().Str("tournament_id", t.ID).Str("user_id", userID).Int("seat", seat).Msg("participant joined")

		if len(t.Participants)+1 < capacity {
			return nil
		}
		t, err = tx.FindTournament(ctx, t.ID)
		if err != nil {
			return err
		}
		return e.createBracketTx(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}
	return e.store.FindTournament(ctx, tournamentID)
}

// Leave removes userID from the roster of a PENDING tournament.
func (e *Engine) Leave(ctx context.Context, tournamentID, userID string) error {
	unlock := e.locks.Lock(tournamentID)
	defer unlock()

	return e.store.Transaction(ctx, func(tx *store.Store) error {
		t, err := tx.LockTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		if t.Status != store.TournamentPending {
			return utils.NewStateError(utils.CodeTournamentAlreadyStarted, "tournament %s is %s", t.ID, t.Status)
		}
		removed, err := tx.RemoveParticipant(ctx, t.ID, userID)
		if err != nil {
			return err
		}
		if removed {
			e.log.Info().Str("tournament_id", t.ID).Str("user_id", userID).Msg("participant left")
		}
		return nil
	})
}
