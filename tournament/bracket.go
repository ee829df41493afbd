package tournament

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/lguibr/pongarena/store"
	"github.com/lguibr/pongarena/utils"
)

// Round is one column of the bracket.
type Round struct {
	Round   int                     `json:"round"`
	Matches []store.TournamentMatch `json:"matches"`
}

// roundSizes returns the slot count of every round, first round first.
// Each round pairs consecutive slots of the previous one. For the 1 and 2 slot
// first rounds of TWO_PLAYER and FOUR_PLAYER this equals the power-of-two layout.
func roundSizes(firstRound int) []int {
	sizes := []int{firstRound}
	for n := firstRound; n > 1; {
		n = (n + 1) / 2
		sizes = append(sizes, n)
	}
	return sizes
}

// CreateBracket shuffles the roster into first-round pairs, lays out every
// round with forward links and starts the tournament.
func (e *Engine) CreateBracket(ctx context.Context, tournamentID string) ([]Round, error) {
	unlock := e.locks.Lock(tournamentID)
	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		t, err := tx.LockTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		return e.createBracketTx(ctx, tx, t)
	})
	unlock()
	if err != nil {
		return nil, err
	}
	return e.Bracket(ctx, tournamentID)
}

// createBracketTx does the work of CreateBracket inside tx. First-round games
// get no no-show deadline.
func (e *Engine) createBracketTx(ctx context.Context, tx *store.Store, t *store.Tournament) error {
	if t.Status != store.TournamentPending {
		return utils.NewStateError(utils.CodeTournamentAlreadyStarted, "tournament %s is %s", t.ID, t.Status)
	}
	ids := t.ParticipantIDs()
	if len(ids) < 2 {
		return utils.NewStateError(utils.CodeTournamentNotEnoughPlayers, "tournament %s has %d participants", t.ID, len(ids))
	}

	e.shuffle(ids)
	pairs := lo.Chunk(ids, 2)
	sizes := roundSizes(len(pairs))

	// Last round first so every slot knows the id it feeds into.
	var next []store.TournamentMatch
	for r := len(sizes); r >= 1; r-- {
		slots := make([]store.TournamentMatch, sizes[r-1])
		for i := range slots {
			slot := store.TournamentMatch{
				ID:           uuid.NewString(),
				TournamentID: t.ID,
				Round:        r,
				MatchOrder:   i,
				Status:       store.SlotPending,
			}
			if next != nil {
				slot.NextMatchID = lo.ToPtr(next[i/2].ID)
			}
			if r == 1 {
				pair := pairs[i]
				slot.Player1ID = lo.ToPtr(pair[0])
				if len(pair) == 2 {
					slot.Player2ID = lo.ToPtr(pair[1])
				}
			}
			if err := tx.CreateTournamentMatch(ctx, &slot); err != nil {
				return err
			}
			slots[i] = slot
		}
		next = slots
	}

	if err := tx.UpdateTournamentStatus(ctx, t.ID, store.TournamentInProgress); err != nil {
		return err
	}
	if _, err := e.settle(ctx, tx, t.ID); err != nil {
		return err
	}
	e.log.Info().Str("tournament_id", t.ID).Int("participants", len(ids)).Int("rounds", len(sizes)).Msg("bracket created")
	return nil
}

// settle creates game matches for every ready slot and resolves byes until
// nothing changes. It returns the ids of the game matches it created.
func (e *Engine) settle(ctx context.Context, tx *store.Store, tournamentID string) ([]string, error) {
	var created []string
	for {
		slots, err := tx.ListTournamentMatches(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		byRound := lo.GroupBy(slots, func(s store.TournamentMatch) int { return s.Round })

		progressed := false
		for i := range slots {
			slot := &slots[i]
			if slot.Status == store.SlotCompleted || slot.MatchID != nil {
				continue
			}
			if slot.Round > 1 && !roundComplete(byRound[slot.Round-1]) {
				continue
			}
			switch players := slot.Players(); len(players) {
			case 2:
				m, err := e.createGameMatch(ctx, tx, slot)
				if err != nil {
					return nil, err
				}
				created = append(created, m.ID)
			case 1:
				if err := e.completeSlot(ctx, tx, slot, players[0]); err != nil {
					return nil, err
				}
				e.log.Debug().Str("slot_id", slot.ID).Str("player", players[0]).Msg("bye")
				progressed = true
			}
			if progressed {
				// The snapshot is stale once a winner moved forward.
				break
			}
		}
		if !progressed {
			return created, nil
		}
	}
}

func roundComplete(slots []store.TournamentMatch) bool {
	return lo.EveryBy(slots, func(s store.TournamentMatch) bool { return s.Status == store.SlotCompleted })
}

// completeSlot records winner on slot and seats them in the linked slot.
// Completing the final completes the tournament.
func (e *Engine) completeSlot(ctx context.Context, tx *store.Store, slot *store.TournamentMatch, winner string) error {
	slot.WinnerID = lo.ToPtr(winner)
	slot.Status = store.SlotCompleted
	if err := tx.SaveTournamentMatch(ctx, slot); err != nil {
		return err
	}

	if slot.NextMatchID == nil {
		if err := tx.UpdateTournamentStatus(ctx, slot.TournamentID, store.TournamentCompleted); err != nil {
			return err
		}
		e.log.Info().Str("tournament_id", slot.TournamentID).Str("winner", winner).Msg("tournament completed")
		return nil
	}

	next, err := tx.FindTournamentMatch(ctx, *slot.NextMatchID)
	if err != nil {
		return err
	}
	// Even feeders fill the first seat, odd feeders the second.
	if slot.MatchOrder%2 == 0 {
		next.Player1ID = lo.ToPtr(winner)
	} else {
		next.Player2ID = lo.ToPtr(winner)
	}
	return tx.SaveTournamentMatch(ctx, next)
}

func (e *Engine) createGameMatch(ctx context.Context, tx *store.Store, slot *store.TournamentMatch) (*store.Match, error) {
	players := slot.Players()
	m := &store.Match{
		TournamentID:      lo.ToPtr(slot.TournamentID),
		TournamentMatchID: lo.ToPtr(slot.ID),
		Round:             slot.Round,
		Player1ID:         players[0],
		Player2ID:         players[1],
	}
	if err := tx.CreateMatch(ctx, m); err != nil {
		return nil, err
	}
	slot.MatchID = lo.ToPtr(m.ID)
	slot.Status = store.SlotInProgress
	if err := tx.SaveTournamentMatch(ctx, slot); err != nil {
		return nil, err
	}
	e.log.Info().Str("tournament_id", slot.TournamentID).Str("slot_id", slot.ID).
		Str("match_id", m.ID).Int("round", slot.Round).Msg("game match created")
	return m, nil
}

// Bracket returns the slots of a tournament grouped by round.
func (e *Engine) Bracket(ctx context.Context, tournamentID string) ([]Round, error) {
	if _, err := e.store.FindTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	slots, err := e.store.ListTournamentMatches(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	grouped := lo.GroupBy(slots, func(s store.TournamentMatch) int { return s.Round })
	numbers := lo.Keys(grouped)
	sort.Ints(numbers)

	rounds := make([]Round, 0, len(numbers))
	for _, n := range numbers {
		rounds = append(rounds, Round{Round: n, Matches: grouped[n]})
	}
	return rounds, nil
}

// Matches returns the game matches played for a tournament.
func (e *Engine) Matches(ctx context.Context, tournamentID string) ([]store.Match, error) {
	if _, err := e.store.FindTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	return e.store.ListTournamentGames(ctx, tournamentID)
}
