package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lguibr/pongarena/utils"
)

// MatchResult is the final outcome of a game as written by the lifecycle.
type MatchResult struct {
	MatchID      string
	Player1Score int
	Player2Score int
	WinnerID     string
	Disconnected bool
}

// CreateMatch inserts a match, assigning an id and PENDING status when unset.
func (s *Store) CreateMatch(ctx context.Context, m *Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = MatchPending
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// FindMatch loads a match by id.
func (s *Store) FindMatch(ctx context.Context, id string) (*Match, error) {
	var m Match
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.NewNotFoundError(utils.CodeMatchNotFound, "match %s not found", id)
		}
		return nil, fmt.Errorf("find match %s: %w", id, err)
	}
	return &m, nil
}

// UpdateMatchStatus moves a match to status `to` when the transition is legal
// from its current status. The check and the write are a single statement.
func (s *Store) UpdateMatchStatus(ctx context.Context, id string, to MatchStatus) error {
	from, ok := matchTransitions[to]
	if !ok {
		return utils.NewStateError(utils.CodeMatchInvalidStatusTransition, "no transition leads to %s", to)
	}

	now := time.Now()
	updates := map[string]interface{}{"status": to}
	switch to {
	case MatchInProgress:
		updates["started_at"] = now
	case MatchCompleted, MatchAbandoned:
		updates["ended_at"] = now
	}

	res := s.db.WithContext(ctx).Model(&Match{}).
		Where("id = ? AND status IN ?", id, statusStrings(from)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update match %s status: %w", id, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	current, err := s.FindMatch(ctx, id)
	if err != nil {
		return err
	}
	return utils.NewStateError(utils.CodeMatchInvalidStatusTransition,
		"match %s cannot move from %s to %s", id, current.Status, to)
}

// UpdatePlayerResult writes one player's score and winner flag.
func (s *Store) UpdatePlayerResult(ctx context.Context, matchID, userID string, score int, winner bool) error {
	m, err := s.FindMatch(ctx, matchID)
	if err != nil {
		return err
	}
	var updates map[string]interface{}
	switch userID {
	case m.Player1ID:
		updates = map[string]interface{}{"player1_score": score, "player1_winner": winner}
	case m.Player2ID:
		updates = map[string]interface{}{"player2_score": score, "player2_winner": winner}
	default:
		return utils.NewAuthError(utils.CodeMatchNotAuthorized, "user %s is not a player of match %s", userID, matchID)
	}
	if err := s.db.WithContext(ctx).Model(&Match{}).Where("id = ?", matchID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update player result: %w", err)
	}
	return nil
}

// CompleteMatch records a final result atomically: status, both player
// results and the winner/loser stats. A PENDING match is first stepped
// through IN_PROGRESS. applied is false when the match was already terminal,
// in which case nothing is written.
func (s *Store) CompleteMatch(ctx context.Context, result MatchResult) (applied bool, err error) {
	err = s.Transaction(ctx, func(tx *Store) error {
		m, err := tx.FindMatch(ctx, result.MatchID)
		if err != nil {
			return err
		}
		if m.Status.Terminal() {
			return nil
		}
		if result.WinnerID != "" && !m.HasPlayer(result.WinnerID) {
			return utils.NewAuthError(utils.CodeMatchNotAuthorized, "winner %s is not a player of match %s", result.WinnerID, m.ID)
		}
		if m.Status == MatchPending {
			if err := tx.UpdateMatchStatus(ctx, m.ID, MatchInProgress); err != nil {
				return err
			}
		}

		res := tx.db.WithContext(ctx).Model(&Match{}).
			Where("id = ? AND status = ?", m.ID, MatchInProgress).
			Updates(map[string]interface{}{
				"status":         MatchCompleted,
				"ended_at":       time.Now(),
				"player1_score":  result.Player1Score,
				"player2_score":  result.Player2Score,
				"player1_winner": result.WinnerID != "" && result.WinnerID == m.Player1ID,
				"player2_winner": result.WinnerID != "" && result.WinnerID == m.Player2ID,
				"disconnected":   result.Disconnected,
			})
		if res.Error != nil {
			return fmt.Errorf("complete match %s: %w", m.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		if result.WinnerID == "" {
			return nil
		}
		loserID := m.Player1ID
		if result.WinnerID == m.Player1ID {
			loserID = m.Player2ID
		}
		if err := tx.IncrementWins(ctx, result.WinnerID); err != nil {
			return err
		}
		return tx.IncrementLosses(ctx, loserID)
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// AbandonMatch marks a non-terminal match ABANDONED. A PENDING match is first
// stepped through IN_PROGRESS. applied is false when the match was already
// terminal.
func (s *Store) AbandonMatch(ctx context.Context, id string) (applied bool, err error) {
	err = s.Transaction(ctx, func(tx *Store) error {
		m, err := tx.FindMatch(ctx, id)
		if err != nil {
			return err
		}
		if m.Status.Terminal() {
			return nil
		}
		if m.Status == MatchPending {
			if err := tx.UpdateMatchStatus(ctx, id, MatchInProgress); err != nil {
				return err
			}
		}
		if err := tx.UpdateMatchStatus(ctx, id, MatchAbandoned); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// ListMatchesByStatus returns matches in any of the given statuses, oldest first.
func (s *Store) ListMatchesByStatus(ctx context.Context, statuses ...MatchStatus) ([]Match, error) {
	var ms []Match
	err := s.db.WithContext(ctx).
		Where("status IN ?", statusStrings(statuses)).
		Order("created_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return ms, nil
}

// ListTournamentGames returns the game matches played for a tournament.
func (s *Store) ListTournamentGames(ctx context.Context, tournamentID string) ([]Match, error) {
	var ms []Match
	err := s.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("round ASC, created_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("list tournament games: %w", err)
	}
	return ms, nil
}

// IncrementWins adds one win to userID, creating the stats row if needed.
func (s *Store) IncrementWins(ctx context.Context, userID string) error {
	return s.incrementStat(ctx, userID, "wins")
}

// IncrementLosses adds one loss to userID, creating the stats row if needed.
func (s *Store) IncrementLosses(ctx context.Context, userID string) error {
	return s.incrementStat(ctx, userID, "losses")
}

func (s *Store) incrementStat(ctx context.Context, userID, column string) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&User{}).Where("id = ?", userID).UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("increment %s for %s: %w", column, userID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	u := User{ID: userID}
	if column == "wins" {
		u.Wins = 1
	} else {
		u.Losses = 1
	}
	if err := db.Create(&u).Error; err != nil {
		return fmt.Errorf("create stats for %s: %w", userID, err)
	}
	return nil
}

// FindUser returns the stats row for userID, zero-valued when none exists yet.
func (s *Store) FindUser(ctx context.Context, userID string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error
	if isNotFound(err) {
		return &User{ID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", userID, err)
	}
	return &u, nil
}
