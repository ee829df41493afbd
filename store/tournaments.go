package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lguibr/pongarena/utils"
)

// CreateTournament inserts a PENDING tournament.
func (s *Store) CreateTournament(ctx context.Context, t *Tournament) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TournamentPending
	}
	if err := s.db.WithContext(ctx).Omit("Participants").Create(t).Error; err != nil {
		return fmt.Errorf("create tournament: %w", err)
	}
	return nil
}

// FindTournament loads a tournament with its participants in join order.
func (s *Store) FindTournament(ctx context.Context, id string) (*Tournament, error) {
	var t Tournament
	err := s.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("seat ASC") }).
		First(&t, "id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, utils.NewNotFoundError(utils.CodeTournamentNotFound, "tournament %s not found", id)
		}
		return nil, fmt.Errorf("find tournament %s: %w", id, err)
	}
	return &t, nil
}

// LockTournament loads a tournament for update. On sqlite the single
// connection already serializes writers.
func (s *Store) LockTournament(ctx context.Context, id string) (*Tournament, error) {
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("SELECT id FROM tournaments WHERE id = ? FOR UPDATE", id).Error; err != nil {
			return nil, fmt.Errorf("lock tournament %s: %w", id, err)
		}
	}
	return s.FindTournament(ctx, id)
}

// AddParticipant appends userID to the roster at the given seat.
func (s *Store) AddParticipant(ctx context.Context, tournamentID, userID string, seat int) error {
	p := TournamentParticipant{TournamentID: tournamentID, UserID: userID, Seat: seat}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return fmt.Errorf("add participant %s: %w", userID, err)
	}
	return nil
}

// RemoveParticipant deletes userID from the roster. removed is false when the
// user was not on it.
func (s *Store) RemoveParticipant(ctx context.Context, tournamentID, userID string) (removed bool, err error) {
	res := s.db.WithContext(ctx).
		Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
		Delete(&TournamentParticipant{})
	if res.Error != nil {
		return false, fmt.Errorf("remove participant %s: %w", userID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UpdateTournamentStatus sets the status and stamps start/end times.
func (s *Store) UpdateTournamentStatus(ctx context.Context, id string, status TournamentStatus) error {
	updates := map[string]interface{}{"status": status}
	switch status {
	case TournamentInProgress:
		updates["started_at"] = time.Now()
	case TournamentCompleted:
		updates["ended_at"] = time.Now()
	}
	res := s.db.WithContext(ctx).Model(&Tournament{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update tournament %s status: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NewNotFoundError(utils.CodeTournamentNotFound, "tournament %s not found", id)
	}
	return nil
}

// CreateTournamentMatch inserts a bracket slot.
func (s *Store) CreateTournamentMatch(ctx context.Context, tm *TournamentMatch) error {
	if tm.ID == "" {
		tm.ID = uuid.NewString()
	}
	if tm.Status == "" {
		tm.Status = SlotPending
	}
	if err := s.db.WithContext(ctx).Create(tm).Error; err != nil {
		return fmt.Errorf("create tournament match: %w", err)
	}
	return nil
}

// SaveTournamentMatch writes every column of a bracket slot.
func (s *Store) SaveTournamentMatch(ctx context.Context, tm *TournamentMatch) error {
	if err := s.db.WithContext(ctx).Save(tm).Error; err != nil {
		return fmt.Errorf("save tournament match %s: %w", tm.ID, err)
	}
	return nil
}

// FindTournamentMatch loads a bracket slot by id.
func (s *Store) FindTournamentMatch(ctx context.Context, id string) (*TournamentMatch, error) {
	var tm TournamentMatch
	if err := s.db.WithContext(ctx).First(&tm, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.NewNotFoundError(utils.CodeTournamentMatchNotFound, "tournament match %s not found", id)
		}
		return nil, fmt.Errorf("find tournament match %s: %w", id, err)
	}
	return &tm, nil
}

// ListTournamentMatches returns every slot of a tournament ordered by round and position.
func (s *Store) ListTournamentMatches(ctx context.Context, tournamentID string) ([]TournamentMatch, error) {
	var tms []TournamentMatch
	err := s.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("round ASC, match_order ASC").
		Find(&tms).Error
	if err != nil {
		return nil, fmt.Errorf("list tournament matches: %w", err)
	}
	return tms, nil
}
