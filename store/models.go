package store

import (
	"sort"
	"time"
)

type MatchStatus string

const (
	MatchPending    MatchStatus = "PENDING"
	MatchInProgress MatchStatus = "IN_PROGRESS"
	MatchCompleted  MatchStatus = "COMPLETED"
	MatchAbandoned  MatchStatus = "ABANDONED"
)

// Terminal reports whether no further transition is possible.
func (s MatchStatus) Terminal() bool {
	return s == MatchCompleted || s == MatchAbandoned
}

// matchTransitions lists, for each target status, the statuses it may be reached from.
var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchInProgress: {MatchPending},
	MatchCompleted:  {MatchInProgress},
	MatchAbandoned:  {MatchInProgress},
}

// CanTransition reports whether from -> to is a legal match status change.
func CanTransition(from, to MatchStatus) bool {
	for _, s := range matchTransitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

type TournamentType string

const (
	TwoPlayer  TournamentType = "TWO_PLAYER"
	FourPlayer TournamentType = "FOUR_PLAYER"
)

// Capacity is the number of participants that fills a tournament of this type.
func (t TournamentType) Capacity() int {
	if t == FourPlayer {
		return 4
	}
	return 2
}

// Valid reports whether t is a known tournament type.
func (t TournamentType) Valid() bool {
	return t == TwoPlayer || t == FourPlayer
}

type TournamentStatus string

const (
	TournamentPending    TournamentStatus = "PENDING"
	TournamentInProgress TournamentStatus = "IN_PROGRESS"
	TournamentCompleted  TournamentStatus = "COMPLETED"
)

type SlotStatus string

const (
	SlotPending    SlotStatus = "PENDING"
	SlotInProgress SlotStatus = "IN_PROGRESS"
	SlotCompleted  SlotStatus = "COMPLETED"
)

// Match is one game between two players.
type Match struct {
	ID                string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TournamentID      *string     `gorm:"type:varchar(36);index" json:"tournamentId,omitempty"`
	TournamentMatchID *string     `gorm:"type:varchar(36);index" json:"tournamentMatchId,omitempty"`
	Round             int         `gorm:"not null;default:0" json:"round"`
	Status            MatchStatus `gorm:"type:varchar(20);not null;default:PENDING;index" json:"status"`

	Player1ID     string `gorm:"type:varchar(64);not null" json:"player1Id"`
	Player2ID     string `gorm:"type:varchar(64);not null" json:"player2Id"`
	Player1Score  int    `gorm:"not null;default:0" json:"player1Score"`
	Player2Score  int    `gorm:"not null;default:0" json:"player2Score"`
	Player1Winner bool   `gorm:"not null;default:false" json:"player1Winner"`
	Player2Winner bool   `gorm:"not null;default:false" json:"player2Winner"`
	Disconnected  bool   `gorm:"not null;default:false" json:"disconnected"`

	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// HasPlayer reports whether userID occupies one of the two slots.
func (m *Match) HasPlayer(userID string) bool {
	return userID != "" && (m.Player1ID == userID || m.Player2ID == userID)
}

// Players returns both player ids in slot order.
func (m *Match) Players() [2]string {
	return [2]string{m.Player1ID, m.Player2ID}
}

// WinnerID returns the player carrying the winner flag, or "".
func (m *Match) WinnerID() string {
	switch {
	case m.Player1Winner && !m.Player2Winner:
		return m.Player1ID
	case m.Player2Winner && !m.Player1Winner:
		return m.Player2ID
	}
	return ""
}

// Tournament is a named competition of one or more rounds.
type Tournament struct {
	ID           string                  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string                  `gorm:"type:varchar(120);not null" json:"name"`
	Slug         string                  `gorm:"type:varchar(160);index" json:"slug"`
	Type         TournamentType          `gorm:"type:varchar(20);not null" json:"type"`
	Status       TournamentStatus        `gorm:"type:varchar(20);not null;default:PENDING;index" json:"status"`
	CreatorID    string                  `gorm:"type:varchar(64)" json:"creatorId"`
	Participants []TournamentParticipant `gorm:"foreignKey:TournamentID" json:"participants"`
	StartedAt    *time.Time              `json:"startedAt,omitempty"`
	EndedAt      *time.Time              `json:"endedAt,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

// ParticipantIDs returns user ids in join order.
func (t *Tournament) ParticipantIDs() []string {
	ps := make([]TournamentParticipant, len(t.Participants))
	copy(ps, t.Participants)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Seat < ps[j].Seat })
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.UserID)
	}
	return ids
}

// TournamentParticipant is a roster entry; Seat preserves join order.
type TournamentParticipant struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	TournamentID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_tournament_user" json:"tournamentId"`
	UserID       string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_tournament_user" json:"userId"`
	Seat         int       `gorm:"not null" json:"seat"`
	CreatedAt    time.Time `json:"joinedAt"`
}

// TournamentMatch is one slot of a bracket. MatchID links the game played for it.
type TournamentMatch struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TournamentID string     `gorm:"type:varchar(36);not null;index" json:"tournamentId"`
	Round        int        `gorm:"not null" json:"round"`
	MatchOrder   int        `gorm:"not null" json:"matchOrder"`
	Status       SlotStatus `gorm:"type:varchar(20);not null;default:PENDING" json:"status"`
	NextMatchID  *string    `gorm:"type:varchar(36)" json:"nextMatchId,omitempty"`
	Player1ID    *string    `gorm:"type:varchar(64)" json:"player1Id,omitempty"`
	Player2ID    *string    `gorm:"type:varchar(64)" json:"player2Id,omitempty"`
	WinnerID     *string    `gorm:"type:varchar(64)" json:"winnerId,omitempty"`
	MatchID      *string    `gorm:"type:varchar(36)" json:"matchId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Players returns the seeded player ids, skipping empty slots.
func (tm *TournamentMatch) Players() []string {
	var ids []string
	if tm.Player1ID != nil && *tm.Player1ID != "" {
		ids = append(ids, *tm.Player1ID)
	}
	if tm.Player2ID != nil && *tm.Player2ID != "" {
		ids = append(ids, *tm.Player2ID)
	}
	return ids
}

// HasPlayer reports whether userID is seeded in this slot.
func (tm *TournamentMatch) HasPlayer(userID string) bool {
	for _, id := range tm.Players() {
		if id == userID {
			return true
		}
	}
	return false
}

// Seat places userID in the first empty player slot. It is a no-op when the
// user is already seeded and reports false when the slot is full.
func (tm *TournamentMatch) Seat(userID string) bool {
	if tm.HasPlayer(userID) {
		return true
	}
	id := userID
	switch {
	case tm.Player1ID == nil || *tm.Player1ID == "":
		tm.Player1ID = &id
	case tm.Player2ID == nil || *tm.Player2ID == "":
		tm.Player2ID = &id
	default:
		return false
	}
	return true
}

// User carries the aggregate stats this service maintains for a player.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Wins      int       `gorm:"not null;default:0" json:"wins"`
	Losses    int       `gorm:"not null;default:0" json:"losses"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
