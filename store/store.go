// Package store persists matches, tournaments and player stats with gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store wraps a gorm handle. Inside Transaction the handle is the transaction.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// New wraps an existing gorm connection.
func New(db *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, log: logger.With().Str("component", "store").Logger()}
}

// Open connects to postgres or sqlite and runs the schema migration.
func Open(driver, dsn string, logger zerolog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("store: sqlite handle: %w", err)
		}
		// SQLite allows a single writer; one connection keeps transactions serialized.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}

	s := New(db, logger)
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenMemory opens a private in-memory SQLite database, used by tests and the
// zero-config dev mode.
func OpenMemory(name string, logger zerolog.Logger) (*Store, error) {
	return Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger)
}

// AutoMigrate creates or updates the schema.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&User{}, &Tournament{}, &TournamentParticipant{}, &TournamentMatch{}, &Match{}); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// DB exposes the underlying gorm handle.
func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn inside a database transaction. fn must only use the
// Store it receives.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func statusStrings(statuses []MatchStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
