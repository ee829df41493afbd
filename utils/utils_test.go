package utils

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.WinScore)
	assert.Equal(t, 1440.0, cfg.CanvasWidth)
	assert.Equal(t, 530.0, cfg.CanvasHeight)
	assert.Equal(t, 500*time.Millisecond, cfg.PointPause)
	assert.Equal(t, 10*time.Second, cfg.NoShowTimeout)
	assert.Equal(t, time.Second/60, cfg.TickPeriod())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3, 0, 10))
	assert.Equal(t, 10.0, Clamp(12, 0, 10))
	assert.Equal(t, 4.5, Clamp(4.5, 0, 10))
}

func TestRandomRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		v := RandomRange(rng, 5)
		assert.GreaterOrEqual(t, v, -5.0)
		assert.Less(t, v, 5.0)
	}
}

func TestRandomSign(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := map[float64]bool{}
	for i := 0; i < 100; i++ {
		seen[RandomSign(rng)] = true
	}
	assert.Equal(t, map[float64]bool{-1: true, 1: true}, seen)
}

func TestAppErrorMatching(t *testing.T) {
	base := NewNotFoundError(CodeMatchNotFound, "match %s not found", "m1")
	wrapped := fmt.Errorf("joining: %w", base)

	assert.True(t, IsCode(wrapped, CodeMatchNotFound))
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindState))

	appErr, ok := AsAppError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "MATCH_NOT_FOUND: match m1 not found", appErr.Error())

	_, ok = AsAppError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SHUTDOWN_WAIT", "3")

	s := LoadSettings("does-not-exist.env")
	assert.Equal(t, "sqlite", s.DBDriver)
	assert.Equal(t, "pongarena.db", s.DatabaseURL)
	assert.Equal(t, 3*time.Second, s.ShutdownWait)
}

func TestLoadSettingsPostgres(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/pong")

	s := LoadSettings("does-not-exist.env")
	assert.Equal(t, "postgres", s.DBDriver)
}
