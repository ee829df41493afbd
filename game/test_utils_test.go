package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/pongarena/bollywood"
	"github.com/lguibr/pongarena/utils"
)

// fakeConn records every frame queued for a player.
type fakeConn struct {
	id     string
	mu     sync.Mutex
	msgs   []ServerMessage
	closed bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(msg ServerMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.msgs = append(c.msgs, msg)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) messages() []ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ServerMessage, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// types returns the wire type of every queued frame, collapsing consecutive game_update frames.
func (c *fakeConn) types() []string {
	var out []string
	for _, m := range c.messages() {
		typ := messageType(m)
		if typ == "game_update" && len(out) > 0 && out[len(out)-1] == typ {
			continue
		}
		out = append(out, typ)
	}
	return out
}

func (c *fakeConn) gameEnd() (GameEndData, bool) {
	for _, m := range c.messages() {
		if end, ok := m.(GameEndMessage); ok {
			return end.Data, true
		}
	}
	return GameEndData{}, false
}

func messageType(m ServerMessage) string {
	switch v := m.(type) {
	case AuthenticatedMessage:
		return v.Type
	case WaitingMessage:
		return v.Type
	case GameStartMessage:
		return v.Type
	case GameUpdateMessage:
		return v.Type
	case GameEndMessage:
		return v.Type
	case ErrorMessage:
		return v.Type
	}
	return "unknown"
}

// fakeRecorder captures lifecycle calls.
type fakeRecorder struct {
	mu        sync.Mutex
	started   []string
	results   []Result
	startErr  error
	resultErr error
}

func (r *fakeRecorder) MarkInProgress(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, matchID)
	return r.startErr
}

func (r *fakeRecorder) RecordResult(_ context.Context, result Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return r.resultErr
}

func (r *fakeRecorder) snapshot() ([]string, []Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.started...), append([]Result(nil), r.results...)
}

func testConfig() utils.Config {
	cfg := utils.DefaultConfig()
	cfg.CountdownInterval = 5 * time.Millisecond
	cfg.TickRateHz = 500
	cfg.PointPause = time.Millisecond
	cfg.AskTimeout = time.Second
	return cfg
}

func newTestRegistry(t *testing.T, cfg utils.Config, rec Recorder) (*Registry, *bollywood.Engine) {
	t.Helper()
	engine := bollywood.NewEngine(bollywood.WithLogger(zerolog.Nop()))
	reg, err := NewRegistry(engine, cfg, rec, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { engine.Shutdown(time.Second) })
	return reg, engine
}

func waitLive(t *testing.T, reg *Registry, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		ids, err := reg.LiveMatches()
		return err == nil && len(ids) == want
	}, 2*time.Second, 5*time.Millisecond)
}
