package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lguibr/pongarena/bot"
	"github.com/lguibr/pongarena/store"
	"github.com/lguibr/pongarena/utils"
)

func newPendingMatch(t *testing.T, s *testStack) *store.Match {
	t.Helper()
	m := &store.Match{Player1ID: "alice", Player2ID: "bob"}
	require.NoError(t, s.store.CreateMatch(context.Background(), m))
	return m
}

func expectClosed(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f wireFrame
	assert.Error(t, websocket.JSON.Receive(ws, &f))
}

func TestHandleMatch_Rejections(t *testing.T) {
	s := newTestStack(t, fastConfig())
	m := newPendingMatch(t, s)

	done := &store.Match{Player1ID: "alice", Player2ID: "bob"}
	require.NoError(t, s.store.CreateMatch(context.Background(), done))
	_, err := s.store.AbandonMatch(context.Background(), done.ID)
	require.NoError(t, err)

	cases := []struct {
		name    string
		matchID string
		token   string
		code    string
	}{
		{"bad token", m.ID, "not-a-jwt", utils.CodeAuthInvalidToken},
		{"wrong secret", m.ID, mustIssue(t, "other-secret", "alice"), utils.CodeAuthInvalidToken},
		{"stranger", m.ID, token(t, "mallory"), utils.CodeMatchNotAuthorized},
		{"unknown match", "missing", token(t, "alice"), utils.CodeMatchNotFound},
		{"finished match", done.ID, token(t, "alice"), utils.CodeMatchAlreadyComplete},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ws := dial(t, s.matchURL(tc.matchID))
			send(t, ws, map[string]string{"type": "authenticate", "token": tc.token})

			f := readFrame(t, ws)
			assert.Equal(t, "error", f.Type)
			assert.Equal(t, tc.code, f.Code)
			expectClosed(t, ws)
		})
	}
}

func TestHandleMatch_FramesBeforeAuthenticate(t *testing.T) {
	s := newTestStack(t, fastConfig())
	m := newPendingMatch(t, s)
	ws := dial(t, s.matchURL(m.ID))

	send(t, ws, map[string]string{"type": "dance"})
	f := readFrame(t, ws)
	assert.Equal(t, "error", f.Type)
	assert.Contains(t, f.Message, "unsupported message type")

	send(t, ws, map[string]string{"type": "move_paddle", "data": "up"})
	f = readFrame(t, ws)
	assert.Equal(t, "error", f.Type)
	assert.Equal(t, "not authenticated", f.Message)

	send(t, ws, map[string]string{"type": "authenticate", "token": token(t, "alice")})
	assert.Equal(t, "authenticated", readFrame(t, ws).Type)

	send(t, ws, map[string]string{"type": "move_paddle", "data": "sideways"})
	f = readFrame(t, ws)
	assert.Equal(t, "error", f.Type)
	assert.Contains(t, f.Message, "malformed")
}

func TestHandleMatch_AuthTimeout(t *testing.T) {
	cfg := fastConfig()
	cfg.AuthTimeout = 100 * time.Millisecond
	s := newTestStack(t, cfg)
	m := newPendingMatch(t, s)
	ws := dial(t, s.matchURL(m.ID))

	f := readFrame(t, ws)
	assert.Equal(t, "error", f.Type)
	assert.Equal(t, utils.CodeAuthInvalidToken, f.Code)
	assert.Equal(t, "authentication timeout", f.Message)
	expectClosed(t, ws)
}

func TestHandleMatch_HealthAndMetrics(t *testing.T) {
	s := newTestStack(t, fastConfig())
	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(s.http.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

// Two bots play the only match of a TWO_PLAYER tournament; bob walks out
// after the start, so alice wins by forfeit.
func TestE2E_TwoPlayerTournament(t *testing.T) {
	ctx := context.Background()
	s := newTestStack(t, fastConfig())

	tour, err := s.tournaments.Create(ctx, "Duel", store.TwoPlayer, "alice")
	require.NoError(t, err)
	_, err = s.tournaments.Join(ctx, tour.ID, "bob")
	require.NoError(t, err)
	rounds, err := s.tournaments.Bracket(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	matchID := *rounds[0].Matches[0].MatchID

	var alice, bob bot.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		alice, err = bot.Play(gctx, bot.Config{URL: s.matchURL(matchID), Token: token(t, "alice"), UserID: "alice", Mode: bot.ModeTrack}, zerolog.Nop(), 20*time.Second)
		return err
	})
	g.Go(func() error {
		var err error
		bob, err = bot.Play(gctx, bot.Config{URL: s.matchURL(matchID), Token: token(t, "bob"), UserID: "bob", Mode: bot.ModeQuit}, zerolog.Nop(), 20*time.Second)
		return err
	})
	require.NoError(t, g.Wait())

	assert.True(t, bob.Started)
	require.NotNil(t, alice.End)
	assert.Equal(t, "alice", alice.End.Winner)
	assert.True(t, alice.End.Disconnected)

	// game_end goes out before the result is written.
	require.Eventually(t, func() bool {
		tour, err := s.store.FindTournament(ctx, tour.ID)
		return err == nil && tour.Status == store.TournamentCompleted
	}, 3*time.Second, 10*time.Millisecond)

	m, err := s.store.FindMatch(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, store.MatchCompleted, m.Status)
	assert.Equal(t, "alice", m.WinnerID())

	a, err := s.store.FindUser(ctx, "alice")
	require.NoError(t, err)
	b, err := s.store.FindUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Wins)
	assert.Equal(t, 1, b.Losses)

	require.Eventually(t, func() bool {
		ids, err := s.registry.LiveMatches()
		return err == nil && len(ids) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

// Both players connect and stay in the countdown; ending the match through
// the lifecycle reaches both sockets.
func TestE2E_EndGameReachesClients(t *testing.T) {
	ctx := context.Background()
	cfg := fastConfig()
	cfg.CountdownInterval = time.Hour
	s := newTestStack(t, cfg)
	m := newPendingMatch(t, s)

	g, gctx := errgroup.WithContext(ctx)
	results := make([]bot.Result, 2)
	for i, user := range []string{"alice", "bob"} {
		g.Go(func() error {
			var err error
			results[i], err = bot.Play(gctx, bot.Config{URL: s.matchURL(m.ID), Token: token(t, user), UserID: user, Mode: bot.ModeIdle}, zerolog.Nop(), 20*time.Second)
			return err
		})
	}

	require.Eventually(t, func() bool {
		p, live, err := s.registry.Presence(m.ID)
		return err == nil && live && len(p.Authenticated) == 2
	}, 3*time.Second, 10*time.Millisecond)

	_, err := s.lifecycle.EndGame(ctx, m.ID)
	require.NoError(t, err)
	require.NoError(t, g.Wait())

	for _, r := range results {
		require.NotNil(t, r.End)
		assert.Empty(t, r.End.Winner)
	}
	require.Eventually(t, func() bool {
		m, err := s.store.FindMatch(ctx, m.ID)
		return err == nil && m.Status == store.MatchAbandoned
	}, 3*time.Second, 10*time.Millisecond)
}
