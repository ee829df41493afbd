package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/lguibr/pongarena/auth"
	"github.com/lguibr/pongarena/bollywood"
	"github.com/lguibr/pongarena/game"
	"github.com/lguibr/pongarena/lifecycle"
	"github.com/lguibr/pongarena/store"
	"github.com/lguibr/pongarena/tournament"
	"github.com/lguibr/pongarena/utils"
)

const testSecret = "test-secret"

// testStack wires every component the way main does, on an in-memory database.
type testStack struct {
	cfg         utils.Config
	store       *store.Store
	lifecycle   *lifecycle.Controller
	tournaments *tournament.Engine
	registry    *game.Registry
	http        *httptest.Server
	wsBase      string
	api         *API
}

func fastConfig() utils.Config {
	cfg := utils.DefaultConfig()
	cfg.TickRateHz = 240
	cfg.CountdownInterval = 10 * time.Millisecond
	cfg.PointPause = 20 * time.Millisecond
	cfg.NoShowTimeout = time.Minute
	cfg.AuthTimeout = time.Second
	cfg.AskTimeout = time.Second
	return cfg
}

func newTestStack(t *testing.T, cfg utils.Config) *testStack {
	t.Helper()
	log := zerolog.Nop()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.OpenMemory(name, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctrl, err := lifecycle.NewController(st, cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Shutdown() })

	tournaments := tournament.NewEngine(st, log, tournament.WithScheduler(ctrl))
	ctrl.SetAdvancer(tournaments)

	engine := bollywood.NewEngine(bollywood.WithLogger(log))
	registry, err := game.NewRegistry(engine, cfg, ctrl, log)
	require.NoError(t, err)
	ctrl.AttachRegistry(registry)

	verifier := auth.NewJWTVerifier(testSecret)
	srv := New(registry, st, verifier, cfg, log)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	// Registered last so live sockets close before the listener.
	t.Cleanup(func() { engine.Shutdown(2 * time.Second) })

	api := NewAPI(APIDeps{
		Store:       st,
		Lifecycle:   ctrl,
		Tournaments: tournaments,
		Live:        registry,
		Verifier:    verifier,
		Logger:      log,
	})

	return &testStack{
		cfg:         cfg,
		store:       st,
		lifecycle:   ctrl,
		tournaments: tournaments,
		registry:    registry,
		http:        ts,
		wsBase:      "ws" + strings.TrimPrefix(ts.URL, "http"),
		api:         api,
	}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.Issue(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testStack) matchURL(matchID string) string {
	return s.wsBase + "/ws/match/" + matchID
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, err := websocket.Dial(url, "", "http://localhost/")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

type wireFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func readFrame(t *testing.T, ws *websocket.Conn) wireFrame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f wireFrame
	require.NoError(t, websocket.JSON.Receive(ws, &f))
	return f
}

func send(t *testing.T, ws *websocket.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, websocket.JSON.Send(ws, v))
}

func mustIssue(t *testing.T, secret, userID string) string {
	t.Helper()
	tok, err := auth.Issue(secret, userID, time.Hour)
	require.NoError(t, err)
	return tok
}
