package game

import (
	"math/rand"
	"time"

	"github.com/lguibr/pongarena/utils"
)

// Phase is the simulation state of a live match.
type Phase string

const (
	PhaseInit       Phase = "INIT"
	PhaseCountdown  Phase = "COUNTDOWN"
	PhaseRunning    Phase = "RUNNING"
	PhasePointPause Phase = "POINT_PAUSE"
	PhaseGameOver   Phase = "GAME_OVER"
)

// Playing reports whether the match has started and not yet ended.
func (p Phase) Playing() bool {
	return p == PhaseCountdown || p == PhaseRunning || p == PhasePointPause
}

// GameState is the in-memory physics and score of one match. It is owned by
// the match actor and never shared.
type GameState struct {
	Player1      PlayerState `json:"player1"`
	Player2      PlayerState `json:"player2"`
	Ball         Ball        `json:"ball"`
	IsGameOver   bool        `json:"isGameOver"`
	Winner       string      `json:"winner,omitempty"`
	Disconnected bool        `json:"disconnected"`
	IsPaused     bool        `json:"isPaused"`
	PauseEndTime time.Time   `json:"pauseEndTime"`
}

// Intents are the paddle directions consumed by one tick.
type Intents struct {
	Player1 Direction
	Player2 Direction
}

// StepResult reports what happened during a tick.
type StepResult struct {
	Paused   bool   // physics skipped, still inside the point pause
	Resumed  bool   // the pause ended this tick and the ball was re-served
	Bounced  bool   // the ball hit a paddle
	ScoredBy string // user id of the player who scored, if any
	GameOver bool
}

// NewGameState places both paddles and the ball at the centre and serves.
func NewGameState(player1ID, player2ID string, cfg utils.Config, rng *rand.Rand) *GameState {
	canvas := NewCanvas(cfg)
	paddle := NewPaddle(cfg)
	s := &GameState{
		Player1: PlayerState{UserID: player1ID, Y: paddle.StartY(canvas)},
		Player2: PlayerState{UserID: player2ID, Y: paddle.StartY(canvas)},
	}
	s.Ball.X, s.Ball.Y = canvas.Center()
	s.Ball.Serve(cfg, rng)
	return s
}

// HasPlayer reports whether userID is one of the two players.
func (s *GameState) HasPlayer(userID string) bool {
	return userID != "" && (s.Player1.UserID == userID || s.Player2.UserID == userID)
}

// Opponent returns the other player's id.
func (s *GameState) Opponent(userID string) string {
	if s.Player1.UserID == userID {
		return s.Player2.UserID
	}
	return s.Player1.UserID
}

// Leader returns the player with the strictly higher score, or "" on a tie.
func (s *GameState) Leader() string {
	switch {
	case s.Player1.Score > s.Player2.Score:
		return s.Player1.UserID
	case s.Player2.Score > s.Player1.Score:
		return s.Player2.UserID
	}
	return ""
}

// End stops the game. winner may be empty when the match is abandoned.
func (s *GameState) End(winner string, disconnected bool) {
	s.IsGameOver = true
	s.Winner = winner
	s.Disconnected = disconnected
	s.IsPaused = false
	s.PauseEndTime = time.Time{}
}

// Step advances the simulation by one tick.
func (s *GameState) Step(now time.Time, in Intents, cfg utils.Config, rng *rand.Rand) StepResult {
	var res StepResult
	if s.IsGameOver {
		res.GameOver = true
		return res
	}

	canvas := NewCanvas(cfg)
	paddle := NewPaddle(cfg)

	if s.IsPaused {
		if now.Before(s.PauseEndTime) {
			res.Paused = true
			return res
		}
		s.IsPaused = false
		s.PauseEndTime = time.Time{}
		s.Ball.Serve(cfg, rng)
		res.Resumed = true
	}

	s.Player1.Y = paddle.Move(s.Player1.Y, in.Player1, canvas)
	s.Player2.Y = paddle.Move(s.Player2.Y, in.Player2, canvas)

	s.Ball.Move()
	s.Ball.ReflectWalls(canvas, cfg.BallRadius)

	if collidePaddle(&s.Ball, LeftSide, s.Player1.Y, paddle, canvas, cfg) ||
		collidePaddle(&s.Ball, RightSide, s.Player2.Y, paddle, canvas, cfg) {
		res.Bounced = true
	}

	r := cfg.BallRadius
	switch {
	case s.Ball.X+r < 0:
		s.Player2.Score++
		res.ScoredBy = s.Player2.UserID
	case s.Ball.X-r > canvas.Width:
		s.Player1.Score++
		res.ScoredBy = s.Player1.UserID
	}

	if res.ScoredBy == "" {
		return res
	}

	s.Ball.Reset(canvas, cfg, -utils.Sign(s.Ball.VelocityX), rng)
	s.IsPaused = true
	s.PauseEndTime = now.Add(cfg.PointPause)

	switch {
	case s.Player1.Score >= cfg.WinScore:
		s.End(s.Player1.UserID, false)
		res.GameOver = true
	case s.Player2.Score >= cfg.WinScore:
		s.End(s.Player2.UserID, false)
		res.GameOver = true
	}
	return res
}

// Update is the broadcast view of the state.
func (s *GameState) Update() GameUpdateData {
	return GameUpdateData{
		Player1: PlayerView{Y: s.Player1.Y, Score: s.Player1.Score, UserID: s.Player1.UserID},
		Player2: PlayerView{Y: s.Player2.Y, Score: s.Player2.Score, UserID: s.Player2.UserID},
		Ball:    BallView{X: s.Ball.X, Y: s.Ball.Y},
	}
}
