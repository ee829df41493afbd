// Package bot is a headless websocket client that plays one side of a match.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"

	"github.com/lguibr/pongarena/game"
)

// Mode selects how the bot moves its paddle.
type Mode string

const (
	ModeTrack Mode = "track" // follow the ball
	ModeIdle  Mode = "idle"  // never move
	ModeQuit  Mode = "quit"  // disconnect right after game_start
)

type Config struct {
	URL    string // ws://host/ws/match/<id>
	Origin string
	Token  string
	UserID string
	Mode   Mode
	// PaddleHeight must match the server's paddle to centre correctly.
	PaddleHeight float64
}

// Result summarises what the bot saw before the socket closed.
type Result struct {
	Authenticated bool
	Started       bool
	Updates       int
	End           *game.GameEndData
	Error         *game.ErrorMessage
}

// frame is the union of every server frame.
type frame struct {
	Type      string          `json:"type"`
	CountDown int             `json:"countDown"`
	Message   string          `json:"message"`
	Code      string          `json:"code"`
	Data      json.RawMessage `json:"data"`
}

type Bot struct {
	cfg  Config
	ws   *websocket.Conn
	log  zerolog.Logger
	last game.Direction
}

// Dial connects to the match endpoint.
func Dial(cfg Config, logger zerolog.Logger) (*Bot, error) {
	if cfg.Origin == "" {
		cfg.Origin = "http://localhost/"
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeTrack
	}
	if cfg.PaddleHeight <= 0 {
		cfg.PaddleHeight = 100
	}
	ws, err := websocket.Dial(cfg.URL, "", cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("bot: dial %s: %w", cfg.URL, err)
	}
	return &Bot{
		cfg:  cfg,
		ws:   ws,
		log:  logger.With().Str("component", "bot").Str("user_id", cfg.UserID).Logger(),
		last: game.DirectionStop,
	}, nil
}

func (b *Bot) Close() error { return b.ws.Close() }

func (b *Bot) send(v interface{}) error {
	return websocket.JSON.Send(b.ws, v)
}

// Authenticate sends the authenticate frame.
func (b *Bot) Authenticate() error {
	return b.send(map[string]string{"type": game.TypeAuthenticate, "token": b.cfg.Token})
}

func (b *Bot) move(dir game.Direction) error {
	if dir == b.last {
		return nil
	}
	b.last = dir
	return b.send(map[string]string{"type": game.TypeMovePaddle, "data": string(dir)})
}

// Run authenticates and plays until game_end, an error frame, the socket
// closing or ctx being done.
func (b *Bot) Run(ctx context.Context) (Result, error) {
	var res Result
	stop := context.AfterFunc(ctx, func() { _ = b.ws.Close() })
	defer stop()

	if err := b.Authenticate(); err != nil {
		return res, fmt.Errorf("bot: authenticate: %w", err)
	}

	for {
		var f frame
		if err := websocket.JSON.Receive(b.ws, &f); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			if res.End != nil || res.Error != nil {
				return res, nil
			}
			return res, fmt.Errorf("bot: connection lost: %w", err)
		}

		switch f.Type {
		case "authenticated":
			res.Authenticated = true
		case "waiting":
			b.log.Debug().Int("count_down", f.CountDown).Msg("waiting")
		case "game_start":
			res.Started = true
			if b.cfg.Mode == ModeQuit {
				_ = b.ws.Close()
				return res, nil
			}
		case "game_update":
			res.Updates++
			var u game.GameUpdateData
			if err := json.Unmarshal(f.Data, &u); err != nil {
				return res, fmt.Errorf("bot: decode update: %w", err)
			}
			if b.cfg.Mode != ModeTrack {
				continue
			}
			if err := b.move(b.steer(u)); err != nil {
				return res, fmt.Errorf("bot: move: %w", err)
			}
		case "game_end":
			var end game.GameEndData
			if err := json.Unmarshal(f.Data, &end); err != nil {
				return res, fmt.Errorf("bot: decode end: %w", err)
			}
			res.End = &end
			b.log.Info().Str("winner", end.Winner).Int("player1", end.Player1Score).Int("player2", end.Player2Score).Msg("game over")
			return res, nil
		case "error":
			res.Error = &game.ErrorMessage{Type: f.Type, Message: f.Message, Code: f.Code}
			b.log.Warn().Str("code", f.Code).Str("message", f.Message).Msg("server error")
		}
	}
}

// steer picks the direction that brings the bot's paddle centre to the ball.
func (b *Bot) steer(u game.GameUpdateData) game.Direction {
	me := u.Player1
	if u.Player2.UserID == b.cfg.UserID {
		me = u.Player2
	}
	return Steer(me.Y, u.Ball.Y, b.cfg.PaddleHeight)
}

// Steer moves a paddle at top y towards ballY, holding still inside a dead band.
func Steer(y, ballY, paddleHeight float64) game.Direction {
	center := y + paddleHeight/2
	deadBand := paddleHeight / 5
	switch {
	case ballY < center-deadBand:
		return game.DirectionUp
	case ballY > center+deadBand:
		return game.DirectionDown
	}
	return game.DirectionStop
}

// Play dials, runs to completion and closes the socket.
func Play(ctx context.Context, cfg Config, logger zerolog.Logger, timeout time.Duration) (Result, error) {
	b, err := Dial(cfg, logger)
	if err != nil {
		return Result{}, err
	}
	defer b.Close()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return b.Run(ctx)
}
