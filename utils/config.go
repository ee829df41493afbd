// File: utils/config.go
package utils

import "time"

// Config holds the fixed game parameters. Values are constant in production;
// tests inject shorter timings through a modified copy of DefaultConfig.
type Config struct {
	// Timing
	TickRateHz        int           `json:"tickRateHz"`        // Simulation ticks per second
	CountdownFrom     int           `json:"countdownFrom"`     // First value of the pre-game countdown
	CountdownInterval time.Duration `json:"countdownInterval"` // Delay between countdown frames
	PointPause        time.Duration `json:"pointPause"`        // Freeze window after a point
	NoShowTimeout     time.Duration `json:"noShowTimeout"`     // Deadline for follow-on matches
	AuthTimeout       time.Duration `json:"authTimeout"`       // Unauthenticated sockets are closed after this
	AskTimeout        time.Duration `json:"askTimeout"`        // Request/response timeout towards actors
	PersistTimeout    time.Duration `json:"persistTimeout"`    // Budget for start/end persistence calls

	// Score
	WinScore int `json:"winScore"`

	// Canvas
	CanvasWidth  float64 `json:"canvasWidth"`
	CanvasHeight float64 `json:"canvasHeight"`

	// Paddle
	PaddleHeight float64 `json:"paddleHeight"`
	PaddleSpeed  float64 `json:"paddleSpeed"`
	PaddleNear   float64 `json:"paddleNear"` // Inner edge of the collision band, from the wall
	PaddleFar    float64 `json:"paddleFar"`  // Outer edge of the collision band, from the wall

	// Ball
	BallRadius  float64 `json:"ballRadius"`
	BallSpeed   float64 `json:"ballSpeed"`   // Speed magnitude after a paddle bounce
	ServeSpeedX float64 `json:"serveSpeedX"` // Horizontal speed on serve
	ServeMaxVY  float64 `json:"serveMaxVY"`  // Vertical speed on serve is uniform in [-ServeMaxVY, ServeMaxVY)

	// Connections
	OutboundBuffer int `json:"outboundBuffer"` // Frames queued per socket before dropping
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	return Config{
		TickRateHz:        60,
		CountdownFrom:     3,
		CountdownInterval: time.Second,
		PointPause:        500 * time.Millisecond,
		NoShowTimeout:     10 * time.Second,
		AuthTimeout:       10 * time.Second,
		AskTimeout:        2 * time.Second,
		PersistTimeout:    5 * time.Second,

		WinScore: 5,

		CanvasWidth:  1440,
		CanvasHeight: 530,

		PaddleHeight: 100,
		PaddleSpeed:  10,
		PaddleNear:   20,
		PaddleFar:    30,

		BallRadius:  10,
		BallSpeed:   7,
		ServeSpeedX: 5,
		ServeMaxVY:  5,

		OutboundBuffer: 64,
	}
}

// TickPeriod is the duration between two simulation ticks.
func (c Config) TickPeriod() time.Duration {
	if c.TickRateHz <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TickRateHz)
}
