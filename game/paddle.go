// File: game/paddle.go
package game

import "github.com/lguibr/pongarena/utils"

// Direction is a player's paddle intent.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionStop Direction = "stop"
)

// ParseDirection validates a wire value.
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(s); d {
	case DirectionUp, DirectionDown, DirectionStop:
		return d, true
	}
	return "", false
}

// Paddle holds the vertical geometry shared by both paddles.
type Paddle struct {
	Height float64
	Speed  float64
}

func NewPaddle(cfg utils.Config) Paddle {
	return Paddle{Height: cfg.PaddleHeight, Speed: cfg.PaddleSpeed}
}

// Move returns the new top y of a paddle after one tick in direction dir,
// clamped to [0, canvasHeight-Height].
func (p Paddle) Move(y float64, dir Direction, canvas Canvas) float64 {
	switch dir {
	case DirectionUp:
		y -= p.Speed
	case DirectionDown:
		y += p.Speed
	}
	return utils.Clamp(y, 0, canvas.Height-p.Height)
}

// Center returns the paddle's vertical midpoint for a paddle whose top is at y.
func (p Paddle) Center(y float64) float64 {
	return y + p.Height/2
}

// StartY is the top y that centres a paddle on the field.
func (p Paddle) StartY(canvas Canvas) float64 {
	return canvas.Height/2 - p.Height/2
}
