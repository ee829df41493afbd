package game

import (
	"math"

	"github.com/lguibr/pongarena/utils"
)

// Side identifies a paddle.
type Side int

const (
	LeftSide Side = iota
	RightSide
)

// maxBounceAngle is the deflection for a hit on the paddle's edge.
const maxBounceAngle = math.Pi / 4

// inPaddleBand reports whether the ball's leading edge is inside the narrow
// x-band in front of the given paddle.
func inPaddleBand(b *Ball, side Side, canvas Canvas, cfg utils.Config) bool {
	r := cfg.BallRadius
	if side == LeftSide {
		edge := b.X - r
		return edge <= cfg.PaddleFar && edge > cfg.PaddleNear
	}
	edge := b.X + r
	return edge >= canvas.Width-cfg.PaddleFar && edge < canvas.Width-cfg.PaddleNear
}

// collidePaddle bounces the ball off the paddle whose top is at paddleY when
// the ball is moving toward it, inside its band and within its vertical span.
// The outgoing speed is always cfg.BallSpeed; only the angle depends on where
// the ball struck.
func collidePaddle(b *Ball, side Side, paddleY float64, paddle Paddle, canvas Canvas, cfg utils.Config) bool {
	movingToward := (side == LeftSide && b.VelocityX < 0) || (side == RightSide && b.VelocityX > 0)
	if !movingToward || !inPaddleBand(b, side, canvas, cfg) {
		return false
	}
	if b.Y < paddleY || b.Y > paddleY+paddle.Height {
		return false
	}

	offset := (b.Y - paddle.Center(paddleY)) / (paddle.Height / 2)
	angle := maxBounceAngle * offset

	dir := 1.0
	if side == RightSide {
		dir = -1.0
	}
	b.VelocityX = dir * math.Cos(angle) * cfg.BallSpeed
	b.VelocityY = math.Sin(angle) * cfg.BallSpeed
	return true
}
