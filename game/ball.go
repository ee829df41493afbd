package game

import (
	"math/rand"

	"github.com/lguibr/pongarena/utils"
)

// Ball position is its centre.
type Ball struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VelocityX float64 `json:"velocityX"`
	VelocityY float64 `json:"velocityY"`
}

// Move integrates position by one tick of velocity.
func (b *Ball) Move() {
	b.X += b.VelocityX
	b.Y += b.VelocityY
}

// ReflectWalls bounces the ball off the top and bottom walls, keeping its
// centre within [radius, height-radius].
func (b *Ball) ReflectWalls(canvas Canvas, radius float64) bool {
	switch {
	case b.Y-radius < 0:
		b.Y = radius
		b.VelocityY = abs(b.VelocityY)
		return true
	case b.Y+radius > canvas.Height:
		b.Y = canvas.Height - radius
		b.VelocityY = -abs(b.VelocityY)
		return true
	}
	return false
}

// Reset puts the ball at the centre moving horizontally in direction dirX
// (-1 or 1) with a random vertical velocity.
func (b *Ball) Reset(canvas Canvas, cfg utils.Config, dirX float64, rng *rand.Rand) {
	b.X, b.Y = canvas.Center()
	b.VelocityX = dirX * cfg.ServeSpeedX
	b.VelocityY = utils.RandomRange(rng, cfg.ServeMaxVY)
}

// Serve re-randomizes velocity: random horizontal sign, random vertical speed.
func (b *Ball) Serve(cfg utils.Config, rng *rand.Rand) {
	b.VelocityX = utils.RandomSign(rng) * cfg.ServeSpeedX
	b.VelocityY = utils.RandomRange(rng, cfg.ServeMaxVY)
}

// SpeedSquared is vx²+vy².
func (b *Ball) SpeedSquared() float64 {
	return b.VelocityX*b.VelocityX + b.VelocityY*b.VelocityY
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
