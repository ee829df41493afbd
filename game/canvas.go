package game

import "github.com/lguibr/pongarena/utils"

// Canvas is the playing field. The origin is the top-left corner.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func NewCanvas(cfg utils.Config) Canvas {
	return Canvas{Width: cfg.CanvasWidth, Height: cfg.CanvasHeight}
}

// Center returns the middle of the field.
func (c Canvas) Center() (float64, float64) {
	return c.Width / 2, c.Height / 2
}
