package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	liveMatches = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pongarena",
		Name:      "live_matches",
		Help:      "Number of match actors currently running.",
	})
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pongarena",
		Name:      "ticks_total",
		Help:      "Simulation ticks processed across all matches.",
	})
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pongarena",
		Name:      "tick_duration_seconds",
		Help:      "Time spent stepping and broadcasting one tick.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
	})
	matchesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pongarena",
		Name:      "matches_finished_total",
		Help:      "Matches that reached GAME_OVER, by outcome.",
	}, []string{"outcome"})
	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pongarena",
		Name:      "frames_dropped_total",
		Help:      "Outbound frames dropped because a connection buffer was full.",
	})
)

// ObserveDroppedFrame counts a frame a connection could not queue.
func ObserveDroppedFrame() {
	framesDropped.Inc()
}
