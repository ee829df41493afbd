package game

import (
	"sync"
	"time"

	"github.com/lguibr/pongarena/bollywood"
)

// loopHandle is the cancellation handle of a repeating self-message.
type loopHandle struct {
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

// startLoop sends msg to pid every period until Stop is called.
func startLoop(engine *bollywood.Engine, pid *bollywood.PID, period time.Duration, msg interface{}) *loopHandle {
	h := &loopHandle{
		ticker: time.NewTicker(period),
		stop:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-h.stop:
				return
			case <-h.ticker.C:
				engine.Send(pid, msg, nil)
			}
		}
	}()
	return h
}

// Stop is idempotent and safe on a nil handle.
func (h *loopHandle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.stop)
	})
}

func (a *MatchActor) stopLoops() {
	a.countdownLoop.Stop()
	a.countdownLoop = nil
	a.tickLoop.Stop()
	a.tickLoop = nil
}
