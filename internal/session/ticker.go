package session

import (
	"sync"
	"time"

	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/metrics"
)

// Ticker drives the elapsed-time display. It captures the time-in anchor
// once and recomputes (now - anchor) every tick, so it self-corrects for
// processing delay without ever re-polling the server.
type Ticker struct {
	mu   sync.Mutex
	stop chan struct{}
}

// NewTicker creates a stopped ticker.
func NewTicker() *Ticker {
	return &Ticker{}
}

// Start begins ticking against anchor. Starting while running stops the
// previous instance first, so at most one tick loop is ever alive.
func (t *Ticker) Start(anchor time.Time, interval time.Duration, onTick func(time.Duration)) {
	if interval <= 0 {
		interval = time.Second
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()

	stop := make(chan struct{})
	t.stop = stop
	metrics.TickerActive.Set(1)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				onTick(time.Since(anchor))
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the tick loop. Safe to call repeatedly.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Running reports whether a tick loop is alive.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *Ticker) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
		metrics.TickerActive.Set(0)
	}
}
