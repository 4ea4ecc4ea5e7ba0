package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerComputesFromAnchor(t *testing.T) {
	ticker := NewTicker()
	defer ticker.Stop()

	got := make(chan time.Duration, 1)
	anchor := time.Now().Add(-time.Hour)
	ticker.Start(anchor, 5*time.Millisecond, func(d time.Duration) {
		select {
		case got <- d:
		default:
		}
	})

	select {
	case d := <-got:
		if d < time.Hour {
			t.Errorf("elapsed %v, want at least an hour since the anchor", d)
		}
	case <-time.After(time.Second):
		t.Fatal("ticker never ticked")
	}
}

func TestTickerSingleInstance(t *testing.T) {
	ticker := NewTicker()
	defer ticker.Stop()

	var first, second atomic.Int64
	ticker.Start(time.Now(), 5*time.Millisecond, func(time.Duration) { first.Add(1) })
	time.Sleep(30 * time.Millisecond)

	ticker.Start(time.Now(), 5*time.Millisecond, func(time.Duration) { second.Add(1) })
	// let any in-flight tick from the replaced loop drain
	time.Sleep(10 * time.Millisecond)
	stale := first.Load()
	time.Sleep(50 * time.Millisecond)

	if first.Load() != stale {
		t.Errorf("previous tick loop kept running: %d -> %d", stale, first.Load())
	}
	if second.Load() == 0 {
		t.Error("replacement tick loop never ran")
	}
	if !ticker.Running() {
		t.Error("Running() must report the live loop")
	}
}

func TestTickerStopIdempotent(t *testing.T) {
	ticker := NewTicker()
	ticker.Start(time.Now(), 5*time.Millisecond, func(time.Duration) {})
	ticker.Stop()
	ticker.Stop()
	if ticker.Running() {
		t.Error("stopped ticker must not report running")
	}
}
