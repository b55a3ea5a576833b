package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"herobg/backdrop"
)

func TestStatsRecorder(t *testing.T) {
	rec := newStatsRecorder()
	for i := 0; i < 1500; i++ {
		rec.ObserveTick(backdrop.TickStats{Duration: time.Millisecond})
	}
	rec.ObserveTick(backdrop.TickStats{ModeChanged: true, Duration: 3 * time.Millisecond})
	rec.ObserveTick(backdrop.TickStats{Reconfigured: true})

	sum := rec.summary()
	if !strings.Contains(sum, "1,502 ticks") || !strings.Contains(sum, "slowest tick 3ms") {
		t.Fatalf("summary = %q", sum)
	}

	total := rec.merge(runStats{Runs: 2, Ticks: 10, Transitions: 1})
	if total.Runs != 3 || total.Ticks != 1512 || total.Transitions != 2 || total.Reloads != 1 {
		t.Fatalf("merged = %+v", total)
	}
}

func TestStatsFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), statsFile)
	if st := loadStats(path); st != (runStats{}) {
		t.Fatalf("missing file = %+v", st)
	}
	want := runStats{Runs: 4, Ticks: 99, Seconds: 1.5, Transitions: 3}
	if err := saveStats(path, want); err != nil {
		t.Fatalf("saveStats: %v", err)
	}
	if got := loadStats(path); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
