package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"herobg/backdrop"
)

const statsFile = "stats.json"

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

// runStats accumulates across runs in stats.json.
type runStats struct {
	Runs        int     `json:"runs"`
	Ticks       uint64  `json:"ticks"`
	Seconds     float64 `json:"seconds"`
	Transitions uint64  `json:"transitions"`
	Reloads     uint64  `json:"reloads"`
}

// statsRecorder observes ticks for the current session.
type statsRecorder struct {
	mu      sync.Mutex
	started time.Time
	session runStats
	slowest time.Duration
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{started: time.Now(), session: runStats{Runs: 1}}
}

func (s *statsRecorder) ObserveTick(t backdrop.TickStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Ticks++
	if t.ModeChanged {
		s.session.Transitions++
	}
	if t.Reconfigured {
		s.session.Reloads++
	}
	if t.Duration > s.slowest {
		s.slowest = t.Duration
	}
}

func (s *statsRecorder) snapshot() (runStats, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.session
	elapsed := time.Since(s.started)
	out.Seconds = elapsed.Seconds()
	return out, elapsed
}

func (s *statsRecorder) summary() string {
	st, elapsed := s.snapshot()
	s.mu.Lock()
	slowest := s.slowest
	s.mu.Unlock()
	return fmt.Sprintf("%s ticks in %s, %s transitions, %s reloads, slowest tick %s",
		humanize.Comma(int64(st.Ticks)),
		durafmt.Parse(elapsed).LimitFirstN(2).Format(shortUnits),
		humanize.Comma(int64(st.Transitions)),
		humanize.Comma(int64(st.Reloads)),
		slowest.Round(time.Microsecond))
}

// merge adds this session onto total.
func (s *statsRecorder) merge(total runStats) runStats {
	st, _ := s.snapshot()
	total.Runs += st.Runs
	total.Ticks += st.Ticks
	total.Seconds += st.Seconds
	total.Transitions += st.Transitions
	total.Reloads += st.Reloads
	return total
}

func loadStats(path string) runStats {
	var st runStats
	data, err := os.ReadFile(path)
	if err != nil {
		return st
	}
	if err := json.Unmarshal(data, &st); err != nil {
		logError("load stats: %v", err)
		return runStats{}
	}
	return st
}

func saveStats(path string, st runStats) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
