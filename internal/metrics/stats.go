// ABOUTME: Process-wide routing statistics: messages per route, raw turns, tokens, errors
// ABOUTME: Recorded by the orchestrator, reported by the health endpoint and the MCP surface
package metrics

import (
	"sync"
	"time"

	"github.com/WildEllie/t3nets/internal/models"
)

// Stats aggregates per-turn counters. Safe for concurrent use.
type Stats struct {
	mu       sync.Mutex
	started  time.Time
	now      func() time.Time
	byRoute  map[models.Route]int
	messages int
	raw      int
	tokens   int
	errors   int
}

// Snapshot is a point-in-time copy of the counters
type Snapshot struct {
	Uptime          time.Duration        `json:"-"`
	UptimeSeconds   int64                `json:"uptime_seconds"`
	Messages        int                  `json:"messages"`
	ByRoute         map[models.Route]int `json:"by_route"`
	RawResponses    int                  `json:"raw_responses"`
	Tokens          int                  `json:"tokens"`
	Errors          int                  `json:"errors"`
	RuleRoutedPct   float64              `json:"rule_routed_pct"`
	AvgTokensPerMsg float64              `json:"avg_tokens_per_message"`
}

// NewStats starts counting now
func NewStats() *Stats {
	return newStatsAt(time.Now)
}

func newStatsAt(now func() time.Time) *Stats {
	return &Stats{
		started: now(),
		now:     now,
		byRoute: map[models.Route]int{},
	}
}

// RecordTurn counts one successfully handled message
func (s *Stats) RecordTurn(route models.Route, raw bool, tokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages++
	s.byRoute[route]++
	if raw {
		s.raw++
	}
	s.tokens += tokens
}

// RecordError counts one failed message
func (s *Stats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

// Snapshot returns a copy of the current counters
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	byRoute := make(map[models.Route]int, len(s.byRoute))
	for r, n := range s.byRoute {
		byRoute[r] = n
	}
	uptime := s.now().Sub(s.started)
	snap := Snapshot{
		Uptime:        uptime,
		UptimeSeconds: int64(uptime / time.Second),
		Messages:      s.messages,
		ByRoute:       byRoute,
		RawResponses:  s.raw,
		Tokens:        s.tokens,
		Errors:        s.errors,
	}
	if s.messages > 0 {
		snap.RuleRoutedPct = float64(s.byRoute[models.RouteRule]) / float64(s.messages) * 100
		snap.AvgTokensPerMsg = float64(s.tokens) / float64(s.messages)
	}
	return snap
}
