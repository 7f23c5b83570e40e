package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/newswire/internal/adapter"
	"github.com/lysyi3m/newswire/internal/dedup"
	"github.com/lysyi3m/newswire/internal/poll"
)

const (
	DefaultInterval = 60 * time.Second
	keptCycleTimes  = 100
)

type CycleRunner interface {
	RunCycle(ctx context.Context, adapters []adapter.Adapter, seen *dedup.SeenSet) poll.Report
}

var _ CycleRunner = (*poll.Orchestrator)(nil)

// Scheduler runs poll cycles back to back with a fixed pause between the
// end of one cycle and the start of the next. Cycles never overlap.
type Scheduler struct {
	runner   CycleRunner
	adapters []adapter.Adapter
	seen     *dedup.SeenSet
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}

	stats *Stats
	mu    sync.RWMutex
}

type Stats struct {
	Running          bool          `json:"running"`
	TotalCycles      int64         `json:"total_cycles"`
	TotalItems       int64         `json:"total_items"`
	TotalDuplicates  int64         `json:"total_duplicates"`
	TotalFailures    int64         `json:"total_failures"`
	TotalSkips       int64         `json:"total_skips"`
	SourcePolls      int64         `json:"source_polls"`
	SeenKeys         int           `json:"seen_keys"`
	LastCycleID      string        `json:"last_cycle_id,omitempty"`
	LastCycleAt      *time.Time    `json:"last_cycle_at,omitempty"`
	AverageCycleTime time.Duration `json:"average_cycle_time"`
	cycleTimes       []time.Duration
}

func NewScheduler(runner CycleRunner, adapters []adapter.Adapter, seen *dedup.SeenSet, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if seen == nil {
		seen = dedup.NewSeenSet()
	}

	return &Scheduler{
		runner:   runner,
		adapters: adapters,
		seen:     seen,
		interval: interval,
		stats: &Stats{
			cycleTimes: make([]time.Duration, 0, keptCycleTimes),
		},
	}
}

// Run polls immediately, then again interval after each cycle ends, until
// ctx is done. A cycle that is already running when ctx is cancelled is
// allowed to finish; Run returns once it has.
func (s *Scheduler) Run(ctx context.Context) {
	s.setRunning(true)
	defer s.setRunning(false)

	slog.Info("Scheduler started", "sources", len(s.adapters), "interval", s.interval)

	// In-flight requests are bounded by per-source timeouts, not by shutdown
	cycleCtx := context.WithoutCancel(ctx)

	for ctx.Err() == nil {
		s.runCycle(cycleCtx)

		if !s.wait(ctx) {
			break
		}
	}

	slog.Info("Scheduler stopped")
}

// wait pauses for one interval and reports false if ctx ended first.
func (s *Scheduler) wait(ctx context.Context) bool {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Start runs the scheduler in the background until Stop is called.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.Run(ctx)
	}()
}

// Stop cancels a scheduler started with Start and waits for the current
// cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel, done := s.cancel, s.done
	s.mu.RUnlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// runCycle calls must not overlap: adapters are not safe for concurrent
// Fetch calls. Run is the only caller outside tests.
func (s *Scheduler) runCycle(ctx context.Context) poll.Report {
	report := s.runner.RunCycle(ctx, s.adapters, s.seen)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TotalCycles++
	s.stats.TotalItems += int64(len(report.Items))
	s.stats.TotalDuplicates += int64(report.Duplicates)
	s.stats.TotalFailures += int64(len(report.Failures))
	s.stats.TotalSkips += int64(len(report.Skips))
	s.stats.SourcePolls += int64(len(s.adapters))
	s.stats.LastCycleID = report.ID
	now := time.Now()
	s.stats.LastCycleAt = &now

	s.stats.cycleTimes = append(s.stats.cycleTimes, report.Duration)
	if len(s.stats.cycleTimes) > keptCycleTimes {
		s.stats.cycleTimes = s.stats.cycleTimes[1:]
	}
	s.updateAverageCycleTime()

	return report
}

// updateAverageCycleTime must be called with mu held.
func (s *Scheduler) updateAverageCycleTime() {
	if len(s.stats.cycleTimes) == 0 {
		s.stats.AverageCycleTime = 0
		return
	}

	var total time.Duration
	for _, t := range s.stats.cycleTimes {
		total += t
	}
	s.stats.AverageCycleTime = total / time.Duration(len(s.stats.cycleTimes))
}

func (s *Scheduler) setRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Running = running
}

func (s *Scheduler) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statsCopy := *s.stats
	statsCopy.cycleTimes = nil
	statsCopy.SeenKeys = s.seen.Len()
	return statsCopy
}

// Health summarizes the scheduler state. Status is derived from the share
// of source polls that failed.
func (s *Scheduler) Health() map[string]interface{} {
	stats := s.GetStats()

	health := map[string]interface{}{
		"status":             "healthy",
		"running":            stats.Running,
		"interval":           s.interval.String(),
		"total_cycles":       stats.TotalCycles,
		"total_failures":     stats.TotalFailures,
		"seen_keys":          stats.SeenKeys,
		"average_cycle_time": stats.AverageCycleTime.String(),
	}

	if stats.LastCycleAt != nil {
		health["last_cycle_at"] = stats.LastCycleAt.Format(time.RFC3339)
		health["last_cycle_ago"] = time.Since(*stats.LastCycleAt).String()
	}

	if stats.SourcePolls > 0 {
		errorRate := float64(stats.TotalFailures) / float64(stats.SourcePolls)
		if errorRate > 0.5 {
			health["status"] = "unhealthy"
		} else if errorRate > 0.1 {
			health["status"] = "degraded"
		}
		health["error_rate"] = errorRate
	}

	return health
}
