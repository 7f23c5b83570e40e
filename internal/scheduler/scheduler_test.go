package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/newswire/internal/adapter"
	"github.com/lysyi3m/newswire/internal/dedup"
	"github.com/lysyi3m/newswire/internal/news"
	"github.com/lysyi3m/newswire/internal/poll"
)

// MockRunner records cycle boundaries and returns a canned report
type MockRunner struct {
	mu       sync.Mutex
	starts   []time.Time
	ends     []time.Time
	ctxErrs  []error
	delay    time.Duration
	block    chan struct{}
	started  chan struct{}
	report   poll.Report
	inFlight int
	overlap  bool
}

func (m *MockRunner) RunCycle(ctx context.Context, adapters []adapter.Adapter, seen *dedup.SeenSet) poll.Report {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > 1 {
		m.overlap = true
	}
	m.starts = append(m.starts, time.Now())
	started := m.started
	m.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if m.block != nil {
		<-m.block
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
	m.ends = append(m.ends, time.Now())
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	return m.report
}

func (m *MockRunner) cycles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ends)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestNewScheduler(t *testing.T) {
	scheduler := NewScheduler(&MockRunner{}, nil, nil, 0)

	if scheduler == nil {
		t.Fatal("Expected scheduler to be created")
	}

	if scheduler.interval != DefaultInterval {
		t.Errorf("Expected default interval %v, got %v", DefaultInterval, scheduler.interval)
	}

	if scheduler.seen == nil {
		t.Error("Expected seen set to be initialized")
	}

	if scheduler.stats == nil {
		t.Error("Expected stats to be initialized")
	}
}

func TestRunsFirstCycleImmediately(t *testing.T) {
	runner := &MockRunner{}
	scheduler := NewScheduler(runner, nil, nil, time.Hour)

	start := time.Now()
	scheduler.Start()
	waitFor(t, time.Second, func() bool { return runner.cycles() == 1 })

	if time.Since(start) > 500*time.Millisecond {
		t.Error("First cycle should not wait for the interval")
	}

	// Stop must not wait out the hour-long interval
	stopStart := time.Now()
	scheduler.Stop()
	if time.Since(stopStart) > time.Second {
		t.Errorf("Stop took %v, expected prompt cancellation", time.Since(stopStart))
	}

	if runner.cycles() != 1 {
		t.Errorf("Expected exactly 1 cycle, got %d", runner.cycles())
	}
}

func TestFixedDelayMeasuredFromCycleEnd(t *testing.T) {
	runner := &MockRunner{delay: 40 * time.Millisecond}
	interval := 30 * time.Millisecond
	scheduler := NewScheduler(runner, nil, nil, interval)

	scheduler.Start()
	waitFor(t, 2*time.Second, func() bool { return runner.cycles() >= 3 })
	scheduler.Stop()

	runner.mu.Lock()
	defer runner.mu.Unlock()

	if runner.overlap {
		t.Error("Cycles overlapped")
	}

	for i := 1; i < len(runner.ends) && i < len(runner.starts); i++ {
		gap := runner.starts[i].Sub(runner.ends[i-1])
		// Allow a little timer slack
		if gap < interval-5*time.Millisecond {
			t.Errorf("Cycle %d started %v after previous end, expected at least %v", i, gap, interval)
		}
	}
}

func TestStopLetsInFlightCycleFinish(t *testing.T) {
	runner := &MockRunner{
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	scheduler := NewScheduler(runner, nil, nil, time.Hour)

	scheduler.Start()
	select {
	case <-runner.started:
	case <-time.After(time.Second):
		t.Fatal("Cycle did not start")
	}

	stopped := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a cycle was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.block)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the cycle finished")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.ends) != 1 {
		t.Fatalf("Expected the in-flight cycle to complete, got %d", len(runner.ends))
	}
	if runner.ctxErrs[0] != nil {
		t.Errorf("In-flight cycle context should not be cancelled, got %v", runner.ctxErrs[0])
	}
}

func TestRunWithCancelledContext(t *testing.T) {
	runner := &MockRunner{}
	scheduler := NewScheduler(runner, nil, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scheduler.Run(ctx)

	if runner.cycles() != 0 {
		t.Errorf("Expected no cycles after cancellation, got %d", runner.cycles())
	}
	if scheduler.GetStats().Running {
		t.Error("Expected scheduler to report not running after Run returns")
	}
}

func TestStopWithoutStart(t *testing.T) {
	scheduler := NewScheduler(&MockRunner{}, nil, nil, time.Second)
	// Must not block or panic
	scheduler.Stop()
}

func TestGetStats(t *testing.T) {
	runner := &MockRunner{report: poll.Report{
		ID:         "cycle-1",
		Duration:   2 * time.Second,
		Items:      []news.Item{{Source: "a", ID: "1"}, {Source: "a", ID: "2"}},
		Failures:   []news.Failure{{Source: "b"}},
		Skips:      []news.Skip{{Source: "c"}},
		Duplicates: 4,
	}}
	adapters := make([]adapter.Adapter, 3)
	seen := dedup.NewSeenSet()
	seen.Record("a", "1")

	scheduler := NewScheduler(runner, adapters, seen, time.Second)

	stats := scheduler.GetStats()
	if stats.TotalCycles != 0 || stats.LastCycleAt != nil {
		t.Errorf("Expected empty stats before any cycle, got %+v", stats)
	}

	scheduler.runCycle(context.Background())
	stats = scheduler.GetStats()

	if stats.TotalCycles != 1 {
		t.Errorf("Expected total cycles 1, got %d", stats.TotalCycles)
	}
	if stats.TotalItems != 2 {
		t.Errorf("Expected total items 2, got %d", stats.TotalItems)
	}
	if stats.TotalFailures != 1 || stats.TotalSkips != 1 || stats.TotalDuplicates != 4 {
		t.Errorf("Unexpected totals: %+v", stats)
	}
	if stats.SourcePolls != 3 {
		t.Errorf("Expected 3 source polls, got %d", stats.SourcePolls)
	}
	if stats.SeenKeys != 1 {
		t.Errorf("Expected 1 seen key, got %d", stats.SeenKeys)
	}
	if stats.LastCycleID != "cycle-1" || stats.LastCycleAt == nil {
		t.Errorf("Expected last cycle to be recorded, got %+v", stats)
	}
	if stats.AverageCycleTime != 2*time.Second {
		t.Errorf("Expected average cycle time 2s, got %v", stats.AverageCycleTime)
	}
}

func TestHealth(t *testing.T) {
	scheduler := NewScheduler(&MockRunner{}, nil, nil, time.Second)

	health := scheduler.Health()

	if health["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", health["status"])
	}

	if health["total_cycles"] != int64(0) {
		t.Errorf("Expected total cycles 0, got %v", health["total_cycles"])
	}

	if _, ok := health["error_rate"]; ok {
		t.Error("Expected no error rate before any poll")
	}

	// Error rate > 10% is degraded
	scheduler.mu.Lock()
	scheduler.stats.SourcePolls = 10
	scheduler.stats.TotalFailures = 2
	scheduler.mu.Unlock()

	health = scheduler.Health()
	if health["error_rate"] != 0.2 {
		t.Errorf("Expected error rate 0.2, got %v", health["error_rate"])
	}
	if health["status"] != "degraded" {
		t.Errorf("Expected status 'degraded' with 20%% error rate, got %v", health["status"])
	}
}

func TestHealthWithHighErrorRate(t *testing.T) {
	scheduler := NewScheduler(&MockRunner{}, nil, nil, time.Second)

	scheduler.mu.Lock()
	scheduler.stats.SourcePolls = 10
	scheduler.stats.TotalFailures = 6
	scheduler.mu.Unlock()

	health := scheduler.Health()

	if health["status"] != "unhealthy" {
		t.Errorf("Expected status 'unhealthy' with 60%% error rate, got %v", health["status"])
	}
}

func TestUpdateAverageCycleTime(t *testing.T) {
	scheduler := NewScheduler(&MockRunner{}, nil, nil, time.Second)

	scheduler.updateAverageCycleTime()
	if scheduler.stats.AverageCycleTime != 0 {
		t.Errorf("Expected average cycle time 0 with no data, got %v", scheduler.stats.AverageCycleTime)
	}

	scheduler.stats.cycleTimes = []time.Duration{
		time.Second,
		2 * time.Second,
		3 * time.Second,
	}

	scheduler.updateAverageCycleTime()
	if scheduler.stats.AverageCycleTime != 2*time.Second {
		t.Errorf("Expected average cycle time 2s, got %v", scheduler.stats.AverageCycleTime)
	}
}

func TestCycleTimesAreBounded(t *testing.T) {
	scheduler := NewScheduler(&MockRunner{}, nil, nil, time.Second)

	for i := 0; i < keptCycleTimes+20; i++ {
		scheduler.runCycle(context.Background())
	}

	scheduler.mu.RLock()
	defer scheduler.mu.RUnlock()
	if len(scheduler.stats.cycleTimes) != keptCycleTimes {
		t.Errorf("Expected %d kept cycle times, got %d", keptCycleTimes, len(scheduler.stats.cycleTimes))
	}
}

func TestSchedulerWithOrchestrator(t *testing.T) {
	// End to end: the same item across cycles is emitted once
	a := &staticAdapter{name: "feed", items: []news.Item{{ID: "x", Title: "X"}}}
	scheduler := NewScheduler(poll.NewOrchestrator(nil), []adapter.Adapter{a}, nil, time.Second)

	first := scheduler.runCycle(context.Background())
	second := scheduler.runCycle(context.Background())

	if len(first.Items) != 1 || len(second.Items) != 0 {
		t.Errorf("Expected 1 then 0 items, got %d then %d", len(first.Items), len(second.Items))
	}
	if scheduler.GetStats().SeenKeys != 1 {
		t.Errorf("Expected 1 seen key, got %d", scheduler.GetStats().SeenKeys)
	}
}

type staticAdapter struct {
	name  string
	items []news.Item
}

func (s *staticAdapter) Name() string {
	return s.name
}

func (s *staticAdapter) Fetch(ctx context.Context) ([]news.Item, error) {
	return s.items, nil
}
