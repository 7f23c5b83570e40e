package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lysyi3m/newswire/internal/adapter"
	"github.com/lysyi3m/newswire/internal/dedup"
	"github.com/lysyi3m/newswire/internal/news"
	"github.com/lysyi3m/newswire/internal/sink"
)

// Report is the outcome of one poll cycle. Items holds each source's new
// items in adapter order, sources in the order they were passed in.
type Report struct {
	ID         string
	StartedAt  time.Time
	Duration   time.Duration
	Items      []news.Item
	Failures   []news.Failure
	Skips      []news.Skip
	Duplicates int
}

type Orchestrator struct {
	sink sink.Sink
}

func NewOrchestrator(s sink.Sink) *Orchestrator {
	if s == nil {
		s = sink.MultiSink(nil)
	}
	return &Orchestrator{sink: s}
}

type sourceResult struct {
	items      []news.Item
	fetched    int
	duplicates int
	failure    *news.Failure
	skip       *news.Skip
	duration   time.Duration
}

// RunCycle polls every adapter concurrently and waits for all of them. A
// failing adapter never affects the others, and RunCycle itself never
// fails: every outcome lands in the report and is delivered to the sink.
func (o *Orchestrator) RunCycle(ctx context.Context, adapters []adapter.Adapter, seen *dedup.SeenSet) Report {
	report := Report{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}

	results := make([]sourceResult, len(adapters))

	var wg sync.WaitGroup
	for i, a := range adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = o.pollSource(ctx, a, seen)
		}()
	}
	wg.Wait()

	for i, res := range results {
		name := adapters[i].Name()

		switch {
		case res.failure != nil:
			report.Failures = append(report.Failures, *res.failure)
			slog.Warn("Source failed", "cycle", report.ID, "source", name, "duration", res.duration, "error", res.failure.Err)
			o.sink.Failure(ctx, *res.failure)
		case res.skip != nil:
			report.Skips = append(report.Skips, *res.skip)
			slog.Debug("Source skipped", "cycle", report.ID, "source", name, "reason", res.skip.Reason)
			o.sink.Skip(ctx, *res.skip)
		default:
			report.Items = append(report.Items, res.items...)
			report.Duplicates += res.duplicates
			slog.Debug("Source polled",
				"cycle", report.ID,
				"source", name,
				"duration", res.duration,
				"total", res.fetched,
				"duplicates", res.duplicates,
				"new", len(res.items))
			for _, item := range res.items {
				o.sink.Item(ctx, item)
			}
		}
	}

	report.Duration = time.Since(report.StartedAt)

	slog.Info("Cycle completed",
		"cycle", report.ID,
		"sources", len(adapters),
		"duration", report.Duration,
		"new", len(report.Items),
		"duplicates", report.Duplicates,
		"failures", len(report.Failures),
		"skips", len(report.Skips))

	return report
}

func (o *Orchestrator) pollSource(ctx context.Context, a adapter.Adapter, seen *dedup.SeenSet) (res sourceResult) {
	name := a.Name()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = sourceResult{failure: &news.Failure{
				Source: name,
				Err:    &news.FetchError{Source: name, Err: fmt.Errorf("adapter panic: %v", r)},
				At:     time.Now(),
			}}
		}
		res.duration = time.Since(start)
	}()

	items, err := a.Fetch(ctx)
	if err != nil {
		return classify(name, err)
	}

	res.fetched = len(items)
	res.items = make([]news.Item, 0, len(items))
	for _, item := range items {
		item.Source = name
		if !seen.Accept(name, item.ID) {
			res.duplicates++
			continue
		}
		res.items = append(res.items, item)
	}

	return res
}

func classify(name string, err error) sourceResult {
	var skip *news.ConfigSkip
	if errors.As(err, &skip) {
		return sourceResult{skip: &news.Skip{Source: name, Reason: skip.Reason, At: time.Now()}}
	}

	var fetchErr *news.FetchError
	var parseErr *news.ParseError
	if !errors.As(err, &fetchErr) && !errors.As(err, &parseErr) {
		err = &news.FetchError{Source: name, Err: err}
	}

	return sourceResult{failure: &news.Failure{Source: name, Err: err, At: time.Now()}}
}
