package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/lysyi3m/newswire/internal/news"
)

// LogSink renders every notice as a single human-readable line.
type LogSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewLogSink(w io.Writer) *LogSink {
	return &LogSink{w: w}
}

func (s *LogSink) Item(ctx context.Context, item news.Item) {
	if item.Timestamp == "" {
		s.println(fmt.Sprintf("[%s] %s - %s", item.Source, item.Title, item.URL))
		return
	}
	s.println(fmt.Sprintf("[%s %s] %s - %s", item.Source, item.Timestamp, item.Title, item.URL))
}

func (s *LogSink) Failure(ctx context.Context, failure news.Failure) {
	cause := errors.Unwrap(failure.Err)
	if cause == nil {
		cause = failure.Err
	}
	s.println(fmt.Sprintf("Error fetching %s: %v", failure.Source, cause))
}

func (s *LogSink) Skip(ctx context.Context, skip news.Skip) {
	s.println(fmt.Sprintf("%s: %s, skipping", skip.Source, skip.Reason))
}

func (s *LogSink) println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.w, line)
}
