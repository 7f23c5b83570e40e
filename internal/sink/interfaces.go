package sink

import (
	"context"

	"github.com/lysyi3m/newswire/internal/news"
)

// Sink consumes the outcome of a poll cycle: new items, per-source failures
// and informational skips. Implementations must not panic and report their
// own errors through logging.
type Sink interface {
	Item(ctx context.Context, item news.Item)
	Failure(ctx context.Context, failure news.Failure)
	Skip(ctx context.Context, skip news.Skip)
}

var (
	_ Sink = (*LogSink)(nil)
	_ Sink = (*ArchiveSink)(nil)
	_ Sink = (*RedisSink)(nil)
	_ Sink = MultiSink(nil)
)
