package sink

import (
	"context"

	"github.com/lysyi3m/newswire/internal/news"
)

// MultiSink delivers each notice to every sink in order.
type MultiSink []Sink

func (m MultiSink) Item(ctx context.Context, item news.Item) {
	for _, s := range m {
		s.Item(ctx, item)
	}
}

func (m MultiSink) Failure(ctx context.Context, failure news.Failure) {
	for _, s := range m {
		s.Failure(ctx, failure)
	}
}

func (m MultiSink) Skip(ctx context.Context, skip news.Skip) {
	for _, s := range m {
		s.Skip(ctx, skip)
	}
}
