package adapter

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/newswire/internal/news"
	"github.com/mmcdole/gofeed"
)

// RSSAdapter reads RSS and Atom documents. An adapter is invoked at most
// once at a time, which the underlying gofeed parser requires.
type RSSAdapter struct {
	fetcher
	src          news.SourceConfig
	gofeedParser *gofeed.Parser
	opts         Options
}

func NewRSSAdapter(src news.SourceConfig, opts Options) *RSSAdapter {
	opts = opts.withDefaults()
	return &RSSAdapter{
		fetcher:      fetcher{source: src.Name, client: opts.Client, userAgent: opts.UserAgent},
		src:          src,
		gofeedParser: gofeed.NewParser(),
		opts:         opts,
	}
}

func (a *RSSAdapter) Name() string {
	return a.src.Name
}

func (a *RSSAdapter) Fetch(ctx context.Context) ([]news.Item, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, a.src.GetTimeout(a.opts.Timeout))
	defer cancel()

	data, err := a.get(timeoutCtx, a.src.URL, a.src.URL)
	if err != nil {
		return nil, err
	}

	items, err := a.parse(data)
	if err != nil {
		return nil, &news.ParseError{Source: a.src.Name, Err: err}
	}

	return items, nil
}

func (a *RSSAdapter) parse(data []byte) ([]news.Item, error) {
	feed, err := a.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]news.Item, 0, len(feed.Items))
	for i, entry := range feed.Items {
		if entry == nil {
			continue
		}

		id := cmp.Or(entry.GUID, entry.Link)
		if id == "" {
			slog.Debug("Skipping feed entry without guid or link", "source", a.src.Name, "index", i)
			continue
		}

		items = append(items, news.Item{
			Source:    a.src.Name,
			ID:        id,
			Title:     cleanText(entry.Title),
			URL:       entry.Link,
			Timestamp: cmp.Or(entry.Published, entry.Updated),
		})
	}

	return items, nil
}
