package adapter

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/lysyi3m/newswire/internal/news"
	"github.com/lysyi3m/newswire/internal/source"
)

// APIAdapter reads a JSON array of news objects in the Finnhub shape:
//
//	[{"id": 1, "datetime": 1700000000, "headline": "...", "url": "..."}]
type APIAdapter struct {
	fetcher
	src    news.SourceConfig
	apiKey string
	loc    *time.Location
	opts   Options
}

type apiItem struct {
	ID       any    `json:"id"`
	Datetime any    `json:"datetime"`
	Headline string `json:"headline"`
	URL      string `json:"url"`
}

func NewAPIAdapter(src news.SourceConfig, opts Options) *APIAdapter {
	opts = opts.withDefaults()
	return &APIAdapter{
		fetcher: fetcher{source: src.Name, client: opts.Client, userAgent: opts.UserAgent},
		src:     src,
		apiKey:  opts.APIKey,
		loc:     opts.Location,
		opts:    opts,
	}
}

func (a *APIAdapter) Name() string {
	return a.src.Name
}

func (a *APIAdapter) Fetch(ctx context.Context) ([]news.Item, error) {
	if a.apiKey == "" {
		return nil, &news.ConfigSkip{Source: a.src.Name, Reason: "API key not set"}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, a.src.GetTimeout(a.opts.Timeout))
	defer cancel()

	target := strings.ReplaceAll(a.src.URL, source.APIKeyPlaceholder, url.QueryEscape(a.apiKey))
	data, err := a.get(timeoutCtx, target, a.src.URL)
	if err != nil {
		return nil, err
	}

	items, err := a.parse(data)
	if err != nil {
		return nil, &news.ParseError{Source: a.src.Name, Err: err}
	}

	return items, nil
}

func (a *APIAdapter) parse(data []byte) ([]news.Item, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []apiItem
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON array: %w", err)
	}
	if raw == nil {
		return nil, errors.New("response is not a JSON array")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON array")
	}

	items := make([]news.Item, 0, len(raw))
	for i, r := range raw {
		id := cmp.Or(identity(r.ID), identity(r.Datetime))
		if id == "" {
			slog.Debug("Skipping API item without id or datetime", "source", a.src.Name, "index", i)
			continue
		}

		items = append(items, news.Item{
			Source:    a.src.Name,
			ID:        id,
			Title:     cleanText(r.Headline),
			URL:       r.URL,
			Timestamp: a.timestamp(r.Datetime),
		})
	}

	return items, nil
}

// identity renders a JSON id value as a key. Zero, empty and non-scalar
// values count as absent.
func identity(v any) string {
	switch v := v.(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			return ""
		}
		return v.String()
	case string:
		return v
	default:
		return ""
	}
}

func (a *APIAdapter) timestamp(v any) string {
	n, ok := v.(json.Number)
	if !ok {
		return ""
	}

	sec, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return ""
		}
		sec = int64(f)
	}
	if sec <= 0 {
		return ""
	}

	return time.Unix(sec, 0).In(a.loc).Format(time.RFC3339)
}
