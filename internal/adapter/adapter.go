package adapter

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lysyi3m/newswire/internal/news"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "newswire/1.0"
)

type Options struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration  // used when the source sets no timeout
	APIKey    string         // substituted into API source URLs
	Location  *time.Location // zone for rendering API timestamps
}

func (o Options) withDefaults() Options {
	if o.Client == nil {
		o.Client = http.DefaultClient
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// New builds the adapter for src's kind.
func New(src news.SourceConfig, opts Options) (Adapter, error) {
	opts = opts.withDefaults()

	switch src.Kind {
	case news.KindAPI:
		return NewAPIAdapter(src, opts), nil
	case news.KindRSS:
		return NewRSSAdapter(src, opts), nil
	default:
		return nil, fmt.Errorf("source %q: unsupported kind %q", src.Name, src.Kind)
	}
}

// NewAll builds one adapter per source, preserving table order.
func NewAll(sources []news.SourceConfig, opts Options) ([]Adapter, error) {
	adapters := make([]Adapter, 0, len(sources))
	for _, src := range sources {
		a, err := New(src, opts)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}
