package adapter

import (
	"context"

	"github.com/lysyi3m/newswire/internal/news"
)

// Adapter performs one fetch against a single source and returns its items
// in the order the source lists them.
//
// Fetch never returns a bare error: failures are *news.FetchError or
// *news.ParseError, and a disabled adapter returns *news.ConfigSkip.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]news.Item, error)
}

var (
	_ Adapter = (*APIAdapter)(nil)
	_ Adapter = (*RSSAdapter)(nil)
)
