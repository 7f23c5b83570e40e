package api

import (
	"context"

	"github.com/lysyi3m/newswire/internal/news"
	"github.com/lysyi3m/newswire/internal/scheduler"
	"github.com/lysyi3m/newswire/internal/sink"
)

type StatsProvider interface {
	GetStats() scheduler.Stats
	Health() map[string]interface{}
}

type Archive interface {
	Recent(ctx context.Context, limit int) ([]sink.ArchivedItem, error)
	Counts(ctx context.Context) (int, int, error)
}

var _ StatsProvider = (*scheduler.Scheduler)(nil)
var _ Archive = (*sink.ArchiveSink)(nil)

type Handler struct {
	stats   StatsProvider
	sources []news.SourceConfig
	archive Archive
	version string
}
