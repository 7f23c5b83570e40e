package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/newswire/internal/news"
	"github.com/lysyi3m/newswire/internal/sink"
	"github.com/lysyi3m/newswire/internal/source"
)

const defaultItemLimit = sink.DefaultRecentItems

// Query parameters whose values are never shown by /sources.
var secretParams = []string{"token", "apikey", "api_key", "key"}

// NewHandler builds the status handlers. archive may be nil when archiving
// is disabled.
func NewHandler(stats StatsProvider, sources []news.SourceConfig, archive Archive, version string) *Handler {
	return &Handler{
		stats:   stats,
		sources: sources,
		archive: archive,
		version: version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := h.stats.Health()
	health["timestamp"] = time.Now().Format(time.RFC3339)
	health["sources"] = len(h.sources)

	status := http.StatusOK
	if health["status"] == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	response := map[string]interface{}{
		"scheduler": h.stats.GetStats(),
	}

	if h.archive != nil {
		items, failures, err := h.archive.Counts(c.Request.Context())
		if err != nil {
			slog.Error("Archive error", "operation", "counts", "error", err)
		} else {
			response["archive"] = map[string]int{
				"items":    items,
				"failures": failures,
			}
		}
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) ListSources(c *gin.Context) {
	sources := make([]map[string]interface{}, 0, len(h.sources))

	for _, src := range h.sources {
		info := map[string]interface{}{
			"name":     src.Name,
			"kind":     src.Kind,
			"endpoint": redactEndpoint(src.URL),
		}
		if src.Timeout > 0 {
			info["timeout"] = (time.Duration(src.Timeout) * time.Second).String()
		}
		sources = append(sources, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) ListItems(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Archive is disabled"})
		return
	}

	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	items, err := h.archive.Recent(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Archive error", "operation", "recent_items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Archive error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// GetFeed serves the most recent archived items as a single RSS 2.0 feed.
func (h *Handler) GetFeed(c *gin.Context) {
	if h.archive == nil {
		c.Status(http.StatusNotFound)
		return
	}

	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	items, err := h.archive.Recent(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Archive error", "operation", "feed_items", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss := generateFeed(items, h.version)

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.String(http.StatusOK, rss)
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultItemLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return min(limit, sink.MaxRecentItems), true
}

// redactEndpoint hides credentials that were written directly into a source
// URL. The key placeholder is left as is.
func redactEndpoint(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}

	query := u.Query()
	changed := false
	for param, values := range query {
		if !isSecretParam(param) {
			continue
		}
		for i, v := range values {
			if v != source.APIKeyPlaceholder {
				values[i] = "REDACTED"
				changed = true
			}
		}
	}
	if !changed {
		return endpoint
	}

	u.RawQuery = query.Encode()
	return u.String()
}

func isSecretParam(param string) bool {
	param = strings.ToLower(param)
	for _, secret := range secretParams {
		if param == secret {
			return true
		}
	}
	return false
}
