package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/newswire/internal/news"
	_ "modernc.org/sqlite"
)

// ArchiveSink keeps a SQLite record of emitted items and failures. It is
// write-only from the poller's point of view: nothing reads it back to
// decide what is new.
type ArchiveSink struct {
	db *sql.DB
}

type ArchivedItem struct {
	news.Item
	SeenAt time.Time `json:"seen_at"`
}

func OpenArchive(path string) (*ArchiveSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to archive: %w", err)
	}

	version, err := runMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Archive ready", "path", path, "schema_version", version)

	return &ArchiveSink{db: db}, nil
}

func (a *ArchiveSink) Close() error {
	return a.db.Close()
}

func (a *ArchiveSink) Item(ctx context.Context, item news.Item) {
	_, err := a.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO items (source, identity, title, url, published, seen_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.Source, item.ID, item.Title, item.URL, item.Timestamp, now())
	if err != nil {
		slog.Error("Archive write failed", "operation", "insert_item", "source", item.Source, "error", err)
	}
}

func (a *ArchiveSink) Failure(ctx context.Context, failure news.Failure) {
	at := failure.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO failures (source, error, occurred_at) VALUES (?, ?, ?)
	`, failure.Source, failure.Err.Error(), at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		slog.Error("Archive write failed", "operation", "insert_failure", "source", failure.Source, "error", err)
	}
}

// Skip is not archived: a skip is a configuration state, not an event.
func (a *ArchiveSink) Skip(ctx context.Context, skip news.Skip) {}

const (
	DefaultRecentItems = 50
	MaxRecentItems     = 1000
)

// Recent returns up to limit archived items, newest first. A non-positive
// limit means DefaultRecentItems; larger limits are capped at MaxRecentItems.
func (a *ArchiveSink) Recent(ctx context.Context, limit int) ([]ArchivedItem, error) {
	if limit <= 0 {
		limit = DefaultRecentItems
	}
	limit = min(limit, MaxRecentItems)

	rows, err := a.db.QueryContext(ctx, `
		SELECT source, identity, title, url, published, seen_at
		FROM items
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]ArchivedItem, 0, limit)
	for rows.Next() {
		var item ArchivedItem
		var seenAt string
		if err := rows.Scan(&item.Source, &item.ID, &item.Title, &item.URL, &item.Timestamp, &seenAt); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		if item.SeenAt, err = time.Parse(time.RFC3339Nano, seenAt); err != nil {
			return nil, fmt.Errorf("invalid seen_at %q: %w", seenAt, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

// Counts returns the number of archived items and failures.
func (a *ArchiveSink) Counts(ctx context.Context) (int, int, error) {
	var items, failures int
	err := a.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM items), (SELECT COUNT(*) FROM failures)
	`).Scan(&items, &failures)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count archive rows: %w", err)
	}
	return items, failures, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
