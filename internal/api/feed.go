package api

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/lysyi3m/newswire/internal/sink"
)

// generateFeed renders archived items as RSS 2.0, newest first.
func generateFeed(items []sink.ArchivedItem, version string) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n<rss version=\"2.0\">\n  <channel>\n")

	writeElement(&buf, "title", "newswire", 4)
	writeElement(&buf, "description", "Financial news collected from configured sources", 4)
	writeElement(&buf, "lastBuildDate", time.Now().Format(time.RFC1123Z), 4)
	writeElement(&buf, "generator", fmt.Sprintf("newswire/%s", version), 4)

	for _, item := range items {
		writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String()
}

func writeItem(buf *bytes.Buffer, item sink.ArchivedItem) {
	buf.WriteString("    <item>\n")

	// Identity keys are only unique per source
	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(item.Source+":"+item.ID))
	buf.WriteString("</guid>\n")

	writeElement(buf, "title", item.Title, 6)
	writeElement(buf, "link", item.URL, 6)
	writeElement(buf, "category", item.Source, 6)

	if pubDate := formatPubDate(item.Timestamp); pubDate != "" {
		writeElement(buf, "pubDate", pubDate, 6)
	}

	buf.WriteString("    </item>\n")
}

// formatPubDate converts a source timestamp to RFC 1123Z. Timestamps that
// do not parse as RFC 3339 or RFC 1123 are passed through unchanged.
func formatPubDate(ts string) string {
	if ts == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format(time.RFC1123Z)
		}
	}
	return ts
}

func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
