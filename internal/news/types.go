package news

import (
	"time"
)

type Kind string

const (
	KindAPI Kind = "api"
	KindRSS Kind = "rss"
)

func (k Kind) Valid() bool {
	return k == KindAPI || k == KindRSS
}

// Item is a normalized news item. ID identifies the item within its
// source's namespace only.
type Item struct {
	Source    string `json:"source"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp,omitempty"` // source-native or ISO-8601, empty when unknown
}

type SourceConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Kind    Kind   `yaml:"kind"`
	Timeout int    `yaml:"timeout"` // seconds, 0 means process default
}

func (s SourceConfig) GetTimeout(fallback time.Duration) time.Duration {
	if s.Timeout <= 0 {
		return fallback
	}
	return time.Duration(s.Timeout) * time.Second
}

type Failure struct {
	Source string
	Err    error
	At     time.Time
}

type Skip struct {
	Source string
	Reason string
	At     time.Time
}
