package cfg

import "time"

type Cfg struct {
	// Sources
	SourcesFile   string
	FinnhubAPIKey string

	// Polling
	Interval  time.Duration
	Timeout   time.Duration
	UserAgent string

	// Outputs
	Port         string
	ArchivePath  string
	RedisAddr    string
	RedisChannel string

	// Application metadata
	Timezone string
	Location *time.Location
	Debug    bool
	Version  string
}

// StatusAPIEnabled reports whether the HTTP status API should be served.
func (c *Cfg) StatusAPIEnabled() bool {
	return c.Port != ""
}
