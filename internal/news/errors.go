package news

import (
	"fmt"
)

// FetchError is a network-level failure: transport error, timeout or a
// non-2xx response.
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError is a response body that cannot be decoded into the source's
// schema.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigSkip reports an adapter disabled by missing configuration. It is
// informational, not a failure.
type ConfigSkip struct {
	Source string
	Reason string
}

func (e *ConfigSkip) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}
