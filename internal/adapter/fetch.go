package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/lysyi3m/newswire/internal/news"
)

const maxBodySize = 5 << 20

type fetcher struct {
	source    string
	client    *http.Client
	userAgent string
}

// get issues a GET against target. display replaces the request URL in
// error messages so secrets embedded in target never reach the logs.
func (f *fetcher) get(ctx context.Context, target, display string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &news.FetchError{Source: f.source, Err: fmt.Errorf("failed to create request: %w", redact(err, display))}
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &news.FetchError{Source: f.source, Err: redact(err, display)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &news.FetchError{
			Source:     f.source,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, &news.FetchError{Source: f.source, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if len(data) > maxBodySize {
		return nil, &news.FetchError{Source: f.source, Err: fmt.Errorf("response body exceeds %d bytes", maxBodySize)}
	}

	return data, nil
}

func redact(err error, display string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = display
	}
	return err
}
