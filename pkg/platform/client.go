package platform

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HTTPClient posts JSON bodies with optional retries on transport errors and
// 5xx responses. Retries use exponential backoff; 4xx responses are returned
// as-is without retrying.
type HTTPClient struct {
	Client  *http.Client
	Retries int
	Logger  zerolog.Logger
}

// NewHTTPClient creates a client. retries is the number of additional
// attempts after the first; pass 0 for single-shot calls.
func NewHTTPClient(retries int, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		Client:  &http.Client{Timeout: timeout},
		Retries: retries,
		Logger:  log.Logger,
	}
}

// PostJSON posts body to url with Content-Type application/json plus any
// extra headers. The last response is returned even when it is a 5xx so the
// caller can surface the upstream status.
func (c *HTTPClient) PostJSON(ctx context.Context, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var resp *http.Response
	var err error

	for i := 0; i <= c.Retries; i++ {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err = c.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if i < c.Retries {
			if resp != nil {
				resp.Body.Close()
			}
			c.Logger.Warn().Str("url", url).Int("attempt", i+1).Err(err).Msg("HTTP request failed, retrying")
			time.Sleep(time.Duration(1<<i) * 200 * time.Millisecond)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d retries: %w", c.Retries, err)
	}
	return resp, nil
}
