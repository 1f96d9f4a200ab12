// Package httplog wraps an http.RoundTripper to log every outbound
// request and response an adapter makes to its upstream API.
package httplog

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"time"
)

const maxBodySize = 64 * 1024

// Transport logs method, URL, status, duration, and a truncated body for
// every request it proxies.
type Transport struct {
	inner    http.RoundTripper
	provider string
}

// NewHTTPClient returns an *http.Client that logs traffic to and from
// provider's upstream through the stdlib default transport.
func NewHTTPClient(provider string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &Transport{
			inner:    http.DefaultTransport,
			provider: provider,
		},
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var reqBody []byte
	if req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	start := time.Now()
	resp, err := t.inner.RoundTrip(req)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		log.Printf("httplog[%s]: %s %s failed after %dms: %v", t.provider, req.Method, req.URL, duration, err)
		return resp, err
	}

	var respBody []byte
	if resp.Body != nil {
		respBody, _ = io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewReader(respBody))
	}
	log.Printf("httplog[%s]: %s %s -> %d (%dms) body=%s", t.provider, req.Method, req.URL, resp.StatusCode, duration, truncate(string(respBody)))

	return resp, nil
}

func truncate(s string) string {
	if len(s) > maxBodySize {
		return s[:maxBodySize] + "...[truncated]"
	}
	return s
}
