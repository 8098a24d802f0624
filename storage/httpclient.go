package storage

import (
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// newHTTPClient builds the shared HTTP client for the S3 backend: a tuned
// transport with HTTP/2 enabled, and redirect following disabled so a 3xx is
// always visible to the caller instead of being silently chased.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:          200,
		MaxIdleConnsPerHost:   50,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	// HTTP/2 is opportunistic; a transport that cannot be upgraded still
	// works over HTTP/1.1.
	http2.ConfigureTransport(transport)

	return &http.Client{
		Transport: transport,
		// Request deadlines are set per call through contexts; redirects are
		// surfaced as responses so timing and credentials never leak to an
		// unintended host.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
