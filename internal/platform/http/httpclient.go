// Package http holds HTTP client plumbing shared by outbound callers.
package http

import (
	"net"
	"net/http"
	"time"
)

// NewTransport returns a transport with explicit dial, idle and TLS timeouts.
// http.DefaultTransport has no dial timeout short enough for a CLI.
func NewTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
}

// NewHTTPClient returns a client with an overall timeout. A nil rt uses
// NewTransport.
func NewHTTPClient(timeout time.Duration, rt http.RoundTripper) *http.Client {
	if rt == nil {
		rt = NewTransport()
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}
