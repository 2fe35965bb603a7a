// Package httpclient holds the single HTTP abstraction every REST caller in
// this module depends on.
package httpclient

import (
	"net/http"
	"time"
)

// Doer sends an HTTP request and returns its response.
// *http.Client satisfies it; tests substitute their own.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// New returns an *http.Client with a pooled transport and the given timeout.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// DoerFunc adapts a function to Doer.
type DoerFunc func(req *http.Request) (*http.Response, error)

// Do calls f(req).
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}
