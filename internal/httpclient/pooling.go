// Package httpclient owns the shared pooled transport for outbound
// HTTP calls so repeated requests to the same host reuse connections.
package httpclient

import (
	"net/http"
	"time"
)

const (
	maxIdleConns        = 100
	maxIdleConnsPerHost = 10
	idleConnTimeout     = 90 * time.Second
)

var pooledTransport = &http.Transport{
	MaxIdleConns:        maxIdleConns,
	MaxIdleConnsPerHost: maxIdleConnsPerHost,
	IdleConnTimeout:     idleConnTimeout,
}

// Pooled returns a client with the shared transport and the given
// per-request timeout.
func Pooled(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: pooledTransport,
		Timeout:   timeout,
	}
}
