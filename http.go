package main

import (
	"net"
	"net/http"
	"runtime"
	"time"
)

// Client identifier sent with every outbound request.
const userAgent = "birdy-vendor-bird"

const (
	metadataTimeout = 60 * time.Second
	downloadTimeout = 120 * time.Second
)

// metadataClient is used for release metadata lookups.
// If token is non-empty, a bearer authorization header is attached.
func metadataClient(token string) *http.Client {
	return &http.Client{
		Transport: newTransport(token),
		Timeout:   metadataTimeout,
	}
}

// downloadClient is used for asset downloads, which get a longer deadline.
func downloadClient(token string) *http.Client {
	return &http.Client{
		Transport: newTransport(token),
		Timeout:   downloadTimeout,
	}
}

func newTransport(token string) http.RoundTripper {
	return &headerTransport{
		Transport: defaultTransport(),
		token:     token,
	}
}

func defaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   runtime.GOMAXPROCS(0) + 1,
	}
}

// headerTransport sets the fixed User-Agent and, when configured, the
// bearer token on every request that does not carry them already.
type headerTransport struct {
	*http.Transport
	token string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if values := req.Header.Values("User-Agent"); len(values) == 0 {
		req.Header.Set("User-Agent", userAgent)
	}
	if t.token != "" {
		if values := req.Header.Values("Authorization"); len(values) == 0 {
			req.Header.Set("Authorization", "Bearer "+t.token)
		}
	}
	return t.Transport.RoundTrip(req)
}
