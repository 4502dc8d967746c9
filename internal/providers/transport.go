package providers

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// NewHTTPClient returns the outbound client shared by every Amadeus call.
// Connections are forced onto IPv4; ALL_PROXY/NO_PROXY are honoured by the
// dialer. A zero timeout leaves the transport defaults in charge.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = forceIPv4(proxy.Dial)
	return &http.Client{Transport: transport, Timeout: timeout}
}

// forceIPv4 rewrites every dial to "tcp4", whatever network the transport asks for.
func forceIPv4(dial dialFunc) dialFunc {
	return func(ctx context.Context, _, addr string) (net.Conn, error) {
		return dial(ctx, "tcp4", addr)
	}
}
