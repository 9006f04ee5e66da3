package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"golang.org/x/net/http2"
)

// TransportConfig shapes the connection pool under the client.
type TransportConfig struct {
	EnableHTTP2 bool

	// EnableHTTP3 tries QUIC first and falls back to TCP per request.
	EnableHTTP3 bool

	DialTimeout     time.Duration
	TLSClientConfig *tls.Config

	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
}

// NewTransport builds the round tripper for a TransportConfig.
func NewTransport(cfg TransportConfig) http.RoundTripper {
	dialTimeout := cfg.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 30 * time.Second
	}

	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: cfg.ExpectContinueTimeout,
		TLSClientConfig:       cfg.TLSClientConfig,
	}

	if cfg.EnableHTTP2 {
		// ALPN negotiation picks h2 over TLS; a configuration error
		// just leaves the transport on HTTP/1.1.
		_ = http2.ConfigureTransport(base)
	}

	if cfg.EnableHTTP3 {
		return newHTTP3Transport(base, cfg.TLSClientConfig)
	}
	return base
}

// http3Transport tries QUIC for https requests and falls back to the
// TCP transport when that fails.
type http3Transport struct {
	tcp  http.RoundTripper
	quic *http3.Transport
}

func newHTTP3Transport(tcp http.RoundTripper, tlsCfg *tls.Config) *http3Transport {
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &http3Transport{
		tcp: tcp,
		quic: &http3.Transport{
			TLSClientConfig: tlsCfg,
			QUICConfig:      &quic.Config{Allow0RTT: true},
		},
	}
}

func (t *http3Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == "https" {
		if resp, err := t.quic.RoundTrip(req); err == nil {
			return resp, nil
		}
	}
	return t.tcp.RoundTrip(req)
}

func (t *http3Transport) Close() error {
	return t.quic.Close()
}
