// Package httpclient provides the outbound HTTP client used for metadata
// providers, mirrors, and direct media downloads.
package httpclient

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ytgrab-go/pkg/config"
	"ytgrab-go/pkg/logging"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"
)

// fingerprintHosts are upstream hosts that fingerprint the TLS ClientHello.
// Requests to them go out with a browser-like handshake.
var fingerprintHosts = []string{
	"youtube.com",
	"youtu.be",
	"googlevideo.com",
}

// Client wraps http.Client with a browser-fingerprint transport for hostile
// upstreams and optional proxy routing for everything else.
type Client struct {
	defaultClient *http.Client
	utlsClient    *http.Client
	log           *logging.Logger
}

// ipv4DialContext forces IPv4-only connections. Some mirror hosts publish
// AAAA records that are unreachable from container environments.
func ipv4DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if network == "tcp" {
		network = "tcp4"
	}
	d := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 60 * time.Second}
	return d.DialContext(ctx, network, addr)
}

// New creates the outbound client from configuration.
func New(cfg *config.Config, log *logging.Logger) *Client {
	transport := &http.Transport{
		DialContext:           ipv4DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	if cfg.Proxy != "" {
		configureProxy(transport, cfg.Proxy, log)
	}

	return &Client{
		defaultClient: &http.Client{Transport: transport},
		utlsClient:    &http.Client{Transport: newUTLSRoundTripper()},
		log:           log.WithComponent("httpclient"),
	}
}

// configureProxy wires an http or socks5 proxy into the transport.
func configureProxy(transport *http.Transport, proxyURL string, log *logging.Logger) {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		log.Error("invalid proxy URL, connecting directly", "proxy", proxyURL, "error", err)
		return
	}

	switch parsed.Scheme {
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(parsed, proxy.Direct)
		if err != nil {
			log.Error("failed to create SOCKS5 dialer", "error", err)
			return
		}
		if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = contextDialer.DialContext
		} else {
			transport.Dial = dialer.Dial
		}
	case "http", "https":
		transport.Proxy = http.ProxyURL(parsed)
	default:
		log.Warn("unsupported proxy scheme", "scheme", parsed.Scheme)
	}
}

// Do executes a request, choosing the fingerprinted transport when the target
// host demands it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if needsFingerprint(req.URL.Host) {
		c.log.Debug("using browser TLS fingerprint", "host", req.URL.Host)
		return c.utlsClient.Do(req)
	}
	return c.defaultClient.Do(req)
}

// Get issues a GET with the given headers.
func (c *Client) Get(ctx context.Context, urlStr string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return c.Do(req)
}

func needsFingerprint(host string) bool {
	lower := strings.ToLower(host)
	for _, h := range fingerprintHosts {
		if lower == h || strings.HasSuffix(lower, "."+h) {
			return true
		}
	}
	return false
}

// utlsRoundTripper dials with a Chrome ClientHello and speaks HTTP/2 when the
// upstream negotiates it, HTTP/1.1 otherwise.
type utlsRoundTripper struct {
	dialer      *net.Dialer
	h2Transport *http2.Transport
}

func newUTLSRoundTripper() *utlsRoundTripper {
	return &utlsRoundTripper{
		dialer: &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 60 * time.Second,
		},
		h2Transport: &http2.Transport{},
	}
}

func (t *utlsRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return http.DefaultTransport.RoundTrip(req)
	}

	addr := req.URL.Host
	if !strings.Contains(addr, ":") {
		addr += ":443"
	}

	conn, err := t.dialer.DialContext(req.Context(), "tcp4", addr)
	if err != nil {
		return nil, err
	}

	tlsConfig := &utls.Config{ServerName: req.URL.Hostname()}
	utlsConn := utls.UClient(conn, tlsConfig, utls.HelloChrome_120)
	if err := utlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	if utlsConn.ConnectionState().NegotiatedProtocol == "h2" {
		h2Conn, err := t.h2Transport.NewClientConn(utlsConn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return h2Conn.RoundTrip(req)
	}

	return t.doHTTP1Request(utlsConn, req)
}

func (t *utlsRoundTripper) doHTTP1Request(conn net.Conn, req *http.Request) (*http.Response, error) {
	if err := req.Write(conn); err != nil {
		conn.Close()
		return nil, err
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		conn.Close()
		return nil, err
	}

	resp.Body = &connCloser{resp.Body, conn}
	return resp, nil
}

// connCloser ties the raw connection's lifetime to the response body.
type connCloser struct {
	io.ReadCloser
	conn net.Conn
}

func (c *connCloser) Close() error {
	c.ReadCloser.Close()
	return c.conn.Close()
}
