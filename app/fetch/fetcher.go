package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout = 30 * time.Second
	retryCount     = 2 // 3 attempts total
	retryBaseWait  = 2 * time.Second
	retryMaxWait   = 8 * time.Second
)

// Client fetches raw feed payloads over HTTP. Underlying resty clients are
// cached per (timeout, TLS policy) pair so the timeout lives on the
// http.Client and bounds each attempt separately: a timed-out attempt still
// leaves budget for its retries. The relaxed TLS variants exist to tolerate
// sources with misconfigured certificates; this is a trust trade-off accepted
// per source, not a security feature.
type Client struct {
	opts    Options
	mu      sync.Mutex
	clients map[clientKey]*resty.Client
}

type clientKey struct {
	timeout     time.Duration
	tlsInsecure bool
}

type Options struct {
	Timeout   time.Duration
	UserAgent string
	// TLSInsecure disables certificate verification for every request,
	// not just for sources that opt in.
	TLSInsecure bool
}

// RequestOptions override client defaults for a single fetch.
type RequestOptions struct {
	Timeout     time.Duration
	TLSInsecure bool
}

func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	return &Client{
		opts:    opts,
		clients: make(map[clientKey]*resty.Client),
	}
}

func (c *Client) clientFor(opts RequestOptions) *resty.Client {
	key := clientKey{
		timeout:     opts.Timeout,
		tlsInsecure: opts.TLSInsecure || c.opts.TLSInsecure,
	}
	if key.timeout <= 0 {
		key.timeout = c.opts.Timeout
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[key]; ok {
		return client
	}

	client := newRestyClient(c.opts, key.timeout, key.tlsInsecure)
	c.clients[key] = client

	return client
}

func newRestyClient(opts Options, timeout time.Duration, tlsInsecure bool) *resty.Client {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryBaseWait).
		SetRetryMaxWaitTime(retryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true // timeouts and connection failures
			}
			// 4xx (403 included) is terminal; retrying will not help
			return r.StatusCode() >= 500
		}).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml, text/xml, */*")

	if tlsInsecure {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return client
}

// Fetch issues a GET for url and returns the raw body, or a typed *Error
// after retries are exhausted. The timeout applies per attempt; retries use
// exponential backoff starting at retryBaseWait. A deadline on ctx still
// caps the whole call for callers that need one.
func (c *Client) Fetch(ctx context.Context, url string, opts RequestOptions) ([]byte, error) {
	client := c.clientFor(opts)

	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, classifyTransportError(url, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &Error{Kind: KindHTTPStatus, URL: url, StatusCode: resp.StatusCode()}
	}

	return resp.Body(), nil
}

func classifyTransportError(url string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, URL: url, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, URL: url, Err: err}
	}

	return &Error{Kind: KindConnectionFailed, URL: url, Err: err}
}
