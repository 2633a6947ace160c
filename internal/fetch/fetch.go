package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	initialBackoff    = time.Second
	maxBodyBytes      = 6 << 20
)

type Config struct {
	HTTPClient *http.Client
	// MaxRetries caps retry attempts after the first try. Zero means the
	// default cap; a negative value disables retries.
	MaxRetries int
	Timeout    time.Duration
	Header     http.Header
	// Backoff overrides the initial retry backoff. Zero keeps the default.
	Backoff time.Duration
}

// Client performs one logical fetch-decode-validate cycle against an
// upstream JSON endpoint with a uniform resilience policy: exponential
// backoff retry for transport and parse failures, a single end-to-end
// timeout wrapping the whole loop, and no logging of its own.
type Client struct {
	httpClient *http.Client
	maxRetries int
	timeout    time.Duration
	header     http.Header
	backoff    time.Duration
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	if cfg.MaxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = initialBackoff
	}

	header := make(http.Header, len(cfg.Header))
	for key, values := range cfg.Header {
		for _, value := range values {
			header.Add(key, value)
		}
	}

	return &Client{
		httpClient: httpClient,
		maxRetries: maxRetries,
		timeout:    timeout,
		header:     header,
		backoff:    backoff,
	}
}

// GetJSON fetches fullURL and hands the raw body to decode. The decode
// callback owns JSON unmarshalling plus schema validation and must return
// errors marked with the taxonomy in errors.go so the retry predicate can
// classify them. The body slice is only valid for the duration of the call.
func (c *Client) GetJSON(ctx context.Context, fullURL string, decode func([]byte) error) error {
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	backoff := c.backoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		lastErr = c.fetchOnce(ctx, fullURL, decode)
		if lastErr == nil {
			return nil
		}
		if err := budgetErr(parent, ctx); err != nil {
			return err
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == c.maxRetries {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			if err := budgetErr(parent, ctx); err != nil {
				return err
			}
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return lastErr
}

func (c *Client) fetchOnce(ctx context.Context, fullURL string, decode func([]byte) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return crerr.Mark(crerr.Wrap(err, "build request"), ErrTransport)
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return crerr.Mark(crerr.Wrap(err, "send request"), ErrTransport)
	}
	defer func() { _ = resp.Body.Close() }()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := io.Copy(buf, io.LimitReader(resp.Body, maxBodyBytes)); err != nil {
		return crerr.Mark(crerr.Wrap(err, "read response body"), ErrTransport)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return NewStatusError(resp.StatusCode, resp.Status)
	}

	return decode(buf.B)
}

// DecodeJSON unmarshals raw into target, marking failures as parse errors
// so the pipeline retries them as transient upstream hiccups.
func DecodeJSON(raw []byte, target any) error {
	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Mark(crerr.Wrap(err, "decode json"), ErrParse)
	}
	return nil
}

// budgetErr reports the end-to-end budget elapsing as its own failure kind.
// A cancellation that came from the caller is passed through untouched.
func budgetErr(parent, ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	if parent.Err() != nil {
		return parent.Err()
	}
	if crerr.Is(ctx.Err(), context.DeadlineExceeded) {
		return crerr.Mark(crerr.Wrap(ctx.Err(), "fetch"), ErrTimeout)
	}
	return ctx.Err()
}
