// Package upstream talks to the text-generation backend. The backend answers a GET with the
// whole completion as plain text; it does not stream.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungtweek/pollinations-proxy/internal/config"
	"github.com/yungtweek/pollinations-proxy/internal/logger"
)

// ErrTimeout is returned when the upstream does not answer within the configured timeout.
var ErrTimeout = errors.New("upstream request timed out")

// StatusError carries a non-2xx upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream error: %d - %s", e.Code, e.Body)
}

// The backend only serves requests that look like they come from its companion site.
var browserHeaders = map[string]string{
	"Accept":          "*/*",
	"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
	"Origin":          "https://aianswergenerator.pro",
	"Referer":         "https://aianswergenerator.pro/",
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

type Client struct {
	baseURL      string
	model        string
	timeout      time.Duration
	maxErrorBody int
	httpClient   *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.UpstreamBaseURL, "/"),
		model:        cfg.UpstreamModel,
		timeout:      cfg.UpstreamTimeout(),
		maxErrorBody: cfg.MaxErrorBodyBytes,
		httpClient:   &http.Client{Timeout: cfg.UpstreamTimeout()},
	}
}

// URLFor returns the upstream URL for a prompt: the prompt is a single escaped path segment.
func (c *Client) URLFor(prompt string) string {
	q := url.Values{"model": {c.model}}
	return c.baseURL + "/" + url.PathEscape(prompt) + "?" + q.Encode()
}

// FetchAnswer returns the full upstream answer for prompt. Failures are ErrTimeout
// (possibly wrapped) or *StatusError.
func (c *Client) FetchAnswer(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.URLFor(prompt)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build upstream request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	start := time.Now()
	logger.Log.Infow("[upstream] request", "method", req.Method, "url", target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			logger.Log.Warnw("[upstream] timeout", "timeout", c.timeout, "err", err)
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		logger.Log.Errorw("[upstream] request failed", "err", err)
		return "", fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, int64(c.errorBodyLimit())))
		logger.Log.Warnw("[upstream] non-success status", "status", resp.StatusCode, "bodyLen", len(body))
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return "", fmt.Errorf("read upstream body: %w", err)
	}

	text := string(body)
	logger.Log.Infow("[upstream] response",
		"status", resp.StatusCode,
		"chars", len([]rune(text)),
		"latencyMs", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (c *Client) errorBodyLimit() int {
	if c.maxErrorBody <= 0 {
		return 1024
	}
	return c.maxErrorBody
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
