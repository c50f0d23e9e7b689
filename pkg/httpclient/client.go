package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/pkg/utils"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	ErrUnavailable = errors.New("downstream service unavailable")
	ErrTimeout     = errors.New("downstream service timeout")
)

// APIError is a non-2xx answer decoded from the downstream error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("status %d: %s (%s)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// HasCode reports whether err is an APIError carrying code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	name    string
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func New(name, baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb:     utils.NewBreaker(name, logger, isSuccessful),
		logger: logger,
	}
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

// Do sends in as JSON and decodes a 2xx body into out. Calls are rejected
// with ErrUnavailable while the breaker is open.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	_, err := utils.ExecuteWithBreaker(c.cb, func() (struct{}, error) {
		return struct{}{}, c.do(ctx, method, path, in, out)
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		mylogger.Warn(ctx, c.logger, "Circuit breaker open", zap.String("downstream", c.name))
		return fmt.Errorf("%s: %w", c.name, ErrUnavailable)
	}

	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return fmt.Errorf("%s %s %s: %w", c.name, method, path, ErrTimeout)
		}

		return fmt.Errorf("%s %s %s: %w", c.name, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}

	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body utils.ErrorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		if body.Error != "" {
			apiErr.Message = body.Error
		}
		apiErr.Code = body.Code
	}

	return apiErr
}

// isSuccessful keeps client errors and cancellations from tripping the breaker.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}

	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError
}
