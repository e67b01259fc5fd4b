package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-user-cache/user"
)

// maxErrorBody bounds how much of a failed response body is kept on StatusError.
const maxErrorBody = 4 << 10

// Client fetches user representations from {BaseURL}/users/{id}.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Timeouts are a property of
// the client passed here; the fetcher itself never adds one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithRateLimit throttles outgoing requests to perSecond with the given burst.
// A non-positive perSecond disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient creates a fetcher for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs GET {BaseURL}/users/{id}. Transport and HTTP failures are
// returned to the caller as-is; nothing is retried.
func (c *Client) Fetch(ctx context.Context, id string) (user.DTO, error) {
	if err := user.ValidateID(id); err != nil {
		return user.DTO{}, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return user.DTO{}, errors.Wrap(err, "wait for rate limiter")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userURL(id), nil)
	if err != nil {
		return user.DTO{}, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return user.DTO{}, errors.Wrapf(err, "fetch user %q", id)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return user.DTO{}, &StatusError{
			ID:         id,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var dto user.DTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return user.DTO{}, errors.Wrapf(err, "decode user %q", id)
	}
	if dto.ID != id {
		return user.DTO{}, &ResponseError{ID: id, Got: dto.ID}
	}
	return dto, nil
}

func (c *Client) userURL(id string) string {
	return c.BaseURL + "/users/" + url.PathEscape(id)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	ID         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("fetch user %q: unexpected status %d", e.ID, e.StatusCode)
	}
	return fmt.Sprintf("fetch user %q: unexpected status %d: %s", e.ID, e.StatusCode, e.Body)
}

// ResponseError is returned when a 2xx body describes a different user than
// the one requested.
type ResponseError struct {
	ID  string
	Got string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("fetch user %q: response carries id %q", e.ID, e.Got)
}

// Is maps a 404 onto user.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == user.ErrNotFound && e.StatusCode == http.StatusNotFound
}
