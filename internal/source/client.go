// Package source is a minimal client for the league's public play-by-play
// and shift-chart endpoints. It returns raw payloads; decoding belongs to
// internal/normalize.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pable/go-nhl-metrics/internal/telemetry"
)

// Default endpoints.
const (
	DefaultBaseURL   = "https://api-web.nhle.com/v1"
	DefaultShiftsURL = "https://api.nhle.com/stats/rest/en/shiftcharts"
)

// maxBody caps a single response; a full game feed is a few megabytes.
const maxBody = 32 << 20

// HTTPError is returned for a non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the source.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusNotFound
}

// Client fetches raw game payloads.
type Client struct {
	baseURL   string
	shiftsURL string
	http      *http.Client
	limiter   *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the play-by-play host.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

// WithShiftsURL overrides the shift-chart endpoint.
func WithShiftsURL(u string) Option { return func(c *Client) { c.shiftsURL = u } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.Timeout = d } }

// WithRate limits requests per second; zero or less disables limiting.
func WithRate(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// NewClient returns a client with a 30 second timeout and 5 requests/second.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		shiftsURL: DefaultShiftsURL,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// get performs a rate-limited GET and returns the body.
func (c *Client) get(ctx context.Context, endpoint, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		telemetry.SourceRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	telemetry.SourceRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

// PlayByPlay returns the raw play-by-play feed for a game.
func (c *Client) PlayByPlay(ctx context.Context, gameID string) ([]byte, error) {
	return c.get(ctx, "pbp", fmt.Sprintf("%s/gamecenter/%s/play-by-play", c.baseURL, gameID))
}

// Shifts returns the raw shift chart for a game.
func (c *Client) Shifts(ctx context.Context, gameID string) ([]byte, error) {
	return c.get(ctx, "shifts", fmt.Sprintf("%s?cayenneExp=gameId=%s", c.shiftsURL, gameID))
}

// RegularSeasonGameIDs returns the first count regular-season game ids of a
// season given as "20232024": the start year, the "02" game type and a
// four-digit game number.
func RegularSeasonGameIDs(season string, count int) ([]string, error) {
	if len(season) != 8 {
		return nil, fmt.Errorf("season %q: want eight digits like 20232024", season)
	}
	start, err1 := strconv.Atoi(season[:4])
	end, err2 := strconv.Atoi(season[4:])
	if err1 != nil || err2 != nil || end != start+1 {
		return nil, fmt.Errorf("season %q: want consecutive years like 20232024", season)
	}
	if count < 0 || count > 9999 {
		return nil, fmt.Errorf("game count %d out of range", count)
	}
	ids := make([]string, count)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d02%04d", start, i+1)
	}
	return ids, nil
}
