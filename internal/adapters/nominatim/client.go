// Package nominatim resolves place queries against an OpenStreetMap
// Nominatim server.
package nominatim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/pkg/metrics"
)

// Config configures the client.
type Config struct {
	BaseURL   string
	UserAgent string
	Email     string // sent as the email parameter when set
	Timeout   time.Duration
	// RatePerSecond caps upstream requests. The public server allows 1.
	RatePerSecond float64

	// Dial overrides how connections are made.
	Dial fasthttp.DialFunc
}

// Client implements ports.Geocoder.
type Client struct {
	cfg     Config
	http    *fasthttp.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]domain.GeocodeResult]
}

// New creates a client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "smarttrack/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}

	hc := &fasthttp.Client{
		Name:                cfg.UserAgent,
		ReadTimeout:         cfg.Timeout,
		WriteTimeout:        cfg.Timeout,
		MaxConnsPerHost:     4,
		MaxIdleConnDuration: 30 * time.Second,
	}
	if cfg.Dial != nil {
		hc.Dial = cfg.Dial
	}

	cb := gobreaker.NewCircuitBreaker[[]domain.GeocodeResult](gobreaker.Settings{
		Name:        "nominatim",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("geocoder circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		cfg:     cfg,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		cb:      cb,
	}
}

// Search returns up to limit places matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.GeocodeRequests.WithLabelValues("throttled").Inc()
		return nil, fmt.Errorf("geocoder rate limit: %w", err)
	}

	start := time.Now()
	results, err := c.cb.Execute(func() ([]domain.GeocodeResult, error) {
		return c.fetch(ctx, query, limit)
	})
	metrics.GeocodeDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.GeocodeRequests.WithLabelValues("rejected").Inc()
		return nil, err
	case err != nil:
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.GeocodeRequests.WithLabelValues("ok").Inc()
	return results, nil
}

// State reports the circuit breaker state.
func (c *Client) State() string {
	return c.cb.State().String()
}

func (c *Client) searchURL(query string, limit int) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("format", "json")
	v.Set("limit", strconv.Itoa(limit))
	if c.cfg.Email != "" {
		v.Set("email", c.cfg.Email)
	}
	return c.cfg.BaseURL + "/search?" + v.Encode()
}

func (c *Client) fetch(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.searchURL(query, limit))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", code)
	}
	return ParseResults(resp.Body())
}

type place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// ParseResults decodes a Nominatim jsonv1 search response. Entries with
// unparseable coordinates are skipped.
func ParseResults(body []byte) ([]domain.GeocodeResult, error) {
	var places []place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}

	results := make([]domain.GeocodeResult, 0, len(places))
	for _, p := range places {
		lat, err := strconv.ParseFloat(p.Lat, 64)
		if err != nil {
			continue
		}
		lng, err := strconv.ParseFloat(p.Lon, 64)
		if err != nil {
			continue
		}
		r := domain.GeocodeResult{DisplayName: p.DisplayName, Lat: lat, Lng: lng}
		if !(domain.LatLng{Lat: lat, Lng: lng}).Valid() {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}
