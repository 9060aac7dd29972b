package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

// Response is a raw answer from a job board API
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs one blocking GET per call.
// HTTP error statuses are returned in Response; only transport failures are errors.
type Transport interface {
	Get(ctx context.Context, rawURL string, headers map[string]string, params url.Values) (*Response, error)
}

// Config holds transport configuration
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	RequestDelay time.Duration
}

// CollyTransport implements Transport on top of a Colly collector
type CollyTransport struct {
	collector *colly.Collector
}

// NewCollyTransport creates a transport that paces requests per host
func NewCollyTransport(cfg Config) *CollyTransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	c := colly.NewCollector(opts...)

	// Non-2xx bodies still reach OnResponse instead of surfacing as errors
	c.ParseHTTPErrorResponse = true
	c.SetRequestTimeout(cfg.Timeout)

	if cfg.RequestDelay > 0 {
		_ = c.Limit(&colly.LimitRule{
			DomainGlob: "*",
			Delay:      cfg.RequestDelay,
		})
	}

	return &CollyTransport{collector: c}
}

// Get fetches rawURL with params merged into its query string
func (t *CollyTransport) Get(ctx context.Context, rawURL string, headers map[string]string, params url.Values) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	query := u.Query()
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	u.RawQuery = query.Encode()

	hdr := http.Header{}
	hdr.Set("Accept", "application/json")
	for k, v := range headers {
		hdr.Set(k, v)
	}

	collector := t.collector.Clone()
	collector.Context = ctx

	var resp *Response
	collector.OnResponse(func(r *colly.Response) {
		resp = &Response{StatusCode: r.StatusCode, Body: r.Body}
	})

	if err := collector.Request(http.MethodGet, u.String(), nil, nil, hdr); err != nil {
		return nil, fmt.Errorf("get %s: %w", u.Redacted(), err)
	}
	if resp == nil {
		return nil, fmt.Errorf("get %s: no response", u.Redacted())
	}

	return resp, nil
}

var _ Transport = (*CollyTransport)(nil)

// Func adapts a function to Transport
type Func func(ctx context.Context, rawURL string, headers map[string]string, params url.Values) (*Response, error)

func (f Func) Get(ctx context.Context, rawURL string, headers map[string]string, params url.Values) (*Response, error) {
	return f(ctx, rawURL, headers, params)
}
