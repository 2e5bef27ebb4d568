// Package dataapi is the client for the remote analytics API
// every failure it returns carries exactly one project error code:
// Network, Timeout, Unauthorized, NotFound, Upstream (5xx) or InvalidArgument
package dataapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"insightboard/internal/core/dataset"
	"insightboard/internal/core/filter"
	"insightboard/internal/core/query"
	perr "insightboard/internal/platform/errors"
	"insightboard/internal/platform/logger"
)

const (
	baseURLDefault      = "http://localhost:5000/api"
	defaultTimeout      = 30 * time.Second
	defaultUA           = "insightboard"
	defaultLimit        = 100
	defaultMaxLimit     = 1000
	defaultMaxBodyBytes = 32 << 20
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	// Timeout bounds every call, including reading the body
	Timeout time.Duration

	// DefaultLimit applies when FetchRecords gets a non-positive limit
	DefaultLimit int
	// MaxLimit caps the page size sent upstream
	MaxLimit int
	// MaxBodyBytes caps how much of a response is read
	MaxBodyBytes int64

	// NoCacheBust drops the _t timestamp param normally added to GETs
	NoCacheBust bool

	// Tokens supplies the bearer credential; nil means an empty MemoryTokens
	Tokens TokenStore
	// HTTP overrides the transport client, mostly for tests
	HTTP *http.Client
}

// Client talks to the analytics API; safe for concurrent use
type Client struct {
	http   *http.Client
	opts   Options
	tokens TokenStore
	log    logger.Logger
	now    func() time.Time
}

// NewClient creates a Client with defaults filled in
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = defaultMaxLimit
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = defaultLimit
	}
	if o.DefaultLimit > o.MaxLimit {
		o.DefaultLimit = o.MaxLimit
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
	if o.Tokens == nil {
		o.Tokens = NewMemoryTokens("")
	}
	hc := o.HTTP
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		http:   hc,
		opts:   o,
		tokens: o.Tokens,
		log:    *logger.Named("dataapi"),
		now:    time.Now,
	}
}

// Tokens exposes the credential store so callers can log in or out
func (c *Client) Tokens() TokenStore { return c.tokens }

// WithTokens returns a client that shares c's transport and settings but keeps its own credentials
// used to give every dashboard session its own token
func (c *Client) WithTokens(ts TokenStore) *Client {
	if ts == nil {
		ts = NewMemoryTokens("")
	}
	cp := *c
	cp.opts.Tokens = ts
	cp.tokens = ts
	return &cp
}

// BaseURL returns the normalised API root
func (c *Client) BaseURL() string { return c.opts.BaseURL }

// ClampLimit maps a requested page size into [1, MaxLimit], using DefaultLimit for non-positive input
func (c *Client) ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return c.opts.DefaultLimit
	case limit > c.opts.MaxLimit:
		return c.opts.MaxLimit
	default:
		return limit
	}
}

// request is one API call
type request struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
}

// response is a successful reply
type response struct {
	body        []byte
	contentType string
}

// do runs one request and records its metrics
func (c *Client) do(ctx context.Context, r request) (response, error) {
	start := c.now()
	resp, err := c.roundTrip(ctx, r)
	took := c.now().Sub(start)
	observe(r.endpoint, took, err)

	ev := c.log.Debug()
	if err != nil {
		ev = c.log.Warn().Err(err)
	}
	ev.Str("endpoint", r.endpoint).
		Str("method", r.method).
		Str("path", r.path).
		Dur("latency", took).
		Msg("dataapi call")

	if err != nil {
		return response{}, perr.WithOp(err, "dataapi."+r.endpoint)
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, r request) (response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	q := url.Values{}
	for k, vs := range r.query {
		q[k] = vs
	}
	if r.method == http.MethodGet && !c.opts.NoCacheBust {
		q.Set("_t", strconv.FormatInt(c.now().UnixMilli(), 10))
	}
	target := c.opts.BaseURL + r.path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return response{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "encode request body")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return response{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, perr.FromTransport(err, "analytics api unreachable")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", r.path).Msg("dataapi close body failed")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return response{}, c.statusError(resp)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodyBytes))
	if err != nil {
		return response{}, perr.FromTransport(err, "read analytics api response")
	}
	return response{body: b, contentType: resp.Header.Get("Content-Type")}, nil
}

// statusError classifies a non-2xx reply; a 401 also drops the stored credential
func (c *Client) statusError(resp *http.Response) error {
	tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := upstreamMessage(tail)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	code := perr.CodeForStatus(resp.StatusCode)
	if code == perr.ErrorCodeUnknown {
		code = perr.ErrorCodeUpstream
	}
	// 401 and 403 are both the unauthorized kind and both drop the credential
	if code == perr.ErrorCodeUnauthorized {
		c.tokens.Clear()
		c.log.Warn().Int("status", resp.StatusCode).Msg("analytics api rejected credential, token cleared")
	}
	return perr.Newf(code, "analytics api %d: %s", resp.StatusCode, msg)
}

// upstreamMessage pulls {"message"} or {"error"} out of an error body
func upstreamMessage(b []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(b, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func decode(b []byte, out any, what string) error {
	if err := json.Unmarshal(b, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "malformed %s response", what)
	}
	return nil
}

// FetchRecords returns one page of raw records matching m
// page below 1 becomes 1 and limit is clamped before transmission
func (c *Client) FetchRecords(ctx context.Context, m filter.Model, page, limit int) (dataset.RecordsPage, error) {
	if page < 1 {
		page = 1
	}
	q := query.Values(m)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(c.ClampLimit(limit)))

	resp, err := c.do(ctx, request{endpoint: "records", method: http.MethodGet, path: "/data", query: q})
	if err != nil {
		return dataset.RecordsPage{}, err
	}
	var out dataset.RecordsPage
	if err := decode(resp.body, &out, "records"); err != nil {
		return dataset.RecordsPage{}, err
	}
	if out.Data == nil {
		out.Data = []dataset.Record{}
	}
	return out, nil
}

// FetchStats returns summary statistics for m
func (c *Client) FetchStats(ctx context.Context, m filter.Model) (dataset.Stats, error) {
	resp, err := c.do(ctx, request{endpoint: "stats", method: http.MethodGet, path: "/data/stats", query: query.Values(m)})
	if err != nil {
		return dataset.Stats{}, err
	}
	var out struct {
		Stats dataset.Stats `json:"stats"`
	}
	if err := decode(resp.body, &out, "stats"); err != nil {
		return dataset.Stats{}, err
	}
	return out.Stats, nil
}

// FetchFilterOptions returns the selectable values of every filter column
func (c *Client) FetchFilterOptions(ctx context.Context) (dataset.FilterOptions, error) {
	resp, err := c.do(ctx, request{endpoint: "filters", method: http.MethodGet, path: "/data/filters"})
	if err != nil {
		return dataset.FilterOptions{}, err
	}
	var out struct {
		Filters dataset.FilterOptions `json:"filters"`
	}
	if err := decode(resp.body, &out, "filter options"); err != nil {
		return dataset.FilterOptions{}, err
	}
	return out.Filters, nil
}

// FetchVisualization runs one named aggregation over m
// an unknown type fails with InvalidArgument before anything is sent
func (c *Client) FetchVisualization(ctx context.Context, t dataset.VisualizationType, m filter.Model) ([]dataset.AggregationRow, error) {
	if !t.Valid() {
		rejectedTotal.WithLabelValues("visualization").Inc()
		err := perr.WithField(perr.InvalidArgf("unknown visualization type %q", string(t)), "type")
		return nil, perr.WithOp(err, "dataapi.visualization")
	}
	resp, err := c.do(ctx, request{
		endpoint: "visualization",
		method:   http.MethodPost,
		path:     "/data/visualization",
		body:     map[string]any{"type": t, "filters": query.Encode(m)},
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []dataset.AggregationRow `json:"data"`
	}
	if err := decode(resp.body, &out, "visualization"); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []dataset.AggregationRow{}
	}
	return out.Data, nil
}

// Ping checks that the API answers its cheapest read
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, request{endpoint: "ping", method: http.MethodGet, path: "/data/filters"})
	return err
}
