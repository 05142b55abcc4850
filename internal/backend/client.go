// Package backend is the HTTP client for the stock analysis server. It opens
// analysis sessions, runs pipeline agents one request at a time, and fetches
// the dashboard data.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	ferrors "github.com/fin-foresight/foresight/internal/errors"
	"github.com/fin-foresight/foresight/internal/types"
)

// Client talks to one analysis backend. The backend keeps the analysis inputs
// in a cookie session, so a Client must be reused across StartAnalysis and
// the Invoke calls that follow it.
type Client struct {
	baseURL string
	http    *http.Client
	headers map[string]string
	logger  *slog.Logger
}

// New constructs a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	hc := cleanhttp.DefaultPooledClient()
	if jar, err := cookiejar.New(nil); err == nil {
		hc.Jar = jar
	}

	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    hc,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL returns the backend root the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StartAnalysis opens the server-side analysis session for req.
func (c *Client) StartAnalysis(ctx context.Context, req types.AnalysisRequest) error {
	if strings.TrimSpace(req.Ticker) == "" {
		return ferrors.RequestInvalid("ticker", "required")
	}

	form := url.Values{}
	form.Set("ticker", strings.ToUpper(strings.TrimSpace(req.Ticker)))
	setIf(form, "start_date", req.StartDate)
	setIf(form, "end_date", req.EndDate)
	setIf(form, "quarter", req.Quarter)

	resp, err := c.do(ctx, http.MethodPost, "/analyze", nil, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ferrors.Backend("/analyze", resp.StatusCode, resp.Status)
	}
	return nil
}

// runAgentResponse is the /run_agent envelope.
type runAgentResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Error   string         `json:"error"`
	Results *types.Results `json:"results"`
}

// Invoke runs one agent with a single POST /run_agent/{agent}. It never
// retries and never returns nil.
func (c *Client) Invoke(ctx context.Context, agent types.AgentID) types.StepResult {
	uri := "/run_agent/" + url.PathEscape(string(agent))
	start := time.Now()

	resp, err := c.do(ctx, http.MethodPost, uri, map[string]string{}, nil)
	if err != nil {
		c.logger.Debug("agent request failed", "agent", agent, "error", err)
		return types.TransportError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.TransportError{Cause: ferrors.Transport(http.MethodPost, c.baseURL+uri, err)}
	}

	var env runAgentResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return types.TransportError{Cause: ferrors.Decode(c.baseURL+uri, err)}
	}

	c.logger.Debug("agent responded",
		"agent", agent,
		"http_status", resp.StatusCode,
		"status", env.Status,
		"duration", time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 && env.Status == "success" {
		var next types.NextAgent
		if env.Results != nil {
			next = env.Results.CurrentAgent
		}
		return types.Success{Results: env.Results, Next: next}
	}

	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	if msg == "" && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		msg = http.StatusText(resp.StatusCode)
	}
	if msg == "" {
		msg = "An unexpected error occurred"
	}
	return types.ApplicationError{Message: msg, Results: env.Results}
}

// StockData fetches dashboard rows for tickers. An empty list asks the
// backend for its default tickers. Tickers the backend could not load are
// absent from the result.
func (c *Client) StockData(ctx context.Context, tickers []string) (map[string]types.StockSummary, error) {
	uri := "/get_stock_data"
	if len(tickers) > 0 {
		uri += "?" + url.Values{"tickers": {strings.Join(tickers, ",")}}.Encode()
	}

	out := map[string]types.StockSummary{}
	if err := c.getJSON(ctx, uri, &out); err != nil {
		return nil, err
	}
	for ticker, s := range out {
		if s.Ticker == "" {
			s.Ticker = ticker
			out[ticker] = s
		}
	}
	return out, nil
}

// TopStocks fetches the featured stock list with recent prices.
func (c *Client) TopStocks(ctx context.Context) ([]types.StockSummary, error) {
	var out []types.StockSummary
	if err := c.getJSON(ctx, "/api/top_stocks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

type indicatorResponse struct {
	Error   string                `json:"error"`
	Results types.IndicatorSeries `json:"results"`
}

// TechnicalIndicators fetches one indicator series for a symbol.
func (c *Client) TechnicalIndicators(ctx context.Context, req types.IndicatorRequest) (types.IndicatorSeries, error) {
	if strings.TrimSpace(req.Symbol) == "" {
		return nil, ferrors.RequestInvalid("symbol", "required")
	}
	if strings.TrimSpace(req.Function) == "" {
		return nil, ferrors.RequestInvalid("function", "required")
	}

	form := url.Values{}
	form.Set("symbol", strings.ToUpper(strings.TrimSpace(req.Symbol)))
	form.Set("function", strings.ToUpper(strings.TrimSpace(req.Function)))
	setIf(form, "interval", req.Interval)
	setIf(form, "series_type", req.SeriesType)
	if req.TimePeriod > 0 {
		form.Set("time_period", strconv.Itoa(req.TimePeriod))
	}
	if req.Days > 0 {
		form.Set("days", strconv.Itoa(req.Days))
	}

	const uri = "/technical_indicators"
	resp, err := c.do(ctx, http.MethodPost, uri, nil, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out indicatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, ferrors.Decode(c.baseURL+uri, err)
	}
	if out.Error != "" {
		return nil, ferrors.Backend(uri, resp.StatusCode, out.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ferrors.Backend(uri, resp.StatusCode, resp.Status)
	}
	return out.Results, nil
}

func (c *Client) getJSON(ctx context.Context, uri string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, uri, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ferrors.Transport(http.MethodGet, c.baseURL+uri, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return ferrors.Backend(uri, resp.StatusCode, msg)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return ferrors.Decode(c.baseURL+uri, err)
	}
	return nil
}

// do sends one request. A JSON body takes precedence over a form. Transport
// failures come back as coded errors.
func (c *Client) do(ctx context.Context, method, uri string, jsonBody any, form url.Values) (*http.Response, error) {
	full := c.baseURL + uri

	var body io.Reader
	contentType := ""
	switch {
	case jsonBody != nil:
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(jsonBody); err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = buf
		contentType = "application/json"
	case form != nil:
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, method, full, body)
	if err != nil {
		return nil, ferrors.Transport(method, full, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ferrors.Transport(method, full, err)
	}
	return resp, nil
}

func setIf(form url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		form.Set(key, v)
	}
}
