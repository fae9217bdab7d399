// Package quoteclient issues exact-amount-in quote requests against the routing service.
package quoteclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"quoteScope/internal/model"
)

const (
	quotePath             = "/router/quote"
	customDirectQuotePath = "/router/custom-direct-quote"

	// DefaultTimeout is the latency ceiling applied when a request names none.
	DefaultTimeout = 15 * time.Second

	maxErrorBody = 4 << 10
)

// Request describes one quote call.
type Request struct {
	TokenIn           model.Coin
	TokenOutDenoms    []string
	PoolIDs           []string
	SingleRoute       bool
	Simulate          bool
	Timeout           time.Duration
	ExpectedStatus    int
	SimulatorAddress  string
	SlippageTolerance *decimal.Decimal
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	HTTPClient *http.Client
	// RPS limits outgoing requests across all callers; zero disables the limit.
	RPS    float64
	Logger *zap.Logger
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(baseURL string, opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("service url must be http or https: %q", baseURL)
	}

	c := &Client{baseURL: base, http: opts.HTTPClient, logger: opts.Logger}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return c, nil
}

func (r Request) validate() error {
	if err := r.TokenIn.Validate(); err != nil {
		return fmt.Errorf("token in: %w", err)
	}
	if len(r.TokenOutDenoms) == 0 {
		return fmt.Errorf("token out denom is required")
	}
	for _, denom := range r.TokenOutDenoms {
		if strings.TrimSpace(denom) == "" {
			return fmt.Errorf("token out denom is empty")
		}
	}
	if len(r.PoolIDs) > 0 && len(r.PoolIDs) != len(r.TokenOutDenoms) {
		return fmt.Errorf("pool ids (%d) and token out denoms (%d) differ in length", len(r.PoolIDs), len(r.TokenOutDenoms))
	}
	if r.Simulate && r.SimulatorAddress == "" {
		return fmt.Errorf("simulation requires a simulator address")
	}
	if r.SimulatorAddress != "" && r.SlippageTolerance == nil {
		return fmt.Errorf("slippage tolerance is required for simulation")
	}
	if r.SlippageTolerance != nil {
		if r.SimulatorAddress == "" {
			return fmt.Errorf("slippage tolerance requires a simulator address")
		}
		if !r.SlippageTolerance.IsPositive() {
			return fmt.Errorf("slippage tolerance must be positive, got %s", r.SlippageTolerance)
		}
	}
	return nil
}

func (c *Client) endpoint(r Request) string {
	path := quotePath
	q := url.Values{}
	q.Set("tokenIn", r.TokenIn.String())
	q.Set("tokenOutDenom", strings.Join(r.TokenOutDenoms, ","))
	if len(r.PoolIDs) > 0 {
		path = customDirectQuotePath
		q.Set("poolID", strings.Join(r.PoolIDs, ","))
	}
	if r.SingleRoute {
		q.Set("singleRoute", "true")
	}
	if r.Simulate {
		q.Set("simulatorAddress", r.SimulatorAddress)
		if r.SlippageTolerance != nil {
			q.Set("simulationSlippageTolerance", r.SlippageTolerance.String())
		}
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()
	return u.String()
}

// GetExactAmountInQuote performs one attempt and returns the decoded quote with the measured
// latency. When the expected status is not 200 and the service returns it, the body is not
// decoded and the zero Quote is returned.
func (c *Client) GetExactAmountInQuote(ctx context.Context, r Request) (model.Quote, time.Duration, error) {
	if err := r.validate(); err != nil {
		return model.Quote{}, 0, fmt.Errorf("invalid quote request: %w", err)
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	expected := r.ExpectedStatus
	if expected == 0 {
		expected = http.StatusOK
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return model.Quote{}, 0, fmt.Errorf("wait rate limiter: %w", err)
		}
	}

	start := time.Now()
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.endpoint(r)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Quote{}, 0, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		elapsed := time.Since(start)
		if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || elapsed >= timeout) {
			return model.Quote{}, elapsed, &LatencySLAViolation{Elapsed: elapsed, Limit: timeout}
		}
		return model.Quote{}, elapsed, fmt.Errorf("send quote request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || elapsed >= timeout) {
			return model.Quote{}, elapsed, &LatencySLAViolation{Elapsed: elapsed, Limit: timeout}
		}
		return model.Quote{}, elapsed, fmt.Errorf("read quote body: %w", err)
	}
	c.logger.Debug("quote response",
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)

	if resp.StatusCode != expected {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return model.Quote{}, elapsed, &ServiceError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if elapsed >= timeout {
		return model.Quote{}, elapsed, &LatencySLAViolation{Elapsed: elapsed, Limit: timeout}
	}
	if expected != http.StatusOK {
		return model.Quote{}, elapsed, nil
	}

	var quote model.Quote
	if err := json.Unmarshal(body, &quote); err != nil {
		return model.Quote{}, elapsed, &DecodeError{Err: err}
	}
	return quote, elapsed, nil
}
