package quoteclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoteScope/internal/model"
)

const quoteBody = `{
  "amount_in": {"denom": "uosmo", "amount": "1000000"},
  "amount_out": "500000",
  "route": [{"pools": [{"id": "1", "type": "concentrated", "token_in": "uosmo", "token_out": "uusdc"}]}],
  "effective_fee": "0.002",
  "price_impact": "-0.0001",
  "in_base_out_quote_spot_price": "0.5",
  "price_info": null
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, Options{})
	require.NoError(t, err)
	return c
}

func baseRequest() Request {
	return Request{TokenIn: model.NewCoin("uosmo", 1_000_000), TokenOutDenoms: []string{"uusdc"}, Timeout: time.Second}
}

func TestGetQuoteSuccess(t *testing.T) {
	var got url.Values
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		got = r.URL.Query()
		_, _ = w.Write([]byte(quoteBody))
	})

	req := baseRequest()
	req.SingleRoute = true
	quote, elapsed, err := c.GetExactAmountInQuote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, quotePath, path)
	assert.Equal(t, "1000000uosmo", got.Get("tokenIn"))
	assert.Equal(t, "uusdc", got.Get("tokenOutDenom"))
	assert.Equal(t, "true", got.Get("singleRoute"))
	assert.Empty(t, got.Get("poolID"))
	assert.Positive(t, elapsed)

	assert.Equal(t, "uosmo", quote.AmountIn.Denom)
	assert.Equal(t, int64(500000), quote.AmountOut.Int64())
	assert.True(t, quote.SpotPrice.Equal(decimal.RequireFromString("0.5")))
	require.NotNil(t, quote.PriceImpact)
	assert.Nil(t, quote.PriceInfo)
	require.Len(t, quote.Route, 1)
	assert.Equal(t, model.PoolTypeConcentrated, quote.Route[0].Hops[0].PoolType)
}

func TestGetQuoteCustomDirectParams(t *testing.T) {
	var got url.Values
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		got = r.URL.Query()
		_, _ = w.Write([]byte(quoteBody))
	})

	req := baseRequest()
	req.TokenOutDenoms = []string{"uion", "uusdc"}
	req.PoolIDs = []string{"1", "1077"}
	_, _, err := c.GetExactAmountInQuote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, customDirectQuotePath, path)
	assert.Equal(t, "1,1077", got.Get("poolID"))
	assert.Equal(t, "uion,uusdc", got.Get("tokenOutDenom"))
}

func TestGetQuoteSimulationParams(t *testing.T) {
	var got url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(quoteBody))
	})

	slippage := decimal.RequireFromString("0.8")
	req := baseRequest()
	req.Simulate = true
	req.SimulatorAddress = "osmo10s3vlv40h64qs2p98yal9w0tpm4r30uyg6ceux"
	req.SlippageTolerance = &slippage
	_, _, err := c.GetExactAmountInQuote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.SimulatorAddress, got.Get("simulatorAddress"))
	assert.Equal(t, "0.8", got.Get("simulationSlippageTolerance"))
}

func TestGetQuoteRejectsInvalidSimulation(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	zero := decimal.Zero
	half := decimal.RequireFromString("0.5")
	cases := map[string]func(*Request){
		"simulate without address": func(r *Request) { r.Simulate = true },
		"slippage without address": func(r *Request) { r.SlippageTolerance = &half },
		"address without slippage": func(r *Request) {
			r.Simulate = true
			r.SimulatorAddress = "osmo10s3vlv40h64qs2p98yal9w0tpm4r30uyg6ceux"
		},
		"non-positive slippage": func(r *Request) {
			r.Simulate = true
			r.SimulatorAddress = "osmo1xyz"
			r.SlippageTolerance = &zero
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := baseRequest()
			mutate(&req)
			_, _, err := c.GetExactAmountInQuote(context.Background(), req)
			require.Error(t, err)
		})
	}
	assert.Zero(t, calls)
}

func TestGetQuoteServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no route found", http.StatusInternalServerError)
	})

	_, _, err := c.GetExactAmountInQuote(context.Background(), baseRequest())
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusInternalServerError, svcErr.Status)
	assert.Equal(t, "no route found", svcErr.Body)
}

func TestGetQuoteExpectedNonOKStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad denom", http.StatusBadRequest)
	})

	req := baseRequest()
	req.ExpectedStatus = http.StatusBadRequest
	quote, _, err := c.GetExactAmountInQuote(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, quote.AmountOut)
}

func TestGetQuoteTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	req := baseRequest()
	req.Timeout = 50 * time.Millisecond
	_, elapsed, err := c.GetExactAmountInQuote(context.Background(), req)
	var sla *LatencySLAViolation
	require.True(t, errors.As(err, &sla), "got %v", err)
	assert.GreaterOrEqual(t, sla.Elapsed, req.Timeout)
	assert.Equal(t, req.Timeout, sla.Limit)
	assert.Equal(t, sla.Elapsed, elapsed)
}

func TestGetQuoteStrictDecode(t *testing.T) {
	bodies := map[string]string{
		"missing amount_out":  `{"amount_in":{"denom":"uosmo","amount":"1"},"route":[],"effective_fee":"0","price_impact":null,"in_base_out_quote_spot_price":"1","price_info":null}`,
		"mistyped amount_out": `{"amount_in":{"denom":"uosmo","amount":"1"},"amount_out":12,"route":[],"effective_fee":"0","price_impact":null,"in_base_out_quote_spot_price":"1","price_info":null}`,
		"not an object":       `[]`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, _, err := c.GetExactAmountInQuote(context.Background(), baseRequest())
			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr), "got %v", err)
		})
	}
}

func TestGetQuoteRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(quoteBody))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, Options{RPS: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	_, _, err = c.GetExactAmountInQuote(ctx, baseRequest())
	require.NoError(t, err)
	cancel()
	_, _, err = c.GetExactAmountInQuote(ctx, baseRequest())
	require.Error(t, err)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", Options{})
	require.Error(t, err)
}
