// Package harness executes scenarios against the quote service and records their outcomes.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quoteScope/internal/expect"
	"quoteScope/internal/model"
	"quoteScope/internal/quoteclient"
	"quoteScope/internal/refdata"
	"quoteScope/internal/storage"
	"quoteScope/internal/tolerance"
	"quoteScope/internal/validate"
)

// RunConfig holds runtime settings for a verification run.
type RunConfig struct {
	RunID                     string
	Concurrency               int
	RequestTimeout            time.Duration
	BatchSize                 int
	Tolerance                 tolerance.Policy
	TransmuterTolerance       decimal.Decimal
	TransmuterMinLiquidityUSD decimal.Decimal
	PriceImpactUSDThreshold   decimal.Decimal
	MaxPriceImpact            decimal.Decimal
}

// QuoteRequester performs one quote request. *quoteclient.Client satisfies it.
type QuoteRequester interface {
	GetExactAmountInQuote(ctx context.Context, r quoteclient.Request) (model.Quote, time.Duration, error)
}

// Observer receives every result. *metrics.Recorder satisfies it.
type Observer interface {
	Observe(res model.ScenarioResult)
}

// Runner executes scenarios in parallel and writes their results to storage.
type Runner struct {
	cfg      RunConfig
	snapshot *refdata.Snapshot
	calc     *expect.Calculator
	client   QuoteRequester
	storage  storage.Storage
	observer Observer
	logger   *zap.Logger
	now      func() time.Time
}

// NewRunner builds a Runner with its dependencies. storageSink and observer may be nil.
func NewRunner(cfg RunConfig, snapshot *refdata.Snapshot, client QuoteRequester, storageSink storage.Storage, observer Observer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		snapshot: snapshot,
		calc:     expect.NewCalculator(snapshot),
		client:   client,
		storage:  storageSink,
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes every scenario and returns per-scenario results in input order with the run
// summary. A failing scenario never stops the others; only ctx cancellation or a storage error
// ends the run with an error.
func (r *Runner) Run(ctx context.Context, scenarios []model.Scenario) ([]model.ScenarioResult, model.RunSummary, error) {
	summary := model.RunSummary{RunID: r.cfg.RunID, StartedAt: r.now().UTC(), ByClass: make(map[model.FailureClass]int)}
	if r.snapshot == nil {
		return nil, summary, fmt.Errorf("snapshot is nil")
	}
	if r.client == nil {
		return nil, summary, fmt.Errorf("quote client is nil")
	}
	if r.cfg.Concurrency <= 0 {
		return nil, summary, fmt.Errorf("concurrency must be greater than zero")
	}
	if err := r.cfg.Tolerance.Validate(); err != nil {
		return nil, summary, fmt.Errorf("tolerance policy: %w", err)
	}
	batchSize := r.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = len(scenarios)
		if batchSize == 0 {
			batchSize = 1
		}
	}
	spans, err := SplitSpans(len(scenarios), batchSize)
	if err != nil {
		return nil, summary, err
	}

	r.logger.Info("run start", zap.String("run_id", r.cfg.RunID), zap.Int("scenarios", len(scenarios)), zap.Int("concurrency", r.cfg.Concurrency))

	results := make([]model.ScenarioResult, len(scenarios))
	for _, span := range spans {
		if err := ctx.Err(); err != nil {
			return results[:span.From], summary, fmt.Errorf("run cancelled: %w", err)
		}

		g := new(errgroup.Group)
		g.SetLimit(r.cfg.Concurrency)
		for i := span.From; i < span.To; i++ {
			g.Go(func() error {
				results[i] = r.runScenario(ctx, scenarios[i])
				return nil
			})
		}
		_ = g.Wait()

		batch := results[span.From:span.To]
		for _, res := range batch {
			summary.Add(res)
			if r.observer != nil {
				r.observer.Observe(res)
			}
		}
		if r.storage != nil {
			if err := r.storage.PutResults(batch); err != nil {
				return results[:span.To], summary, fmt.Errorf("store results: %w", err)
			}
		}
		r.logger.Info("batch complete", zap.Int("from", span.From), zap.Int("to", span.To))
	}

	summary.FinishedAt = r.now().UTC()
	r.logger.Info("run complete",
		zap.String("run_id", r.cfg.RunID),
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return results, summary, nil
}

func (r *Runner) runScenario(ctx context.Context, s model.Scenario) model.ScenarioResult {
	res := model.ScenarioResult{
		RunID:      r.cfg.RunID,
		ScenarioID: s.ID,
		Kind:       s.Kind,
		TokenIn:    s.TokenIn.String(),
		TokenOut:   s.TokenOutDenom(),
	}

	latency, tol, diagnostics, err := r.check(ctx, s)
	res.CheckedAt = r.now().UTC()
	res.LatencyMs = latency.Milliseconds()
	if !tol.IsZero() {
		res.Tolerance = tol.String()
	}
	res.Diagnostics = diagnostics
	res.Status, res.Class = Classify(err)

	var service *quoteclient.ServiceError
	if errors.As(err, &service) {
		res.StatusCode = service.Status
	}

	switch res.Status {
	case model.StatusSkipped:
		res.SkipReason = err.Error()
		var unavailable *refdata.DataUnavailableError
		if errors.As(err, &unavailable) {
			r.logger.Info("scenario skipped", zap.String("scenario", s.ID), zap.String("denom", unavailable.Denom), zap.String("field", unavailable.Field))
		} else {
			r.logger.Info("scenario skipped", zap.String("scenario", s.ID), zap.String("reason", res.SkipReason))
		}
	case model.StatusFailed:
		res.Error = err.Error()
		r.logger.Warn("scenario failed", zap.String("scenario", s.ID), zap.String("class", string(res.Class)), zap.Error(err))
	default:
		r.logger.Debug("scenario passed", zap.String("scenario", s.ID), zap.Int64("latency_ms", res.LatencyMs))
	}
	return res
}

// check resolves reference data, requests the quote and validates it. Reference data is
// resolved first so scenarios that would be skipped send no request.
func (r *Runner) check(ctx context.Context, s model.Scenario) (time.Duration, decimal.Decimal, []model.Diagnostic, error) {
	denomOut := s.TokenOutDenom()

	var pre expect.Expectation
	var err error
	switch s.Kind {
	case model.KindNumeraireIn:
		pre, err = r.calc.Numeraire(s.TokenIn, denomOut)
	case model.KindTopLiquidityPair, model.KindOrderbook:
		pre, err = r.calc.Pair(s.TokenIn, denomOut)
	case model.KindTransmuter:
		if err = r.checkBalanced(s); err == nil {
			pre, err = r.calc.Pair(s.TokenIn, denomOut)
		}
	case model.KindDirectRoute, model.KindSimulation:
	default:
		return 0, decimal.Zero, nil, fmt.Errorf("unknown scenario kind %q", s.Kind)
	}
	if err != nil {
		return 0, decimal.Zero, nil, err
	}

	quote, latency, err := r.client.GetExactAmountInQuote(ctx, quoteclient.Request{
		TokenIn:           s.TokenIn,
		TokenOutDenoms:    s.TokenOutDenoms,
		PoolIDs:           s.PoolIDs,
		Simulate:          s.SimulatorAddress != "",
		SimulatorAddress:  s.SimulatorAddress,
		SlippageTolerance: s.SlippageTolerance,
		Timeout:           r.cfg.RequestTimeout,
	})
	if err != nil {
		return latency, decimal.Zero, nil, err
	}

	var verdict validate.Verdict
	var tol decimal.Decimal
	switch s.Kind {
	case model.KindNumeraireIn:
		tol = r.cfg.Tolerance.Choose(pre.Notional)
		verdict = validate.Validate(quote, expectation(s, pre, tol))
	case model.KindTopLiquidityPair:
		tol = r.cfg.Tolerance.Choose(pre.Notional)
		exp := expectation(s, pre, tol)
		exp.PriceImpact = &validate.PriceImpactRule{
			Notional:     pre.Notional,
			USDThreshold: r.cfg.PriceImpactUSDThreshold,
			MaxImpact:    r.cfg.MaxPriceImpact,
		}
		verdict = validate.Validate(quote, exp)
	case model.KindTransmuter:
		tol = r.cfg.TransmuterTolerance
		verdict = validate.Validate(quote, expectation(s, pre, tol))
	case model.KindOrderbook:
		// Orderbook spot prices come from the top tick, so compare against the fee-adjusted input.
		afterFee := expect.AfterFee(quote.AmountIn.Amount, quote.EffectiveFee)
		adjusted, err := r.calc.Pair(model.Coin{Denom: s.TokenIn.Denom, Amount: afterFee}, denomOut)
		if err != nil {
			return latency, decimal.Zero, nil, err
		}
		tol = r.cfg.Tolerance.Choose(adjusted.Notional)
		verdict = validate.Validate(quote, expectation(s, adjusted, tol))
	case model.KindDirectRoute:
		verdict = validate.ValidateDirectRoute(quote, s.TokenIn, s.PoolIDs, denomOut)
	case model.KindSimulation:
		verdict = validate.ValidateSimulation(quote)
	}
	return latency, tol, verdict.Diagnostics, verdict.Err()
}

// checkBalanced skips transmuter scenarios whose pool has a constituent below the minimum liquidity.
func (r *Runner) checkBalanced(s model.Scenario) error {
	constituents := s.Constituents
	if len(constituents) == 0 {
		constituents = []string{s.TokenIn.Denom, s.TokenOutDenom()}
	}
	for _, denom := range constituents {
		liq, ok := r.snapshot.Liquidity(denom)
		if !ok {
			return &refdata.DataUnavailableError{Denom: denom, Field: "liquidity"}
		}
		if liq.LessThan(r.cfg.TransmuterMinLiquidityUSD) {
			return &ImbalancedPoolError{Denom: denom, Liquidity: liq, Minimum: r.cfg.TransmuterMinLiquidityUSD}
		}
	}
	return nil
}

func expectation(s model.Scenario, e expect.Expectation, tol decimal.Decimal) validate.Expectation {
	return validate.Expectation{
		AmountIn:      s.TokenIn,
		DenomOut:      s.TokenOutDenom(),
		ScalingFactor: e.ScalingFactor,
		CrossPrice:    e.CrossPrice,
		AmountOut:     e.AmountOut,
		Tolerance:     tol,
	}
}
