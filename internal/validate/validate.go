// Package validate compares a decoded quote against independently derived expectations.
package validate

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"quoteScope/internal/model"
)

// Check names reported in diagnostics.
const (
	CheckAmountIn     = "amount_in"
	CheckSpotPrice    = "spot_price"
	CheckAmountOut    = "amount_out"
	CheckRoute        = "route"
	CheckEffectiveFee = "effective_fee"
	CheckZeroSlippage = "zero_slippage_transmuter"
	CheckPriceImpact  = "price_impact"
	CheckPriceInfo    = "price_info"
)

// PriceImpactRule requires a price impact on the quote and, for notionals below USDThreshold,
// bounds its magnitude by MaxImpact.
type PriceImpactRule struct {
	Notional     decimal.Decimal
	USDThreshold decimal.Decimal
	MaxImpact    decimal.Decimal
}

// Expectation is what a quote for a scenario must reproduce.
type Expectation struct {
	AmountIn      model.Coin
	DenomOut      string
	ScalingFactor decimal.Decimal
	CrossPrice    decimal.Decimal
	AmountOut     decimal.Decimal
	Tolerance     decimal.Decimal
	PriceImpact   *PriceImpactRule
}

// Verdict collects the diagnostics of every failed check.
type Verdict struct {
	Diagnostics []model.Diagnostic
}

func (v Verdict) Passed() bool {
	return len(v.Diagnostics) == 0
}

// Err returns nil for a passing verdict and an *AssertionFailure otherwise.
func (v Verdict) Err() error {
	if v.Passed() {
		return nil
	}
	return &AssertionFailure{Diagnostics: v.Diagnostics}
}

func (v *Verdict) fail(d model.Diagnostic) {
	v.Diagnostics = append(v.Diagnostics, d)
}

// AssertionFailure is returned when a quote disagrees with its expectation.
type AssertionFailure struct {
	Diagnostics []model.Diagnostic
}

func (e *AssertionFailure) Error() string {
	parts := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		msg := d.Check + ": expected " + d.Expected + ", got " + d.Actual
		if d.RelativeError != "" {
			msg += " (relative error " + d.RelativeError + ", tolerance " + d.Tolerance + ")"
		}
		if d.Message != "" {
			msg += " " + d.Message
		}
		parts = append(parts, msg)
	}
	return "quote assertion failed: " + strings.Join(parts, "; ")
}

// Validate runs every check against quote. Checks never short-circuit.
func Validate(quote model.Quote, exp Expectation) Verdict {
	var v Verdict

	checkAmountIn(&v, quote, exp.AmountIn)

	expectedSpot := exp.CrossPrice.Mul(exp.ScalingFactor)
	if rel := RelativeError(expectedSpot, quote.SpotPrice); !rel.Within(exp.Tolerance) {
		v.fail(model.Diagnostic{
			Check:         CheckSpotPrice,
			Expected:      expectedSpot.String(),
			Actual:        quote.SpotPrice.String(),
			RelativeError: rel.String(),
			Tolerance:     exp.Tolerance.String(),
		})
	}

	actualOut := decimal.NewFromBigInt(amountOrZero(quote.AmountOut), 0)
	if rel := RelativeError(exp.AmountOut, actualOut); !rel.Within(exp.Tolerance) {
		v.fail(model.Diagnostic{
			Check:         CheckAmountOut,
			Expected:      exp.AmountOut.String(),
			Actual:        actualOut.String(),
			RelativeError: rel.String(),
			Tolerance:     exp.Tolerance.String(),
		})
	}

	checkRoute(&v, quote.Route, exp.AmountIn.Denom, exp.DenomOut)
	checkEffectiveFee(&v, quote.EffectiveFee)

	// An output equal to the input is only plausible through a transmuter.
	if quote.AmountOut != nil && quote.AmountIn.Amount != nil && quote.AmountOut.Cmp(quote.AmountIn.Amount) == 0 &&
		!IsTransmuterInSingleRoute(quote.Route) {
		v.fail(model.Diagnostic{
			Check:    CheckZeroSlippage,
			Expected: "single transmuter route",
			Actual:   describeRoute(quote.Route),
			Message:  "amount out equals amount in",
		})
	}

	if exp.PriceImpact != nil {
		checkPriceImpact(&v, quote.PriceImpact, *exp.PriceImpact)
	}
	return v
}

// ValidateDirectRoute checks a custom direct quote over the requested pool sequence.
func ValidateDirectRoute(quote model.Quote, amountIn model.Coin, poolIDs []string, denomOut string) Verdict {
	var v Verdict
	checkAmountIn(&v, quote, amountIn)

	if quote.AmountOut == nil || quote.AmountOut.Sign() <= 0 {
		v.fail(model.Diagnostic{Check: CheckAmountOut, Expected: "> 0", Actual: amountOrZero(quote.AmountOut).String()})
	}

	switch {
	case len(quote.Route) != 1:
		v.fail(model.Diagnostic{Check: CheckRoute, Expected: "1 path", Actual: fmt.Sprintf("%d paths", len(quote.Route))})
	default:
		hops := quote.Route[0].Hops
		got := make([]string, len(hops))
		for i, hop := range hops {
			got[i] = hop.PoolID
		}
		if strings.Join(got, ",") != strings.Join(poolIDs, ",") {
			v.fail(model.Diagnostic{Check: CheckRoute, Expected: strings.Join(poolIDs, ","), Actual: strings.Join(got, ","), Message: "pool sequence mismatch"})
		}
		if len(hops) > 0 && hops[len(hops)-1].TokenOut != denomOut {
			v.fail(model.Diagnostic{Check: CheckRoute, Expected: denomOut, Actual: hops[len(hops)-1].TokenOut, Message: "final token out mismatch"})
		}
	}
	return v
}

// ValidateSimulation requires the simulation price info to be present.
func ValidateSimulation(quote model.Quote) Verdict {
	var v Verdict
	if len(quote.PriceInfo) == 0 {
		v.fail(model.Diagnostic{Check: CheckPriceInfo, Expected: "object", Actual: "null"})
	}
	return v
}

func checkAmountIn(v *Verdict, quote model.Quote, want model.Coin) {
	if quote.AmountIn.Denom != want.Denom {
		v.fail(model.Diagnostic{Check: CheckAmountIn, Expected: want.Denom, Actual: quote.AmountIn.Denom, Message: "denom mismatch"})
	}
	if amountOrZero(quote.AmountIn.Amount).Cmp(amountOrZero(want.Amount)) != 0 {
		v.fail(model.Diagnostic{Check: CheckAmountIn, Expected: amountOrZero(want.Amount).String(), Actual: amountOrZero(quote.AmountIn.Amount).String(), Message: "amount mismatch"})
	}
}

func checkRoute(v *Verdict, route []model.Path, denomIn, denomOut string) {
	if len(route) == 0 {
		v.fail(model.Diagnostic{Check: CheckRoute, Expected: "non-empty route", Actual: "empty"})
		return
	}
	for i, path := range route {
		if len(path.Hops) == 0 {
			v.fail(model.Diagnostic{Check: CheckRoute, Expected: "non-empty path", Actual: "empty", Message: fmt.Sprintf("path %d", i)})
			continue
		}
		if first := path.Hops[0].TokenIn; first != denomIn {
			v.fail(model.Diagnostic{Check: CheckRoute, Expected: denomIn, Actual: first, Message: fmt.Sprintf("path %d starts with wrong denom", i)})
		}
		if last := path.Hops[len(path.Hops)-1].TokenOut; last != denomOut {
			v.fail(model.Diagnostic{Check: CheckRoute, Expected: denomOut, Actual: last, Message: fmt.Sprintf("path %d ends with wrong denom", i)})
		}
		for j := 1; j < len(path.Hops); j++ {
			if path.Hops[j-1].TokenOut != path.Hops[j].TokenIn {
				v.fail(model.Diagnostic{
					Check:    CheckRoute,
					Expected: path.Hops[j-1].TokenOut,
					Actual:   path.Hops[j].TokenIn,
					Message:  fmt.Sprintf("path %d hop %d does not chain", i, j),
				})
			}
		}
	}
}

func checkEffectiveFee(v *Verdict, fee decimal.Decimal) {
	if fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(1)) {
		v.fail(model.Diagnostic{Check: CheckEffectiveFee, Expected: "[0,1]", Actual: fee.String()})
	}
}

func checkPriceImpact(v *Verdict, impact *decimal.Decimal, rule PriceImpactRule) {
	if impact == nil {
		v.fail(model.Diagnostic{Check: CheckPriceImpact, Expected: "present", Actual: "null"})
		return
	}
	if rule.Notional.LessThan(rule.USDThreshold) && !impact.Abs().LessThan(rule.MaxImpact) {
		v.fail(model.Diagnostic{
			Check:    CheckPriceImpact,
			Expected: "|impact| < " + rule.MaxImpact.String(),
			Actual:   impact.String(),
			Message:  "notional " + rule.Notional.StringFixed(2) + " USD",
		})
	}
}

func describeRoute(route []model.Path) string {
	paths := make([]string, 0, len(route))
	for _, path := range route {
		hops := make([]string, 0, len(path.Hops))
		for _, hop := range path.Hops {
			hops = append(hops, hop.PoolID+":"+string(hop.PoolType))
		}
		paths = append(paths, strings.Join(hops, ">"))
	}
	return "[" + strings.Join(paths, " | ") + "]"
}

func amountOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
