// Package tolerance picks the relative error bound allowed for a quote from its USD notional.
package tolerance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Band applies Tolerance to every notional up to and including UpTo.
type Band struct {
	UpTo      decimal.Decimal `json:"up_to" yaml:"up_to"`
	Tolerance decimal.Decimal `json:"tolerance" yaml:"tolerance"`
}

// Policy is an ordered band table with a fallback for notionals above the last band.
type Policy struct {
	Bands   []Band          `json:"bands" yaml:"bands"`
	Default decimal.Decimal `json:"default" yaml:"default"`
}

// DefaultPolicy is tuned for USD notionals. Tiny swaps see tick rounding noise, mid-size swaps
// sit in the sweet spot, and large swaps absorb slippage and path variance.
func DefaultPolicy() Policy {
	return Policy{
		Bands: []Band{
			{UpTo: decimal.NewFromInt(1), Tolerance: decimal.RequireFromString("0.10")},
			{UpTo: decimal.NewFromInt(10_000), Tolerance: decimal.RequireFromString("0.07")},
			{UpTo: decimal.NewFromInt(30_000), Tolerance: decimal.RequireFromString("0.10")},
			{UpTo: decimal.NewFromInt(60_000), Tolerance: decimal.RequireFromString("0.13")},
		},
		Default: decimal.RequireFromString("0.16"),
	}
}

// Choose returns the tolerance of the first band whose bound covers notional.
func (p Policy) Choose(notional decimal.Decimal) decimal.Decimal {
	for _, band := range p.Bands {
		if notional.LessThanOrEqual(band.UpTo) {
			return band.Tolerance
		}
	}
	return p.Default
}

func (p Policy) Validate() error {
	if err := checkBound(p.Default); err != nil {
		return fmt.Errorf("default tolerance: %w", err)
	}
	for i, band := range p.Bands {
		if err := checkBound(band.Tolerance); err != nil {
			return fmt.Errorf("band %d: %w", i, err)
		}
		if i > 0 && !band.UpTo.GreaterThan(p.Bands[i-1].UpTo) {
			return fmt.Errorf("band %d: bound %s not above %s", i, band.UpTo, p.Bands[i-1].UpTo)
		}
	}
	return nil
}

func checkBound(tol decimal.Decimal) error {
	if !tol.IsPositive() || tol.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("tolerance %s outside (0,1]", tol)
	}
	return nil
}

// Parse builds a policy from "upTo=tolerance" pairs separated by commas, e.g. "1=0.10,10000=0.07".
// Pairs may come in any order; they are sorted by bound.
func Parse(bands string, def string) (Policy, error) {
	var p Policy
	var err error
	if p.Default, err = decimal.NewFromString(strings.TrimSpace(def)); err != nil {
		return Policy{}, fmt.Errorf("parse default tolerance %q: %w", def, err)
	}
	for _, raw := range strings.Split(bands, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return Policy{}, fmt.Errorf("invalid tolerance band %q", raw)
		}
		upTo, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
		if err != nil {
			return Policy{}, fmt.Errorf("parse band bound %q: %w", parts[0], err)
		}
		tol, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return Policy{}, fmt.Errorf("parse band tolerance %q: %w", parts[1], err)
		}
		p.Bands = append(p.Bands, Band{UpTo: upTo, Tolerance: tol})
	}
	sort.SliceStable(p.Bands, func(i, j int) bool {
		return p.Bands[i].UpTo.LessThan(p.Bands[j].UpTo)
	})
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// String renders the policy in the form accepted by Parse.
func (p Policy) String() string {
	parts := make([]string, 0, len(p.Bands))
	for _, band := range p.Bands {
		parts = append(parts, band.UpTo.String()+"="+band.Tolerance.String())
	}
	return strings.Join(parts, ",") + " default=" + p.Default.String()
}
