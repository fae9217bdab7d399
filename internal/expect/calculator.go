package expect

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"quoteScope/internal/model"
	"quoteScope/internal/refdata"
)

// Expectation is the set of values a quote for a given input should reproduce.
type Expectation struct {
	DenomIn       string
	DenomOut      string
	AmountIn      *big.Int
	CrossPrice    decimal.Decimal
	ScalingFactor decimal.Decimal
	AmountOut     decimal.Decimal
	Notional      decimal.Decimal
}

// Calculator derives expectations from an injected reference provider.
type Calculator struct {
	provider refdata.Provider
}

func NewCalculator(provider refdata.Provider) *Calculator {
	return &Calculator{provider: provider}
}

// Pair derives expectations from both sides' prices. The cross price is already in base
// units, so the scaling factor is one.
func (c *Calculator) Pair(tokenIn model.Coin, denomOut string) (Expectation, error) {
	in, out, err := c.lookup(tokenIn.Denom, denomOut)
	if err != nil {
		return Expectation{}, err
	}
	cross, err := CrossPrice(in.Price, in.Exponent, out.Price, out.Exponent)
	if err != nil {
		return Expectation{}, fmt.Errorf("%s->%s: %w", tokenIn.Denom, denomOut, err)
	}
	return Expectation{
		DenomIn:       tokenIn.Denom,
		DenomOut:      denomOut,
		AmountIn:      tokenIn.Amount,
		CrossPrice:    cross,
		ScalingFactor: one,
		AmountOut:     ExpectedOut(decimal.NewFromBigInt(tokenIn.Amount, 0), cross),
		Notional:      Notional(tokenIn.Amount, in),
	}, nil
}

// Numeraire derives expectations when the input denom is the numeraire. The cross price is
// the inverse of the output's market price in display units and the scaling factor moves
// it into base units.
func (c *Calculator) Numeraire(tokenIn model.Coin, denomOut string) (Expectation, error) {
	in, out, err := c.lookup(tokenIn.Denom, denomOut)
	if err != nil {
		return Expectation{}, err
	}
	cross, err := InverseCrossPrice(out.Price)
	if err != nil {
		return Expectation{}, fmt.Errorf("%s->%s: %w", tokenIn.Denom, denomOut, err)
	}
	scaling := ScalingFactor(in.Exponent, out.Exponent)
	return Expectation{
		DenomIn:       tokenIn.Denom,
		DenomOut:      denomOut,
		AmountIn:      tokenIn.Amount,
		CrossPrice:    cross,
		ScalingFactor: scaling,
		AmountOut:     ExpectedOut(decimal.NewFromBigInt(tokenIn.Amount, 0), cross.Mul(scaling)),
		Notional:      Notional(tokenIn.Amount, in),
	}, nil
}

func (c *Calculator) lookup(denomIn, denomOut string) (model.DenomMetadata, model.DenomMetadata, error) {
	if c.provider == nil {
		return model.DenomMetadata{}, model.DenomMetadata{}, fmt.Errorf("reference provider is nil")
	}
	in, err := c.provider.Metadata(denomIn)
	if err != nil {
		return model.DenomMetadata{}, model.DenomMetadata{}, err
	}
	out, err := c.provider.Metadata(denomOut)
	if err != nil {
		return model.DenomMetadata{}, model.DenomMetadata{}, err
	}
	return in, out, nil
}
