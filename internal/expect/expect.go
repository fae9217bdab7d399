// Package expect derives the values a quote should contain from reference prices and exponents.
// All arithmetic is exact decimal; division is rounded at DivisionPrecision fractional digits
// beyond the operands' magnitude.
package expect

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"quoteScope/internal/model"
)

// DivisionPrecision is the number of significant fractional digits kept by divisions.
const DivisionPrecision = 36

var one = decimal.NewFromInt(1)

func pow10(exp int32) decimal.Decimal {
	return decimal.New(1, exp)
}

// quo divides with enough fractional digits that tiny quotients keep DivisionPrecision
// significant digits.
func quo(num, den decimal.Decimal) decimal.Decimal {
	precision := int32(DivisionPrecision)
	if magnitude := den.Exponent() + int32(len(den.Coefficient().String())); magnitude > 0 {
		precision += magnitude
	}
	if num.Exponent() < 0 {
		precision -= num.Exponent()
	}
	return num.DivRound(den, precision)
}

// CrossPrice returns the expected amount of out-denom base units per in-denom base unit:
// (priceIn × 10^exponentOut) / (priceOut × 10^exponentIn).
func CrossPrice(priceIn decimal.Decimal, exponentIn uint32, priceOut decimal.Decimal, exponentOut uint32) (decimal.Decimal, error) {
	if !priceIn.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("price in must be positive, got %s", priceIn)
	}
	if !priceOut.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("price out must be positive, got %s", priceOut)
	}
	num := priceIn.Mul(pow10(int32(exponentOut)))
	den := priceOut.Mul(pow10(int32(exponentIn)))
	cross := quo(num, den)
	if !cross.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("cross price underflow: %s/%s", num, den)
	}
	return cross, nil
}

// ExpectedOut returns amountIn × crossPrice.
func ExpectedOut(amountIn, crossPrice decimal.Decimal) decimal.Decimal {
	return amountIn.Mul(crossPrice)
}

// InverseCrossPrice returns 1 / priceOut. It is used when the input side is the numeraire
// and only the output side's market price is known.
func InverseCrossPrice(priceOut decimal.Decimal) (decimal.Decimal, error) {
	if !priceOut.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("price out must be positive, got %s", priceOut)
	}
	return quo(one, priceOut), nil
}

// ScalingFactor converts a price quoted in display units into base units: 10^exponentOut / 10^exponentIn.
func ScalingFactor(exponentIn, exponentOut uint32) decimal.Decimal {
	return pow10(int32(exponentOut) - int32(exponentIn))
}

// Notional is the USD value of amount base units of the denom described by meta.
func Notional(amount *big.Int, meta model.DenomMetadata) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, 0).Mul(meta.Price).Shift(-int32(meta.Exponent))
}

// AfterFee returns amount × (1 − fee), truncated toward zero.
func AfterFee(amount *big.Int, fee decimal.Decimal) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return decimal.NewFromBigInt(amount, 0).Mul(one.Sub(fee)).Truncate(0).BigInt()
}
