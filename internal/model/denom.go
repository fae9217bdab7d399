package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DenomMetadata is the reference data for a single denom.
type DenomMetadata struct {
	Denom        string          `json:"denom" yaml:"denom"`
	Exponent     uint32          `json:"exponent" yaml:"exponent"`
	Price        decimal.Decimal `json:"price" yaml:"price"`
	LiquidityUSD decimal.Decimal `json:"liquidity_usd" yaml:"liquidity_usd"`
}

// Validate checks the reference price is positive and liquidity is non-negative.
func (m DenomMetadata) Validate() error {
	if m.Denom == "" {
		return fmt.Errorf("denom is empty")
	}
	if !m.Price.IsPositive() {
		return fmt.Errorf("denom %s: price must be positive, got %s", m.Denom, m.Price)
	}
	if m.LiquidityUSD.IsNegative() {
		return fmt.Errorf("denom %s: liquidity must be non-negative, got %s", m.Denom, m.LiquidityUSD)
	}
	return nil
}
