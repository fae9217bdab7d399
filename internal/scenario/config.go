package scenario

import (
	"fmt"

	"github.com/shopspring/decimal"

	"quoteScope/internal/model"
	"quoteScope/internal/refdata"
)

// DecadeRange spans amounts from 10^Min to 10^Max base units, offsets relative to an exponent.
type DecadeRange struct {
	Min int
	Max int
}

// DirectRoute is a caller-supplied pool sequence to quote directly.
type DirectRoute struct {
	TokenIn        model.Coin
	PoolIDs        []string
	TokenOutDenoms []string
}

// Simulation is a quote requested with transaction simulation.
type Simulation struct {
	TokenIn           model.Coin
	TokenOutDenom     string
	SimulatorAddress  string
	SlippageTolerance *decimal.Decimal
}

type Config struct {
	NumeraireDenom string

	// Numeraire-in scenarios: top denoms by liquidity, one amount per decade.
	NumeraireTopCount int
	NumeraireDecades  DecadeRange

	// Pair scenarios: unordered pairs among the top denoms that share PairExponent.
	PairTopCount        int
	PairMinLiquidityUSD decimal.Decimal
	PairExponent        *uint32
	PairDecades         DecadeRange

	TransmuterPools  []refdata.PoolFixture
	TransmuterDecade int

	OrderbookPools  []refdata.PoolFixture
	OrderbookAmount int64

	DirectRoutes []DirectRoute
	Simulations  []Simulation
}

// DefaultConfig mirrors the production check suite for a USDC numeraire.
func DefaultConfig() Config {
	return Config{
		NumeraireDenom:      "ibc/498A0751C798A0D9A389AA3691123DADA57DAA4FE165D5C75894505B876BA6E4",
		NumeraireTopCount:   20,
		NumeraireDecades:    DecadeRange{Min: -1, Max: 4},
		PairTopCount:        10,
		PairMinLiquidityUSD: decimal.NewFromInt(500_000),
		PairDecades:         DecadeRange{Min: 0, Max: 3},
		TransmuterDecade:    3,
		OrderbookAmount:     1000,
	}
}

func (c Config) Validate() error {
	if c.NumeraireDenom == "" {
		return fmt.Errorf("numeraire denom is required")
	}
	if c.NumeraireTopCount < 0 || c.PairTopCount < 0 {
		return fmt.Errorf("top counts must not be negative")
	}
	for name, r := range map[string]DecadeRange{"numeraire": c.NumeraireDecades, "pair": c.PairDecades} {
		if r.Max <= r.Min {
			return fmt.Errorf("%s decades: max %d must exceed min %d", name, r.Max, r.Min)
		}
	}
	if c.OrderbookAmount <= 0 && len(c.OrderbookPools) > 0 {
		return fmt.Errorf("orderbook amount must be positive")
	}
	for i, route := range c.DirectRoutes {
		if err := route.TokenIn.Validate(); err != nil {
			return fmt.Errorf("direct route %d: %w", i, err)
		}
		if len(route.PoolIDs) == 0 || len(route.PoolIDs) != len(route.TokenOutDenoms) {
			return fmt.Errorf("direct route %d: pool ids and token out denoms must be non-empty and equal in length", i)
		}
	}
	for i, sim := range c.Simulations {
		if err := sim.TokenIn.Validate(); err != nil {
			return fmt.Errorf("simulation %d: %w", i, err)
		}
		if sim.TokenOutDenom == "" || sim.SimulatorAddress == "" {
			return fmt.Errorf("simulation %d: token out denom and simulator address are required", i)
		}
		if sim.SlippageTolerance == nil || !sim.SlippageTolerance.IsPositive() {
			return fmt.Errorf("simulation %d: positive slippage tolerance is required", i)
		}
	}
	return nil
}
