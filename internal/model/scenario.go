package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ScenarioKind names the family a scenario belongs to.
type ScenarioKind string

const (
	// KindNumeraireIn swaps the numeraire (e.g. USDC) into a top-liquidity denom.
	KindNumeraireIn ScenarioKind = "numeraire_in"
	// KindTopLiquidityPair swaps between two top-liquidity denoms sharing the default exponent.
	KindTopLiquidityPair ScenarioKind = "top_liquidity_pair"
	// KindTransmuter swaps across a transmuter pool's constituents.
	KindTransmuter ScenarioKind = "transmuter"
	// KindOrderbook requests a direct quote over an orderbook pool.
	KindOrderbook ScenarioKind = "orderbook"
	// KindDirectRoute requests a direct quote over a caller-supplied pool sequence.
	KindDirectRoute ScenarioKind = "direct_route"
	// KindSimulation requests a quote with transaction simulation enabled.
	KindSimulation ScenarioKind = "simulation"
)

// Scenario is one generated quote check.
type Scenario struct {
	ID                string           `json:"id"`
	Kind              ScenarioKind     `json:"kind"`
	TokenIn           Coin             `json:"token_in"`
	TokenOutDenoms    []string         `json:"token_out_denoms"`
	PoolIDs           []string         `json:"pool_ids,omitempty"`
	Constituents      []string         `json:"constituents,omitempty"`
	SimulatorAddress  string           `json:"simulator_address,omitempty"`
	SlippageTolerance *decimal.Decimal `json:"slippage_tolerance,omitempty"`
}

// TokenOutDenom returns the final output denom.
func (s Scenario) TokenOutDenom() string {
	if len(s.TokenOutDenoms) == 0 {
		return ""
	}
	return s.TokenOutDenoms[len(s.TokenOutDenoms)-1]
}

// ScenarioID builds a stable identifier from its parts.
func ScenarioID(kind ScenarioKind, parts ...string) string {
	return string(kind) + "/" + strings.Join(parts, "/")
}
