package scenario

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoteScope/internal/model"
	"quoteScope/internal/refdata"
)

const usdc = "uusdc"

func record(denom string, exp uint32, price string, liq int64) refdata.DenomRecord {
	rec := refdata.DenomRecord{Denom: denom, LiquidityUSD: decimal.NewFromInt(liq)}
	rec.Exponent = &exp
	if price != "" {
		p := decimal.RequireFromString(price)
		rec.Price = &p
	}
	return rec
}

func testSnapshot(t *testing.T) *refdata.Snapshot {
	t.Helper()
	snap, err := refdata.NewSnapshot([]refdata.DenomRecord{
		record(usdc, 6, "1", 9_000_000),
		record("uosmo", 6, "0.5", 8_000_000),
		record("uatom", 6, "8", 7_000_000),
		record("uion", 6, "", 600_000),
		record("weth", 18, "3000", 6_000_000),
		record("ulow", 6, "0.01", 100),
	})
	require.NoError(t, err)
	return snap
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.NumeraireDenom = usdc
	cfg.TransmuterPools = []refdata.PoolFixture{{PoolID: "1212", Denoms: []string{usdc, "uusdt"}}}
	cfg.OrderbookPools = []refdata.PoolFixture{{PoolID: "1904", Denoms: []string{"uosmo", usdc}}}
	cfg.DirectRoutes = []DirectRoute{{TokenIn: model.NewCoin("uosmo", 1_000_000), PoolIDs: []string{"1", "1077"}, TokenOutDenoms: []string{"uion", usdc}}}
	slippage := decimal.RequireFromString("0.8")
	cfg.Simulations = []Simulation{{TokenIn: model.NewCoin("uosmo", 1_000_000), TokenOutDenom: "uion", SimulatorAddress: "osmo1fillbot", SlippageTolerance: &slippage}}
	return cfg
}

func TestTopLiquidity(t *testing.T) {
	snap := testSnapshot(t)

	assert.Equal(t, []string{usdc, "uosmo", "uatom"}, TopLiquidity(snap, 3, decimal.Zero, nil))

	six := uint32(6)
	assert.Equal(t, []string{usdc, "uosmo", "uatom", "uion"}, TopLiquidity(snap, 10, decimal.NewFromInt(500_000), &six))

	eighteen := uint32(18)
	assert.Equal(t, []string{"weth"}, TopLiquidity(snap, 10, decimal.Zero, &eighteen))
}

func TestTopLiquidityTiesByDenom(t *testing.T) {
	snap, err := refdata.NewSnapshot([]refdata.DenomRecord{
		record("b", 6, "1", 10),
		record("a", 6, "1", 10),
		record("c", 6, "1", 20),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, TopLiquidity(snap, 5, decimal.Zero, nil))
}

func TestPairsDeduplicates(t *testing.T) {
	pairs := Pairs([]string{"a", "b", "a", "c"})
	assert.Equal(t, [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}}, pairs)
	assert.Empty(t, Pairs([]string{"a"}))
}

func TestGenerateDeterministic(t *testing.T) {
	snap := testSnapshot(t)

	gen1, err := NewGenerator(snap, testConfig(), 42)
	require.NoError(t, err)
	gen2, err := NewGenerator(snap, testConfig(), 42)
	require.NoError(t, err)

	a, err := gen1.Generate()
	require.NoError(t, err)
	b, err := gen2.Generate()
	require.NoError(t, err)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.Equal(t, 0, a[i].TokenIn.Amount.Cmp(b[i].TokenIn.Amount))
	}

	gen3, err := NewGenerator(snap, testConfig(), 43)
	require.NoError(t, err)
	c, err := gen3.Generate()
	require.NoError(t, err)
	differs := false
	for i := range a {
		if a[i].ID != c[i].ID {
			differs = true
			break
		}
	}
	assert.True(t, differs, "different seeds should draw different amounts")
}

func TestGenerateKindsAndAmounts(t *testing.T) {
	gen, err := NewGenerator(testSnapshot(t), testConfig(), 7)
	require.NoError(t, err)
	scenarios, err := gen.Generate()
	require.NoError(t, err)

	ids := make(map[string]struct{})
	byKind := make(map[model.ScenarioKind][]model.Scenario)
	for _, s := range scenarios {
		_, dup := ids[s.ID]
		require.False(t, dup, "duplicate id %s", s.ID)
		ids[s.ID] = struct{}{}
		byKind[s.Kind] = append(byKind[s.Kind], s)
	}

	// Five non-numeraire denoms, five decades each.
	numeraire := byKind[model.KindNumeraireIn]
	require.Len(t, numeraire, 5*5)
	lo, hi := big.NewInt(100_000), big.NewInt(10_000_000_000)
	for _, s := range numeraire {
		assert.Equal(t, usdc, s.TokenIn.Denom)
		assert.NotEqual(t, usdc, s.TokenOutDenom())
		assert.True(t, s.TokenIn.Amount.Cmp(lo) >= 0 && s.TokenIn.Amount.Cmp(hi) < 0, s.TokenIn.String())
	}

	// usdc, uosmo, uatom, uion share exponent 6 above 500k liquidity: six pairs, three decades.
	require.Len(t, byKind[model.KindTopLiquidityPair], 6*3)

	transmuter := byKind[model.KindTransmuter]
	require.Len(t, transmuter, 1)
	assert.Equal(t, "1000000000", transmuter[0].TokenIn.Amount.String())
	assert.Equal(t, []string{usdc, "uusdt"}, transmuter[0].Constituents)
	assert.Empty(t, transmuter[0].PoolIDs)

	orderbook := byKind[model.KindOrderbook]
	require.Len(t, orderbook, 1)
	assert.Equal(t, "1000uosmo", orderbook[0].TokenIn.String())
	assert.Equal(t, []string{"1904"}, orderbook[0].PoolIDs)

	direct := byKind[model.KindDirectRoute]
	require.Len(t, direct, 1)
	assert.Equal(t, usdc, direct[0].TokenOutDenom())

	sims := byKind[model.KindSimulation]
	require.Len(t, sims, 1)
	assert.Equal(t, "osmo1fillbot", sims[0].SimulatorAddress)
	require.NotNil(t, sims[0].SlippageTolerance)
	assert.Equal(t, "0.8", sims[0].SlippageTolerance.String())
}

func TestGenerateRequiresNumeraireExponent(t *testing.T) {
	cfg := testConfig()
	cfg.NumeraireDenom = "unknown"
	gen, err := NewGenerator(testSnapshot(t), cfg, 1)
	require.NoError(t, err)
	_, err = gen.Generate()
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	cfg.PairDecades = DecadeRange{Min: 3, Max: 3}
	require.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.DirectRoutes[0].PoolIDs = []string{"1"}
	require.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.Simulations[0].SimulatorAddress = ""
	require.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.Simulations[0].SlippageTolerance = nil
	require.Error(t, cfg.Validate())
}
