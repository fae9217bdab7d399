package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoteScope/internal/refdata"
)

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("service-url", "", "")
	require.NoError(t, flags.Parse([]string{"--service-url=http://localhost:9092"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9092", cfg.ServiceURL)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 20, cfg.NumeraireTop)
	assert.True(t, cfg.MaxPriceImpact.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, cfg.Tolerance.Choose(decimal.NewFromInt(20_000)).Equal(decimal.RequireFromString("0.10")))
	assert.Empty(t, cfg.DirectRoutes)

	sc := cfg.ScenarioConfig(nil, nil)
	assert.Nil(t, sc.PairExponent)
	assert.Equal(t, -1, sc.NumeraireDecades.Min)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quotecheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service-url: https://sqs.example.com
reference: ./ref.yaml
concurrency: 2
tolerance-bands: "100=0.2"
tolerance-default: "0.3"
pair-exponent: 6
direct-route:
  - "1000000uosmo|1:uion|1077:uusdc"
simulation:
  - "1000000uosmo|uion|osmo10s3vlv40h64qs2p98yal9w0tpm4r30uyg6ceux|0.8"
erc20-contracts:
  - "ibc/ABC=0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
`), 0o644))
	t.Setenv("QUOTECHECK_CONCURRENCY", "16")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 16, cfg.Concurrency)
	assert.True(t, cfg.Tolerance.Choose(decimal.NewFromInt(50)).Equal(decimal.RequireFromString("0.2")))
	assert.True(t, cfg.Tolerance.Choose(decimal.NewFromInt(500)).Equal(decimal.RequireFromString("0.3")))

	require.Len(t, cfg.DirectRoutes, 1)
	assert.Equal(t, "1000000uosmo", cfg.DirectRoutes[0].TokenIn.String())
	assert.Equal(t, []string{"1", "1077"}, cfg.DirectRoutes[0].PoolIDs)
	assert.Equal(t, []string{"uion", "uusdc"}, cfg.DirectRoutes[0].TokenOutDenoms)

	require.Len(t, cfg.Simulations, 1)
	require.NotNil(t, cfg.Simulations[0].SlippageTolerance)
	assert.Equal(t, "0.8", cfg.Simulations[0].SlippageTolerance.String())

	assert.Equal(t, map[string]string{"ibc/ABC": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"}, cfg.ERC20Contracts)

	pools := []refdata.PoolFixture{{PoolID: "1212", Denoms: []string{"a", "b"}}}
	sc := cfg.ScenarioConfig(pools, nil)
	require.NotNil(t, sc.PairExponent)
	assert.Equal(t, uint32(6), *sc.PairExponent)
	assert.Equal(t, pools, sc.TransmuterPools)

	rc := cfg.RunConfig("run-9")
	assert.Equal(t, "run-9", rc.RunID)
	assert.Equal(t, 16, rc.Concurrency)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"bad tolerance": "tolerance-bands: \"1=2\"\n",
		"bad route":     "direct-route: [\"1000000uosmo|1\"]\n",
		"bad sim":       "simulation: [\"1000000uosmo|uion\"]\n",
		"sim no slip":   "simulation: [\"1000000uosmo|uion|osmo1fillbot\"]\n",
		"bad decimal":   "max-price-impact: abc\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path, nil)
			require.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{ServiceURL: "http://x", Reference: "ref.json", Concurrency: 1, Timeout: time.Second, TransmuterTolerance: decimal.RequireFromString("0.05")}
	require.NoError(t, cfg.Validate())

	cfg.ServiceURL = ""
	require.Error(t, cfg.Validate())
}
