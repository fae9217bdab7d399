package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"quoteScope/internal/harness"
	"quoteScope/internal/model"
	"quoteScope/internal/refdata"
	"quoteScope/internal/scenario"
	"quoteScope/internal/tolerance"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	ServiceURL  string
	Reference   string
	Seed        int64
	Concurrency int
	Timeout     time.Duration
	RPS         float64
	BatchSize   int

	NumeraireDenom      string
	NumeraireTop        int
	NumeraireDecadeMin  int
	NumeraireDecadeMax  int
	PairTop             int
	PairMinLiquidityUSD decimal.Decimal
	PairExponent        int
	PairDecadeMin       int
	PairDecadeMax       int
	TransmuterDecade    int
	OrderbookAmount     int64
	DirectRoutes        []scenario.DirectRoute
	Simulations         []scenario.Simulation

	Tolerance                 tolerance.Policy
	TransmuterTolerance       decimal.Decimal
	TransmuterMinLiquidityUSD decimal.Decimal
	PriceImpactUSDThreshold   decimal.Decimal
	MaxPriceImpact            decimal.Decimal

	EVMRPCURL      string
	ERC20Contracts map[string]string

	Out            string
	PGDSN          string
	PushgatewayURL string
	PushJob        string
	LogLevel       string
	LogFile        string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUOTECHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	def := scenario.DefaultConfig()
	v.SetDefault("seed", int64(1))
	v.SetDefault("concurrency", 8)
	v.SetDefault("timeout", 15*time.Second)
	v.SetDefault("rps", 0.0)
	v.SetDefault("batch-size", 50)
	v.SetDefault("numeraire-denom", def.NumeraireDenom)
	v.SetDefault("numeraire-top", def.NumeraireTopCount)
	v.SetDefault("numeraire-decade-min", def.NumeraireDecades.Min)
	v.SetDefault("numeraire-decade-max", def.NumeraireDecades.Max)
	v.SetDefault("pair-top", def.PairTopCount)
	v.SetDefault("pair-min-liquidity", def.PairMinLiquidityUSD.String())
	v.SetDefault("pair-exponent", -1)
	v.SetDefault("pair-decade-min", def.PairDecades.Min)
	v.SetDefault("pair-decade-max", def.PairDecades.Max)
	v.SetDefault("transmuter-decade", def.TransmuterDecade)
	v.SetDefault("orderbook-amount", def.OrderbookAmount)
	v.SetDefault("tolerance-bands", "1=0.10,10000=0.07,30000=0.10,60000=0.13")
	v.SetDefault("tolerance-default", "0.16")
	v.SetDefault("transmuter-tolerance", "0.05")
	v.SetDefault("transmuter-min-liquidity", "10000")
	v.SetDefault("price-impact-threshold", "5000")
	v.SetDefault("max-price-impact", "0.5")
	v.SetDefault("out", "./data/results.jsonl")
	v.SetDefault("push-job", "quotecheck")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		ServiceURL:         v.GetString("service-url"),
		Reference:          v.GetString("reference"),
		Seed:               v.GetInt64("seed"),
		Concurrency:        v.GetInt("concurrency"),
		Timeout:            v.GetDuration("timeout"),
		RPS:                v.GetFloat64("rps"),
		BatchSize:          v.GetInt("batch-size"),
		NumeraireDenom:     v.GetString("numeraire-denom"),
		NumeraireTop:       v.GetInt("numeraire-top"),
		NumeraireDecadeMin: v.GetInt("numeraire-decade-min"),
		NumeraireDecadeMax: v.GetInt("numeraire-decade-max"),
		PairTop:            v.GetInt("pair-top"),
		PairExponent:       v.GetInt("pair-exponent"),
		PairDecadeMin:      v.GetInt("pair-decade-min"),
		PairDecadeMax:      v.GetInt("pair-decade-max"),
		TransmuterDecade:   v.GetInt("transmuter-decade"),
		OrderbookAmount:    v.GetInt64("orderbook-amount"),
		EVMRPCURL:          v.GetString("evm-rpc"),
		ERC20Contracts:     parseStringMap(strings.Join(getStringSlice(v, "erc20-contracts"), ",")),
		Out:                v.GetString("out"),
		PGDSN:              v.GetString("pg-dsn"),
		PushgatewayURL:     v.GetString("pushgateway-url"),
		PushJob:            v.GetString("push-job"),
		LogLevel:           v.GetString("log-level"),
		LogFile:            v.GetString("log-file"),
	}

	var err error
	if cfg.Tolerance, err = tolerance.Parse(v.GetString("tolerance-bands"), v.GetString("tolerance-default")); err != nil {
		return Config{}, fmt.Errorf("tolerance: %w", err)
	}
	decimals := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"pair-min-liquidity", &cfg.PairMinLiquidityUSD},
		{"transmuter-tolerance", &cfg.TransmuterTolerance},
		{"transmuter-min-liquidity", &cfg.TransmuterMinLiquidityUSD},
		{"price-impact-threshold", &cfg.PriceImpactUSDThreshold},
		{"max-price-impact", &cfg.MaxPriceImpact},
	}
	for _, d := range decimals {
		if *d.dst, err = getDecimal(v, d.key); err != nil {
			return Config{}, err
		}
	}
	if cfg.DirectRoutes, err = parseDirectRoutes(getStringSlice(v, "direct-route")); err != nil {
		return Config{}, err
	}
	if cfg.Simulations, err = parseSimulations(getStringSlice(v, "simulation")); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the fields a run needs.
func (c Config) Validate() error {
	if c.ServiceURL == "" {
		return fmt.Errorf("service url is required")
	}
	if c.Reference == "" {
		return fmt.Errorf("reference source is required")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than zero")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than zero")
	}
	if c.RPS < 0 {
		return fmt.Errorf("rps must not be negative")
	}
	if !c.TransmuterTolerance.IsPositive() || c.TransmuterTolerance.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("transmuter tolerance %s outside (0,1]", c.TransmuterTolerance)
	}
	return nil
}

// ScenarioConfig builds the generator config; pool fixtures come from the reference source.
func (c Config) ScenarioConfig(transmuterPools, orderbookPools []refdata.PoolFixture) scenario.Config {
	sc := scenario.Config{
		NumeraireDenom:      c.NumeraireDenom,
		NumeraireTopCount:   c.NumeraireTop,
		NumeraireDecades:    scenario.DecadeRange{Min: c.NumeraireDecadeMin, Max: c.NumeraireDecadeMax},
		PairTopCount:        c.PairTop,
		PairMinLiquidityUSD: c.PairMinLiquidityUSD,
		PairDecades:         scenario.DecadeRange{Min: c.PairDecadeMin, Max: c.PairDecadeMax},
		TransmuterPools:     transmuterPools,
		TransmuterDecade:    c.TransmuterDecade,
		OrderbookPools:      orderbookPools,
		OrderbookAmount:     c.OrderbookAmount,
		DirectRoutes:        c.DirectRoutes,
		Simulations:         c.Simulations,
	}
	if c.PairExponent >= 0 {
		exp := uint32(c.PairExponent)
		sc.PairExponent = &exp
	}
	return sc
}

// RunConfig builds the harness config for a run.
func (c Config) RunConfig(runID string) harness.RunConfig {
	return harness.RunConfig{
		RunID:                     runID,
		Concurrency:               c.Concurrency,
		RequestTimeout:            c.Timeout,
		BatchSize:                 c.BatchSize,
		Tolerance:                 c.Tolerance,
		TransmuterTolerance:       c.TransmuterTolerance,
		TransmuterMinLiquidityUSD: c.TransmuterMinLiquidityUSD,
		PriceImpactUSDThreshold:   c.PriceImpactUSDThreshold,
		MaxPriceImpact:            c.MaxPriceImpact,
	}
}

// parseDirectRoutes reads entries of the form "<coin>|<pool>:<denom>|<pool>:<denom>...".
func parseDirectRoutes(entries []string) ([]scenario.DirectRoute, error) {
	routes := make([]scenario.DirectRoute, 0, len(entries))
	for _, entry := range entries {
		parts := cleanStrings(strings.Split(entry, "|"))
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid direct route %q", entry)
		}
		coin, err := model.ParseCoin(parts[0])
		if err != nil {
			return nil, fmt.Errorf("direct route %q: %w", entry, err)
		}
		route := scenario.DirectRoute{TokenIn: coin}
		for _, hop := range parts[1:] {
			pool, denom, ok := strings.Cut(hop, ":")
			pool, denom = strings.TrimSpace(pool), strings.TrimSpace(denom)
			if !ok || pool == "" || denom == "" {
				return nil, fmt.Errorf("direct route %q: invalid hop %q", entry, hop)
			}
			route.PoolIDs = append(route.PoolIDs, pool)
			route.TokenOutDenoms = append(route.TokenOutDenoms, denom)
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// parseSimulations reads entries of the form "<coin>|<denom out>|<simulator address>|<slippage>".
func parseSimulations(entries []string) ([]scenario.Simulation, error) {
	sims := make([]scenario.Simulation, 0, len(entries))
	for _, entry := range entries {
		parts := cleanStrings(strings.Split(entry, "|"))
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid simulation %q", entry)
		}
		coin, err := model.ParseCoin(parts[0])
		if err != nil {
			return nil, fmt.Errorf("simulation %q: %w", entry, err)
		}
		slippage, err := decimal.NewFromString(parts[3])
		if err != nil {
			return nil, fmt.Errorf("simulation %q: parse slippage: %w", entry, err)
		}
		sims = append(sims, scenario.Simulation{
			TokenIn:           coin,
			TokenOutDenom:     parts[1],
			SimulatorAddress:  parts[2],
			SlippageTolerance: &slippage,
		})
	}
	return sims, nil
}

func getDecimal(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s %q: %w", key, raw, err)
	}
	return d, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

// parseStringMap reads "key=value" pairs. Kept as a list rather than a config map so
// case-sensitive denoms survive viper's key lowercasing.
func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	for _, pair := range strings.Split(input, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
