package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	root := &cobra.Command{
		Use:          "quotecheck",
		Short:        "Swap quote correctness checks",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run quote checks against the routing service",
		RunE:  runChecks,
	}
	addScenarioFlags(runCmd.Flags())
	runCmd.Flags().String("service-url", "", "routing service base URL")
	runCmd.Flags().Int("concurrency", 8, "scenarios in flight")
	runCmd.Flags().Duration("timeout", 15*time.Second, "per-request latency ceiling")
	runCmd.Flags().Float64("rps", 0, "max requests per second, 0 disables the limit")
	runCmd.Flags().Int("batch-size", 50, "scenarios per result batch")
	runCmd.Flags().String("tolerance-bands", "1=0.10,10000=0.07,30000=0.10,60000=0.13", "notional=tolerance bands (comma-separated)")
	runCmd.Flags().String("tolerance-default", "0.16", "tolerance above the last band")
	runCmd.Flags().String("transmuter-tolerance", "0.05", "tolerance for transmuter scenarios")
	runCmd.Flags().String("transmuter-min-liquidity", "10000", "skip transmuter pools with a constituent below this USD liquidity")
	runCmd.Flags().String("price-impact-threshold", "5000", "USD notional below which price impact is bounded")
	runCmd.Flags().String("max-price-impact", "0.5", "max absolute price impact below the threshold")
	runCmd.Flags().String("out", "./data/results.jsonl", "output JSONL path, empty disables")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for results")
	runCmd.Flags().String("pushgateway-url", "", "Prometheus Pushgateway URL")
	runCmd.Flags().String("push-job", "quotecheck", "Pushgateway job name")
	root.AddCommand(runCmd)

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Print generated scenarios as JSON lines without sending requests",
		RunE:  printScenarios,
	}
	addScenarioFlags(scenariosCmd.Flags())
	root.AddCommand(scenariosCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(flags *pflag.FlagSet) {
	flags.String("reference", "", "reference data file (json/yaml) or URL")
	flags.Int64("seed", 1, "scenario amount seed")
	flags.String("numeraire-denom", "", "numeraire denom, defaults to USDC")
	flags.Int("numeraire-top", 20, "top liquidity denoms quoted from the numeraire")
	flags.Int("pair-top", 10, "top liquidity denoms combined into pairs")
	flags.String("pair-min-liquidity", "500000", "minimum USD liquidity for pair denoms")
	flags.Int("pair-exponent", -1, "exponent pair denoms must share, -1 uses the numeraire's")
	flags.Int("orderbook-amount", 1000, "amount in for orderbook scenarios")
	flags.StringSlice("direct-route", nil, "direct routes as coin|pool:denom|pool:denom")
	flags.StringSlice("simulation", nil, "simulations as coin|denom|simulator[|slippage]")
	flags.String("evm-rpc", "", "EVM RPC URL for ERC20 exponent checks")
	flags.StringSlice("erc20-contracts", nil, "denom=address pairs checked against ERC20 decimals")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "also write logs to this file with rotation")
}

func newLogger(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if file == "" {
		return cfg.Build()
	}
	rotating := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), rotating, cfg.Level)
	return cfg.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}
