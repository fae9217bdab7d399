package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"quoteScope/internal/chain"
	"quoteScope/internal/config"
	"quoteScope/internal/model"
	"quoteScope/internal/refdata"
	"quoteScope/internal/scenario"
)

// prepare loads reference data, drops exponents that disagree with their ERC20 origin and
// generates the scenario list.
func prepare(ctx context.Context, cfg config.Config, logger *zap.Logger) (*refdata.Snapshot, []model.Scenario, error) {
	if cfg.Reference == "" {
		return nil, nil, fmt.Errorf("reference source is required")
	}
	fixture, err := refdata.LoadFixture(ctx, cfg.Reference, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return nil, nil, err
	}

	if cfg.EVMRPCURL != "" && len(cfg.ERC20Contracts) > 0 {
		chainClient, err := chain.NewClient(ctx, cfg.EVMRPCURL)
		if err != nil {
			return nil, nil, err
		}
		defer chainClient.Close()

		chainID, err := chainClient.ChainID(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("get chain id: %w", err)
		}
		logger.Info("verify erc20 exponents", zap.String("chain_id", chainID.String()), zap.Int("contracts", len(cfg.ERC20Contracts)))

		mismatches, err := refdata.VerifyExponents(ctx, chainClient, cfg.ERC20Contracts, fixture.Denoms, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("verify exponents: %w", err)
		}
		drop := make(map[string]struct{}, len(mismatches))
		for _, m := range mismatches {
			logger.Warn("reference exponent disagrees with erc20 decimals",
				zap.String("denom", m.Denom),
				zap.Uint32("reference", m.Reference),
				zap.Uint8("on_chain", m.OnChain),
			)
			drop[m.Denom] = struct{}{}
		}
		fixture = fixture.WithoutExponents(drop)
	}

	snapshot, err := refdata.NewSnapshot(fixture.Denoms)
	if err != nil {
		return nil, nil, fmt.Errorf("build snapshot: %w", err)
	}

	gen, err := scenario.NewGenerator(snapshot, cfg.ScenarioConfig(fixture.TransmuterPools, fixture.OrderbookPools), cfg.Seed)
	if err != nil {
		return nil, nil, err
	}
	scenarios, err := gen.Generate()
	if err != nil {
		return nil, nil, fmt.Errorf("generate scenarios: %w", err)
	}
	logger.Info("scenarios generated",
		zap.Int("denoms", snapshot.Len()),
		zap.Int("complete_denoms", len(snapshot.Complete())),
		zap.Int("scenarios", len(scenarios)),
		zap.Int64("seed", cfg.Seed),
	)
	return snapshot, scenarios, nil
}
