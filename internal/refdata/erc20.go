package refdata

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const erc20DecimalsABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20DecimalsABI     abi.ABI
	erc20DecimalsABIOnce sync.Once
	erc20DecimalsABIErr  error
)

func decimalsABI() (abi.ABI, error) {
	erc20DecimalsABIOnce.Do(func() {
		erc20DecimalsABI, erc20DecimalsABIErr = abi.JSON(strings.NewReader(erc20DecimalsABIJSON))
	})
	return erc20DecimalsABI, erc20DecimalsABIErr
}

// ContractCaller performs read-only contract calls. *chain.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ExponentMismatch records a denom whose reference exponent disagrees with its ERC20 origin.
type ExponentMismatch struct {
	Denom     string
	Reference uint32
	OnChain   uint8
}

// FetchDecimals calls decimals() on an ERC20 token.
func FetchDecimals(ctx context.Context, caller ContractCaller, token common.Address) (uint8, error) {
	if caller == nil {
		return 0, fmt.Errorf("contract caller is nil")
	}
	parsed, err := decimalsABI()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := parsed.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("pack decimals: %w", err)
	}
	resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("call decimals: %w", err)
	}
	values, err := parsed.Unpack("decimals", resp)
	if err != nil {
		return 0, fmt.Errorf("unpack decimals: %w", err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("decimals return size %d", len(values))
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals unexpected type %T", values[0])
	}
	return decimals, nil
}

// VerifyExponents compares reference exponents of EVM-bridged denoms against their ERC20
// decimals. contracts maps denom to token address. Denoms whose call fails are logged and
// left unverified.
func VerifyExponents(ctx context.Context, caller ContractCaller, contracts map[string]string, records []DenomRecord, logger *zap.Logger) ([]ExponentMismatch, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(contracts) == 0 {
		return nil, nil
	}

	byDenom := make(map[string]DenomRecord, len(records))
	for _, rec := range records {
		byDenom[rec.Denom] = rec
	}

	denoms := make([]string, 0, len(contracts))
	for denom := range contracts {
		denoms = append(denoms, denom)
	}
	sort.Strings(denoms)

	var mismatches []ExponentMismatch
	for _, denom := range denoms {
		address := contracts[denom]
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("invalid erc20 address for %s: %s", denom, address)
		}
		rec, ok := byDenom[denom]
		if !ok || rec.Exponent == nil {
			logger.Debug("skip exponent verification", zap.String("denom", denom))
			continue
		}

		decimals, err := FetchDecimals(ctx, caller, common.HexToAddress(address))
		if err != nil {
			logger.Warn("erc20 decimals fetch failed", zap.String("denom", denom), zap.String("token", address), zap.Error(err))
			continue
		}
		if uint32(decimals) != *rec.Exponent {
			mismatches = append(mismatches, ExponentMismatch{
				Denom:     denom,
				Reference: *rec.Exponent,
				OnChain:   decimals,
			})
		}
	}
	return mismatches, nil
}
