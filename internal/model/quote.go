package model

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// PoolType classifies a hop's pool.
type PoolType string

const (
	PoolTypeConcentrated PoolType = "concentrated"
	PoolTypeTransmuter   PoolType = "transmuter"
	PoolTypeOrderbook    PoolType = "orderbook"
	PoolTypeOther        PoolType = "other"
)

// ParsePoolType maps the wire type name to a PoolType. Unknown names map to PoolTypeOther.
func ParsePoolType(name string) PoolType {
	switch PoolType(strings.ToLower(strings.TrimSpace(name))) {
	case PoolTypeConcentrated:
		return PoolTypeConcentrated
	case PoolTypeTransmuter:
		return PoolTypeTransmuter
	case PoolTypeOrderbook:
		return PoolTypeOrderbook
	default:
		return PoolTypeOther
	}
}

// Hop is a single pool traversal.
type Hop struct {
	PoolID   string   `json:"id"`
	PoolType PoolType `json:"type"`
	TokenIn  string   `json:"token_in"`
	TokenOut string   `json:"token_out"`
}

// Path is an ordered sequence of hops.
type Path struct {
	Hops []Hop `json:"pools"`
}

// Quote is a parsed exact-amount-in quote response.
type Quote struct {
	AmountIn     Coin             `json:"amount_in"`
	AmountOut    *big.Int         `json:"amount_out"`
	SpotPrice    decimal.Decimal  `json:"in_base_out_quote_spot_price"`
	PriceImpact  *decimal.Decimal `json:"price_impact"`
	EffectiveFee decimal.Decimal  `json:"effective_fee"`
	Route        []Path           `json:"route"`
	PriceInfo    json.RawMessage  `json:"price_info,omitempty"`
}

// UnmarshalJSON decodes a quote response and fails on any missing or mistyped required field.
func (q *Quote) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	var out Quote

	rawAmountIn, err := requireField(fields, "amount_in")
	if err != nil {
		return err
	}
	if err := out.AmountIn.UnmarshalJSON(rawAmountIn); err != nil {
		return fmt.Errorf("amount_in: %w", err)
	}

	if out.AmountOut, err = requireUint(fields, "amount_out"); err != nil {
		return err
	}
	if out.SpotPrice, err = requireDecimal(fields, "in_base_out_quote_spot_price"); err != nil {
		return err
	}
	if !out.SpotPrice.IsPositive() {
		return &FieldError{Field: "in_base_out_quote_spot_price", Reason: "must be positive"}
	}
	if out.PriceImpact, err = nullableDecimal(fields, "price_impact"); err != nil {
		return err
	}
	if out.EffectiveFee, err = requireDecimal(fields, "effective_fee"); err != nil {
		return err
	}

	rawRoute, err := requireField(fields, "route")
	if err != nil {
		return err
	}
	if out.Route, err = decodeRoute(rawRoute); err != nil {
		return err
	}

	rawPriceInfo, err := requireField(fields, "price_info")
	if err != nil {
		return err
	}
	if !isNull(rawPriceInfo) {
		if _, err := decodeObject(rawPriceInfo); err != nil {
			return &FieldError{Field: "price_info", Reason: "expected object or null"}
		}
		out.PriceInfo = append(json.RawMessage(nil), rawPriceInfo...)
	}

	*q = out
	return nil
}

// MarshalJSON mirrors the wire format accepted by UnmarshalJSON.
func (q Quote) MarshalJSON() ([]byte, error) {
	amountOut := "0"
	if q.AmountOut != nil {
		amountOut = q.AmountOut.String()
	}
	var priceImpact *string
	if q.PriceImpact != nil {
		s := q.PriceImpact.String()
		priceImpact = &s
	}
	priceInfo := q.PriceInfo
	if len(priceInfo) == 0 {
		priceInfo = json.RawMessage("null")
	}
	route := q.Route
	if route == nil {
		route = []Path{}
	}
	return json.Marshal(struct {
		AmountIn     Coin            `json:"amount_in"`
		AmountOut    string          `json:"amount_out"`
		SpotPrice    string          `json:"in_base_out_quote_spot_price"`
		PriceImpact  *string         `json:"price_impact"`
		EffectiveFee string          `json:"effective_fee"`
		Route        []Path          `json:"route"`
		PriceInfo    json.RawMessage `json:"price_info"`
	}{
		AmountIn:     q.AmountIn,
		AmountOut:    amountOut,
		SpotPrice:    q.SpotPrice.String(),
		PriceImpact:  priceImpact,
		EffectiveFee: q.EffectiveFee.String(),
		Route:        route,
		PriceInfo:    priceInfo,
	})
}

func decodeRoute(raw json.RawMessage) ([]Path, error) {
	if isNull(raw) {
		return nil, &FieldError{Field: "route", Reason: "null"}
	}
	var rawPaths []json.RawMessage
	if err := json.Unmarshal(raw, &rawPaths); err != nil {
		return nil, &FieldError{Field: "route", Reason: "expected array"}
	}

	paths := make([]Path, 0, len(rawPaths))
	for i, rawPath := range rawPaths {
		fields, err := decodeObject(rawPath)
		if err != nil {
			return nil, fmt.Errorf("route[%d]: %w", i, err)
		}
		rawPools, err := requireField(fields, "pools")
		if err != nil {
			return nil, fmt.Errorf("route[%d]: %w", i, err)
		}
		var rawHops []json.RawMessage
		if err := json.Unmarshal(rawPools, &rawHops); err != nil || isNull(rawPools) {
			return nil, fmt.Errorf("route[%d]: %w", i, &FieldError{Field: "pools", Reason: "expected array"})
		}

		hops := make([]Hop, 0, len(rawHops))
		for j, rawHop := range rawHops {
			hop, err := decodeHop(rawHop)
			if err != nil {
				return nil, fmt.Errorf("route[%d].pools[%d]: %w", i, j, err)
			}
			hops = append(hops, hop)
		}
		paths = append(paths, Path{Hops: hops})
	}
	return paths, nil
}

func decodeHop(raw json.RawMessage) (Hop, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return Hop{}, err
	}
	id, err := requireString(fields, "id")
	if err != nil {
		return Hop{}, err
	}
	tokenIn, err := requireString(fields, "token_in")
	if err != nil {
		return Hop{}, err
	}
	tokenOut, err := requireString(fields, "token_out")
	if err != nil {
		return Hop{}, err
	}
	poolType, err := requireString(fields, "type")
	if err != nil {
		return Hop{}, err
	}
	return Hop{
		PoolID:   id,
		PoolType: ParsePoolType(poolType),
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
	}, nil
}
