package refdata

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"quoteScope/internal/model"
)

// Provider resolves reference metadata by denom.
type Provider interface {
	Metadata(denom string) (model.DenomMetadata, error)
}

// DenomRecord is a reference entry as loaded. Price and exponent may be absent.
type DenomRecord struct {
	Denom        string           `json:"denom" yaml:"denom"`
	Exponent     *uint32          `json:"exponent" yaml:"exponent"`
	Price        *decimal.Decimal `json:"price" yaml:"price"`
	LiquidityUSD decimal.Decimal  `json:"liquidity_usd" yaml:"liquidity_usd"`
}

type entry struct {
	meta        model.DenomMetadata
	missing     string
	hasExponent bool
}

// Snapshot is the immutable reference data set shared by all scenarios.
// It is safe for concurrent use since nothing mutates it after NewSnapshot.
type Snapshot struct {
	entries map[string]entry
	denoms  []string
}

// NewSnapshot validates records and builds a snapshot.
func NewSnapshot(records []DenomRecord) (*Snapshot, error) {
	entries := make(map[string]entry, len(records))
	denoms := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Denom == "" {
			return nil, fmt.Errorf("reference record with empty denom")
		}
		if _, ok := entries[rec.Denom]; ok {
			return nil, fmt.Errorf("duplicate reference denom: %s", rec.Denom)
		}

		e := entry{meta: model.DenomMetadata{Denom: rec.Denom, LiquidityUSD: rec.LiquidityUSD}}
		if rec.Price == nil {
			// Price-less records still carry liquidity for top-N selection.
			if rec.LiquidityUSD.IsNegative() {
				return nil, fmt.Errorf("denom %s: liquidity must be non-negative, got %s", rec.Denom, rec.LiquidityUSD)
			}
			e.missing = "price"
		} else {
			e.meta.Price = *rec.Price
			if err := e.meta.Validate(); err != nil {
				return nil, err
			}
		}
		if rec.Exponent == nil {
			if e.missing == "" {
				e.missing = "exponent"
			}
		} else {
			e.meta.Exponent = *rec.Exponent
			e.hasExponent = true
		}

		entries[rec.Denom] = e
		denoms = append(denoms, rec.Denom)
	}
	sort.Strings(denoms)
	return &Snapshot{entries: entries, denoms: denoms}, nil
}

// Metadata returns the complete metadata for denom or a *DataUnavailableError.
func (s *Snapshot) Metadata(denom string) (model.DenomMetadata, error) {
	e, ok := s.entries[denom]
	if !ok {
		return model.DenomMetadata{}, &DataUnavailableError{Denom: denom}
	}
	if e.missing != "" {
		return model.DenomMetadata{}, &DataUnavailableError{Denom: denom, Field: e.missing}
	}
	return e.meta, nil
}

// Liquidity returns the USD liquidity of denom, complete or not.
func (s *Snapshot) Liquidity(denom string) (decimal.Decimal, bool) {
	e, ok := s.entries[denom]
	if !ok {
		return decimal.Zero, false
	}
	return e.meta.LiquidityUSD, true
}

// Exponent returns the exponent of denom when known.
func (s *Snapshot) Exponent(denom string) (uint32, bool) {
	e, ok := s.entries[denom]
	if !ok || !e.hasExponent {
		return 0, false
	}
	return e.meta.Exponent, true
}

// Denoms returns every denom in the snapshot, ordered.
func (s *Snapshot) Denoms() []string {
	return append([]string(nil), s.denoms...)
}

// Complete returns the metadata of every denom with both price and exponent, ordered by denom.
func (s *Snapshot) Complete() []model.DenomMetadata {
	out := make([]model.DenomMetadata, 0, len(s.denoms))
	for _, denom := range s.denoms {
		e := s.entries[denom]
		if e.missing != "" {
			continue
		}
		out = append(out, e.meta)
	}
	return out
}

// Len returns the number of denoms in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.denoms)
}
