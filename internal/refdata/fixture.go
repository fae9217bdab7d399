package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PoolFixture names a pool and the denoms it trades.
type PoolFixture struct {
	PoolID string   `json:"pool_id" yaml:"pool_id"`
	Denoms []string `json:"denoms" yaml:"denoms"`
}

// Fixture is the session input: reference denoms plus specialized pool fixtures.
type Fixture struct {
	Denoms          []DenomRecord `json:"denoms" yaml:"denoms"`
	TransmuterPools []PoolFixture `json:"transmuter_pools" yaml:"transmuter_pools"`
	OrderbookPools  []PoolFixture `json:"orderbook_pools" yaml:"orderbook_pools"`
}

// LoadFixture reads a fixture from a local JSON/YAML file or an http(s) URL serving JSON.
func LoadFixture(ctx context.Context, source string, client *http.Client) (Fixture, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Fixture{}, fmt.Errorf("reference source is required")
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err := fetch(ctx, source, client)
		if err != nil {
			return Fixture{}, err
		}
		return decodeFixture(data, ".json")
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return Fixture{}, fmt.Errorf("read reference file: %w", err)
	}
	return decodeFixture(data, strings.ToLower(filepath.Ext(source)))
}

func decodeFixture(data []byte, ext string) (Fixture, error) {
	var fx Fixture
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fx); err != nil {
			return Fixture{}, fmt.Errorf("parse reference yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &fx); err != nil {
			return Fixture{}, fmt.Errorf("parse reference json: %w", err)
		}
	}
	for i, pool := range fx.TransmuterPools {
		if err := pool.validate(); err != nil {
			return Fixture{}, fmt.Errorf("transmuter_pools[%d]: %w", i, err)
		}
	}
	for i, pool := range fx.OrderbookPools {
		if err := pool.validate(); err != nil {
			return Fixture{}, fmt.Errorf("orderbook_pools[%d]: %w", i, err)
		}
	}
	return fx, nil
}

func (p PoolFixture) validate() error {
	if p.PoolID == "" {
		return fmt.Errorf("pool id is required")
	}
	if len(p.Denoms) < 2 {
		return fmt.Errorf("pool %s: at least two denoms required", p.PoolID)
	}
	return nil
}

func fetch(ctx context.Context, url string, client *http.Client) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build reference request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch reference data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read reference body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch reference data: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// WithoutExponents returns a copy of the fixture where the named denoms have no exponent,
// so any scenario touching them is skipped.
func (f Fixture) WithoutExponents(denoms map[string]struct{}) Fixture {
	if len(denoms) == 0 {
		return f
	}
	out := f
	out.Denoms = make([]DenomRecord, len(f.Denoms))
	for i, rec := range f.Denoms {
		if _, drop := denoms[rec.Denom]; drop {
			rec.Exponent = nil
		}
		out.Denoms[i] = rec
	}
	return out
}
