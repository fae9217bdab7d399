// Package scenario builds the deterministic list of quote checks for a session.
package scenario

import (
	"fmt"
	"math/big"
	"math/rand"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"quoteScope/internal/model"
	"quoteScope/internal/refdata"
)

type Generator struct {
	snapshot *refdata.Snapshot
	cfg      Config
	seed     int64
}

func NewGenerator(snapshot *refdata.Snapshot, cfg Config, seed int64) (*Generator, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario config: %w", err)
	}
	return &Generator{snapshot: snapshot, cfg: cfg, seed: seed}, nil
}

// Generate returns every scenario in a stable order. Equal seeds and snapshots yield equal lists.
func (g *Generator) Generate() ([]model.Scenario, error) {
	numeraireExp, ok := g.snapshot.Exponent(g.cfg.NumeraireDenom)
	if !ok {
		return nil, fmt.Errorf("numeraire %s has no reference exponent", g.cfg.NumeraireDenom)
	}

	b := builder{rng: rand.New(rand.NewSource(g.seed)), seen: make(map[string]int)}

	for _, denom := range TopLiquidity(g.snapshot, g.cfg.NumeraireTopCount, decimal.Zero, nil) {
		if denom == g.cfg.NumeraireDenom {
			continue
		}
		for _, amount := range b.decadeAmounts(numeraireExp, g.cfg.NumeraireDecades) {
			b.add(model.Scenario{
				Kind:           model.KindNumeraireIn,
				TokenIn:        model.Coin{Denom: g.cfg.NumeraireDenom, Amount: amount},
				TokenOutDenoms: []string{denom},
			})
		}
	}

	pairExp := numeraireExp
	if g.cfg.PairExponent != nil {
		pairExp = *g.cfg.PairExponent
	}
	pairDenoms := TopLiquidity(g.snapshot, g.cfg.PairTopCount, g.cfg.PairMinLiquidityUSD, &pairExp)
	for _, pair := range Pairs(pairDenoms) {
		for _, amount := range b.decadeAmounts(pairExp, g.cfg.PairDecades) {
			b.add(model.Scenario{
				Kind:           model.KindTopLiquidityPair,
				TokenIn:        model.Coin{Denom: pair[0], Amount: amount},
				TokenOutDenoms: []string{pair[1]},
			})
		}
	}

	transmuterAmount := pow10(int(numeraireExp) + g.cfg.TransmuterDecade)
	for _, pool := range g.cfg.TransmuterPools {
		for _, pair := range Pairs(pool.Denoms) {
			b.add(model.Scenario{
				Kind:           model.KindTransmuter,
				TokenIn:        model.Coin{Denom: pair[0], Amount: new(big.Int).Set(transmuterAmount)},
				TokenOutDenoms: []string{pair[1]},
				Constituents:   append([]string(nil), pool.Denoms...),
			}, pool.PoolID)
		}
	}

	for _, pool := range g.cfg.OrderbookPools {
		for _, pair := range Pairs(pool.Denoms) {
			b.add(model.Scenario{
				Kind:           model.KindOrderbook,
				TokenIn:        model.NewCoin(pair[0], g.cfg.OrderbookAmount),
				TokenOutDenoms: []string{pair[1]},
				PoolIDs:        []string{pool.PoolID},
			})
		}
	}

	for _, route := range g.cfg.DirectRoutes {
		b.add(model.Scenario{
			Kind:           model.KindDirectRoute,
			TokenIn:        copyCoin(route.TokenIn),
			TokenOutDenoms: append([]string(nil), route.TokenOutDenoms...),
			PoolIDs:        append([]string(nil), route.PoolIDs...),
		})
	}

	for _, sim := range g.cfg.Simulations {
		b.add(model.Scenario{
			Kind:              model.KindSimulation,
			TokenIn:           copyCoin(sim.TokenIn),
			TokenOutDenoms:    []string{sim.TokenOutDenom},
			SimulatorAddress:  sim.SimulatorAddress,
			SlippageTolerance: sim.SlippageTolerance,
		})
	}

	return b.out, nil
}

type builder struct {
	rng  *rand.Rand
	seen map[string]int
	out  []model.Scenario
}

// add assigns a unique ID. Extra parts such as a pool id are prepended to the coin parts.
func (b *builder) add(s model.Scenario, extra ...string) {
	parts := append([]string(nil), extra...)
	parts = append(parts, s.PoolIDs...)
	parts = append(parts, s.TokenIn.String())
	parts = append(parts, s.TokenOutDenoms...)
	id := model.ScenarioID(s.Kind, parts...)
	if n := b.seen[id]; n > 0 {
		b.seen[id] = n + 1
		id += "#" + strconv.Itoa(n)
	} else {
		b.seen[id] = 1
	}
	s.ID = id
	b.out = append(b.out, s)
}

// decadeAmounts draws one amount in [10^(exp+d), 10^(exp+d+1)) for each decade d of r.
func (b *builder) decadeAmounts(exp uint32, r DecadeRange) []*big.Int {
	out := make([]*big.Int, 0, r.Max-r.Min)
	for d := r.Min; d < r.Max; d++ {
		lo := pow10(int(exp) + d)
		hi := pow10(int(exp) + d + 1)
		span := new(big.Int).Sub(hi, lo)
		if span.Sign() <= 0 {
			out = append(out, lo)
			continue
		}
		out = append(out, new(big.Int).Add(lo, new(big.Int).Rand(b.rng, span)))
	}
	return out
}

// TopLiquidity returns up to n denoms with at least minLiquidity USD, ordered by liquidity
// descending then denom. A non-nil exponentFilter keeps only denoms with that exponent.
// Denoms lacking a price are kept so that their scenarios surface as skipped.
func TopLiquidity(snapshot *refdata.Snapshot, n int, minLiquidity decimal.Decimal, exponentFilter *uint32) []string {
	type ranked struct {
		denom string
		liq   decimal.Decimal
	}
	var candidates []ranked
	for _, denom := range snapshot.Denoms() {
		liq, _ := snapshot.Liquidity(denom)
		if liq.LessThan(minLiquidity) {
			continue
		}
		if exponentFilter != nil {
			exp, ok := snapshot.Exponent(denom)
			if !ok || exp != *exponentFilter {
				continue
			}
		}
		candidates = append(candidates, ranked{denom: denom, liq: liq})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].liq.Equal(candidates[j].liq) {
			return candidates[i].liq.GreaterThan(candidates[j].liq)
		}
		return candidates[i].denom < candidates[j].denom
	})
	if n >= 0 && len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.denom
	}
	return out
}

// Pairs returns the unordered pairs of distinct denoms in input order, each once.
func Pairs(denoms []string) [][2]string {
	seen := make(map[string]struct{}, len(denoms))
	uniq := make([]string, 0, len(denoms))
	for _, d := range denoms {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		uniq = append(uniq, d)
	}
	var out [][2]string
	for i := 0; i < len(uniq); i++ {
		for j := i + 1; j < len(uniq); j++ {
			out = append(out, [2]string{uniq[i], uniq[j]})
		}
	}
	return out
}

func pow10(exp int) *big.Int {
	if exp < 0 {
		exp = 0
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}

func copyCoin(c model.Coin) model.Coin {
	out := model.Coin{Denom: c.Denom}
	if c.Amount != nil {
		out.Amount = new(big.Int).Set(c.Amount)
	}
	return out
}
