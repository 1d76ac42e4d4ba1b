package poffin

import (
	"github.com/go-logr/logr"
)

// Option configures a Builder or a Searcher.
type Option func(*settings)

type settings struct {
	log logr.Logger
}

func newSettings(opts []Option) settings {
	s := settings{log: logr.Discard()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogr routes engine logging to log.
func WithLogr(log logr.Logger) Option {
	return func(s *settings) {
		s.log = log
	}
}

// Pool collects the catalog berries accepted by keep (all when keep is nil)
// in catalog order.
func Pool(cat Catalog, keep func(Item) bool) []Item {
	pool := make([]Item, 0, cat.Len())
	for it := range cat.All() {
		if keep == nil || keep(it) {
			pool = append(pool, it)
		}
	}
	return pool
}

// Score scores a single poffin.
func (w CandidateWeights) Score(p Poffin) int {
	s := p.Level*w.Level + p.Total()*w.Total - p.Smoothness*w.Smoothness
	if w.PreferBonus != 0 && p.Primary == w.Prefer {
		s += w.PreferBonus
	}
	return s
}

// Builder cooks every recipe of a berry pool into scored candidates.
type Builder struct {
	pool  []Item
	table *ComboTable
	log   logr.Logger
}

// NewBuilder returns a builder over a private copy of pool.
func NewBuilder(pool []Item, opts ...Option) *Builder {
	s := newSettings(opts)
	return &Builder{
		pool: append([]Item(nil), pool...),
		log:  s.log.WithName("builder"),
	}
}

// Pool returns the builder's berries. The slice must not be modified.
func (b *Builder) Pool() []Item { return b.pool }

// Precompute sums all 2 to 4 berry combinations once so later Build calls
// with different cook parameters skip the summing.
func (b *Builder) Precompute() *ComboTable {
	if b.table == nil {
		b.table = Precompute(b.pool)
		b.log.V(1).Info("precomputed combinations", "pool", len(b.pool), "combos", b.table.Len())
	}
	return b.table
}

// Build enumerates, cooks, filters and scores every recipe of the requested
// sizes and returns the best cfg.TopK candidates, best first.
func (b *Builder) Build(cfg BuildConfig) ([]Candidate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	top := NewTopK[Candidate](cfg.TopK)
	var (
		groups  map[Signature]int
		deduped []Candidate
	)
	if cfg.Dedup {
		groups = make(map[Signature]int)
	}

	cooked, kept := 0, 0
	emit := func(c Candidate) {
		cooked++
		if cfg.Keep != nil && !cfg.Keep(c.Poffin) {
			return
		}
		kept++
		c.Score = cfg.Weights.Score(c.Poffin)
		if !cfg.Dedup {
			top.TryAdd(c, c.Score)
			return
		}
		sig := c.Poffin.Signature()
		if i, ok := groups[sig]; ok {
			g := &deduped[i]
			n := g.Duplicates + 1
			if c.Score > g.Score {
				*g = c
			}
			g.Duplicates = n
			return
		}
		c.Duplicates = 1
		groups[sig] = len(deduped)
		deduped = append(deduped, c)
	}

	for _, k := range cfg.Sizes {
		var cookErr error
		err := EachCombo(len(b.pool), k, func(idx []int) bool {
			c, err := b.cookCombo(idx, cfg.Params)
			if err != nil {
				cookErr = err
				return false
			}
			emit(c)
			return true
		})
		if err == nil {
			err = cookErr
		}
		if err != nil {
			return nil, err
		}
	}

	for i := range deduped {
		top.TryAdd(deduped[i], deduped[i].Score)
	}
	out := top.Sorted(nil)
	b.log.V(1).Info("candidates built",
		"pool", len(b.pool), "cooked", cooked, "kept", kept,
		"signatures", len(deduped), "returned", len(out), "precomputed", b.table != nil)
	return out, nil
}

// cookCombo cooks the berries at pool positions idx, through the combo
// table when one is available.
func (b *Builder) cookCombo(idx []int, p CookParams) (Candidate, error) {
	k := len(idx)
	c := Candidate{Recipe: Recipe{Size: k, Params: p}}
	if b.table != nil && k >= minTableSize {
		cs := &b.table.sums[b.table.offsets[k]+colexRank(idx)]
		cooked, err := CookSum(cs, p)
		if err != nil {
			return Candidate{}, err
		}
		c.Poffin = cooked
		c.Recipe.IDs = cs.IDs
		c.RarityMax, c.RaritySum = cs.RarityMax, cs.RaritySum
		return c, nil
	}

	var buf [MaxRecipeSize]Item
	items := buf[:k]
	for j, i := range idx {
		items[j] = b.pool[i]
		c.Recipe.IDs[j] = items[j].ID
		c.RarityMax = max(c.RarityMax, items[j].Rarity)
		c.RaritySum += items[j].Rarity
	}
	cooked, err := Cook(items, p)
	if err != nil {
		return Candidate{}, err
	}
	c.Poffin = cooked
	return c, nil
}
