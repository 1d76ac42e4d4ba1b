package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"poffin-planner/internal/berry"
	"poffin-planner/internal/poffin"
)

var errEmptyPool = errors.New("no berries left after filtering")

// Report is the outcome of one planner run, shared by the CLI and the lambda.
type Report struct {
	RunID      string          `json:"runId"`
	Date       string          `json:"date"`
	Pool       int             `json:"pool"`
	Candidates []CandidateView `json:"candidates,omitempty"`
	Pruned     int             `json:"pruned,omitempty"`
	Searched   int             `json:"searched,omitempty"`
	Greedy     *GreedyView     `json:"greedy,omitempty"`
	Plans      []PlanView      `json:"plans,omitempty"`
	Evaluated  int64           `json:"evaluated,omitempty"`
	Workers    int             `json:"workers,omitempty"`
	TimeMs     int64           `json:"timeMs"`
}

// CandidateView is a candidate with its berries named.
type CandidateView struct {
	Berries    []string `json:"berries"`
	Flavors    [5]int   `json:"flavors"`
	Smoothness int      `json:"smoothness"`
	Kind       string   `json:"kind"`
	Level      int      `json:"level"`
	Primary    string   `json:"primary"`
	Score      int      `json:"score"`
	Rarity     int      `json:"rarity"`
	Duplicates int      `json:"duplicates,omitempty"`
}

// StepView is one greedy feeding step.
type StepView struct {
	Candidate  CandidateView `json:"candidate"`
	Conditions [5]int        `json:"conditions"`
	Sheen      int           `json:"sheen"`
}

// GreedyView is the greedy strategy outcome.
type GreedyView struct {
	Steps      []StepView `json:"steps"`
	Conditions [5]int     `json:"conditions"`
	Sheen      int        `json:"sheen"`
	Score      int        `json:"score"`
	Perfect    int        `json:"perfect"`
	Rank       string     `json:"rank"`
	Distinct   int        `json:"distinctBerries"`
	Rarity     int        `json:"rarity"`
}

// PlanView is one exhaustive plan.
type PlanView struct {
	Sequence   []CandidateView `json:"sequence"`
	Conditions [5]int          `json:"conditions"`
	Sheen      int             `json:"sheen"`
	Score      int             `json:"score"`
	Poffins    int             `json:"poffins"`
	Perfect    int             `json:"perfect"`
	Rank       string          `json:"rank"`
	Outcome    string          `json:"outcome"`
	Distinct   int             `json:"distinctBerries"`
	Rarity     int             `json:"rarity"`
	ExtraToCap int             `json:"extraToCap"`
}

// pipeline wires the catalog, the candidate builder and the searcher for one
// config.
type pipeline struct {
	cfg    Config
	build  poffin.BuildConfig
	search poffin.SearchConfig
	cat    *berry.Catalog
	log    logr.Logger
}

func newPipeline(cfg Config, log logr.Logger) (*pipeline, error) {
	build, search, err := cfg.engineConfigs()
	if err != nil {
		return nil, err
	}
	cat := berry.Default()
	if cfg.Catalog != "" {
		cat, err = berry.Load(cfg.Catalog)
		if err != nil {
			return nil, err
		}
	}
	return &pipeline{cfg: cfg, build: build, search: search, cat: cat, log: log}, nil
}

func newReport() *Report {
	return &Report{
		RunID: uuid.NewString(),
		Date:  time.Now().UTC().Format(time.RFC3339),
	}
}

// candidates builds the scored candidate list for the configured pool.
func (p *pipeline) candidates(r *Report) ([]poffin.Candidate, error) {
	pool, err := p.cat.Pool(berry.Filter{
		Include:   p.cfg.Include,
		Exclude:   p.cfg.Exclude,
		MaxRarity: p.cfg.MaxRarity,
	})
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, errEmptyPool
	}
	r.Pool = len(pool)
	p.log.Info("pool ready", "berries", len(pool), "catalog", p.cat.Len())

	b := poffin.NewBuilder(pool, poffin.WithLogr(p.log))
	b.Precompute()
	cands, err := b.Build(p.build)
	if err != nil {
		return nil, fmt.Errorf("build candidates: %w", err)
	}
	return cands, nil
}

// runCandidates stops after candidate building.
func runCandidates(cfg Config, log logr.Logger) (*Report, error) {
	start := time.Now()
	p, err := newPipeline(cfg, log)
	if err != nil {
		return nil, err
	}
	r := newReport()
	cands, err := p.candidates(r)
	if err != nil {
		return nil, err
	}
	r.Candidates = p.views(cands)
	r.TimeMs = time.Since(start).Milliseconds()
	return r, nil
}

// runPlan runs the full pipeline.
func runPlan(cfg Config, log logr.Logger) (*Report, error) {
	start := time.Now()
	p, err := newPipeline(cfg, log)
	if err != nil {
		return nil, err
	}
	r := newReport()
	cands, err := p.candidates(r)
	if err != nil {
		return nil, err
	}

	pruned := poffin.Prune(cands, p.search.Rarity)
	r.Pruned = len(pruned)
	if cfg.SearchPool > 0 && len(pruned) > cfg.SearchPool {
		pruned = pruned[:cfg.SearchPool]
	}
	r.Searched = len(pruned)
	r.Candidates = p.views(pruned)
	log.Info("pruned", "candidates", len(cands), "front", r.Pruned, "searched", r.Searched)

	s, err := poffin.NewSearcher(p.search, poffin.WithLogr(log))
	if err != nil {
		return nil, err
	}
	if cfg.Strategy != StrategyExhaustive {
		g := s.Greedy(pruned)
		r.Greedy = p.greedyView(pruned, g)
	}
	if cfg.Strategy != StrategyGreedy {
		res := s.Exhaustive(pruned)
		r.Evaluated = res.Evaluated
		r.Workers = res.Workers
		for i := range res.Plans {
			r.Plans = append(r.Plans, p.planView(pruned, &res.Plans[i]))
		}
	}
	r.TimeMs = time.Since(start).Milliseconds()
	return r, nil
}

// cookNamed cooks the named berries with the configured cook parameters.
func cookNamed(cfg Config, names []string) (CandidateView, error) {
	p, err := newPipeline(cfg, logr.Discard())
	if err != nil {
		return CandidateView{}, err
	}
	c := poffin.Candidate{Recipe: poffin.Recipe{Params: p.build.Params}}
	items := make([]poffin.Item, 0, len(names))
	for _, n := range names {
		b, err := p.cat.Lookup(n)
		if err != nil {
			return CandidateView{}, err
		}
		items = append(items, b.Item)
		if c.Recipe.Size < poffin.MaxRecipeSize {
			c.Recipe.IDs[c.Recipe.Size] = b.ID
			c.Recipe.Size++
		}
		c.RarityMax = max(c.RarityMax, b.Rarity)
		c.RaritySum += b.Rarity
	}
	c.Poffin, err = poffin.Cook(items, p.build.Params)
	if err != nil {
		return CandidateView{}, err
	}
	c.Score = p.build.Weights.Score(c.Poffin)
	return p.view(c), nil
}

func (p *pipeline) view(c poffin.Candidate) CandidateView {
	return CandidateView{
		Berries:    p.cat.Names(c.Recipe.Items()),
		Flavors:    c.Poffin.Flavors,
		Smoothness: c.Poffin.Smoothness,
		Kind:       c.Poffin.Kind.String(),
		Level:      c.Poffin.Level,
		Primary:    c.Poffin.Primary.String(),
		Score:      c.Score,
		Rarity:     c.RarityCost(p.search.Rarity),
		Duplicates: c.Duplicates,
	}
}

func (p *pipeline) views(cands []poffin.Candidate) []CandidateView {
	out := make([]CandidateView, len(cands))
	for i := range cands {
		out[i] = p.view(cands[i])
	}
	return out
}

func (p *pipeline) greedyView(cands []poffin.Candidate, g poffin.GreedyPlan) *GreedyView {
	v := &GreedyView{
		Conditions: g.Final.Conditions,
		Sheen:      g.Final.Sheen,
		Score:      g.Score,
		Perfect:    g.Perfect,
		Rank:       g.Rank.String(),
		Distinct:   g.Distinct,
		Rarity:     g.RarityCost,
	}
	for _, st := range g.Steps {
		v.Steps = append(v.Steps, StepView{
			Candidate:  p.view(cands[st.Candidate]),
			Conditions: st.After.Conditions,
			Sheen:      st.After.Sheen,
		})
	}
	return v
}

func (p *pipeline) planView(cands []poffin.Candidate, pl *poffin.Plan) PlanView {
	v := PlanView{
		Conditions: pl.Final.Conditions,
		Sheen:      pl.Final.Sheen,
		Score:      pl.Score,
		Poffins:    pl.Poffins,
		Perfect:    pl.Perfect,
		Rank:       pl.Rank.String(),
		Outcome:    pl.Outcome.String(),
		Distinct:   pl.Distinct,
		Rarity:     pl.RarityCost,
		ExtraToCap: pl.ExtraToCap,
	}
	for _, i := range pl.Indices() {
		v.Sequence = append(v.Sequence, p.view(cands[i]))
	}
	return v
}
