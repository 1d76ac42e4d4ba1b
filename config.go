package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/tailscale/hujson"
	"go.uber.org/multierr"

	"poffin-planner/internal/poffin"
)

// ConfigFileName is picked up from the working directory when --config is
// not given.
const ConfigFileName = ".poffin.json"

var (
	errConfigRead     = errors.New("cannot read config file")
	errConfigInvalid  = errors.New("invalid config")
	errStrategy       = errors.New("unknown strategy")
	errSearchPoolSize = errors.New("search pool must not be negative")
)

// Strategy selects which plan search runs.
type Strategy string

const (
	StrategyGreedy     Strategy = "greedy"
	StrategyExhaustive Strategy = "exhaustive"
	StrategyBoth       Strategy = "both"
)

// Config holds every tunable of a planner run. A config file or request
// body is decoded over the defaults, so only the fields it names change.
type Config struct {
	// Berry pool.
	Catalog   string   `json:"catalog,omitempty"` // catalog file; empty means built-in
	Include   []string `json:"include,omitempty"`
	Exclude   []string `json:"exclude,omitempty"`
	MaxRarity int      `json:"maxRarity,omitempty"`

	// Cooking and candidate selection.
	Sizes       []int  `json:"sizes,omitempty"`
	Cycle       int    `json:"cycle,omitempty"`
	Errors      int    `json:"errors,omitempty"`
	Bonus       int    `json:"bonus,omitempty"`
	Candidates  int    `json:"candidates,omitempty"` // candidates kept by the builder
	MinLevel    int    `json:"minLevel,omitempty"`
	NoFoul      bool   `json:"noFoul,omitempty"`
	Prefer      string `json:"prefer,omitempty"`
	PreferBonus int    `json:"preferBonus,omitempty"`
	Rarity      string `json:"rarity,omitempty"`

	CandidateWeights CandidateWeights `json:"candidateWeights"`

	// Plan search.
	Strategy   Strategy    `json:"strategy,omitempty"`
	SearchPool int         `json:"searchPool,omitempty"` // caps the pruned candidates searched; 0 searches them all
	Choose     int         `json:"choose,omitempty"`
	MaxPoffins int         `json:"maxPoffins,omitempty"`
	Top        int         `json:"top,omitempty"`
	Sequential bool        `json:"sequential,omitempty"`
	Workers    int         `json:"workers,omitempty"`
	Scoring    string      `json:"scoring,omitempty"`
	Weights    PlanWeights `json:"weights"`
}

// CandidateWeights mirrors poffin.CandidateWeights without the preference.
type CandidateWeights struct {
	Level      int `json:"level,omitempty"`
	Total      int `json:"total,omitempty"`
	Smoothness int `json:"smoothness,omitempty"`
}

// PlanWeights mirrors poffin.PlanWeights without the scoring mode.
type PlanWeights struct {
	Stats   int `json:"stats,omitempty"`
	MinStat int `json:"minStat,omitempty"`
	Count   int `json:"count,omitempty"`
	Sheen   int `json:"sheen,omitempty"`
	Rarity  int `json:"rarity,omitempty"`
}

// DefaultConfig returns the engine defaults in CLI form.
func DefaultConfig() Config {
	b := poffin.DefaultBuildConfig()
	s := poffin.DefaultSearchConfig()
	return Config{
		Sizes:      b.Sizes,
		Cycle:      b.Params.Cycle,
		Candidates: b.TopK,
		Rarity:     s.Rarity.String(),
		CandidateWeights: CandidateWeights{
			Level:      b.Weights.Level,
			Total:      b.Weights.Total,
			Smoothness: b.Weights.Smoothness,
		},
		Strategy:   StrategyBoth,
		Choose:     s.Choose,
		Top:        s.TopK,
		Scoring:    s.Weights.Mode.String(),
		Weights: PlanWeights{
			Stats:   s.Weights.Stats,
			MinStat: s.Weights.MinStat,
			Count:   s.Weights.Count,
			Sheen:   s.Weights.Sheen,
			Rarity:  s.Weights.Rarity,
		},
	}
}

// loadConfigFile decodes a JSONC config file over base. A missing file is
// only an error when mustExist is set, otherwise base comes back unchanged.
func loadConfigFile(path string, base Config, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return base, false, nil
		}
		return base, false, fmt.Errorf("%w: %s: %w", errConfigRead, path, err)
	}
	cfg, err := parseConfig(data, base)
	if err != nil {
		return base, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return cfg, true, nil
}

// parseConfig decodes JSONC over base. Fields present in data replace the
// base values, including zeros and false; absent fields are left alone.
func parseConfig(data []byte, base Config) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return base, fmt.Errorf("invalid JSONC: %w", err)
	}
	// Slices are decoded into fresh storage so base never shares a backing
	// array with the result.
	cfg := base
	cfg.Include = slices.Clone(base.Include)
	cfg.Exclude = slices.Clone(base.Exclude)
	cfg.Sizes = slices.Clone(base.Sizes)
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return base, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

// engineConfigs converts cfg into the engine's build and search configs and
// reports every problem at once.
func (c *Config) engineConfigs() (poffin.BuildConfig, poffin.SearchConfig, error) {
	var errs error

	build := poffin.DefaultBuildConfig()
	build.Sizes = c.Sizes
	build.Params = poffin.CookParams{Cycle: c.Cycle, Errors: c.Errors, Bonus: c.Bonus}
	build.TopK = c.Candidates
	build.Weights = poffin.CandidateWeights{
		Level:       c.CandidateWeights.Level,
		Total:       c.CandidateWeights.Total,
		Smoothness:  c.CandidateWeights.Smoothness,
		PreferBonus: c.PreferBonus,
	}
	switch {
	case c.Prefer != "":
		axis, err := poffin.ParseAxis(c.Prefer)
		errs = multierr.Append(errs, err)
		build.Weights.Prefer = axis
	case c.PreferBonus != 0:
		errs = multierr.Append(errs, fmt.Errorf("%w: preferBonus %d needs a prefer flavor", poffin.ErrAxis, c.PreferBonus))
	}
	rarity, err := poffin.ParseRarityMode(c.Rarity)
	errs = multierr.Append(errs, err)
	build.Keep = c.keep()
	errs = multierr.Append(errs, build.Validate())

	search := poffin.DefaultSearchConfig()
	search.Choose = c.Choose
	search.MaxPoffins = c.MaxPoffins
	search.TopK = c.Top
	search.Parallel = !c.Sequential
	search.Workers = c.Workers
	search.Rarity = rarity
	mode, err := poffin.ParseScoringMode(c.Scoring)
	errs = multierr.Append(errs, err)
	search.Weights = poffin.PlanWeights{
		Stats:   c.Weights.Stats,
		MinStat: c.Weights.MinStat,
		Count:   c.Weights.Count,
		Sheen:   c.Weights.Sheen,
		Rarity:  c.Weights.Rarity,
		Mode:    mode,
	}
	errs = multierr.Append(errs, search.Validate())

	switch c.Strategy {
	case StrategyGreedy, StrategyExhaustive, StrategyBoth:
	default:
		errs = multierr.Append(errs, fmt.Errorf("%w: %q", errStrategy, c.Strategy))
	}
	if c.SearchPool < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: %d", errSearchPoolSize, c.SearchPool))
	}
	if errs != nil {
		return poffin.BuildConfig{}, poffin.SearchConfig{}, fmt.Errorf("%w: %w", errConfigInvalid, errs)
	}
	return build, search, nil
}

// keep builds the candidate predicate from the level and foul filters.
func (c *Config) keep() func(poffin.Poffin) bool {
	if c.MinLevel <= 0 && !c.NoFoul {
		return nil
	}
	minLevel, noFoul := c.MinLevel, c.NoFoul
	return func(p poffin.Poffin) bool {
		if noFoul && p.Kind == poffin.KindFoul {
			return false
		}
		return p.Level >= minLevel
	}
}
