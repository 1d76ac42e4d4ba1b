package poffin

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// RarityMode selects how a recipe's rarity cost is derived from its berries.
type RarityMode int

const (
	RarityMax RarityMode = iota // rarest single berry
	RaritySum                   // sum over all berries
)

func (m RarityMode) String() string {
	switch m {
	case RarityMax:
		return "max"
	case RaritySum:
		return "sum"
	}
	return fmt.Sprintf("rarity(%d)", int(m))
}

func ParseRarityMode(s string) (RarityMode, error) {
	switch strings.ToLower(s) {
	case "max", "":
		return RarityMax, nil
	case "sum":
		return RaritySum, nil
	}
	return 0, fmt.Errorf("%w: rarity %q", ErrMode, s)
}

// CandidateWeights score a single cooked poffin.
type CandidateWeights struct {
	Level       int
	Total       int
	Smoothness  int
	Prefer      Axis // primary flavor that earns PreferBonus
	PreferBonus int
}

// BuildConfig drives candidate generation.
type BuildConfig struct {
	// Sizes lists the recipe sizes to enumerate.
	Sizes []int
	// Params are the cook parameters applied to every recipe.
	Params CookParams
	// Weights score each poffin.
	Weights CandidateWeights
	// TopK caps the number of candidates kept.
	TopK int
	// Dedup collapses recipes cooking into the same poffin.
	Dedup bool
	// Keep filters cooked poffins; nil keeps everything.
	Keep func(Poffin) bool
}

// DefaultBuildConfig returns the candidate generation defaults.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Sizes:   []int{1, 2, 3, 4},
		Params:  CookParams{Cycle: BaseCycle},
		Weights: CandidateWeights{Level: 4, Total: 1, Smoothness: 2},
		TopK:    400,
		Dedup:   true,
	}
}

// Validate reports every invalid field at once.
func (c *BuildConfig) Validate() error {
	var err error
	if len(c.Sizes) == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: no recipe sizes", ErrChoose))
	}
	for _, k := range c.Sizes {
		if k < 1 || k > MaxRecipeSize {
			err = multierr.Append(err, fmt.Errorf("%w: recipe size %d", ErrChoose, k))
		}
	}
	if c.Params.Cycle <= 0 {
		err = multierr.Append(err, ErrCycle)
	}
	if c.Params.Errors < 0 || c.Params.Bonus < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: errors=%d bonus=%d", ErrParams, c.Params.Errors, c.Params.Bonus))
	}
	if c.TopK <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %d", ErrTopK, c.TopK))
	}
	if c.Weights.Prefer < 0 || int(c.Weights.Prefer) >= NumAxes {
		err = multierr.Append(err, fmt.Errorf("%w: prefer %d", ErrAxis, int(c.Weights.Prefer)))
	}
	return err
}

// MaxChoose is the largest number of distinct candidates in one plan.
const MaxChoose = 4

// ParallelThreshold is the candidate count from which exhaustive search
// fans out over workers.
const ParallelThreshold = 64

// SearchConfig drives both plan search strategies.
type SearchConfig struct {
	// Choose is the number of distinct candidates per exhaustive plan.
	Choose int
	// MaxPoffins caps the poffins fed per plan; 0 means no cap.
	MaxPoffins int
	// TopK is the number of plans returned.
	TopK int
	// Parallel enables the worker fan-out for large candidate sets.
	Parallel bool
	// Workers overrides the worker count; 0 means GOMAXPROCS.
	Workers int
	// Weights score each plan.
	Weights PlanWeights
	// Rarity is the recipe cost metric.
	Rarity RarityMode
	// ProgressEvery is the outer-index interval between Progress calls.
	ProgressEvery int
	// Progress is called with completed and total outer indices. It may run
	// on any worker and calls may be dropped under contention.
	Progress func(done, total int)
}

// DefaultSearchConfig returns the search defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Choose:   3,
		TopK:     20,
		Parallel: true,
		Weights: PlanWeights{
			Stats:   10,
			MinStat: 5,
			Count:   20,
			Sheen:   1,
			Rarity:  3,
			Mode:    ScoreBalanced,
		},
		Rarity:        RarityMax,
		ProgressEvery: 16,
	}
}

// Validate reports every invalid field at once.
func (c *SearchConfig) Validate() error {
	var err error
	if c.Choose < 1 || c.Choose > MaxChoose {
		err = multierr.Append(err, fmt.Errorf("%w: choose %d not in [1,%d]", ErrChoose, c.Choose, MaxChoose))
	}
	if c.MaxPoffins < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %d", ErrMaxPoffins, c.MaxPoffins))
	}
	if c.TopK <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %d", ErrTopK, c.TopK))
	}
	if c.Workers < 0 || c.ProgressEvery < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: workers=%d progress=%d", ErrParams, c.Workers, c.ProgressEvery))
	}
	w := c.Weights
	if w.Stats < 0 || w.MinStat < 0 || w.Count < 0 || w.Sheen < 0 || w.Rarity < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %+v", ErrWeights, w))
	}
	if w.Mode != ScoreTotal && w.Mode != ScoreBalanced {
		err = multierr.Append(err, fmt.Errorf("%w: scoring %d", ErrMode, int(w.Mode)))
	}
	if c.Rarity != RarityMax && c.Rarity != RaritySum {
		err = multierr.Append(err, fmt.Errorf("%w: rarity %d", ErrMode, int(c.Rarity)))
	}
	return err
}
