package poffin

import (
	"fmt"
	"iter"
	"strings"
)

// Axis identifies one of the five flavor axes. The declaration order is also
// the tie-break priority: Spicy beats Dry beats Sweet and so on.
type Axis int

const (
	Spicy Axis = iota
	Dry
	Sweet
	Bitter
	Sour
)

// NumAxes is the number of flavor axes (and contest conditions).
const NumAxes = 5

// MaxRecipeSize is the largest number of berries a single recipe may use.
const MaxRecipeSize = 4

const (
	// MaxFlavor is the ceiling of a cooked poffin's flavor value.
	MaxFlavor = 100
	// MaxCondition is the saturation point of each contest condition.
	MaxCondition = 255
	// MaxSheen is the cumulative sheen cap.
	MaxSheen = 255
	// BaseCycle is the cook cycle length that needs no time scaling.
	BaseCycle = 60
	// MaxBonus caps the smoothness bonus.
	MaxBonus = 9
)

var axisNames = [NumAxes]string{"spicy", "dry", "sweet", "bitter", "sour"}

var conditionNames = [NumAxes]string{"cool", "beauty", "cute", "smart", "tough"}

func (a Axis) String() string {
	if a < 0 || int(a) >= NumAxes {
		return fmt.Sprintf("axis(%d)", int(a))
	}
	return axisNames[a]
}

// Condition returns the contest condition fed by this flavor.
func (a Axis) Condition() string {
	if a < 0 || int(a) >= NumAxes {
		return ""
	}
	return conditionNames[a]
}

// ParseAxis accepts a flavor name or its contest condition name.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spicy", "cool":
		return Spicy, nil
	case "dry", "beauty":
		return Dry, nil
	case "sweet", "cute":
		return Sweet, nil
	case "bitter", "smart":
		return Bitter, nil
	case "sour", "tough":
		return Sour, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrAxis, s)
}

// Kind is the classification of a cooked poffin.
type Kind int

const (
	KindFoul Kind = iota
	KindSingle
	KindDual
	KindRich
	KindOverripe
	KindMild
	KindTopTier
)

func (k Kind) String() string {
	switch k {
	case KindFoul:
		return "foul"
	case KindSingle:
		return "single"
	case KindDual:
		return "dual"
	case KindRich:
		return "rich"
	case KindOverripe:
		return "overripe"
	case KindMild:
		return "mild"
	case KindTopTier:
		return "top-tier"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Item is a catalog berry.
type Item struct {
	ID         int
	Flavors    [NumAxes]int
	Smoothness int
	Rarity     int
}

// Catalog is the read-only berry table the engine consumes.
type Catalog interface {
	Get(id int) (Item, bool)
	Len() int
	All() iter.Seq[Item]
}

// Poffin is the cooked output of a recipe. It has no identity of its own;
// two poffins are the same poffin when all fields are equal.
type Poffin struct {
	Flavors     [NumAxes]int
	Smoothness  int
	Kind        Kind
	Primary     Axis
	Secondary   Axis
	Level       int
	SecondLevel int
}

// Nonzero counts the flavors with a positive value.
func (p Poffin) Nonzero() int {
	n := 0
	for _, v := range p.Flavors {
		if v > 0 {
			n++
		}
	}
	return n
}

// Total is the sum of all five flavors.
func (p Poffin) Total() int {
	t := 0
	for _, v := range p.Flavors {
		t += v
	}
	return t
}

// Signature is the dedup key of a poffin.
type Signature struct {
	Flavors     [NumAxes]int
	Smoothness  int
	Level       int
	SecondLevel int
	Nonzero     int
	Primary     Axis
	Secondary   Axis
}

func (p Poffin) Signature() Signature {
	return Signature{
		Flavors:     p.Flavors,
		Smoothness:  p.Smoothness,
		Level:       p.Level,
		SecondLevel: p.SecondLevel,
		Nonzero:     p.Nonzero(),
		Primary:     p.Primary,
		Secondary:   p.Secondary,
	}
}

// CookParams are the cooking-session parameters.
type CookParams struct {
	Cycle  int // cycle length in seconds, BaseCycle means no scaling
	Errors int // spills and burns
	Bonus  int // smoothness bonus, capped at MaxBonus
}

// Recipe records which berries (by id) and which parameters produced a poffin.
type Recipe struct {
	IDs    [MaxRecipeSize]int
	Size   int
	Params CookParams
}

// Items returns the berry ids used by the recipe.
func (r *Recipe) Items() []int { return r.IDs[:r.Size] }

// Candidate is a cooked poffin paired with its recipe.
type Candidate struct {
	Recipe     Recipe
	Poffin     Poffin
	Score      int
	RarityMax  int // highest single-berry rarity in the recipe
	RaritySum  int // sum of berry rarities in the recipe
	Duplicates int // recipes collapsed into this one by dedup, at least 1 after dedup
}

// RarityCost returns the recipe cost metric under the given mode.
func (c *Candidate) RarityCost(mode RarityMode) int {
	if mode == RaritySum {
		return c.RaritySum
	}
	return c.RarityMax
}

// State is the per-path contest condition and sheen accumulator.
type State struct {
	Conditions [NumAxes]int
	Sheen      int
}

// Apply feeds one poffin and returns the new state. Every accumulator
// saturates at its cap, so states never decrease along a path.
func (s State) Apply(p Poffin) State {
	for i := range s.Conditions {
		s.Conditions[i] = min(MaxCondition, s.Conditions[i]+p.Flavors[i])
	}
	s.Sheen = min(MaxSheen, s.Sheen+p.Smoothness)
	return s
}

// Perfect counts the conditions that reached MaxCondition.
func (s State) Perfect() int {
	n := 0
	for _, v := range s.Conditions {
		if v >= MaxCondition {
			n++
		}
	}
	return n
}

// Total is the sum of the five conditions.
func (s State) Total() int {
	t := 0
	for _, v := range s.Conditions {
		t += v
	}
	return t
}

// Lowest returns the smallest condition value.
func (s State) Lowest() int {
	m := s.Conditions[0]
	for _, v := range s.Conditions[1:] {
		m = min(m, v)
	}
	return m
}

// Plan is one evaluated feeding order.
type Plan struct {
	Sequence   [MaxChoose]int // candidate indices, first Length entries used
	Length     int
	Final      State
	Score      int
	Poffins    int // poffins consumed
	Distinct   int // distinct berries across the sequence's recipes
	Perfect    int
	Rank       Rank
	Outcome    Outcome
	RarityCost int // rarity cost of every poffin consumed
	ExtraToCap int // extra poffins past the stop needed to reach MaxSheen, -1 if unreachable
}

// Indices returns the candidate indices of the plan in feeding order.
func (p *Plan) Indices() []int { return p.Sequence[:p.Length] }

// Step is one greedy feeding step.
type Step struct {
	Candidate int
	Before    State
	After     State
}

// GreedyPlan is the result of the greedy feeding strategy.
type GreedyPlan struct {
	Steps      []Step
	Final      State
	Score      int
	Distinct   int
	Perfect    int
	Rank       Rank
	RarityCost int
}
