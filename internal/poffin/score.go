package poffin

import (
	"fmt"
	"strings"
)

// ScoringMode selects the plan scoring formula.
type ScoringMode int

const (
	ScoreTotal    ScoringMode = iota // condition sum only
	ScoreBalanced                    // condition sum plus the weakest condition
)

func (m ScoringMode) String() string {
	switch m {
	case ScoreTotal:
		return "total"
	case ScoreBalanced:
		return "balanced"
	}
	return fmt.Sprintf("scoring(%d)", int(m))
}

func ParseScoringMode(s string) (ScoringMode, error) {
	switch strings.ToLower(s) {
	case "total":
		return ScoreTotal, nil
	case "balanced", "":
		return ScoreBalanced, nil
	}
	return 0, fmt.Errorf("%w: scoring %q", ErrMode, s)
}

// PlanWeights score a finished plan.
type PlanWeights struct {
	Stats   int // per point of condition sum
	MinStat int // per point of the weakest condition, balanced mode only
	Count   int // penalty per poffin fed
	Sheen   int // penalty per point of sheen
	Rarity  int // penalty per point of rarity cost
	Mode    ScoringMode
}

// Rank is the three-tier outcome class of a plan.
type Rank int

const (
	RankPerfectCapped Rank = 1 // all conditions maxed with sheen exactly at the cap
	RankPerfect       Rank = 2 // all conditions maxed with sheen to spare
	RankPartial       Rank = 3
)

func (r Rank) String() string {
	switch r {
	case RankPerfectCapped:
		return "perfect+capped"
	case RankPerfect:
		return "perfect"
	case RankPartial:
		return "partial"
	}
	return fmt.Sprintf("rank(%d)", int(r))
}

// Outcome is the terminal state of one plan evaluation. Evaluation starts
// out accumulating and ends in exactly one of these.
type Outcome int

const (
	OutcomeAccumulating Outcome = iota
	OutcomeSheenCapped
	OutcomeAllPerfect
	OutcomeBudgetExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccumulating:
		return "accumulating"
	case OutcomeSheenCapped:
		return "sheen-capped"
	case OutcomeAllPerfect:
		return "all-perfect"
	case OutcomeBudgetExhausted:
		return "budget-exhausted"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

func rankOf(s State) Rank {
	if s.Perfect() < NumAxes {
		return RankPartial
	}
	if s.Sheen >= MaxSheen {
		return RankPerfectCapped
	}
	return RankPerfect
}

// PlanScore scores a final state reached by feeding poffins poffins whose
// recipes cost rarity in total.
func PlanScore(s State, poffins, rarity int, w PlanWeights) int {
	score := s.Total() * w.Stats
	if w.Mode == ScoreBalanced {
		score += s.Lowest() * w.MinStat
	}
	score -= poffins * w.Count
	score -= s.Sheen * w.Sheen
	score -= rarity * w.Rarity
	return score
}
