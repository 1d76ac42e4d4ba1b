package poffin

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newSearcher(t *testing.T, mutate func(*SearchConfig)) *Searcher {
	t.Helper()
	cfg := DefaultSearchConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewSearcher(cfg)
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}
	return s
}

func randomCandidates(n int) []Candidate {
	r := rand.New(rand.NewPCG(9, 10))
	out := make([]Candidate, n)
	for i := range out {
		var flavors [NumAxes]int
		for a := range flavors {
			flavors[a] = r.IntN(40)
		}
		out[i] = cand(10+r.IntN(30), 1+r.IntN(4), []int{i + 1, i + 2}, flavors[:]...)
	}
	return out
}

func TestNewSearcherValidates(t *testing.T) {
	for _, choose := range []int{0, 5} {
		cfg := DefaultSearchConfig()
		cfg.Choose = choose
		if _, err := NewSearcher(cfg); !errors.Is(err, ErrChoose) {
			t.Errorf("choose %d: err = %v", choose, err)
		}
	}
	cfg := DefaultSearchConfig()
	cfg.TopK = 0
	cfg.MaxPoffins = -1
	cfg.Weights.Count = -3
	_, err := NewSearcher(cfg)
	for _, want := range []error{ErrTopK, ErrMaxPoffins, ErrWeights} {
		if !errors.Is(err, want) {
			t.Errorf("missing %v in %v", want, err)
		}
	}
}

func TestPermutations(t *testing.T) {
	cases := []struct {
		n, m int
		want int64
	}{{3, 3, 6}, {5, 2, 20}, {70, 4, 70 * 69 * 68 * 67}, {2, 3, 0}, {4, 0, 1}}
	for _, tc := range cases {
		if got := Permutations(tc.n, tc.m); got != tc.want {
			t.Errorf("Permutations(%d,%d) = %d, want %d", tc.n, tc.m, got, tc.want)
		}
	}
}

func TestGreedy(t *testing.T) {
	cands := []Candidate{
		cand(40, 1, []int{1}, 30, 0, 0, 0, 0),
		cand(20, 2, []int{2}, 0, 30, 0, 0, 0),
		cand(20, 1, []int{3, 1}, 0, 0, 30, 0, 0),
		cand(90, 1, []int{4}, 0, 0, 0, 30, 0),
		cand(90, 1, []int{5}, 0, 0, 0, 0, 30),
		cand(90, 1, []int{6}, 10, 10, 10, 10, 10),
	}
	plan := newSearcher(t, nil).Greedy(cands)

	order := make([]int, len(plan.Steps))
	for i, st := range plan.Steps {
		order[i] = st.Candidate
	}
	// Smoothness first, then rarity, stopping once sheen caps.
	if diff := cmp.Diff([]int{2, 1, 0, 3, 4}, order); diff != "" {
		t.Errorf("feeding order (-want +got):\n%s", diff)
	}

	var prev State
	for i, st := range plan.Steps {
		if st.Before != prev {
			t.Errorf("step %d starts from %+v, want %+v", i, st.Before, prev)
		}
		if st.After.Sheen < st.Before.Sheen || st.After.Sheen > MaxSheen {
			t.Errorf("step %d: sheen %d -> %d", i, st.Before.Sheen, st.After.Sheen)
		}
		if st.Before.Sheen >= MaxSheen {
			t.Errorf("step %d fed after the cap", i)
		}
		prev = st.After
	}
	if plan.Final != prev || plan.Final.Sheen != MaxSheen {
		t.Errorf("final = %+v", plan.Final)
	}
	if plan.Distinct != 5 {
		t.Errorf("distinct = %d, want 5", plan.Distinct)
	}
	if plan.RarityCost != 1+2+1+1+1 {
		t.Errorf("rarity = %d", plan.RarityCost)
	}
	want := PlanScore(plan.Final, len(plan.Steps), plan.RarityCost, DefaultSearchConfig().Weights)
	if plan.Score != want || plan.Rank != RankPartial {
		t.Errorf("score %d rank %v, want %d partial", plan.Score, plan.Rank, want)
	}
}

func TestGreedyEmpty(t *testing.T) {
	plan := newSearcher(t, nil).Greedy(nil)
	if len(plan.Steps) != 0 || plan.Final != (State{}) {
		t.Errorf("got %+v", plan)
	}
}

func TestExhaustiveEvaluatesEveryPermutation(t *testing.T) {
	cands := randomCandidates(3)
	res := newSearcher(t, nil).Exhaustive(cands)
	if res.Evaluated != 6 {
		t.Errorf("evaluated %d, want 6", res.Evaluated)
	}
	if len(res.Plans) != 6 || res.Workers != 1 {
		t.Errorf("%d plans on %d workers", len(res.Plans), res.Workers)
	}
	seen := make(map[[MaxChoose]int]bool)
	for _, p := range res.Plans {
		idx := p.Indices()
		if len(idx) != 3 {
			t.Fatalf("plan of length %d", len(idx))
		}
		sorted := slices.Sorted(slices.Values(idx))
		if !slices.Equal(sorted, []int{0, 1, 2}) {
			t.Errorf("plan %v repeats a candidate", idx)
		}
		seen[p.Sequence] = true
	}
	if len(seen) != 6 {
		t.Errorf("%d distinct orders", len(seen))
	}
	if !slices.IsSortedFunc(res.Plans, func(a, b Plan) int { return b.Score - a.Score }) {
		t.Error("plans not sorted by score")
	}
}

func TestExhaustiveOutcomes(t *testing.T) {
	full := func(smooth int) Candidate { return cand(smooth, 1, []int{1, 2}, 100, 100, 100, 100, 100) }
	cases := []struct {
		name    string
		cand    Candidate
		budget  int
		outcome Outcome
		rank    Rank
		poffins int
		sheen   int
		extra   int
	}{
		{"perfect at the cap", full(85), 0, OutcomeAllPerfect, RankPerfectCapped, 3, 255, 0},
		{"perfect with sheen to spare", full(10), 0, OutcomeAllPerfect, RankPerfect, 3, 30, 23},
		{"lookahead bounded by budget", full(10), 10, OutcomeAllPerfect, RankPerfect, 3, 30, -1},
		{"sheen caps first", cand(10, 1, []int{1}, 100), 0, OutcomeSheenCapped, RankPartial, 26, 255, 0},
		{"budget", cand(10, 1, []int{1}, 100), 5, OutcomeBudgetExhausted, RankPartial, 5, 50, -1},
		{"stalled", cand(0, 1, []int{1}, 100), 0, OutcomeBudgetExhausted, RankPartial, 3, 0, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := newSearcher(t, func(c *SearchConfig) {
				c.Choose = 1
				c.MaxPoffins = tc.budget
			})
			res := s.Exhaustive([]Candidate{tc.cand})
			if len(res.Plans) != 1 {
				t.Fatalf("%d plans", len(res.Plans))
			}
			p := res.Plans[0]
			if p.Outcome != tc.outcome || p.Rank != tc.rank || p.Poffins != tc.poffins ||
				p.Final.Sheen != tc.sheen || p.ExtraToCap != tc.extra {
				t.Errorf("got %v %v poffins=%d sheen=%d extra=%d", p.Outcome, p.Rank, p.Poffins, p.Final.Sheen, p.ExtraToCap)
			}
			if p.RarityCost != p.Poffins {
				t.Errorf("rarity %d for %d poffins of rarity 1", p.RarityCost, p.Poffins)
			}
			if p.Score != PlanScore(p.Final, p.Poffins, p.RarityCost, s.Config().Weights) {
				t.Errorf("score %d does not match its plan", p.Score)
			}
			if p.Rank == RankPerfectCapped {
				for _, v := range p.Final.Conditions {
					if v != MaxCondition {
						t.Errorf("rank 1 with condition %d", v)
					}
				}
			}
		})
	}
}

func TestExhaustiveCyclesInOrder(t *testing.T) {
	a := cand(60, 1, []int{1}, 50)
	b := cand(60, 2, []int{2, 1}, 0, 50)
	res := newSearcher(t, func(c *SearchConfig) { c.Choose = 2 }).Exhaustive([]Candidate{a, b})
	for _, p := range res.Plans {
		// a b a b a: sheen 60,120,180,240,255.
		if p.Poffins != 5 || p.Outcome != OutcomeSheenCapped {
			t.Errorf("%v: %d poffins %v", p.Indices(), p.Poffins, p.Outcome)
		}
		want := State{Sheen: MaxSheen}
		first, second := 0, 1
		if p.Sequence[0] == 1 {
			first, second = 1, 0
		}
		want.Conditions[first] = 150
		want.Conditions[second] = 100
		if p.Final != want {
			t.Errorf("%v: final %+v, want %+v", p.Indices(), p.Final, want)
		}
		if p.Distinct != 2 {
			t.Errorf("distinct = %d", p.Distinct)
		}
	}
}

func TestExhaustiveRankOneInvariant(t *testing.T) {
	cands := randomCandidates(12)
	cands = append(cands, cand(85, 1, []int{50}, 100, 100, 100, 100, 100))
	res := newSearcher(t, func(c *SearchConfig) { c.Choose = 2; c.TopK = 200 }).Exhaustive(cands)
	if res.Evaluated != Permutations(13, 2) {
		t.Errorf("evaluated %d", res.Evaluated)
	}
	for _, p := range res.Plans {
		if p.Rank != RankPerfectCapped {
			continue
		}
		if p.Final.Sheen != MaxSheen || p.Perfect != NumAxes {
			t.Errorf("rank 1 plan %+v", p)
		}
	}
}

func TestExhaustiveEmpty(t *testing.T) {
	s := newSearcher(t, nil)
	if res := s.Exhaustive(nil); len(res.Plans) != 0 || res.Evaluated != 0 {
		t.Errorf("got %+v", res)
	}
	// Choose 3 of 2 has no permutation.
	if res := s.Exhaustive(randomCandidates(2)); len(res.Plans) != 0 || res.Evaluated != 0 {
		t.Errorf("got %+v", res)
	}
}

func TestExhaustiveParallelMatchesSequential(t *testing.T) {
	cands := randomCandidates(ParallelThreshold + 6)
	mutate := func(parallel bool) func(*SearchConfig) {
		return func(c *SearchConfig) {
			c.Choose = 2
			c.TopK = 30
			c.Parallel = parallel
			c.Workers = 4
		}
	}
	seq := newSearcher(t, mutate(false)).Exhaustive(cands)
	par := newSearcher(t, mutate(true)).Exhaustive(cands)

	if seq.Workers != 1 || par.Workers != 4 {
		t.Errorf("workers %d / %d", seq.Workers, par.Workers)
	}
	want := Permutations(len(cands), 2)
	if seq.Evaluated != want || par.Evaluated != want {
		t.Errorf("evaluated %d / %d, want %d", seq.Evaluated, par.Evaluated, want)
	}
	scores := func(r Result) []int {
		out := make([]int, len(r.Plans))
		for i, p := range r.Plans {
			out[i] = p.Score
		}
		return out
	}
	if diff := cmp.Diff(scores(seq), scores(par)); diff != "" {
		t.Errorf("scores differ (-seq +par):\n%s", diff)
	}

	again := newSearcher(t, mutate(true)).Exhaustive(cands)
	if diff := cmp.Diff(par.Plans, again.Plans); diff != "" {
		t.Errorf("parallel run not reproducible:\n%s", diff)
	}
}

func TestExhaustiveProgress(t *testing.T) {
	var calls [][2]int
	s := newSearcher(t, func(c *SearchConfig) {
		c.Choose = 1
		c.ProgressEvery = 2
		c.Progress = func(done, total int) { calls = append(calls, [2]int{done, total}) }
	})
	s.Exhaustive(randomCandidates(5))
	if diff := cmp.Diff([][2]int{{2, 5}, {4, 5}, {5, 5}}, calls); diff != "" {
		t.Errorf("progress (-want +got):\n%s", diff)
	}
}

func TestExhaustiveParallelProgress(t *testing.T) {
	var mu sync.Mutex
	last := 0
	s := newSearcher(t, func(c *SearchConfig) {
		c.Choose = 1
		c.Workers = 3
		c.ProgressEvery = 1
		c.Progress = func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			if done > total {
				t.Errorf("done %d > total %d", done, total)
			}
			last = max(last, done)
		}
	})
	s.Exhaustive(randomCandidates(ParallelThreshold))
	if last == 0 {
		t.Error("progress never reported")
	}
}
