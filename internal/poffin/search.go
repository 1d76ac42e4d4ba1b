package poffin

import (
	"cmp"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Searcher turns pruned candidates into feeding plans.
type Searcher struct {
	cfg SearchConfig
	log logr.Logger
}

// NewSearcher validates cfg and returns a searcher.
func NewSearcher(cfg SearchConfig, opts ...Option) (*Searcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := newSettings(opts)
	return &Searcher{cfg: cfg, log: s.log.WithName("search")}, nil
}

// Config returns the searcher's configuration.
func (s *Searcher) Config() SearchConfig { return s.cfg }

// Permutations returns n!/(n-m)!, the number of ordered m-plans over n
// candidates.
func Permutations(n, m int) int64 {
	if m < 0 || m > n {
		return 0
	}
	p := int64(1)
	for i := 0; i < m; i++ {
		p *= int64(n - i)
	}
	return p
}

// ── Greedy ──────────────────────────────────────────────────────────

// Greedy feeds the cheapest poffins first (by smoothness, then rarity cost,
// then higher level) until sheen reaches the cap. Every candidate is fed at
// most once.
func (s *Searcher) Greedy(cands []Candidate) GreedyPlan {
	mode := s.cfg.Rarity
	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ca, cb := &cands[a], &cands[b]
		if c := cmp.Compare(ca.Poffin.Smoothness, cb.Poffin.Smoothness); c != 0 {
			return c
		}
		if c := cmp.Compare(ca.RarityCost(mode), cb.RarityCost(mode)); c != 0 {
			return c
		}
		return cmp.Compare(cb.Poffin.Level, ca.Poffin.Level)
	})

	var plan GreedyPlan
	var st State
	used := make([]int, 0, len(cands))
	for _, i := range order {
		if st.Sheen >= MaxSheen {
			break
		}
		next := st.Apply(cands[i].Poffin)
		plan.Steps = append(plan.Steps, Step{Candidate: i, Before: st, After: next})
		plan.RarityCost += cands[i].RarityCost(mode)
		used = append(used, i)
		st = next
	}
	plan.Final = st
	plan.Perfect = st.Perfect()
	plan.Rank = rankOf(st)
	plan.Distinct = distinctBerries(cands, used)
	plan.Score = PlanScore(st, len(plan.Steps), plan.RarityCost, s.cfg.Weights)

	s.log.V(1).Info("greedy done", "candidates", len(cands), "steps", len(plan.Steps),
		"sheen", st.Sheen, "perfect", plan.Perfect, "score", plan.Score)
	return plan
}

// ── Exhaustive ──────────────────────────────────────────────────────

// Result is the outcome of an exhaustive search.
type Result struct {
	Plans     []Plan
	Evaluated int64
	Workers   int
	Elapsed   time.Duration
}

// Exhaustive evaluates every ordered selection of Choose distinct candidates,
// feeding each selection cyclically, and returns the TopK best plans. Large
// candidate sets are split across workers by their first candidate.
func (s *Searcher) Exhaustive(cands []Candidate) Result {
	start := time.Now()
	n, m := len(cands), s.cfg.Choose
	if n == 0 || m > n {
		s.log.V(1).Info("nothing to search", "candidates", n, "choose", m)
		return Result{Elapsed: time.Since(start)}
	}

	workers := 1
	if s.cfg.Parallel && n >= ParallelThreshold {
		workers = s.cfg.Workers
		if workers == 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		workers = min(workers, n)
	}
	s.log.Info("exhaustive search", "candidates", n, "choose", m,
		"permutations", Permutations(n, m), "workers", workers)

	ev := newEvaluator(cands, s.cfg)
	prog := &progress{total: n, every: s.cfg.ProgressEvery, fn: s.cfg.Progress}
	parts := make([]*partial, workers)
	if workers == 1 {
		parts[0] = ev.run(0, 1, prog)
	} else {
		var g errgroup.Group
		for w := 0; w < workers; w++ {
			g.Go(func() error {
				parts[w] = ev.run(w, workers, prog)
				return nil
			})
		}
		_ = g.Wait() // workers never fail
	}

	// Worker order keeps the merge deterministic for a given worker count.
	global := NewTopK[Plan](s.cfg.TopK)
	var evaluated int64
	for _, p := range parts {
		global.MergeFrom(p.top)
		evaluated += p.evaluated
	}

	res := Result{
		Plans:     global.Sorted(comparePlans),
		Evaluated: evaluated,
		Workers:   workers,
		Elapsed:   time.Since(start),
	}
	if len(res.Plans) > 0 {
		s.log.Info("search done", "best", res.Plans[0].Score, "rank", res.Plans[0].Rank.String(),
			"evaluated", evaluated, "elapsed", res.Elapsed)
	}
	return res
}

func comparePlans(a, b Plan) int {
	if c := cmp.Compare(a.Rank, b.Rank); c != 0 {
		return c
	}
	return cmp.Compare(a.Poffins, b.Poffins)
}

// evaluator holds the read-only inputs shared by all workers.
type evaluator struct {
	cands  []Candidate
	rarity []int
	cfg    SearchConfig
}

// partial is one worker's private result.
type partial struct {
	top       *TopK[Plan]
	evaluated int64
}

func newEvaluator(cands []Candidate, cfg SearchConfig) *evaluator {
	rarity := make([]int, len(cands))
	for i := range cands {
		rarity[i] = cands[i].RarityCost(cfg.Rarity)
	}
	return &evaluator{cands: cands, rarity: rarity, cfg: cfg}
}

// run evaluates every plan whose first candidate is worker, worker+stride, ...
func (e *evaluator) run(worker, stride int, prog *progress) *partial {
	n, m := len(e.cands), e.cfg.Choose
	p := &partial{top: NewTopK[Plan](e.cfg.TopK)}
	used := make([]bool, n)
	var seq [MaxChoose]int

	var extend func(depth int)
	extend = func(depth int) {
		if depth == m {
			e.evaluate(seq[:m], p)
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			seq[depth] = i
			extend(depth + 1)
			used[i] = false
		}
	}

	for first := worker; first < n; first += stride {
		used[first] = true
		seq[0] = first
		extend(1)
		used[first] = false
		prog.step()
	}
	return p
}

// evaluate feeds seq cyclically until sheen caps, every condition maxes out
// or the poffin budget runs out, and offers the plan to p.
func (e *evaluator) evaluate(seq []int, p *partial) {
	p.evaluated++
	m := len(seq)

	var st State
	poffins, rarity := 0, 0
	cycleState, cycleRarity := st, 0
	outcome := OutcomeAccumulating
	for outcome == OutcomeAccumulating {
		ci := seq[poffins%m]
		st = st.Apply(e.cands[ci].Poffin)
		rarity += e.rarity[ci]
		poffins++
		switch {
		case st.Perfect() == NumAxes:
			outcome = OutcomeAllPerfect
		case st.Sheen >= MaxSheen:
			outcome = OutcomeSheenCapped
		case e.cfg.MaxPoffins > 0 && poffins >= e.cfg.MaxPoffins:
			outcome = OutcomeBudgetExhausted
		case poffins%m == 0:
			if st == cycleState {
				// A full cycle changed nothing, so no further feeding can.
				poffins -= m
				rarity = cycleRarity
				outcome = OutcomeBudgetExhausted
			}
			cycleState, cycleRarity = st, rarity
		}
	}

	score := PlanScore(st, poffins, rarity, e.cfg.Weights)
	if !p.top.Accepts(score) {
		return
	}
	plan := Plan{
		Length:     m,
		Final:      st,
		Score:      score,
		Poffins:    poffins,
		Distinct:   distinctBerries(e.cands, seq),
		Perfect:    st.Perfect(),
		Rank:       rankOf(st),
		Outcome:    outcome,
		RarityCost: rarity,
		ExtraToCap: e.extraToCap(seq, st, poffins),
	}
	copy(plan.Sequence[:], seq)
	p.top.TryAdd(plan, score)
}

// extraToCap keeps feeding seq past the stop to count how many more poffins
// would bring sheen to the cap, within the remaining budget. It returns -1
// when the cap cannot be reached.
func (e *evaluator) extraToCap(seq []int, st State, poffins int) int {
	if st.Sheen >= MaxSheen {
		return 0
	}
	m := len(seq)
	budget := -1
	if e.cfg.MaxPoffins > 0 {
		budget = e.cfg.MaxPoffins - poffins
	}
	lastSheen, since := st.Sheen, 0
	for extra := 1; budget < 0 || extra <= budget; extra++ {
		st = st.Apply(e.cands[seq[(poffins+extra-1)%m]].Poffin)
		if st.Sheen >= MaxSheen {
			return extra
		}
		// Any m consecutive feeds cover every poffin of the cycle once.
		if since++; since == m {
			if st.Sheen == lastSheen {
				return -1
			}
			lastSheen, since = st.Sheen, 0
		}
	}
	return -1
}

// distinctBerries counts the distinct berry ids across the recipes of the
// given candidates.
func distinctBerries(cands []Candidate, idx []int) int {
	seen := make(map[int]struct{}, len(idx)*MaxRecipeSize)
	for _, ci := range idx {
		for _, id := range cands[ci].Recipe.Items() {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// progress counts completed outer indices. Reporting is best effort: a call
// that finds another one in flight is dropped.
type progress struct {
	total int
	every int
	fn    func(done, total int)
	done  atomic.Int64
	mu    sync.Mutex
}

func (p *progress) step() {
	d := int(p.done.Add(1))
	if p.fn == nil {
		return
	}
	if d != p.total && (p.every <= 0 || d%p.every != 0) {
		return
	}
	if !p.mu.TryLock() {
		return
	}
	defer p.mu.Unlock()
	p.fn(d, p.total)
}
