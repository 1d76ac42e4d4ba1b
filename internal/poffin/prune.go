package poffin

// Dedup collapses candidates with the same poffin signature. Each group is
// represented by its cheapest recipe under mode (the first one on ties) and
// records the group size in Duplicates. Groups keep first-seen order.
func Dedup(cands []Candidate, mode RarityMode) []Candidate {
	if len(cands) == 0 {
		return nil
	}
	index := make(map[Signature]int, len(cands))
	out := make([]Candidate, 0, len(cands))
	for i := range cands {
		c := cands[i]
		n := max(1, c.Duplicates)
		sig := c.Poffin.Signature()
		if j, ok := index[sig]; ok {
			rep := &out[j]
			total := rep.Duplicates + n
			if c.RarityCost(mode) < rep.RarityCost(mode) {
				*rep = c
			}
			rep.Duplicates = total
			continue
		}
		c.Duplicates = n
		index[sig] = len(out)
		out = append(out, c)
	}
	return out
}

// Dominates reports whether a is at least as good as b on every flavor,
// smoothness and rarity cost, and strictly better on at least one.
func Dominates(a, b *Candidate, mode RarityMode) bool {
	strict := false
	for i := range a.Poffin.Flavors {
		switch {
		case a.Poffin.Flavors[i] < b.Poffin.Flavors[i]:
			return false
		case a.Poffin.Flavors[i] > b.Poffin.Flavors[i]:
			strict = true
		}
	}
	switch {
	case a.Poffin.Smoothness > b.Poffin.Smoothness:
		return false
	case a.Poffin.Smoothness < b.Poffin.Smoothness:
		strict = true
	}
	ra, rb := a.RarityCost(mode), b.RarityCost(mode)
	switch {
	case ra > rb:
		return false
	case ra < rb:
		strict = true
	}
	return strict
}

// ParetoFront drops every candidate dominated by another one and adds its
// Duplicates to the first kept candidate dominating it, so the counts over
// the front still sum to the counts over cands. Dominance is a strict
// partial order, so every dropped candidate has a kept dominator.
func ParetoFront(cands []Candidate, mode RarityMode) []Candidate {
	dominated := make([]bool, len(cands))
	for i := range cands {
		for j := range cands {
			if i != j && Dominates(&cands[j], &cands[i], mode) {
				dominated[i] = true
				break
			}
		}
	}
	out := make([]Candidate, 0, len(cands))
	slot := make([]int, len(cands))
	for i := range cands {
		if !dominated[i] {
			slot[i] = len(out)
			out = append(out, cands[i])
			out[slot[i]].Duplicates = max(1, cands[i].Duplicates)
		}
	}
	for i := range cands {
		if !dominated[i] {
			continue
		}
		for j := range cands {
			if !dominated[j] && Dominates(&cands[j], &cands[i], mode) {
				out[slot[j]].Duplicates += max(1, cands[i].Duplicates)
				break
			}
		}
	}
	return out
}

// Prune dedups cands and keeps the Pareto front.
func Prune(cands []Candidate, mode RarityMode) []Candidate {
	return ParetoFront(Dedup(cands, mode), mode)
}
