package poffin

// foulPoffin is returned for duplicated berries and for recipes whose flavors
// all cancel out.
var foulPoffin = Poffin{
	Flavors:     [NumAxes]int{2, 2, 2, 0, 0},
	Smoothness:  0,
	Kind:        KindFoul,
	Primary:     Spicy,
	Secondary:   Dry,
	Level:       2,
	SecondLevel: 2,
}

// Foul returns the foul poffin.
func Foul() Poffin { return foulPoffin }

// Cook turns 1 to 4 berries into a poffin. The result does not depend on the
// order of items. A recipe that repeats a berry id is not an error: it cooks
// into the foul poffin.
func Cook(items []Item, p CookParams) (Poffin, error) {
	if p.Cycle <= 0 {
		return Poffin{}, ErrCycle
	}
	if len(items) == 0 || len(items) > MaxRecipeSize {
		return Poffin{}, ErrRecipeSize
	}
	if hasDuplicateItems(items) {
		return foulPoffin, nil
	}

	var sum [NumAxes]int
	smooth := 0
	for i := range items {
		for a, v := range items[i].Flavors {
			sum[a] += v
		}
		smooth += items[i].Smoothness
	}
	return cookSums(sum, smooth, len(items), p), nil
}

// CookSum cooks a precomputed combination without summing its berries again.
func CookSum(cs *ComboSum, p CookParams) (Poffin, error) {
	if p.Cycle <= 0 {
		return Poffin{}, ErrCycle
	}
	if cs.Size == 0 || cs.Size > MaxRecipeSize {
		return Poffin{}, ErrRecipeSize
	}
	if hasDuplicateIDs(cs.IDs[:cs.Size]) {
		return foulPoffin, nil
	}
	return cookSums(cs.Flavors, cs.Smoothness, cs.Size, p), nil
}

// cookSums runs the cooking rules on already summed flavors. n is the number
// of berries and is always in [1, MaxRecipeSize].
func cookSums(sum [NumAxes]int, smoothSum, n int, p CookParams) Poffin {
	// Each flavor is weakened by the next one in the cycle.
	var v [NumAxes]int
	negative := 0
	for i := range v {
		v[i] = sum[i] - sum[(i+1)%NumAxes]
		if v[i] < 0 {
			negative++
		}
	}

	for i := range v {
		v[i] -= negative
		if p.Cycle != BaseCycle {
			// Truncating division: golden values depend on it.
			v[i] = v[i] * BaseCycle / p.Cycle
		}
		v[i] -= p.Errors
		v[i] = max(0, min(MaxFlavor, v[i]))
	}

	if v == [NumAxes]int{} {
		return foulPoffin
	}

	out := Poffin{Flavors: v}
	out.Primary, out.Secondary = rankAxes(v)
	out.Level = v[out.Primary]
	if out.Secondary != out.Primary {
		out.SecondLevel = v[out.Secondary]
	}
	out.Kind = classify(out.Level, out.Nonzero(), p.Errors)
	out.Smoothness = max(0, smoothSum/n-n-min(p.Bonus, MaxBonus))
	return out
}

// rankAxes picks the strongest flavor and the strongest remaining positive
// flavor. Ties go to the lower axis. Without a positive runner-up the
// secondary axis equals the primary one.
func rankAxes(v [NumAxes]int) (primary, secondary Axis) {
	for a := Axis(1); a < NumAxes; a++ {
		if v[a] > v[primary] {
			primary = a
		}
	}
	secondary = primary
	best := 0
	for a := Axis(0); a < NumAxes; a++ {
		if a == primary {
			continue
		}
		if v[a] > best {
			best = v[a]
			secondary = a
		}
	}
	return primary, secondary
}

func classify(level, nonzero, errCount int) Kind {
	switch {
	case level >= 95 && errCount == 0:
		return KindTopTier
	case level >= 50:
		return KindMild
	}
	switch nonzero {
	case 1:
		return KindSingle
	case 2:
		return KindDual
	case 3:
		return KindRich
	}
	return KindOverripe
}

func hasDuplicateItems(items []Item) bool {
	for i := 1; i < len(items); i++ {
		for j := 0; j < i; j++ {
			if items[i].ID == items[j].ID {
				return true
			}
		}
	}
	return false
}

func hasDuplicateIDs(ids []int) bool {
	for i := 1; i < len(ids); i++ {
		for j := 0; j < i; j++ {
			if ids[i] == ids[j] {
				return true
			}
		}
	}
	return false
}
