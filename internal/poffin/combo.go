package poffin

import (
	"fmt"
	"slices"
)

// Binomial returns n choose k, or 0 when k is outside [0, n].
func Binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	k = min(k, n-k)
	r := 1
	for i := 0; i < k; i++ {
		r = r * (n - i) / (i + 1)
	}
	return r
}

// EachCombo calls fn for every k-subset of {0..n-1} in lexicographic order.
// idx is a scratch slice reused across calls: it is only valid inside fn and
// must not be retained or modified. Returning false from fn stops the walk.
func EachCombo(n, k int, fn func(idx []int) bool) error {
	if k < 1 || k > MaxRecipeSize {
		return fmt.Errorf("%w: %d not in [1,%d]", ErrChoose, k, MaxRecipeSize)
	}
	if n < k {
		return nil
	}
	var buf [MaxRecipeSize]int
	idx := buf[:k]
	for i := range idx {
		idx[i] = i
	}
	for {
		if !fn(idx) {
			return nil
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return nil
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

const minTableSize = 2

// ComboSum holds the pre-summed totals of one berry combination.
type ComboSum struct {
	IDs        [MaxRecipeSize]int
	Size       int
	Flavors    [NumAxes]int
	Smoothness int
	RarityMax  int
	RaritySum  int
}

// ComboTable stores the totals of every 2, 3 and 4 berry combination of a
// pool. Size-k combinations occupy one contiguous block, ordered by their
// colexicographic rank, so any combination is found in closed form.
type ComboTable struct {
	n       int
	offsets [MaxRecipeSize + 2]int
	sums    []ComboSum
}

// Precompute sums every combination of sizes 2 to 4 of pool once. The table
// stays valid for any cook parameters as long as pool is unchanged.
func Precompute(pool []Item) *ComboTable {
	n := len(pool)
	t := &ComboTable{n: n}
	total := 0
	for k := minTableSize; k <= MaxRecipeSize; k++ {
		t.offsets[k] = total
		total += Binomial(n, k)
	}
	t.offsets[MaxRecipeSize+1] = total
	t.sums = make([]ComboSum, total)

	for k := minTableSize; k <= MaxRecipeSize; k++ {
		base := t.offsets[k]
		_ = EachCombo(n, k, func(idx []int) bool {
			cs := &t.sums[base+colexRank(idx)]
			cs.Size = k
			for j, i := range idx {
				it := &pool[i]
				cs.IDs[j] = it.ID
				for a, v := range it.Flavors {
					cs.Flavors[a] += v
				}
				cs.Smoothness += it.Smoothness
				cs.RarityMax = max(cs.RarityMax, it.Rarity)
				cs.RaritySum += it.Rarity
			}
			return true
		})
	}
	return t
}

// PoolSize is the number of berries the table was built from.
func (t *ComboTable) PoolSize() int { return t.n }

// Len is the total number of stored combinations.
func (t *ComboTable) Len() int { return len(t.sums) }

// Combos returns the block of size-k combinations. The slice aliases the
// table and must be treated as read-only.
func (t *ComboTable) Combos(k int) ([]ComboSum, error) {
	if k < minTableSize || k > MaxRecipeSize {
		return nil, fmt.Errorf("%w: %d not in [%d,%d]", ErrChoose, k, minTableSize, MaxRecipeSize)
	}
	return t.sums[t.offsets[k]:t.offsets[k+1]], nil
}

// Rank returns the table position of the combination of pool indices idx.
// idx may be in any order.
func (t *ComboTable) Rank(idx []int) (int, error) {
	k := len(idx)
	if k < minTableSize || k > MaxRecipeSize {
		return 0, fmt.Errorf("%w: %d not in [%d,%d]", ErrChoose, k, minTableSize, MaxRecipeSize)
	}
	var buf [MaxRecipeSize]int
	sorted := buf[:k]
	copy(sorted, idx)
	slices.Sort(sorted)
	for j, i := range sorted {
		if i < 0 || i >= t.n || (j > 0 && sorted[j-1] == i) {
			return 0, fmt.Errorf("%w: %v", ErrComboIndex, idx)
		}
	}
	return t.offsets[k] + colexRank(sorted), nil
}

// Lookup returns the totals of the combination of pool indices idx.
func (t *ComboTable) Lookup(idx ...int) (ComboSum, error) {
	r, err := t.Rank(idx)
	if err != nil {
		return ComboSum{}, err
	}
	return t.sums[r], nil
}

// colexRank ranks an ascending index tuple among all tuples of its length.
func colexRank(idx []int) int {
	r := 0
	for j, i := range idx {
		r += Binomial(i, j+1)
	}
	return r
}
