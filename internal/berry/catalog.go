// Package berry holds the berry catalog and its name table.
package berry

import (
	_ "embed"
	"errors"
	"fmt"
	"iter"
	"os"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"go.uber.org/multierr"

	"poffin-planner/internal/poffin"
)

var (
	ErrInvalid = errors.New("berry: invalid catalog")
	ErrUnknown = errors.New("berry: unknown berry")
)

// maxByte bounds every per-berry value.
const maxByte = 255

//go:embed berries.json
var embedded string

// Berry is a catalog item with its display name.
type Berry struct {
	poffin.Item
	Name string
}

// Catalog is an immutable berry table. It satisfies poffin.Catalog.
type Catalog struct {
	berries []Berry
	byID    map[int]int
	byName  map[string]int
}

var _ poffin.Catalog = (*Catalog)(nil)

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("embedded berry catalog: %v", err))
	}
	return c
})

// Default returns the built-in catalog. It is parsed once and shared; use
// Parse or Load for an independent instance.
func Default() *Catalog { return defaultCatalog() }

// Load reads a catalog file in the same JSON shape as the built-in one.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse builds a catalog from JSON of the form
//
//	{"berries": [{"id": 1, "name": "Cheri", "flavors": [10,0,0,0,0], "smoothness": 25, "rarity": 1}]}
//
// Every problem found is reported, wrapped around ErrInvalid.
func Parse(data string) (*Catalog, error) {
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalid)
	}
	list := gjson.Get(data, "berries")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: missing berries array", ErrInvalid)
	}

	c := &Catalog{byID: make(map[int]int), byName: make(map[string]int)}
	var errs error
	list.ForEach(func(key, v gjson.Result) bool {
		b, err := parseBerry(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("berry #%d: %w", key.Int(), err))
			return true
		}
		if _, dup := c.byID[b.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("berry #%d: duplicate id %d", key.Int(), b.ID))
			return true
		}
		name := nameKey(b.Name)
		if _, dup := c.byName[name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("berry #%d: duplicate name %q", key.Int(), b.Name))
			return true
		}
		c.byID[b.ID] = len(c.berries)
		c.byName[name] = len(c.berries)
		c.berries = append(c.berries, b)
		return true
	})
	if errs != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, errs)
	}
	if len(c.berries) == 0 {
		return nil, fmt.Errorf("%w: no berries", ErrInvalid)
	}
	return c, nil
}

func parseBerry(v gjson.Result) (Berry, error) {
	var b Berry
	var errs error
	b.ID = int(v.Get("id").Int())
	if b.ID <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("id %d must be positive", b.ID))
	}
	b.Name = strings.TrimSpace(v.Get("name").String())
	if nameKey(b.Name) == "" {
		errs = multierr.Append(errs, fmt.Errorf("missing name %q", b.Name))
	}
	flavors := v.Get("flavors").Array()
	if len(flavors) != poffin.NumAxes {
		errs = multierr.Append(errs, fmt.Errorf("want %d flavors, got %d", poffin.NumAxes, len(flavors)))
	} else {
		for i, f := range flavors {
			b.Flavors[i] = int(f.Int())
			if err := checkByte(poffin.Axis(i).String(), b.Flavors[i]); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}
	b.Smoothness = int(v.Get("smoothness").Int())
	errs = multierr.Append(errs, checkByte("smoothness", b.Smoothness))
	b.Rarity = int(v.Get("rarity").Int())
	errs = multierr.Append(errs, checkByte("rarity", b.Rarity))
	return b, errs
}

func checkByte(field string, v int) error {
	if v < 0 || v > maxByte {
		return fmt.Errorf("%s %d not in [0,%d]", field, v, maxByte)
	}
	return nil
}

// Get returns the berry with the given id.
func (c *Catalog) Get(id int) (poffin.Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return poffin.Item{}, false
	}
	return c.berries[i].Item, true
}

func (c *Catalog) Len() int { return len(c.berries) }

// All yields every berry in catalog order.
func (c *Catalog) All() iter.Seq[poffin.Item] {
	return func(yield func(poffin.Item) bool) {
		for i := range c.berries {
			if !yield(c.berries[i].Item) {
				return
			}
		}
	}
}

// Berries returns a copy of the catalog entries.
func (c *Catalog) Berries() []Berry { return append([]Berry(nil), c.berries...) }

// Name returns the display name of id, or "#id" when it is unknown.
func (c *Catalog) Name(id int) string {
	if i, ok := c.byID[id]; ok {
		return c.berries[i].Name
	}
	return fmt.Sprintf("#%d", id)
}

// Names maps ids to display names.
func (c *Catalog) Names(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = c.Name(id)
	}
	return out
}

// nameKey folds case and drops a trailing "berry", so "Cheri", "cheri berry"
// and "CHERIBERRY" share one key.
func nameKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSpace(strings.TrimSuffix(key, "berry"))
}

// Lookup finds a berry by case-insensitive name. An optional "berry" suffix
// is ignored on both the query and the catalog names.
func (c *Catalog) Lookup(name string) (Berry, error) {
	if i, ok := c.byName[nameKey(name)]; ok {
		return c.berries[i], nil
	}
	return Berry{}, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Filter narrows the catalog down to a berry pool.
type Filter struct {
	Include   []string // only these berries; empty means all
	Exclude   []string
	MaxRarity int // 0 means no limit
}

// Pool returns the berries passing f in catalog order. Unknown names are
// reported together.
func (c *Catalog) Pool(f Filter) ([]poffin.Item, error) {
	include, err1 := c.idSet(f.Include)
	exclude, err2 := c.idSet(f.Exclude)
	if err := multierr.Combine(err1, err2); err != nil {
		return nil, err
	}
	return poffin.Pool(c, func(it poffin.Item) bool {
		if len(include) > 0 {
			if _, ok := include[it.ID]; !ok {
				return false
			}
		}
		if _, ok := exclude[it.ID]; ok {
			return false
		}
		return f.MaxRarity <= 0 || it.Rarity <= f.MaxRarity
	}), nil
}

func (c *Catalog) idSet(names []string) (map[int]struct{}, error) {
	set := make(map[int]struct{}, len(names))
	var errs error
	for _, n := range names {
		b, err := c.Lookup(n)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		set[b.ID] = struct{}{}
	}
	return set, errs
}
