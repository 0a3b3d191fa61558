// Package catalog is the static reference table of purchasable add-ons.
//
// Lookups are tolerant by policy: an id that is not in the catalog is
// skipped (it contributes nothing to totals and is ignored by selection)
// rather than reported as an error.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/thotadurga2464/flight-booking/internal/domain"
	"github.com/thotadurga2464/flight-booking/internal/pricing"
)

//go:embed addons.yaml
var defaultAddOns []byte

type Catalog struct {
	items []domain.AddOn
	byID  map[string]domain.AddOn
}

// Load parses a YAML list of add-ons.
func Load(data []byte) (*Catalog, error) {
	var items []domain.AddOn
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse add-on catalog: %w", err)
	}

	c := &Catalog{items: items, byID: make(map[string]domain.AddOn, len(items))}
	for _, a := range items {
		if a.ID == "" {
			return nil, fmt.Errorf("add-on %q: id is required", a.Name)
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("add-on %q: duplicate id", a.ID)
		}
		if a.Price < 0 {
			return nil, fmt.Errorf("add-on %q: negative price", a.ID)
		}
		if !a.Category.Valid() {
			return nil, fmt.Errorf("add-on %q: unknown category %q", a.ID, a.Category)
		}
		c.byID[a.ID] = a
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Load(defaultAddOns)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) List() []domain.AddOn {
	return append([]domain.AddOn(nil), c.items...)
}

func (c *Catalog) Get(id string) (domain.AddOn, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// TotalFor sums the price of every known id.
func (c *Catalog) TotalFor(ids []string) float64 {
	var total float64
	for _, id := range ids {
		if a, ok := c.byID[id]; ok {
			total += a.Price
		}
	}
	return pricing.Round2(total)
}

// Lines resolves the known ids into receipt lines, in input order.
func (c *Catalog) Lines(ids []string) []domain.ReceiptLine {
	lines := make([]domain.ReceiptLine, 0, len(ids))
	for _, id := range ids {
		if a, ok := c.byID[id]; ok {
			lines = append(lines, domain.ReceiptLine{AddOnID: a.ID, Name: a.Name, Price: a.Price})
		}
	}
	return lines
}

// Select adds id to the current selection. In an exclusive category the new
// id replaces any earlier pick from that category.
func (c *Catalog) Select(current []string, id string) []string {
	a, ok := c.byID[id]
	if !ok {
		return current
	}

	out := make([]string, 0, len(current)+1)
	for _, existing := range current {
		if existing == id {
			continue
		}
		if a.Category.Exclusive() {
			if prev, ok := c.byID[existing]; ok && prev.Category == a.Category {
				continue
			}
		}
		out = append(out, existing)
	}
	return append(out, id)
}

// Toggle behaves like Select, except that toggling an already selected id
// deselects it.
func (c *Catalog) Toggle(current []string, id string) []string {
	for i, existing := range current {
		if existing == id {
			out := append([]string(nil), current[:i]...)
			return append(out, current[i+1:]...)
		}
	}
	return c.Select(current, id)
}

// Normalize replays ids through Select, so the latest exclusive pick wins,
// duplicates collapse, and unknown ids are dropped.
func (c *Catalog) Normalize(ids []string) []string {
	out := []string{}
	for _, id := range ids {
		out = c.Select(out, id)
	}
	return out
}
