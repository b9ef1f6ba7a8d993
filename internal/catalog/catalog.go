// Package catalog declares what the shop sells. Entries are immutable once
// a Catalog is built and are shared read-only by every session.
package catalog

import (
	"errors"
	"fmt"
	"math"

	"crumbs/internal/domain"
)

type Kind string

const (
	Producer Kind = "producer"
	Upgrade  Kind = "upgrade"
)

// ClickMode says how an entry's CPC value changes click yield.
type ClickMode string

const (
	ClickNone     ClickMode = ""
	ClickAdd      ClickMode = "add"
	ClickMultiply ClickMode = "multiply"
)

// Entry is one purchasable item.
type Entry struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Kind     Kind    `yaml:"-"`
	BaseCost float64 `yaml:"base_cost"`
	// CPS is production per unit per second. Only producers produce.
	CPS       *float64  `yaml:"cps"`
	CPC       *float64  `yaml:"cpc"`
	ClickMode ClickMode `yaml:"click_mode"`
	// CostStep is added to the base cost after every purchase of this entry,
	// on top of the exponential curve.
	CostStep float64 `yaml:"cost_step"`
}

// Catalog is an ordered, indexed set of entries. Order is display order.
type Catalog struct {
	entries []Entry
	byID    map[string]int
	byName  map[string]int
}

// New validates entries and indexes them by id and display name.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate id %q", e.ID)
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate name %q", e.Name)
		}
		c.byID[e.ID] = len(c.entries)
		c.byName[e.Name] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

func (e Entry) validate() error {
	if e.ID == "" {
		return errors.New("catalog: entry id is required")
	}
	if e.Name == "" {
		return fmt.Errorf("catalog: %s: name is required", e.ID)
	}
	if e.Kind != Producer && e.Kind != Upgrade {
		return fmt.Errorf("catalog: %s: unknown kind %q", e.ID, e.Kind)
	}
	if !(e.BaseCost > 0) || math.IsInf(e.BaseCost, 0) {
		return fmt.Errorf("catalog: %s: base_cost must be a positive number", e.ID)
	}
	if e.CostStep < 0 {
		return fmt.Errorf("catalog: %s: cost_step must be >= 0", e.ID)
	}
	if e.CPS != nil && *e.CPS < 0 {
		return fmt.Errorf("catalog: %s: cps must be >= 0", e.ID)
	}
	switch e.ClickMode {
	case ClickNone:
		if e.CPC != nil {
			return fmt.Errorf("catalog: %s: cpc set without click_mode", e.ID)
		}
	case ClickAdd:
		if e.CPC == nil || *e.CPC < 0 {
			return fmt.Errorf("catalog: %s: additive cpc must be >= 0", e.ID)
		}
	case ClickMultiply:
		if e.CPC == nil || *e.CPC <= 0 {
			return fmt.Errorf("catalog: %s: multiplicative cpc must be > 0", e.ID)
		}
	default:
		return fmt.Errorf("catalog: %s: unknown click_mode %q", e.ID, e.ClickMode)
	}
	return nil
}

// Producers returns producer entries in catalog order.
func (c *Catalog) Producers() []Entry {
	return c.ofKind(Producer)
}

// Upgrades returns upgrade entries in catalog order.
func (c *Catalog) Upgrades() []Entry {
	return c.ofKind(Upgrade)
}

// All returns every entry in catalog order.
func (c *Catalog) All() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) ofKind(k Kind) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

func (c *Catalog) Get(id string) (Entry, error) {
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("catalog entry %q: %w", id, domain.ErrNotFound)
	}
	return c.entries[i], nil
}

// ByName looks an entry up by display name, the key used in save files.
func (c *Catalog) ByName(name string) (Entry, error) {
	i, ok := c.byName[name]
	if !ok {
		return Entry{}, fmt.Errorf("catalog entry named %q: %w", name, domain.ErrNotFound)
	}
	return c.entries[i], nil
}

func (c *Catalog) Len() int {
	return len(c.entries)
}
