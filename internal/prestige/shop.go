package prestige

import (
	"fmt"

	"crumbs/internal/domain"
)

// Item is sold for secondary currency at a flat price.
type Item struct {
	ID    string
	Name  string
	Price float64
}

var defaultItems = []Item{
	{ID: "golden-rolling-pin", Name: "Golden Rolling Pin", Price: 1},
	{ID: "heavenly-oven", Name: "Heavenly Oven", Price: 5},
	{ID: "angel-bakers", Name: "Angel Bakers", Price: 25},
}

type Shop struct {
	items []Item
	byID  map[string]int

	// OnPurchase runs after an item is paid for. Items have no gameplay
	// effect unless a hook is installed.
	OnPurchase func(item Item, ps *domain.PrestigeState)
}

func NewShop(items []Item) (*Shop, error) {
	s := &Shop{byID: make(map[string]int, len(items))}
	for _, it := range items {
		if it.ID == "" || it.Name == "" {
			return nil, fmt.Errorf("prestige shop: item id and name are required")
		}
		if !(it.Price > 0) {
			return nil, fmt.Errorf("prestige shop: %s: price must be > 0", it.ID)
		}
		if _, dup := s.byID[it.ID]; dup {
			return nil, fmt.Errorf("prestige shop: duplicate id %q", it.ID)
		}
		s.byID[it.ID] = len(s.items)
		s.items = append(s.items, it)
	}
	return s, nil
}

func DefaultShop() *Shop {
	s, err := NewShop(defaultItems)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Shop) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Shop) Get(id string) (Item, error) {
	i, ok := s.byID[id]
	if !ok {
		return Item{}, fmt.Errorf("prestige item %q: %w", id, domain.ErrNotFound)
	}
	return s.items[i], nil
}

// ByName finds an item by display name, the key used in save files.
func (s *Shop) ByName(name string) (Item, error) {
	for _, it := range s.items {
		if it.Name == name {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("prestige item named %q: %w", name, domain.ErrNotFound)
}

// Purchase deducts the item's price from secondary currency and counts it.
func (s *Shop) Purchase(ps *domain.PrestigeState, id string) (Item, error) {
	it, err := s.Get(id)
	if err != nil {
		return Item{}, err
	}
	if ps.Secondary < it.Price {
		return Item{}, fmt.Errorf("prestige item %s at %g: %w", id, it.Price, domain.ErrInsufficientFunds)
	}

	ps.Secondary -= it.Price
	if ps.ShopCounts == nil {
		ps.ShopCounts = make(map[string]int)
	}
	ps.ShopCounts[id]++
	if s.OnPurchase != nil {
		s.OnPurchase(it, ps)
	}
	return it, nil
}
