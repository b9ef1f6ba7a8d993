// Package economy prices catalog entries and applies purchases and clicks to
// a session's state. All functions validate before mutating: a returned error
// means the state was not touched.
package economy

import (
	"fmt"
	"math"

	"crumbs/internal/catalog"
	"crumbs/internal/domain"
)

// Engine binds the catalog to the price curve.
type Engine struct {
	cat    *catalog.Catalog
	growth float64
}

func New(cat *catalog.Catalog, growth float64) *Engine {
	return &Engine{cat: cat, growth: growth}
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// CurvePrice is base × growth^count.
func CurvePrice(base, growth float64, count int) float64 {
	return base * math.Pow(growth, float64(count))
}

// Price returns what the next unit of entry costs after count purchases.
// Entries with a cost step have their base raised by step × count first.
func (e *Engine) Price(entry catalog.Entry, count int) float64 {
	base := entry.BaseCost + entry.CostStep*float64(count)
	return CurvePrice(base, e.growth, count)
}

// PriceOf is Price for the entry's current count in st.
func (e *Engine) PriceOf(st *domain.State, id string) (float64, error) {
	entry, err := e.cat.Get(id)
	if err != nil {
		return 0, err
	}
	return e.Price(entry, st.Count(id)), nil
}

// Receipt describes an applied purchase.
type Receipt struct {
	Entry         catalog.Entry
	Price         float64
	Count         int
	FirstPurchase bool
	NextPrice     float64
}

// Purchase buys one unit of id.
func (e *Engine) Purchase(st *domain.State, id string) (Receipt, error) {
	entry, err := e.cat.Get(id)
	if err != nil {
		return Receipt{}, err
	}
	count := st.Count(id)
	price := e.Price(entry, count)
	if err := Debit(st, price); err != nil {
		return Receipt{}, fmt.Errorf("purchase %s at %g: %w", id, price, err)
	}

	count++
	st.Purchases[id] = domain.PurchaseRecord{CatalogID: id, Count: count}
	first := !st.HasAcquired(id)
	if first {
		st.Acquired = append(st.Acquired, id)
	}
	applyEffect(st, entry)

	return Receipt{
		Entry:         entry,
		Price:         price,
		Count:         count,
		FirstPurchase: first,
		NextPrice:     e.Price(entry, count),
	}, nil
}

func applyEffect(st *domain.State, entry catalog.Entry) {
	if entry.CPC == nil {
		return
	}
	switch entry.ClickMode {
	case catalog.ClickAdd:
		st.BaseClickYield += *entry.CPC
	case catalog.ClickMultiply:
		st.ClickMultiplier *= *entry.CPC
	}
}

// ProductionRate sums cps × count over producers. Event boosts are not
// included.
func (e *Engine) ProductionRate(st *domain.State) float64 {
	var rate float64
	for _, p := range e.cat.Producers() {
		if p.CPS == nil {
			continue
		}
		rate += *p.CPS * float64(st.Count(p.ID))
	}
	return rate
}

// EffectiveProduction is the boosted rate the live tick pays out.
func (e *Engine) EffectiveProduction(st *domain.State) float64 {
	return e.ProductionRate(st) * st.ProductionEventFactor
}

// ClickYield is always derived, never stored.
func ClickYield(st *domain.State) float64 {
	return st.BaseClickYield * st.ClickMultiplier * st.ClickEventFactor
}

// Click credits one click and returns the amount earned.
func Click(st *domain.State) (float64, error) {
	y := ClickYield(st)
	if err := Credit(st, y); err != nil {
		return 0, err
	}
	return y, nil
}

// Credit adds amount to the balance.
func Credit(st *domain.State, amount float64) error {
	if math.IsNaN(amount) || amount < 0 {
		return fmt.Errorf("credit %g: %w", amount, domain.ErrInvariantViolation)
	}
	st.Balance += amount
	return nil
}

// Debit removes amount from the balance, leaving it untouched on error. An
// infinite price is never affordable.
func Debit(st *domain.State, amount float64) error {
	if math.IsNaN(amount) || amount < 0 {
		return fmt.Errorf("debit %g: %w", amount, domain.ErrInvariantViolation)
	}
	if math.IsInf(amount, 1) || amount > st.Balance {
		return domain.ErrInsufficientFunds
	}
	st.Balance -= amount
	return nil
}
