package domain

import (
	"slices"
	"time"
)

// State holds the current in-memory economy of one session.
type State struct {
	Balance         float64
	BaseClickYield  float64
	ClickMultiplier float64

	// Event factors are multiplied in when a boost starts and divided back
	// out when it expires. Both rest at 1.
	ClickEventFactor      float64
	ProductionEventFactor float64

	Purchases map[string]PurchaseRecord
	// Acquired lists purchased catalog ids in first-purchase order. Display only.
	Acquired []string

	LastSettledAt time.Time
	TickCarry     time.Duration

	ActiveEvents []ActiveEvent
	EventLock    bool
	NextRollAt   time.Time
}

// PurchaseRecord counts how many units of one catalog entry were bought.
type PurchaseRecord struct {
	CatalogID string
	Count     int
}

// EventKind names a transient modifier.
type EventKind string

const (
	ProductionBoost EventKind = "ProductionBoost"
	ClickBoost      EventKind = "ClickBoost"
	GambleOffer     EventKind = "GambleOffer"
)

// ActiveEvent is a time-boxed modifier. Multiplier is kept so expiry can
// divide out exactly what was applied.
type ActiveEvent struct {
	Kind       EventKind
	Multiplier float64
	StartedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the event is over at now.
func (e ActiveEvent) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// PrestigeState is the permanent progress that survives a prestige reset.
type PrestigeState struct {
	Secondary  float64
	Count      int
	ShopCounts map[string]int
}

// NewState returns a fresh economy with the given starting click yield.
func NewState(startClickYield float64, now time.Time) State {
	return State{
		BaseClickYield:        startClickYield,
		ClickMultiplier:       1,
		ClickEventFactor:      1,
		ProductionEventFactor: 1,
		Purchases:             make(map[string]PurchaseRecord),
		LastSettledAt:         now,
	}
}

func NewPrestigeState() PrestigeState {
	return PrestigeState{ShopCounts: make(map[string]int)}
}

// Count returns the purchase count for id, zero when never bought.
func (s *State) Count(id string) int {
	return s.Purchases[id].Count
}

// HasAcquired reports whether id is in the acquired display list.
func (s *State) HasAcquired(id string) bool {
	return slices.Contains(s.Acquired, id)
}

// ActiveEvent returns the running event of the given kind, if any.
func (s *State) ActiveEvent(kind EventKind) (ActiveEvent, bool) {
	for _, ev := range s.ActiveEvents {
		if ev.Kind == kind {
			return ev, true
		}
	}
	return ActiveEvent{}, false
}

// Clone returns a deep copy safe to hand to callers.
func (s State) Clone() State {
	snap := s
	snap.Purchases = make(map[string]PurchaseRecord, len(s.Purchases))
	for id, rec := range s.Purchases {
		snap.Purchases[id] = rec
	}
	snap.Acquired = slices.Clone(s.Acquired)
	snap.ActiveEvents = slices.Clone(s.ActiveEvents)
	return snap
}

func (p PrestigeState) Clone() PrestigeState {
	snap := p
	snap.ShopCounts = make(map[string]int, len(p.ShopCounts))
	for id, n := range p.ShopCounts {
		snap.ShopCounts[id] = n
	}
	return snap
}
