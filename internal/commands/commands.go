package commands

import (
	"time"

	"github.com/google/uuid"

	"crumbs/internal/economy"
)

// Command represents a typed command for the GameService executor.
type Command interface {
	CommandID() string
	Name() string
}

// NewID returns a fresh command id.
func NewID() string {
	return uuid.NewString()
}

// SyncState requests a state snapshot without changing game state.
type SyncState struct {
	ID string
}

func (c SyncState) CommandID() string {
	return c.ID
}

func (c SyncState) Name() string {
	return "SyncState"
}

// Settle pays production up to now and exposes the minted amount.
type Settle struct {
	ID     string
	Minted float64
}

func (c *Settle) CommandID() string {
	return c.ID
}

func (c *Settle) Name() string {
	return "Settle"
}

// Click credits one click and exposes the amount earned.
type Click struct {
	ID     string
	Earned float64
}

func (c *Click) CommandID() string {
	return c.ID
}

func (c *Click) Name() string {
	return "Click"
}

// Purchase buys one unit of a catalog entry and exposes the receipt.
type Purchase struct {
	ID      string
	ItemID  string
	Receipt economy.Receipt
}

func (c *Purchase) CommandID() string {
	return c.ID
}

func (c *Purchase) Name() string {
	return "Purchase"
}

// Tick advances the live clock by Elapsed and exposes the minted amount.
type Tick struct {
	ID      string
	Elapsed time.Duration
	Minted  float64
}

func (c *Tick) CommandID() string {
	return c.ID
}

func (c *Tick) Name() string {
	return "Tick"
}

// ResolveGamble answers the pending gamble offer.
type ResolveGamble struct {
	ID      string
	Accept  bool
	Outcome string
}

func (c *ResolveGamble) CommandID() string {
	return c.ID
}

func (c *ResolveGamble) Name() string {
	return "ResolveGamble"
}

// Prestige resets the economy for secondary currency and exposes the gain.
type Prestige struct {
	ID     string
	Gained float64
}

func (c *Prestige) CommandID() string {
	return c.ID
}

func (c *Prestige) Name() string {
	return "Prestige"
}

// PrestigePurchase buys an item from the prestige shop.
type PrestigePurchase struct {
	ID     string
	ItemID string
}

func (c PrestigePurchase) CommandID() string {
	return c.ID
}

func (c PrestigePurchase) Name() string {
	return "PrestigePurchase"
}

// Save persists the session.
type Save struct {
	ID string
}

func (c Save) CommandID() string {
	return c.ID
}

func (c Save) Name() string {
	return "Save"
}

// Load restores the session and exposes the idle bonus granted.
type Load struct {
	ID        string
	IdleBonus float64
}

func (c *Load) CommandID() string {
	return c.ID
}

func (c *Load) Name() string {
	return "Load"
}

// Reset discards the economy, keeping prestige progress.
type Reset struct {
	ID string
}

func (c Reset) CommandID() string {
	return c.ID
}

func (c Reset) Name() string {
	return "Reset"
}
