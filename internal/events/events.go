package events

import (
	"context"
	"time"
)

// EventType describes the kind of event emitted by the game.
type EventType string

const (
	EventTypeClicked           EventType = "Clicked"
	EventTypePurchased         EventType = "Purchased"
	EventTypeProductionSettled EventType = "ProductionSettled"
	EventTypeIdleBonusGranted  EventType = "IdleBonusGranted"
	EventTypeModifierStarted   EventType = "ModifierStarted"
	EventTypeModifierExpired   EventType = "ModifierExpired"
	EventTypeGambleResolved    EventType = "GambleResolved"
	EventTypePrestiged         EventType = "Prestiged"
	EventTypePrestigePurchased EventType = "PrestigePurchased"
	EventTypeSaved             EventType = "Saved"
	EventTypeLoaded            EventType = "Loaded"
	EventTypeLoadFailed        EventType = "LoadFailed"
	EventTypeReset             EventType = "Reset"
)

// ClickedData is the payload for a click.
type ClickedData struct {
	Earned float64 `json:"earned"`
}

// PurchasedData is the payload for a shop purchase. The host plays the
// purchase cue on it.
type PurchasedData struct {
	ItemID        string  `json:"item_id"`
	Price         float64 `json:"price"`
	Count         int     `json:"count"`
	FirstPurchase bool    `json:"first_purchase"`
}

// ProductionSettledData is the payload for a live tick settlement.
type ProductionSettledData struct {
	Seconds int64     `json:"seconds"`
	Rate    float64   `json:"rate"`
	Minted  float64   `json:"minted"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
}

// IdleBonusGrantedData backs the welcome-back disclosure.
type IdleBonusGrantedData struct {
	Bonus   float64       `json:"bonus"`
	Elapsed time.Duration `json:"elapsed"`
}

type ModifierData struct {
	Kind       string    `json:"kind"`
	Multiplier float64   `json:"multiplier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type GambleResolvedData struct {
	Outcome string  `json:"outcome"`
	Before  float64 `json:"before"`
	After   float64 `json:"after"`
}

type PrestigedData struct {
	Banked    float64 `json:"banked"`
	Gained    float64 `json:"gained"`
	Secondary float64 `json:"secondary"`
	Count     int     `json:"count"`
}

type PrestigePurchasedData struct {
	ItemID    string  `json:"item_id"`
	Price     float64 `json:"price"`
	Secondary float64 `json:"secondary"`
}

type LoadFailedData struct {
	Reason string `json:"reason"`
}

// Event represents a game event produced by command execution.
type Event struct {
	ID        uint64    `json:"id"`
	At        time.Time `json:"at"`
	CommandID string    `json:"command_id"`
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
}

// New constructs a new Event with the provided fields.
func New(id uint64, at time.Time, commandID string, eventType EventType, data any) Event {
	return Event{
		ID:        id,
		At:        at,
		CommandID: commandID,
		Type:      eventType,
		Data:      data,
	}
}

// Sink durably records events, e.g. a ledger table.
type Sink interface {
	Append(ctx context.Context, sessionID string, ev Event) error
}
