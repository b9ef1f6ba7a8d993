package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"crumbs/internal/catalog"
	"crumbs/internal/commands"
	"crumbs/internal/domain"
	"crumbs/internal/events"
	"crumbs/internal/format"
	"crumbs/internal/modifier"
	"crumbs/internal/service"
)

// Settings are host preferences, kept out of the engine.
type Settings struct {
	SoundEnabled bool
}

// eventLog reads back the events recorded for a session.
type eventLog interface {
	List(ctx context.Context, sessionID string) ([]events.Event, error)
}

// host is the text front end. It turns lines into commands and renders the
// events they produce.
type host struct {
	svc      *service.GameService
	settings Settings
	out      io.Writer
	// ledger is nil unless the storage driver records events.
	ledger eventLog
}

func newHost(svc *service.GameService, settings Settings, out io.Writer) *host {
	return &host{svc: svc, settings: settings, out: out}
}

func (h *host) prompt() {
	fmt.Fprint(h.out, "> ")
}

func (h *host) printf(msg string, args ...any) {
	fmt.Fprintf(h.out, msg, args...)
}

func (h *host) cue(name string) {
	if h.settings.SoundEnabled {
		h.printf("*%s*\n", name)
	}
}

func (h *host) exec(ctx context.Context, cmd commands.Command) error {
	evs, err := h.svc.Execute(ctx, cmd)
	h.render(evs)
	return err
}

func (h *host) render(evs []events.Event) {
	for _, ev := range evs {
		switch d := ev.Data.(type) {
		case events.PurchasedData:
			h.cue("purchase")
		case events.ModifierData:
			switch ev.Type {
			case events.EventTypeModifierStarted:
				h.cue("event")
				h.announce(d)
			case events.EventTypeModifierExpired:
				h.printf("\nThe %s has worn off.\n", kindName(d.Kind))
			}
		case events.GambleResolvedData:
			h.cue("gamble")
			h.printf("Gamble %s: %s -> %s\n", d.Outcome, format.Amount(d.Before), format.Amount(d.After))
		case events.PrestigedData:
			h.cue("prestige")
			h.printf("Prestige #%d! Banked %s for %.3f golden cookies (%.3f total).\n",
				d.Count, format.Amount(d.Banked), d.Gained, d.Secondary)
		case events.IdleBonusGrantedData:
			if d.Bonus > 0 {
				h.printf("Welcome back! You were away %s and baked %s cookies.\n",
					format.Elapsed(d.Elapsed), format.Amount(d.Bonus))
			}
		}
	}
}

func (h *host) announce(d events.ModifierData) {
	switch domain.EventKind(d.Kind) {
	case domain.GambleOffer:
		h.printf("\nA stranger offers a gamble: x%g your cookies or lose them all. accept or decline?\n", d.Multiplier)
	default:
		h.printf("\n%s! x%g until %s.\n", kindName(d.Kind), d.Multiplier, d.ExpiresAt.Format("15:04:05"))
	}
}

func kindName(kind string) string {
	switch domain.EventKind(kind) {
	case domain.ProductionBoost:
		return "production frenzy"
	case domain.ClickBoost:
		return "click frenzy"
	case domain.GambleOffer:
		return "gamble offer"
	}
	return kind
}

func (h *host) tick(ctx context.Context) {
	if err := h.exec(ctx, &commands.Settle{ID: commands.NewID()}); err != nil {
		h.printf("%v\n", err)
	}
}

func (h *host) load(ctx context.Context) {
	cmd := &commands.Load{ID: commands.NewID()}
	if err := h.exec(ctx, cmd); err != nil {
		h.printf("%s\n", loadMessage(err))
	}
}

func (h *host) save(ctx context.Context) {
	if err := h.exec(ctx, commands.Save{ID: commands.NewID()}); err != nil {
		h.printf("Save failed: %v\n", err)
		return
	}
	h.printf("Saved.\n")
}

// handle runs one input line. It returns false when the player quits.
func (h *host) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return true
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	var err error
	switch fields[0] {
	case "click", "c":
		err = h.click(ctx, arg)
	case "buy", "b":
		err = h.buy(ctx, arg)
	case "shop":
		h.shop()
	case "status", "s":
		h.status()
	case "accept", "decline":
		cmd := &commands.ResolveGamble{ID: commands.NewID(), Accept: fields[0] == "accept"}
		err = h.exec(ctx, cmd)
	case "prestige":
		err = h.exec(ctx, &commands.Prestige{ID: commands.NewID()})
	case "golden":
		err = h.golden(ctx, arg)
	case "save":
		h.save(ctx)
	case "load":
		h.load(ctx)
		h.status()
	case "reset":
		err = h.exec(ctx, commands.Reset{ID: commands.NewID()})
	case "history":
		err = h.history(ctx, arg)
	case "sound":
		h.settings.SoundEnabled = !h.settings.SoundEnabled
		h.printf("Sound %s.\n", onOff(h.settings.SoundEnabled))
	case "quit", "exit", "q":
		return false
	case "help", "?":
		h.help()
	default:
		h.printf("Unknown command %q. Type help.\n", fields[0])
	}
	if err != nil {
		h.printf("%s\n", describe(err))
	}
	return true
}

func (h *host) click(ctx context.Context, arg string) error {
	n := 1
	if arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil || v < 1 {
			return fmt.Errorf("click count must be a positive number")
		}
		n = v
	}
	var earned float64
	for i := 0; i < n; i++ {
		cmd := &commands.Click{ID: commands.NewID()}
		if err := h.exec(ctx, cmd); err != nil {
			return err
		}
		earned += cmd.Earned
	}
	h.printf("+%s (%s cookies)\n", format.Amount(earned), format.Amount(h.svc.GetState().Balance))
	return nil
}

func (h *host) buy(ctx context.Context, arg string) error {
	if arg == "" {
		return fmt.Errorf("buy what? see shop")
	}
	cmd := &commands.Purchase{ID: commands.NewID(), ItemID: arg}
	if err := h.exec(ctx, cmd); err != nil {
		return err
	}
	r := cmd.Receipt
	h.printf("Bought %s #%s for %s. Next one costs %s.\n",
		r.Entry.Name, format.Count(r.Count), format.Amount(r.Price), format.Amount(r.NextPrice))
	return nil
}

func (h *host) golden(ctx context.Context, arg string) error {
	shop := h.svc.Shop()
	if arg == "" {
		ps := h.svc.GetPrestige()
		h.printf("Golden cookies: %.3f\n", ps.Secondary)
		for _, it := range shop.Items() {
			h.printf("  %-20s %-22s %6g  owned %d\n", it.ID, it.Name, it.Price, ps.ShopCounts[it.ID])
		}
		return nil
	}
	if err := h.exec(ctx, commands.PrestigePurchase{ID: commands.NewID(), ItemID: arg}); err != nil {
		return err
	}
	it, _ := shop.Get(arg)
	h.printf("Bought %s.\n", it.Name)
	return nil
}

// history prints the latest recorded events, leaving out clicks and ticks.
func (h *host) history(ctx context.Context, arg string) error {
	if h.ledger == nil {
		return fmt.Errorf("history needs the sqlite storage driver")
	}
	n := 10
	if arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil || v < 1 {
			return fmt.Errorf("history count must be a positive number")
		}
		n = v
	}
	evs, err := h.ledger.List(ctx, h.svc.SessionID())
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	var shown []events.Event
	for _, ev := range evs {
		if ev.Type == events.EventTypeClicked || ev.Type == events.EventTypeProductionSettled {
			continue
		}
		shown = append(shown, ev)
	}
	if len(shown) > n {
		shown = shown[len(shown)-n:]
	}
	if len(shown) == 0 {
		h.printf("Nothing recorded yet.\n")
		return nil
	}
	for _, ev := range shown {
		line := fmt.Sprintf("%s %s", ev.At.Local().Format("15:04:05"), ev.Type)
		if raw, ok := ev.Data.(json.RawMessage); ok && string(raw) != "null" {
			line += " " + string(raw)
		}
		h.printf("%s\n", line)
	}
	return nil
}

func (h *host) shop() {
	st := h.svc.GetState()
	cat := h.svc.Catalog()
	section := func(title string, entries []catalog.Entry) {
		h.printf("%s:\n", title)
		for _, e := range entries {
			price, err := h.svc.Price(e.ID)
			if err != nil {
				continue
			}
			h.printf("  %-20s %-20s %14s  owned %s\n", e.ID, e.Name, format.Amount(price), format.Count(st.Count(e.ID)))
		}
	}
	section("Producers", cat.Producers())
	section("Upgrades", cat.Upgrades())
}

func (h *host) status() {
	st := h.svc.GetState()
	h.printf("Cookies: %s\n", format.Amount(st.Balance))
	h.printf("Per second: %s  Per click: %s\n", format.Amount(h.svc.ProductionRate()), format.Amount(h.svc.ClickYield()))
	for _, ev := range h.svc.ActiveEvents() {
		h.printf("Active: %s until %s\n", kindName(string(ev.Kind)), ev.ExpiresAt.Format("15:04:05"))
	}
	if len(st.Acquired) > 0 {
		names := make([]string, 0, len(st.Acquired))
		for _, id := range st.Acquired {
			if e, err := h.svc.Catalog().Get(id); err == nil {
				names = append(names, e.Name)
			}
		}
		h.printf("Acquired: %s\n", strings.Join(names, ", "))
	}
	if h.svc.PrestigeEligible() {
		h.printf("You can prestige.\n")
	}
}

func (h *host) help() {
	h.printf(`Commands:
  click [n]      click the cookie
  buy <id>       buy from the shop
  shop           list the shop
  status         show your bakery
  accept|decline answer a gamble offer
  prestige       reset for golden cookies
  golden [id]    list or buy golden upgrades
  save | load | reset
  history [n]    recent events (sqlite storage)
  sound          toggle sound cues
  quit
`)
}

func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "Not enough cookies."
	case errors.Is(err, domain.ErrNotFound):
		return "No such item."
	case errors.Is(err, domain.ErrNotEligible):
		return "You need more cookies to prestige."
	case errors.Is(err, domain.ErrNoGamble):
		return "Nobody is offering a gamble."
	case errors.Is(err, modifier.ErrLocked):
		return "An event is already running."
	}
	return err.Error()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
