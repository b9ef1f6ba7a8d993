package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"crumbs/internal/catalog"
	"crumbs/internal/clock"
	"crumbs/internal/commands"
	"crumbs/internal/config"
	"crumbs/internal/domain"
	"crumbs/internal/economy"
	"crumbs/internal/events"
	"crumbs/internal/format"
	"crumbs/internal/modifier"
	"crumbs/internal/prestige"
	"crumbs/internal/save"
	"crumbs/internal/scheduler"
)

// GameService is the long-lived session object the host drives. Every
// mutation goes through it and is recorded as game events.
type GameService struct {
	mu      sync.Mutex
	cfg     config.Config
	clk     clock.Clock
	engine  *economy.Engine
	mods    *modifier.System
	shop    *prestige.Shop
	store   save.Store
	sink    events.Sink
	roller  modifier.Roller
	logger  *slog.Logger
	session string
	seq     uint64

	st domain.State
	ps domain.PrestigeState
}

type Option func(*GameService)

func WithLogger(l *slog.Logger) Option {
	return func(s *GameService) { s.logger = l }
}

// WithStore replaces the default file store built from cfg.Storage.Path.
func WithStore(st save.Store) Option {
	return func(s *GameService) { s.store = st }
}

func WithSink(sink events.Sink) Option {
	return func(s *GameService) { s.sink = sink }
}

func WithRoller(r modifier.Roller) Option {
	return func(s *GameService) { s.roller = r }
}

func WithShop(shop *prestige.Shop) Option {
	return func(s *GameService) { s.shop = shop }
}

func NewGameService(cfg config.Config, clk clock.Clock, cat *catalog.Catalog, opts ...Option) *GameService {
	s := &GameService{
		cfg:     cfg,
		clk:     clk,
		engine:  economy.New(cat, cfg.Game.GrowthRate),
		logger:  slog.Default(),
		session: uuid.NewString(),
		st:      domain.NewState(cfg.Game.StartClickYield, clk.Now()),
		ps:      domain.NewPrestigeState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shop == nil {
		s.shop = prestige.DefaultShop()
	}
	if s.store == nil {
		s.store = save.NewFileStore(cfg.Storage.Path)
	}
	s.mods = modifier.New(cfg.Events, s.roller)
	return s
}

// SessionID identifies this session in the event ledger.
func (s *GameService) SessionID() string {
	return s.session
}

func (s *GameService) Catalog() *catalog.Catalog {
	return s.engine.Catalog()
}

func (s *GameService) Shop() *prestige.Shop {
	return s.shop
}

func (s *GameService) GetState() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Clone()
}

func (s *GameService) GetPrestige() domain.PrestigeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ps.Clone()
}

// ActiveEvents returns the running modifiers.
func (s *GameService) ActiveEvents() []domain.ActiveEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ActiveEvent, len(s.st.ActiveEvents))
	copy(out, s.st.ActiveEvents)
	return out
}

// GambleOffered reports whether the host should show the gamble decision.
func (s *GameService) GambleOffered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return modifier.Pending(&s.st)
}

// ProductionRate is the boosted per-second rate.
func (s *GameService) ProductionRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.EffectiveProduction(&s.st)
}

func (s *GameService) ClickYield() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return economy.ClickYield(&s.st)
}

// Price returns the current price of a catalog entry.
func (s *GameService) Price(id string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.PriceOf(&s.st, id)
}

func (s *GameService) FormatAmount(v float64) string {
	return format.Amount(v)
}

func (s *GameService) PrestigeEligible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return prestige.Eligible(&s.st, s.cfg.Game.PrestigeThreshold)
}

// OnClick credits one click, then runs the event checks. Production is paid
// by OnTick and Settle only.
func (s *GameService) OnClick() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.begin(commands.NewID())
	defer s.flush(context.Background(), b)
	return s.click(b)
}

// OnTick advances live production by elapsed. The settlement mark moves by
// the same amount, so a later Settle does not pay that interval again.
func (s *GameService) OnTick(elapsed time.Duration) (scheduler.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.begin(commands.NewID())
	defer s.flush(context.Background(), b)
	return s.advance(b, elapsed)
}

// Settle advances live production from the last settlement to now.
func (s *GameService) Settle() (scheduler.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.begin(commands.NewID())
	defer s.flush(context.Background(), b)
	return s.settle(b)
}

func (s *GameService) AttemptPurchase(id string) (economy.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.begin(commands.NewID())
	defer s.flush(context.Background(), b)
	return s.purchase(b, id)
}

// DoPrestige converts the balance into secondary currency. It is a no-op
// returning false when the balance is not above the threshold.
func (s *GameService) DoPrestige() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.begin(commands.NewID())
	defer s.flush(context.Background(), b)
	return s.prestige(b)
}

func (s *GameService) PrestigePurchase(id string) (prestige.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.begin(commands.NewID())
	defer s.flush(context.Background(), b)
	return s.prestigePurchase(b, id)
}

func (s *GameService) ResolveGamble(accept bool) (modifier.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.begin(commands.NewID())
	defer s.flush(context.Background(), b)
	return s.resolveGamble(b, accept)
}

// TriggerEvent starts an event of the given kind now, bypassing the roll.
func (s *GameService) TriggerEvent(kind domain.EventKind) (domain.ActiveEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.begin(commands.NewID())
	defer s.flush(context.Background(), b)

	ev, err := s.mods.Start(&s.st, kind, b.at)
	if err != nil {
		return domain.ActiveEvent{}, err
	}
	s.started(b, ev)
	return ev, nil
}

// OnSave settles production and writes the session to the store.
func (s *GameService) OnSave(ctx context.Context) (save.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.begin(commands.NewID())
	defer s.flush(ctx, b)
	return s.save(ctx, b)
}

// LoadResult is what the host needs for the welcome-back disclosure.
type LoadResult struct {
	State       domain.State
	IdleBonus   float64
	IdleElapsed time.Duration
	// Fresh is set when the session started over instead of restoring.
	Fresh bool
}

// OnLoad restores the session from the store and grants the idle bonus.
// A missing save returns domain.ErrNotFound and a malformed one a
// *domain.LoadError; the session is fresh in both cases.
func (s *GameService) OnLoad(ctx context.Context) (LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.begin(commands.NewID())
	defer s.flush(ctx, b)
	return s.load(ctx, b)
}

// ReloadState discards in-memory progress and reads the store again.
func (s *GameService) ReloadState(ctx context.Context) (LoadResult, error) {
	return s.OnLoad(ctx)
}

// ResetState starts a new game. Prestige progress is kept.
func (s *GameService) ResetState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.begin(commands.NewID())
	defer s.flush(context.Background(), b)
	s.reset(b)
}

// Execute runs a typed command and returns the events it produced. Result
// fields on pointer commands are filled in.
func (s *GameService) Execute(ctx context.Context, cmd commands.Command) ([]events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.begin(cmd.CommandID())

	var err error
	switch c := cmd.(type) {
	case commands.SyncState:
	case *commands.Click:
		c.Earned, err = s.click(b)
	case *commands.Purchase:
		c.Receipt, err = s.purchase(b, c.ItemID)
	case *commands.Settle:
		var set scheduler.Settlement
		set, err = s.settle(b)
		c.Minted = set.Minted
	case *commands.Tick:
		var set scheduler.Settlement
		set, err = s.advance(b, c.Elapsed)
		c.Minted = set.Minted
	case *commands.ResolveGamble:
		var out modifier.Outcome
		out, err = s.resolveGamble(b, c.Accept)
		c.Outcome = string(out)
	case *commands.Prestige:
		var ok bool
		if c.Gained, ok = s.prestige(b); !ok {
			err = domain.ErrNotEligible
		}
	case commands.PrestigePurchase:
		_, err = s.prestigePurchase(b, c.ItemID)
	case commands.Save:
		_, err = s.save(ctx, b)
	case *commands.Load:
		var res LoadResult
		res, err = s.load(ctx, b)
		c.IdleBonus = res.IdleBonus
	case commands.Reset:
		s.reset(b)
	default:
		err = fmt.Errorf("unsupported command %s", cmd.Name())
	}

	s.flush(ctx, b)
	return b.evs, err
}

// batch collects the events of one operation, all stamped with one instant.
type batch struct {
	cmdID string
	at    time.Time
	evs   []events.Event
}

func (s *GameService) begin(cmdID string) *batch {
	return &batch{cmdID: cmdID, at: s.clk.Now()}
}

func (s *GameService) emit(b *batch, typ events.EventType, data any) {
	s.seq++
	b.evs = append(b.evs, events.New(s.seq, b.at, b.cmdID, typ, data))
}

func (s *GameService) flush(ctx context.Context, b *batch) {
	if s.sink == nil {
		return
	}
	for _, ev := range b.evs {
		if err := s.sink.Append(ctx, s.session, ev); err != nil {
			s.logger.Warn("failed to record event", "type", ev.Type, "error", err)
			return
		}
	}
}

func (s *GameService) click(b *batch) (float64, error) {
	earned, err := economy.Click(&s.st)
	if err != nil {
		return 0, err
	}
	s.emit(b, events.EventTypeClicked, events.ClickedData{Earned: earned})
	s.checkEvents(b)
	return earned, nil
}

// settle pays production from the settlement mark up to now.
func (s *GameService) settle(b *batch) (scheduler.Settlement, error) {
	return s.advance(b, b.at.Sub(s.st.LastSettledAt))
}

// advance pays production for elapsed and moves the settlement mark by the
// same amount, then expires and rolls events.
func (s *GameService) advance(b *batch, elapsed time.Duration) (scheduler.Settlement, error) {
	from := s.st.LastSettledAt
	set, err := scheduler.Advance(&s.st, elapsed, s.engine.EffectiveProduction(&s.st))
	if err != nil {
		s.logger.Warn("production settlement rejected", "error", err)
		return scheduler.Settlement{}, err
	}
	if elapsed > 0 {
		s.st.LastSettledAt = from.Add(elapsed)
	}
	if set.Seconds > 0 {
		s.emit(b, events.EventTypeProductionSettled, events.ProductionSettledData{
			Seconds: set.Seconds,
			Rate:    set.Rate,
			Minted:  set.Minted,
			From:    from,
			To:      s.st.LastSettledAt,
		})
	}
	s.checkEvents(b)
	return set, nil
}

func (s *GameService) checkEvents(b *batch) {
	for _, ev := range s.mods.Expire(&s.st, b.at) {
		if ev.Kind == domain.GambleOffer {
			bal := s.st.Balance
			s.emit(b, events.EventTypeGambleResolved, events.GambleResolvedData{
				Outcome: string(modifier.Declined),
				Before:  bal,
				After:   bal,
			})
			continue
		}
		s.emit(b, events.EventTypeModifierExpired, modifierData(ev))
	}
	if ev, ok := s.mods.Roll(&s.st, b.at); ok {
		s.started(b, ev)
	}
}

func (s *GameService) started(b *batch, ev domain.ActiveEvent) {
	s.logger.Info("event started", "kind", ev.Kind, "expires_at", ev.ExpiresAt)
	s.emit(b, events.EventTypeModifierStarted, modifierData(ev))
}

func modifierData(ev domain.ActiveEvent) events.ModifierData {
	return events.ModifierData{
		Kind:       string(ev.Kind),
		Multiplier: ev.Multiplier,
		ExpiresAt:  ev.ExpiresAt,
	}
}

func (s *GameService) purchase(b *batch, id string) (economy.Receipt, error) {
	r, err := s.engine.Purchase(&s.st, id)
	if err != nil {
		s.logger.Debug("purchase rejected", "item", id, "error", err)
		return economy.Receipt{}, err
	}
	s.emit(b, events.EventTypePurchased, events.PurchasedData{
		ItemID:        r.Entry.ID,
		Price:         r.Price,
		Count:         r.Count,
		FirstPurchase: r.FirstPurchase,
	})
	return r, nil
}

func (s *GameService) resolveGamble(b *batch, accept bool) (modifier.Outcome, error) {
	before := s.st.Balance
	out, err := s.mods.Resolve(&s.st, accept)
	if err != nil {
		return "", err
	}
	s.logger.Info("gamble resolved", "outcome", out, "before", before, "after", s.st.Balance)
	s.emit(b, events.EventTypeGambleResolved, events.GambleResolvedData{
		Outcome: string(out),
		Before:  before,
		After:   s.st.Balance,
	})
	return out, nil
}

func (s *GameService) prestige(b *batch) (float64, bool) {
	banked := s.st.Balance
	gained, ok := prestige.Prestige(&s.st, &s.ps, s.cfg.Game.PrestigeThreshold)
	if !ok {
		return 0, false
	}
	s.logger.Info("prestiged", "banked", banked, "gained", gained, "count", s.ps.Count)
	s.emit(b, events.EventTypePrestiged, events.PrestigedData{
		Banked:    banked,
		Gained:    gained,
		Secondary: s.ps.Secondary,
		Count:     s.ps.Count,
	})
	return gained, true
}

func (s *GameService) prestigePurchase(b *batch, id string) (prestige.Item, error) {
	it, err := s.shop.Purchase(&s.ps, id)
	if err != nil {
		return prestige.Item{}, err
	}
	s.emit(b, events.EventTypePrestigePurchased, events.PrestigePurchasedData{
		ItemID:    it.ID,
		Price:     it.Price,
		Secondary: s.ps.Secondary,
	})
	return it, nil
}

func (s *GameService) save(ctx context.Context, b *batch) (save.Blob, error) {
	if _, err := s.settle(b); err != nil {
		return save.Blob{}, err
	}
	blob := save.Blob{
		Economy:  save.EncodeEconomy(&s.st, s.engine.Catalog(), b.at),
		Prestige: save.EncodePrestige(&s.ps, s.shop),
	}
	if err := s.store.Save(ctx, blob); err != nil {
		s.logger.Warn("save failed", "error", err)
		return blob, fmt.Errorf("save session: %w", err)
	}
	s.emit(b, events.EventTypeSaved, nil)
	return blob, nil
}

func (s *GameService) load(ctx context.Context, b *batch) (LoadResult, error) {
	blob, err := s.store.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info("no save found, starting fresh")
		s.startOver(b.at)
		return LoadResult{State: s.st.Clone(), Fresh: true}, err
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("load session: %w", err)
	}

	eco, ps, err := s.decode(blob)
	if err != nil {
		s.logger.Warn("save is malformed, starting fresh", "error", err)
		s.startOver(b.at)
		s.emit(b, events.EventTypeLoadFailed, events.LoadFailedData{Reason: err.Error()})
		return LoadResult{State: s.st.Clone(), Fresh: true}, err
	}

	s.st = domain.NewState(s.cfg.Game.StartClickYield, b.at)
	eco.Apply(&s.st)
	s.ps = ps
	s.emit(b, events.EventTypeLoaded, nil)

	bonus, elapsed := scheduler.IdleBonus(eco.SavedAt, b.at, s.engine.ProductionRate(&s.st), s.cfg.Game.IdleDivisor)
	if err := economy.Credit(&s.st, bonus); err != nil {
		return LoadResult{}, err
	}
	s.emit(b, events.EventTypeIdleBonusGranted, events.IdleBonusGrantedData{Bonus: bonus, Elapsed: elapsed})
	s.logger.Info("session restored", "balance", s.st.Balance, "idle_bonus", bonus, "away", format.Elapsed(elapsed))

	return LoadResult{State: s.st.Clone(), IdleBonus: bonus, IdleElapsed: elapsed}, nil
}

func (s *GameService) decode(blob save.Blob) (save.Economy, domain.PrestigeState, error) {
	eco, err := save.DecodeEconomy(blob.Economy, s.engine.Catalog())
	if err != nil {
		return save.Economy{}, domain.PrestigeState{}, err
	}
	if blob.Prestige == nil {
		return eco, domain.NewPrestigeState(), nil
	}
	ps, err := save.DecodePrestige(blob.Prestige, s.shop)
	if err != nil {
		return save.Economy{}, domain.PrestigeState{}, err
	}
	return eco, ps, nil
}

func (s *GameService) startOver(now time.Time) {
	s.st = domain.NewState(s.cfg.Game.StartClickYield, now)
	s.ps = domain.NewPrestigeState()
}

func (s *GameService) reset(b *batch) {
	s.st = domain.NewState(s.cfg.Game.StartClickYield, b.at)
	s.emit(b, events.EventTypeReset, nil)
}
