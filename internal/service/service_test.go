package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"crumbs/internal/catalog"
	"crumbs/internal/clock"
	"crumbs/internal/commands"
	"crumbs/internal/config"
	"crumbs/internal/domain"
	"crumbs/internal/events"
	"crumbs/internal/modifier"
	"crumbs/internal/save"
)

var start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type memStore struct {
	blob  save.Blob
	saved bool
}

func (m *memStore) Load(ctx context.Context) (save.Blob, error) {
	if !m.saved {
		return save.Blob{}, domain.ErrNotFound
	}
	return m.blob, nil
}

func (m *memStore) Save(ctx context.Context, b save.Blob) error {
	m.blob = b
	m.saved = true
	return nil
}

type memSink struct {
	evs []events.Event
}

func (m *memSink) Append(ctx context.Context, sessionID string, ev events.Event) error {
	m.evs = append(m.evs, ev)
	return nil
}

type fixedRoller struct {
	f float64
}

func (r fixedRoller) Float64() float64 { return r.f }
func (r fixedRoller) IntN(int) int     { return 0 }

func quietConfig() config.Config {
	cfg := config.Default()
	cfg.Events.Disabled = true
	return cfg
}

func newService(t *testing.T, clk clock.Clock, opts ...Option) *GameService {
	t.Helper()
	opts = append([]Option{WithStore(&memStore{})}, opts...)
	return NewGameService(quietConfig(), clk, catalog.Default(), opts...)
}

func setBalance(svc *GameService, v float64) {
	svc.mu.Lock()
	svc.st.Balance = v
	svc.mu.Unlock()
}

func TestNewGameServiceInitialState(t *testing.T) {
	svc := newService(t, clock.NewFake(start))

	got := svc.GetState()
	if got.Balance != 0 || got.BaseClickYield != 1 || got.ClickMultiplier != 1 {
		t.Fatalf("unexpected initial economy: %+v", got)
	}
	if len(got.Purchases) != 0 || len(got.Acquired) != 0 {
		t.Fatalf("expected no purchases")
	}
	if !got.LastSettledAt.Equal(start) {
		t.Fatalf("expected LastSettledAt %v got %v", start, got.LastSettledAt)
	}
}

func TestGetStateReturnsCopy(t *testing.T) {
	svc := newService(t, clock.NewFake(start))
	setBalance(svc, 500)
	if _, err := svc.AttemptPurchase("cursor"); err != nil {
		t.Fatalf("AttemptPurchase: %v", err)
	}

	snap := svc.GetState()
	snap.Balance = 99
	snap.Purchases["cursor"] = domain.PurchaseRecord{CatalogID: "cursor", Count: 40}
	snap.Acquired[0] = "factory"

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.st.Balance != 450 {
		t.Fatalf("expected internal Balance to remain 450 got %g", svc.st.Balance)
	}
	if svc.st.Count("cursor") != 1 {
		t.Fatalf("expected internal count to remain 1 got %d", svc.st.Count("cursor"))
	}
	if svc.st.Acquired[0] != "cursor" {
		t.Fatalf("expected deep copy of Acquired")
	}
}

func TestGetStateConcurrent(t *testing.T) {
	svc := newService(t, clock.NewFake(start))

	var wg sync.WaitGroup
	const workers = 50
	const iterations = 200

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				_, _ = svc.OnClick()
				_ = svc.GetState()
			}
		}()
	}
	wg.Wait()

	if got := svc.GetState().Balance; got != workers*iterations {
		t.Fatalf("expected balance %d got %g", workers*iterations, got)
	}
}

func TestClickPurchaseTickScenario(t *testing.T) {
	svc := newService(t, clock.NewFake(start))

	earned, err := svc.OnClick()
	if err != nil {
		t.Fatalf("OnClick: %v", err)
	}
	if earned != 1 || svc.GetState().Balance != 1 {
		t.Fatalf("expected balance 1 after one click got %g", svc.GetState().Balance)
	}

	if _, err := svc.AttemptPurchase("grandma"); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds got %v", err)
	}
	if svc.GetState().Balance != 1 {
		t.Fatalf("expected balance unchanged after failed purchase")
	}

	for i := 0; i < 99; i++ {
		if _, err := svc.OnClick(); err != nil {
			t.Fatalf("OnClick: %v", err)
		}
	}
	r, err := svc.AttemptPurchase("grandma")
	if err != nil {
		t.Fatalf("AttemptPurchase: %v", err)
	}
	if r.Price != 100 || !r.FirstPurchase {
		t.Fatalf("unexpected receipt %+v", r)
	}
	if svc.ProductionRate() != 1 {
		t.Fatalf("expected production rate 1 got %g", svc.ProductionRate())
	}

	before := svc.GetState().Balance
	if _, err := svc.OnTick(time.Second); err != nil {
		t.Fatalf("OnTick: %v", err)
	}
	if got := svc.GetState().Balance; got != before+1 {
		t.Fatalf("expected balance %g after one tick got %g", before+1, got)
	}
}

func TestSettleFollowsClock(t *testing.T) {
	clk := clock.NewFake(start)
	svc := newService(t, clk)
	setBalance(svc, 100)
	if _, err := svc.AttemptPurchase("grandma"); err != nil {
		t.Fatalf("AttemptPurchase: %v", err)
	}

	clk.Advance(2500 * time.Millisecond)
	set, err := svc.Settle()
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if set.Seconds != 2 || set.Minted != 2 {
		t.Fatalf("expected 2 whole seconds paid got %+v", set)
	}

	clk.Advance(500 * time.Millisecond)
	if set, _ = svc.Settle(); set.Minted != 1 {
		t.Fatalf("expected carried half second to pay 1 got %+v", set)
	}
	if got := svc.GetState().Balance; got != 3 {
		t.Fatalf("expected balance 3 got %g", got)
	}
}

func TestClickAndTickPayOnce(t *testing.T) {
	clk := clock.NewFake(start)
	svc := newService(t, clk)
	setBalance(svc, 100)
	if _, err := svc.AttemptPurchase("grandma"); err != nil {
		t.Fatalf("AttemptPurchase: %v", err)
	}

	clk.Advance(time.Second)
	if _, err := svc.OnClick(); err != nil {
		t.Fatalf("OnClick: %v", err)
	}
	if _, err := svc.OnTick(time.Second); err != nil {
		t.Fatalf("OnTick: %v", err)
	}
	if got := svc.GetState().Balance; got != 2 {
		t.Fatalf("expected balance 2 after one click and one second got %g", got)
	}

	set, err := svc.Settle()
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if set.Minted != 0 || svc.GetState().Balance != 2 {
		t.Fatalf("expected the ticked second not to be paid again got %+v", set)
	}

	clk.Advance(time.Second)
	if set, _ = svc.Settle(); set.Minted != 1 {
		t.Fatalf("expected the next second to pay 1 got %+v", set)
	}
}

func TestGambleBranches(t *testing.T) {
	tests := []struct {
		name    string
		roll    float64
		accept  bool
		outcome modifier.Outcome
		want    float64
	}{
		{"accept and win", 0.1, true, modifier.Won, 80},
		{"accept and lose", 0.9, true, modifier.Lost, 0},
		{"decline", 0.1, false, modifier.Declined, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, clock.NewFake(start), WithRoller(fixedRoller{f: tt.roll}))
			setBalance(svc, 40)
			if _, err := svc.TriggerEvent(domain.GambleOffer); err != nil {
				t.Fatalf("TriggerEvent: %v", err)
			}
			if !svc.GambleOffered() {
				t.Fatalf("expected a pending gamble")
			}

			out, err := svc.ResolveGamble(tt.accept)
			if err != nil {
				t.Fatalf("ResolveGamble: %v", err)
			}
			if out != tt.outcome {
				t.Fatalf("expected outcome %s got %s", tt.outcome, out)
			}
			st := svc.GetState()
			if st.Balance != tt.want {
				t.Fatalf("expected balance %g got %g", tt.want, st.Balance)
			}
			if st.EventLock || len(st.ActiveEvents) != 0 {
				t.Fatalf("expected lock released got %+v", st)
			}
		})
	}
}

func TestResolveGambleWithoutOffer(t *testing.T) {
	svc := newService(t, clock.NewFake(start))
	if _, err := svc.ResolveGamble(true); !errors.Is(err, domain.ErrNoGamble) {
		t.Fatalf("expected ErrNoGamble got %v", err)
	}
}

func TestUnansweredGambleLapses(t *testing.T) {
	clk := clock.NewFake(start)
	sink := &memSink{}
	svc := newService(t, clk, WithSink(sink))
	setBalance(svc, 40)
	if _, err := svc.TriggerEvent(domain.GambleOffer); err != nil {
		t.Fatalf("TriggerEvent: %v", err)
	}

	clk.Advance(config.DefaultGambleTimeout)
	if _, err := svc.Settle(); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if svc.GambleOffered() {
		t.Fatalf("expected gamble to lapse")
	}
	if svc.GetState().Balance != 40 {
		t.Fatalf("expected balance unchanged got %g", svc.GetState().Balance)
	}

	last := sink.evs[len(sink.evs)-1]
	data, ok := last.Data.(events.GambleResolvedData)
	if last.Type != events.EventTypeGambleResolved || !ok || data.Outcome != string(modifier.Declined) {
		t.Fatalf("expected a declined GambleResolved event got %+v", last)
	}
}

func TestBoostRevertsExactly(t *testing.T) {
	clk := clock.NewFake(start)
	svc := newService(t, clk)
	setBalance(svc, 1000)
	for _, id := range []string{"click-multiplier-1", "increase-click-1", "cursor"} {
		if _, err := svc.AttemptPurchase(id); err != nil {
			t.Fatalf("AttemptPurchase %s: %v", id, err)
		}
	}
	clickBefore := svc.ClickYield()
	prodBefore := svc.ProductionRate()

	if _, err := svc.TriggerEvent(domain.ClickBoost); err != nil {
		t.Fatalf("TriggerEvent: %v", err)
	}
	if got := svc.ClickYield(); math.Abs(got-clickBefore*config.DefaultClickBoost) > 1e-9 {
		t.Fatalf("expected boosted click yield got %g", got)
	}
	if _, err := svc.TriggerEvent(domain.ProductionBoost); !errors.Is(err, modifier.ErrLocked) {
		t.Fatalf("expected ErrLocked while an event runs got %v", err)
	}

	clk.Advance(config.DefaultEventDuration)
	if _, err := svc.Settle(); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if got := svc.ClickYield(); math.Abs(got-clickBefore) > 1e-9 {
		t.Fatalf("expected click yield %g after expiry got %g", clickBefore, got)
	}
	if got := svc.ProductionRate(); got != prodBefore {
		t.Fatalf("expected production %g got %g", prodBefore, got)
	}
	if len(svc.ActiveEvents()) != 0 || svc.GetState().EventLock {
		t.Fatalf("expected no active events")
	}
}

func TestRolledEventStarts(t *testing.T) {
	clk := clock.NewFake(start)
	cfg := config.Default()
	svc := NewGameService(cfg, clk, catalog.Default(), WithStore(&memStore{}), WithRoller(fixedRoller{f: 0}))

	if _, err := svc.Settle(); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if len(svc.ActiveEvents()) != 0 {
		t.Fatalf("expected the first check to only schedule a roll")
	}

	clk.Advance(cfg.Events.RollInterval)
	if _, err := svc.Settle(); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	evs := svc.ActiveEvents()
	if len(evs) != 1 || evs[0].Kind != modifier.Kinds[0] {
		t.Fatalf("expected a %s event got %+v", modifier.Kinds[0], evs)
	}
}

func TestPrestige(t *testing.T) {
	svc := newService(t, clock.NewFake(start))
	setBalance(svc, 1000)
	if _, err := svc.AttemptPurchase("factory"); err != nil {
		t.Fatalf("AttemptPurchase: %v", err)
	}

	setBalance(svc, config.DefaultPrestigeThreshold)
	if svc.PrestigeEligible() {
		t.Fatalf("expected balance at the threshold to be ineligible")
	}
	if _, ok := svc.DoPrestige(); ok {
		t.Fatalf("expected prestige to be a no-op")
	}
	if svc.GetState().Balance != config.DefaultPrestigeThreshold || svc.GetPrestige().Count != 0 {
		t.Fatalf("expected state unchanged")
	}

	setBalance(svc, 25_000_000)
	gained, ok := svc.DoPrestige()
	if !ok || gained != 2.5 {
		t.Fatalf("expected gain 2.5 got %g (ok=%v)", gained, ok)
	}
	st := svc.GetState()
	if st.Balance != 0 || len(st.Acquired) != 0 {
		t.Fatalf("expected balance and acquired list cleared got %+v", st)
	}
	if st.Count("factory") != 1 {
		t.Fatalf("expected purchase counts kept")
	}
	if ps := svc.GetPrestige(); ps.Secondary != 2.5 || ps.Count != 1 {
		t.Fatalf("unexpected prestige state %+v", ps)
	}
}

func TestPrestigePurchaseDeducts(t *testing.T) {
	svc := newService(t, clock.NewFake(start))
	svc.mu.Lock()
	svc.ps.Secondary = 6
	svc.mu.Unlock()

	if _, err := svc.PrestigePurchase("heavenly-oven"); err != nil {
		t.Fatalf("PrestigePurchase: %v", err)
	}
	ps := svc.GetPrestige()
	if ps.Secondary != 1 || ps.ShopCounts["heavenly-oven"] != 1 {
		t.Fatalf("unexpected prestige state %+v", ps)
	}
	if _, err := svc.PrestigePurchase("heavenly-oven"); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds got %v", err)
	}
	if _, err := svc.PrestigePurchase("halo"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestSaveThenLoadGrantsIdleBonus(t *testing.T) {
	clk := clock.NewFake(start)
	store := &memStore{}
	svc := newService(t, clk, WithStore(store))
	setBalance(svc, 150)
	if _, err := svc.AttemptPurchase("grandma"); err != nil {
		t.Fatalf("AttemptPurchase: %v", err)
	}
	if _, err := svc.OnSave(context.Background()); err != nil {
		t.Fatalf("OnSave: %v", err)
	}

	clk.Advance(100 * time.Second)
	restored := newService(t, clk, WithStore(store))
	res, err := restored.OnLoad(context.Background())
	if err != nil {
		t.Fatalf("OnLoad: %v", err)
	}
	if res.IdleElapsed != 100*time.Second {
		t.Fatalf("expected 100s away got %v", res.IdleElapsed)
	}
	if res.IdleBonus != 10 {
		t.Fatalf("expected idle bonus 10 got %g", res.IdleBonus)
	}
	st := restored.GetState()
	if st.Balance != 60 || st.Count("grandma") != 1 {
		t.Fatalf("unexpected restored state %+v", st)
	}
	if !st.LastSettledAt.Equal(clk.Now()) {
		t.Fatalf("expected settlement to restart at load time")
	}
}

func TestLoadWithoutElapsedTimeGrantsNothing(t *testing.T) {
	clk := clock.NewFake(start)
	store := &memStore{}
	svc := newService(t, clk, WithStore(store))
	setBalance(svc, 500)
	if _, err := svc.AttemptPurchase("farm"); err != nil {
		t.Fatalf("AttemptPurchase: %v", err)
	}
	if _, err := svc.OnSave(context.Background()); err != nil {
		t.Fatalf("OnSave: %v", err)
	}

	for i := 0; i < 2; i++ {
		res, err := svc.ReloadState(context.Background())
		if err != nil {
			t.Fatalf("ReloadState: %v", err)
		}
		if res.IdleBonus != 0 {
			t.Fatalf("expected no idle bonus got %g", res.IdleBonus)
		}
	}
	if got := svc.GetState().Balance; got != 0 {
		t.Fatalf("expected balance 0 got %g", got)
	}
}

func TestReloadAtSubSecondTimeGrantsNothing(t *testing.T) {
	clk := clock.NewFake(start.Add(123456789))
	store := &memStore{}
	svc := newService(t, clk, WithStore(store))
	setBalance(svc, 150)
	if _, err := svc.AttemptPurchase("grandma"); err != nil {
		t.Fatalf("AttemptPurchase: %v", err)
	}
	if _, err := svc.OnSave(context.Background()); err != nil {
		t.Fatalf("OnSave: %v", err)
	}

	for i := 0; i < 2; i++ {
		res, err := svc.ReloadState(context.Background())
		if err != nil {
			t.Fatalf("ReloadState: %v", err)
		}
		if res.IdleBonus != 0 || res.IdleElapsed != 0 {
			t.Fatalf("expected no idle bonus got %g after %v", res.IdleBonus, res.IdleElapsed)
		}
	}
	if got := svc.GetState().Balance; got != 50 {
		t.Fatalf("expected balance 50 got %g", got)
	}
}

func TestLoadMissingSaveStartsFresh(t *testing.T) {
	svc := newService(t, clock.NewFake(start))
	setBalance(svc, 77)

	res, err := svc.OnLoad(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if !res.Fresh || svc.GetState().Balance != 0 {
		t.Fatalf("expected a fresh session")
	}
}

func TestLoadMalformedSaveFallsBack(t *testing.T) {
	store := &memStore{saved: true, blob: save.Blob{Economy: []byte("1\nlots\n1\n1\n")}}
	svc := newService(t, clock.NewFake(start), WithStore(store))
	setBalance(svc, 77)

	cmd := &commands.Load{ID: "load-1"}
	evs, err := svc.Execute(context.Background(), cmd)
	var le *domain.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError got %v", err)
	}
	if le.Field != "balance" {
		t.Fatalf("expected balance field got %q", le.Field)
	}
	if svc.GetState().Balance != 0 {
		t.Fatalf("expected fresh state after malformed save")
	}
	if len(evs) != 1 || evs[0].Type != events.EventTypeLoadFailed {
		t.Fatalf("expected a LoadFailed event got %+v", evs)
	}
}

func TestResetStateKeepsPrestige(t *testing.T) {
	svc := newService(t, clock.NewFake(start))
	setBalance(svc, 20_000_000)
	if _, ok := svc.DoPrestige(); !ok {
		t.Fatalf("expected prestige")
	}
	setBalance(svc, 1000)
	if _, err := svc.AttemptPurchase("cursor"); err != nil {
		t.Fatalf("AttemptPurchase: %v", err)
	}

	svc.ResetState()
	st := svc.GetState()
	if st.Balance != 0 || st.Count("cursor") != 0 {
		t.Fatalf("expected fresh economy got %+v", st)
	}
	if svc.GetPrestige().Secondary != 2 {
		t.Fatalf("expected prestige kept got %+v", svc.GetPrestige())
	}
}

func TestExecuteRecordsEvents(t *testing.T) {
	sink := &memSink{}
	svc := newService(t, clock.NewFake(start), WithSink(sink))
	setBalance(svc, 10)

	buy := &commands.Purchase{ID: "buy-1", ItemID: "extra-hands"}
	evs, err := svc.Execute(context.Background(), buy)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if buy.Receipt.Price != 10 || buy.Receipt.Count != 1 {
		t.Fatalf("unexpected receipt %+v", buy.Receipt)
	}

	click := &commands.Click{ID: "click-1"}
	more, err := svc.Execute(context.Background(), click)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if click.Earned != 3 {
		t.Fatalf("expected click yield 3 got %g", click.Earned)
	}
	evs = append(evs, more...)

	if len(evs) != 2 || len(sink.evs) != 2 {
		t.Fatalf("expected 2 events got %d (sink %d)", len(evs), len(sink.evs))
	}
	if evs[0].Type != events.EventTypePurchased || evs[0].CommandID != "buy-1" {
		t.Fatalf("unexpected first event %+v", evs[0])
	}
	if evs[1].Type != events.EventTypeClicked || evs[1].ID <= evs[0].ID {
		t.Fatalf("unexpected second event %+v", evs[1])
	}
}

func TestExecutePrestigeNotEligible(t *testing.T) {
	svc := newService(t, clock.NewFake(start))
	_, err := svc.Execute(context.Background(), &commands.Prestige{ID: "p-1"})
	if !errors.Is(err, domain.ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible got %v", err)
	}
}
