// Package save reads and writes the positional flat-text save format.
//
// Economy blob:
//
//	line 0: save timestamp, epoch seconds with up to nine fractional digits
//	line 1: balance, which may be +Inf
//	line 2: base click yield
//	line 3: click multiplier
//	then one "<name>":<count> line per purchased catalog entry
//
// Prestige blob:
//
//	line 0: secondary currency
//	line 1: prestige count
//	then one "<name>":<count> line per owned prestige item
package save

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"crumbs/internal/catalog"
	"crumbs/internal/domain"
	"crumbs/internal/prestige"
)

var (
	errMissing     = errors.New("missing line")
	errNegative    = errors.New("must not be negative")
	errNotAmount   = errors.New("must be a number or +Inf")
	errNotFinite   = errors.New("must be a finite number")
	errNotPositive = errors.New("must be positive")
	errItemLine    = errors.New(`expected "<name>":<count>`)
	errDuplicate   = errors.New("duplicate item")
)

// Economy is a decoded economy blob.
type Economy struct {
	SavedAt         time.Time
	Balance         float64
	BaseClickYield  float64
	ClickMultiplier float64
	Purchases       []domain.PurchaseRecord
}

// Apply writes the decoded values into st, replacing its purchases. The
// acquired list is rebuilt in save order.
func (e Economy) Apply(st *domain.State) {
	st.Balance = e.Balance
	st.BaseClickYield = e.BaseClickYield
	st.ClickMultiplier = e.ClickMultiplier
	st.Purchases = make(map[string]domain.PurchaseRecord, len(e.Purchases))
	st.Acquired = nil
	for _, rec := range e.Purchases {
		st.Purchases[rec.CatalogID] = rec
		st.Acquired = append(st.Acquired, rec.CatalogID)
	}
}

// EncodeEconomy writes st in catalog order, skipping unpurchased entries.
func EncodeEconomy(st *domain.State, cat *catalog.Catalog, savedAt time.Time) []byte {
	var b bytes.Buffer
	b.WriteString(formatTimestamp(savedAt))
	b.WriteByte('\n')
	writeFloat(&b, st.Balance)
	writeFloat(&b, st.BaseClickYield)
	writeFloat(&b, st.ClickMultiplier)
	for _, e := range cat.All() {
		if n := st.Count(e.ID); n > 0 {
			writeItem(&b, e.Name, n)
		}
	}
	return b.Bytes()
}

// DecodeEconomy parses an economy blob. Any malformed field yields a
// *domain.LoadError.
func DecodeEconomy(data []byte, cat *catalog.Catalog) (Economy, error) {
	lines := splitLines(data)

	var eco Economy
	if len(lines) == 0 {
		return Economy{}, &domain.LoadError{Line: 0, Field: "timestamp", Err: errMissing}
	}
	var err error
	if eco.SavedAt, err = parseTimestamp(lines[0]); err != nil {
		return Economy{}, &domain.LoadError{Line: 0, Field: "timestamp", Err: err}
	}

	if eco.Balance, err = headerAmount(lines, 1, "balance"); err != nil {
		return Economy{}, err
	}
	if eco.Balance < 0 {
		return Economy{}, &domain.LoadError{Line: 1, Field: "balance", Err: fmt.Errorf("%w: %w", errNegative, domain.ErrInvariantViolation)}
	}
	if eco.BaseClickYield, err = headerAmount(lines, 2, "base click yield"); err != nil {
		return Economy{}, err
	}
	if eco.BaseClickYield < 0 {
		return Economy{}, &domain.LoadError{Line: 2, Field: "base click yield", Err: errNegative}
	}
	if eco.ClickMultiplier, err = headerAmount(lines, 3, "click multiplier"); err != nil {
		return Economy{}, err
	}
	if eco.ClickMultiplier <= 0 {
		return Economy{}, &domain.LoadError{Line: 3, Field: "click multiplier", Err: errNotPositive}
	}

	seen := make(map[string]bool)
	err = eachItem(lines, 4, func(line int, name string, count int) error {
		entry, err := cat.ByName(name)
		if err != nil {
			return &domain.LoadError{Line: line, Field: "item", Err: err}
		}
		if seen[entry.ID] {
			return &domain.LoadError{Line: line, Field: "item", Err: fmt.Errorf("%w %q", errDuplicate, name)}
		}
		seen[entry.ID] = true
		if count > 0 {
			eco.Purchases = append(eco.Purchases, domain.PurchaseRecord{CatalogID: entry.ID, Count: count})
		}
		return nil
	})
	if err != nil {
		return Economy{}, err
	}
	return eco, nil
}

// EncodePrestige writes ps with shop items in shop order.
func EncodePrestige(ps *domain.PrestigeState, shop *prestige.Shop) []byte {
	var b bytes.Buffer
	writeFloat(&b, ps.Secondary)
	b.WriteString(strconv.Itoa(ps.Count))
	b.WriteByte('\n')
	for _, it := range shop.Items() {
		if n := ps.ShopCounts[it.ID]; n > 0 {
			writeItem(&b, it.Name, n)
		}
	}
	return b.Bytes()
}

// DecodePrestige parses a prestige blob.
func DecodePrestige(data []byte, shop *prestige.Shop) (domain.PrestigeState, error) {
	lines := splitLines(data)
	ps := domain.NewPrestigeState()

	var err error
	if ps.Secondary, err = headerAmount(lines, 0, "secondary currency"); err != nil {
		return domain.PrestigeState{}, err
	}
	if ps.Secondary < 0 {
		return domain.PrestigeState{}, &domain.LoadError{Line: 0, Field: "secondary currency", Err: errNegative}
	}
	if len(lines) < 2 {
		return domain.PrestigeState{}, &domain.LoadError{Line: 1, Field: "prestige count", Err: errMissing}
	}
	if ps.Count, err = strconv.Atoi(lines[1]); err != nil {
		return domain.PrestigeState{}, &domain.LoadError{Line: 1, Field: "prestige count", Err: err}
	}
	if ps.Count < 0 {
		return domain.PrestigeState{}, &domain.LoadError{Line: 1, Field: "prestige count", Err: errNegative}
	}

	err = eachItem(lines, 2, func(line int, name string, count int) error {
		it, err := shop.ByName(name)
		if err != nil {
			return &domain.LoadError{Line: line, Field: "prestige item", Err: err}
		}
		if _, dup := ps.ShopCounts[it.ID]; dup {
			return &domain.LoadError{Line: line, Field: "prestige item", Err: fmt.Errorf("%w %q", errDuplicate, name)}
		}
		ps.ShopCounts[it.ID] = count
		return nil
	})
	if err != nil {
		return domain.PrestigeState{}, err
	}
	return ps, nil
}

func splitLines(data []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	// Trailing blank lines are not content.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// headerAmount parses a header amount. Amounts grow without bound, so +Inf
// is accepted; NaN and -Inf are not.
func headerAmount(lines []string, i int, field string) (float64, error) {
	if i >= len(lines) {
		return 0, &domain.LoadError{Line: i, Field: field, Err: errMissing}
	}
	v, err := strconv.ParseFloat(lines[i], 64)
	if err != nil {
		return 0, &domain.LoadError{Line: i, Field: field, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, -1) {
		return 0, &domain.LoadError{Line: i, Field: field, Err: errNotAmount}
	}
	return v, nil
}

func eachItem(lines []string, from int, fn func(line int, name string, count int) error) error {
	for i := from; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			continue
		}
		sep := strings.LastIndex(line, `":`)
		if !strings.HasPrefix(line, `"`) || sep < 1 {
			return &domain.LoadError{Line: i, Field: "item", Err: errItemLine}
		}
		name := line[1:sep]
		count, err := strconv.Atoi(strings.TrimSpace(line[sep+2:]))
		if err != nil {
			return &domain.LoadError{Line: i, Field: "item count", Err: err}
		}
		if count < 0 {
			return &domain.LoadError{Line: i, Field: "item count", Err: errNegative}
		}
		if err := fn(i, name, count); err != nil {
			return err
		}
	}
	return nil
}

func writeFloat(b *bytes.Buffer, v float64) {
	b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	b.WriteByte('\n')
}

func writeItem(b *bytes.Buffer, name string, count int) {
	fmt.Fprintf(b, "\"%s\":%d\n", name, count)
}

// formatTimestamp writes t as decimal epoch seconds, exact to the nanosecond.
// Whole seconds carry no fraction.
func formatTimestamp(t time.Time) string {
	sec, nsec := t.Unix(), int64(t.Nanosecond())
	sign := ""
	if sec < 0 {
		sign = "-"
		if nsec > 0 {
			sec, nsec = sec+1, 1e9-nsec
		}
		sec = -sec
	}
	s := sign + strconv.FormatInt(sec, 10)
	if nsec != 0 {
		s += "." + strings.TrimRight(fmt.Sprintf("%09d", nsec), "0")
	}
	return s
}

// parseTimestamp reads decimal epoch seconds. Digits past the nanosecond are
// dropped. Other float spellings are read through ParseFloat.
func parseTimestamp(s string) (time.Time, error) {
	neg := strings.HasPrefix(s, "-")
	whole, frac, _ := strings.Cut(strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+"), ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || strings.Trim(frac, "0123456789") != "" {
		return parseFloatTimestamp(s)
	}
	if len(frac) > 9 {
		frac = frac[:9]
	}
	var nsec int64
	if frac != "" {
		nsec, _ = strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
	}
	if neg {
		sec, nsec = -sec, -nsec
	}
	return time.Unix(sec, nsec).UTC(), nil
}

func parseFloatTimestamp(s string) (time.Time, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, errNotFinite
	}
	whole, frac := math.Modf(v)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), nil
}
