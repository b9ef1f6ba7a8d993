// Package format renders economy numbers for display.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Infinity is returned for values past the largest named scale.
const Infinity = "Infinity"

var (
	smallScales = []string{"m", "b", "tr", "quadr", "quint", "sext", "sept", "oct", "non"}
	unitPrefix  = []string{"", "un", "duo", "tre", "quattuor", "quin", "sex", "septen", "octo", "novem"}
	tensPrefix  = []string{"", "dec", "vigint", "trigint", "quadragint", "quinquagint", "sexagint", "septuagint", "octogint", "nonagint"}
)

// scales[i] names 10^(3i+6): million, billion, ... centillion (10^303).
var scales = buildScales()

func buildScales() []string {
	names := make([]string, 0, 100)
	for n := 1; n <= 100; n++ {
		switch {
		case n < 10:
			names = append(names, smallScales[n-1]+"illion")
		case n < 100:
			names = append(names, unitPrefix[n%10]+tensPrefix[n/10]+"illion")
		default:
			names = append(names, "centillion")
		}
	}
	return names
}

// maxValue is the first value that no longer fits the largest scale.
var maxValue = math.Pow10(3*len(scales) + 3)

// Amount formats a currency value. Below one million it shows one decimal
// place; from one million up it shows a three-decimal mantissa and the
// short-scale name; past centillion it returns Infinity.
func Amount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Infinity
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v < 1e6 {
		return sign + strconv.FormatFloat(v, 'f', 1, 64)
	}
	if v >= maxValue {
		return Infinity
	}

	group := exponent(v)/3 - 2
	mantissa := v / math.Pow10(3*(group+2))
	// Rounding can carry the mantissa up to the next scale.
	if math.Round(mantissa*1000)/1000 >= 1000 {
		group++
		mantissa /= 1000
	}
	if group >= len(scales) {
		return Infinity
	}
	return sign + strconv.FormatFloat(mantissa, 'f', 3, 64) + " " + scaleName(group)
}

// exponent returns floor(log10(v)) for v >= 1, corrected for log rounding.
func exponent(v float64) int {
	e := int(math.Floor(math.Log10(v)))
	if math.Pow10(e) > v {
		e--
	}
	if math.Pow10(e+1) <= v {
		e++
	}
	return e
}

// scaleName returns the short-scale name for 10^(3i+6).
func scaleName(i int) string {
	if i < 0 || i >= len(scales) {
		return ""
	}
	return scales[i]
}

// Elapsed renders an absence for the welcome-back message, e.g. "3 hours".
func Elapsed(d time.Duration) string {
	if d < time.Second {
		return "a moment"
	}
	now := time.Unix(0, 0)
	return strings.TrimSpace(humanize.RelTime(now.Add(-d), now, "", ""))
}

// Count renders an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}
