package mapping

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	currencyReplacer = strings.NewReplacer(
		"\u20aa", "", "$", "", "\u20ac", "",
		`ש"ח`, "", "ש\u05f4ח", "", "nis", "",
		" ", "", "\u00a0", "", "\u200f", "", "\u200e", "",
	)
	thousandsRe = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)

	dateLayouts = []string{
		time.DateOnly,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006/01/02",
		"02/01/2006",
		"2/1/2006",
		"02.01.2006",
		"2.1.2006",
		"02-01-2006",
		"02/01/06",
		"2/1/06",
		"2.1.06",
	}
)

// maxExcelSerial is 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958465

// parseDecimal reads v as a number, accepting currency marks, thousands separators,
// accounting negatives ("(500)", "500-") and percent signs. The bool is false when v
// is missing or not numeric.
func parseDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return parseDecimal(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case decimal.Decimal:
		return n, true
	case string:
		return parseNumericText(n)
	default:
		return decimal.Zero, false
	}
}

func parseNumericText(raw string) (decimal.Decimal, bool) {
	s := currencyReplacer.Replace(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") && len(s) > 1 {
		negative = true
		s = s[:len(s)-1]
	}
	s = strings.TrimSuffix(s, "%")
	s = normalizeSeparators(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

func normalizeSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		// 1.234,50
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if thousandsRe.MatchString(s) {
			return strings.ReplaceAll(s, ",", "")
		}
		if strings.Count(s, ",") == 1 {
			return strings.Replace(s, ",", ".", 1)
		}
		return s
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// Number coerces v to a float64; anything unparseable is 0.
func Number(v any) float64 {
	d, ok := parseDecimal(v)
	if !ok {
		return 0
	}
	return d.InexactFloat64()
}

// Int coerces v to an int, truncating fractions; anything unparseable is 0.
func Int(v any) int {
	d, ok := parseDecimal(v)
	if !ok {
		return 0
	}
	return int(d.IntPart())
}

// Text renders v as trimmed text. Whole floats lose their ".0".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.DateOnly)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Date coerces v to YYYY-MM-DD. Excel serial numbers and day-first layouts are
// accepted; anything else yields "".
func Date(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(time.DateOnly)
	case float64:
		return serialDate(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return ""
		}
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.Format(time.DateOnly)
			}
		}
		return ""
	default:
		return ""
	}
}

func serialDate(serial float64) string {
	if serial <= 0 || serial > maxExcelSerial || math.IsNaN(serial) {
		return ""
	}
	ts, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return ""
	}
	return ts.Format(time.DateOnly)
}

// percentOf returns part/whole*100 rounded to two places, or 0 when whole is 0.
func percentOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
