// Package deck parses, validates, and generates the ordered card sets used
// by estimation sessions.
package deck

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned by GenerateRange when an input does not parse
// as a finite number or the step is zero.
var ErrInvalidRange = errors.New("invalid range")

// Default is the deck a freshly created session starts with.
var Default = []string{"0", "1", "2", "3", "5", "8", "13", "21", "34", "55", "89", "?", "Break"}

// maxRangeValues caps GenerateRange output as a runaway guard.
const maxRangeValues = 500

// Parse splits raw deck text on commas, semicolons, and newlines. Tokens are
// trimmed, empties dropped, and later duplicates removed; first-seen order
// is preserved.
func Parse(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Serialize renders a deck back to editable text. For any deck produced by
// Parse, Parse(Serialize(d)) == d.
func Serialize(cards []string) string {
	return strings.Join(cards, ", ")
}

// GenerateRange produces a numeric card sequence from min to max inclusive.
// Direction is inferred from the bounds; the step's sign is ignored. Output
// precision matches the widest fractional part among the three literals, and
// stepping happens in scaled integer space so long ranges do not drift.
func GenerateRange(minRaw, maxRaw, stepRaw string) ([]string, error) {
	minV, err := parseFinite(minRaw)
	if err != nil {
		return nil, err
	}
	maxV, err := parseFinite(maxRaw)
	if err != nil {
		return nil, err
	}
	stepV, err := parseFinite(stepRaw)
	if err != nil {
		return nil, err
	}

	stepV = math.Abs(stepV)
	if stepV == 0 {
		return nil, ErrInvalidRange
	}

	decimals := fractionDigits(minRaw)
	if d := fractionDigits(maxRaw); d > decimals {
		decimals = d
	}
	if d := fractionDigits(stepRaw); d > decimals {
		decimals = d
	}

	scale := math.Pow10(decimals)
	lo := int64(math.Round(minV * scale))
	hi := int64(math.Round(maxV * scale))
	inc := int64(math.Round(stepV * scale))
	if inc == 0 {
		return nil, ErrInvalidRange
	}

	var out []string
	if lo <= hi {
		for v := lo; v <= hi && len(out) < maxRangeValues; v += inc {
			out = append(out, formatScaled(v, scale, decimals))
		}
	} else {
		for v := lo; v >= hi && len(out) < maxRangeValues; v -= inc {
			out = append(out, formatScaled(v, scale, decimals))
		}
	}
	return out, nil
}

func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrInvalidRange
	}
	return v, nil
}

// fractionDigits counts digits after the decimal point in the literal input,
// not in its parsed value, so "0.50" still counts as two.
func fractionDigits(raw string) int {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		return len(raw) - i - 1
	}
	return 0
}

func formatScaled(v int64, scale float64, decimals int) string {
	return strconv.FormatFloat(float64(v)/scale, 'f', decimals, 64)
}
