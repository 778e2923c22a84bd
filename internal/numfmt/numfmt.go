package numfmt

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

var (
	floatPrefix  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	intPrefix    = regexp.MustCompile(`^[+-]?\d+`)
	numericInput = regexp.MustCompile(`^-?\d*\.?\d*$`)
)

// ToFloat coerces user input into a finite float. Grouping separators are
// ignored and the longest leading decimal literal wins, so "12abc" yields 12.
// Anything unparseable, NaN or infinite becomes 0.
func ToFloat(value string) float64 {
	v, _ := parseFloatPrefix(value)
	return v
}

// ToInt coerces user input into an integer using its leading digits only
// ("2.9" yields 2). Unparseable input becomes 0.
func ToInt(value string) int {
	match := intPrefix.FindString(normalise(value))
	if match == "" {
		return 0
	}
	parsed, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return parsed
}

// Finite replaces NaN and ±Inf with 0.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatForDisplay groups the integer part of value with commas (en-US) and
// keeps any decimal part exactly as typed. Empty input renders as "".
func FormatForDisplay(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	intPart, frac, hasFrac := strings.Cut(trimmed, ".")
	grouped, ok := groupInteger(intPart)
	if !ok {
		return trimmed
	}
	if grouped == "-0" && strings.Trim(frac, "0") == "" {
		grouped = "0"
	}
	if hasFrac {
		return grouped + "." + frac
	}
	return grouped
}

// FormatFloat renders a calculated amount for display. Zero renders as "0".
func FormatFloat(v float64) string {
	return FormatForDisplay(strconv.FormatFloat(Finite(v), 'f', -1, 64))
}

// StripGrouping removes thousands separators so the value can be edited.
func StripGrouping(value string) string {
	if value == "" {
		return ""
	}
	return strings.ReplaceAll(value, ",", "")
}

// CleanupOnBlur normalises a field once the user leaves it: whole numbers lose
// their decimal point, fractions keep at most 10 digits. Unparseable input
// clears the field.
func CleanupOnBlur(value string) string {
	v, ok := parseFloatPrefix(value)
	if !ok {
		return ""
	}
	if v == math.Trunc(v) {
		return FormatForDisplay(strconv.FormatFloat(v, 'f', 0, 64))
	}
	rendered := strconv.FormatFloat(v, 'f', 10, 64)
	rendered = strings.TrimRight(rendered, "0")
	rendered = strings.TrimSuffix(rendered, ".")
	return FormatForDisplay(rendered)
}

// IsValidNumericInput reports whether a keystroke result may be accepted into
// a numeric field. Partial input such as "-" or "12." is accepted.
func IsValidNumericInput(value string) bool {
	if value == "" {
		return true
	}
	stripped := StripGrouping(value)
	if strings.Count(stripped, ".") > 1 {
		return false
	}
	return numericInput.MatchString(stripped)
}

func parseFloatPrefix(value string) (float64, bool) {
	match := floatPrefix.FindString(normalise(value))
	if match == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

func normalise(value string) string {
	return StripGrouping(strings.TrimSpace(value))
}

func groupInteger(part string) (string, bool) {
	digits := StripGrouping(part)
	sign := ""
	if strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		if digits[0] == '-' {
			sign = "-"
		}
		digits = digits[1:]
		if digits == "" {
			return "", false
		}
	}
	if digits == "" {
		return "0", true
	}
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok || n.Sign() < 0 {
		return "", false
	}
	return sign + humanize.BigComma(n), true
}
