package numfmt_test

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/travel-backoffice/internal/numfmt"
)

func TestToFloatCoercesJunkToZero(t *testing.T) {
	cases := map[string]float64{
		"":          0,
		"   ":       0,
		"abc":       0,
		"-":         0,
		".":         0,
		"NaN":       0,
		"Infinity":  0,
		"1e400":     0,
		"12abc":     12,
		"1.2.3":     1.2,
		"-45.5":     -45.5,
		" 3.25 ":    3.25,
		"1,234.5":   1234.5,
		".75":       0.75,
		"2e3":       2000,
		"+8":        8,
		"0012.5000": 12.5,
	}
	for input, want := range cases {
		got := numfmt.ToFloat(input)
		require.Equalf(t, want, got, "ToFloat(%q)", input)
		require.False(t, math.IsNaN(got))
	}
}

func TestToIntUsesLeadingDigits(t *testing.T) {
	cases := map[string]int{
		"":      0,
		"x":     0,
		"2.9":   2,
		"-3":    -3,
		"1,200": 1200,
		"7 pax": 7,
	}
	for input, want := range cases {
		require.Equalf(t, want, numfmt.ToInt(input), "ToInt(%q)", input)
	}
}

func TestFormatForDisplay(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"0", "0"},
		{"1000", "1,000"},
		{"1234567.891", "1,234,567.891"},
		{"1234.50", "1,234.50"},
		{"-9876543", "-9,876,543"},
		{"12.", "12."},
		{".5", "0.5"},
		{"1,000", "1,000"},
		{"98765432109876543210", "98,765,432,109,876,543,210"},
		{"abc", "abc"},
		{"-0.25", "-0.25"},
		{"-0.001", "-0.001"},
		{"-0", "0"},
		{"-0.00", "0.00"},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.want, numfmt.FormatForDisplay(tc.in), "FormatForDisplay(%q)", tc.in)
	}
}

func TestFormatFloatRendersZero(t *testing.T) {
	require.Equal(t, "0", numfmt.FormatFloat(0))
	require.Equal(t, "5,885", numfmt.FormatFloat(5885))
	require.Equal(t, "1,234.5", numfmt.FormatFloat(1234.5))
	require.Equal(t, "0", numfmt.FormatFloat(math.NaN()))
	require.Equal(t, "-0.5", numfmt.FormatFloat(-0.5))
	require.Equal(t, "0", numfmt.FormatFloat(math.Copysign(0, -1)))
}

func TestStripGrouping(t *testing.T) {
	require.Equal(t, "", numfmt.StripGrouping(""))
	require.Equal(t, "1234567.5", numfmt.StripGrouping("1,234,567.5"))
}

func TestCleanupOnBlur(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", ""},
		{"1000", "1,000"},
		{"1,000.00", "1,000"},
		{"1234.5000", "1,234.5"},
		{"0.12345678901234", "0.123456789"},
		{"-2500.25", "-2,500.25"},
		{"12abc", "12"},
		{"-0.75", "-0.75"},
		{"-0", "0"},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.want, numfmt.CleanupOnBlur(tc.in), "CleanupOnBlur(%q)", tc.in)
	}
}

func TestIsValidNumericInput(t *testing.T) {
	valid := []string{"", "0", "-", "-12", "12.", ".5", "1,234.56", "-0.5"}
	for _, in := range valid {
		require.Truef(t, numfmt.IsValidNumericInput(in), "expected %q to be accepted", in)
	}
	invalid := []string{"1.2.3", "abc", "12a", "--1", "1-2", "+5", " 12"}
	for _, in := range invalid {
		require.Falsef(t, numfmt.IsValidNumericInput(in), "expected %q to be rejected", in)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	values := []float64{0, 1, 12.5, 999.99, 1000, 1234567.891, -45000.25, 0.001, 98765432.1, -0.5, -0.001}
	for _, v := range values {
		displayed := numfmt.FormatFloat(v)
		parsed, err := strconv.ParseFloat(numfmt.StripGrouping(displayed), 64)
		require.NoError(t, err)
		require.InDeltaf(t, v, parsed, 1e-9, "round trip of %v via %q", v, displayed)
	}
}
