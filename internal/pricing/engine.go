package pricing

import (
	"encoding/json"
	"strings"

	"github.com/noah-isme/travel-backoffice/internal/numfmt"
)

// DefaultVATPercent is the VAT rate restored by Reset.
const DefaultVATPercent = 7.0

// Category identifies one of the fixed passenger price slots.
type Category int

const (
	Adult Category = iota
	Child
	Infant

	categoryCount = 3
)

var categoryNames = [categoryCount]string{"adult", "child", "infant"}

// Categories lists the passenger categories in display order.
func Categories() []Category {
	return []Category{Adult, Child, Infant}
}

// ParseCategory resolves a category name such as "adult".
func ParseCategory(name string) (Category, bool) {
	normalised := strings.ToLower(strings.TrimSpace(name))
	for i, n := range categoryNames {
		if n == normalised {
			return Category(i), true
		}
	}
	return 0, false
}

func (c Category) String() string {
	if !c.valid() {
		return "unknown"
	}
	return categoryNames[c]
}

func (c Category) valid() bool {
	return c >= 0 && int(c) < categoryCount
}

// Field names an editable input of a Line.
type Field string

const (
	FieldNet  Field = "net"
	FieldSale Field = "sale"
	FieldPax  Field = "pax"
)

// Line holds the inputs and derived total of a single passenger category.
// Net is the cost price and never enters any total.
type Line struct {
	Net   string  `json:"net"`
	Sale  string  `json:"sale"`
	Pax   int     `json:"pax"`
	Total float64 `json:"total"`
}

// State is an immutable pricing snapshot for one form. Every mutating method
// returns a new State and leaves the receiver untouched.
type State struct {
	lines      [categoryCount]Line
	vatPercent float64
}

// NewState returns an empty state using the provided VAT rate.
func NewState(vatPercent float64) State {
	return State{vatPercent: numfmt.Finite(vatPercent)}
}

// Reset returns the documented default state: empty lines and 7% VAT.
func (s State) Reset() State {
	return NewState(DefaultVATPercent)
}

// Line returns a copy of the line for the category.
func (s State) Line(c Category) Line {
	if !c.valid() {
		return Line{}
	}
	return s.lines[c]
}

// Lines returns copies of all lines in category order.
func (s State) Lines() [categoryCount]Line {
	return s.lines
}

// VATPercent returns the current VAT rate.
func (s State) VATPercent() float64 {
	return s.vatPercent
}

// WithVATPercent replaces the VAT rate without any range check.
func (s State) WithVATPercent(v float64) State {
	s.vatPercent = numfmt.Finite(v)
	return s
}

// Update sets one field of a category line. A non-nil explicitTotal is stored
// as the line total verbatim. Otherwise editing sale or pax re-derives the
// total; editing net leaves the existing total as it is.
func (s State) Update(c Category, field Field, value string, explicitTotal *float64) State {
	if !c.valid() {
		return s
	}
	line := s.lines[c]
	switch field {
	case FieldNet:
		line.Net = value
	case FieldSale:
		line.Sale = value
	case FieldPax:
		line.Pax = paxFromInput(value)
	}
	switch {
	case explicitTotal != nil:
		line.Total = numfmt.Finite(*explicitTotal)
	case field == FieldSale || field == FieldPax:
		line.Total = LineTotal(line.Sale, line.Pax)
	}
	s.lines[c] = line
	return s
}

// UpdateByName is Update keyed by wire names. Unknown categories are ignored.
func (s State) UpdateByName(category, field, value string, explicitTotal *float64) State {
	c, ok := ParseCategory(category)
	if !ok {
		return s
	}
	return s.Update(c, Field(strings.ToLower(strings.TrimSpace(field))), value, explicitTotal)
}

// Subtotal sums the three line totals.
func (s State) Subtotal() float64 {
	var subtotal float64
	for _, line := range s.lines {
		subtotal += numfmt.Finite(line.Total)
	}
	return numfmt.Finite(subtotal)
}

// VAT returns the VAT amount for the current subtotal and rate.
func (s State) VAT() float64 {
	return numfmt.Finite(s.Subtotal() * s.vatPercent / 100)
}

// Total returns subtotal plus VAT.
func (s State) Total() float64 {
	return numfmt.Finite(s.Subtotal() + s.VAT())
}

func paxFromInput(value string) int {
	pax := numfmt.ToInt(value)
	if pax < 0 {
		return 0
	}
	return pax
}

type stateJSON struct {
	Adult      Line    `json:"adult"`
	Child      Line    `json:"child"`
	Infant     Line    `json:"infant"`
	VATPercent float64 `json:"vat_percent"`
}

// MarshalJSON renders the state keyed by category name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		Adult:      s.lines[Adult],
		Child:      s.lines[Child],
		Infant:     s.lines[Infant],
		VATPercent: s.vatPercent,
	})
}

// UnmarshalJSON restores a state produced by MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.lines = [categoryCount]Line{raw.Adult, raw.Child, raw.Infant}
	s.vatPercent = numfmt.Finite(raw.VATPercent)
	return nil
}
