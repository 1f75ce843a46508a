package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCash(t *testing.T) {
	assert.Equal(t, "10.0", FormatCash(decimal.NewFromInt(10)))
	assert.Equal(t, "0.0", FormatCash(decimal.Zero))
	assert.Equal(t, "12.5", FormatCash(decimal.RequireFromString("12.50")))
	assert.Equal(t, "-3.0", FormatCash(decimal.NewFromInt(-3)))
	assert.Equal(t, "0.3", FormatCash(decimal.RequireFromString("0.1").Add(decimal.RequireFromString("0.2"))))
}

func TestDriverKeyLess(t *testing.T) {
	a := DriverKey{Fleet: "A", Contract: "X", Driver: "Zed"}
	b := DriverKey{Fleet: "A", Contract: "Y", Driver: "Amy"}
	c := DriverKey{Fleet: "B", Contract: "A", Driver: "Amy"}

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
	assert.False(t, a.Less(a))
}

func TestSummaryRendering(t *testing.T) {
	s := &Summary{
		Methods: []string{" app", "app"},
		Rows: []DriverSummary{
			{Key: DriverKey{"North", "C1", "Ann"}, Cash: decimal.NewFromInt(10), MethodCounts: map[string]int{"app": 2}},
			{Key: DriverKey{"South", "No Contract", "Bob"}, Cash: decimal.Zero},
			{Key: DriverKey{"North", "C2", "Cy"}, Cash: decimal.RequireFromString("1.25"), MethodCounts: map[string]int{" app": 1}},
		},
	}

	assert.Equal(t, []string{"Fleet Name", "Contract", "Driver Name", "cash", " app", "app"}, s.Header())
	assert.Equal(t, []string{"North", "C1", "Ann", "10.0", "0", "2"}, s.Record(0))
	assert.Equal(t, []string{"South", "No Contract", "Bob", "0.0", "0", "0"}, s.Record(1))
	assert.Equal(t, []string{"North", "South"}, s.Fleets())

	north := s.ForFleet("North")
	assert.Len(t, north.Rows, 2)
	assert.Equal(t, s.Methods, north.Methods)
	assert.Equal(t, "Cy", north.Rows[1].Key.Driver)
}
