package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityString(t *testing.T) {
	tests := []struct {
		q    Quantity
		want string
	}{
		{NewQuantityFromInt(5), "5.0000"},
		{NewQuantityFromFloat64(2.5), "2.5000"},
		{NewQuantityFromFloat64(-1.25), "-1.2500"},
		{0, "0.0000"},
		{NewQuantityFromInt64Scaled(1), "0.0001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.q.String())
	}
}

func TestQuantityJSONRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want Quantity
	}{
		{`3`, NewQuantityFromInt(3)},
		{`2.5`, NewQuantityFromFloat64(2.5)},
		{`"4.75"`, NewQuantityFromFloat64(4.75)},
		{`-0.0001`, NewQuantityFromInt64Scaled(-1)},
		{`1.23456789`, NewQuantityFromInt64Scaled(12345)}, // extra digits truncated
		{`null`, 0},
	}

	for _, tt := range tests {
		var q Quantity
		require.NoError(t, json.Unmarshal([]byte(tt.in), &q), "input %s", tt.in)
		assert.Equal(t, tt.want, q, "input %s", tt.in)
	}

	out, err := json.Marshal(NewQuantityFromFloat64(2.5))
	require.NoError(t, err)
	assert.Equal(t, "2.5000", string(out))
}

func TestQuantityMin(t *testing.T) {
	a := NewQuantityFromInt(3)
	b := NewQuantityFromInt(7)
	assert.Equal(t, a, a.Min(b))
	assert.Equal(t, a, b.Min(a))
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name  string
		qty   Quantity
		price MinorUnits
		want  MinorUnits
	}{
		{"whole units", NewQuantityFromInt(3), 250, 750},
		{"fractional quantity", NewQuantityFromFloat64(2.5), 100, 250},
		{"fractional cents truncate", NewQuantityFromFloat64(0.333), 100, 33},
		{"zero quantity", 0, 250, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineTotal(tt.qty, tt.price))
		})
	}
}

func TestMinorUnitsDecimal(t *testing.T) {
	m := MinorUnits(12345)
	assert.Equal(t, "123.45", m.Decimal().String())
	assert.InDelta(t, 123.45, m.ToMajor(2), 1e-9)
}
