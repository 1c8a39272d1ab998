package entity

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAmount(t *testing.T) {
	testCases := []struct {
		name     string
		input    any
		expected *int64
	}{
		{"Integer passes through", float64(1999), ptr(int64(1999))},
		{"Fractional float scales", 19.99, ptr(int64(1999))},
		{"JSON integer", json.Number("500"), ptr(int64(500))},
		{"JSON decimal", json.Number("12.5"), ptr(int64(1250))},
		{"Decimal string", "12.50", ptr(int64(1250))},
		{"Integer string", "1250", ptr(int64(1250))},
		{"Integer string with trailing junk", "1250abc", ptr(int64(1250))},
		{"Blank string", "   ", nil},
		{"Non numeric string", "abc", nil},
		{"Nil", nil, nil},
		{"Infinity", math.Inf(1), nil},
		{"Unsupported type", true, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeAmount(tc.input)
			if tc.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.expected, *got)
		})
	}
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "12.50 USD", FormatMinorUnits(ptr(int64(1250)), "USD"))
	assert.Equal(t, "0.05", FormatMinorUnits(ptr(int64(5)), ""))
	assert.Equal(t, "n/a", FormatMinorUnits(nil, "USD"))
}

func TestParseLeadingInt(t *testing.T) {
	testCases := []struct {
		input    string
		expected int64
		ok       bool
	}{
		{"100", 100, true},
		{" 42 ", 42, true},
		{"150abc", 150, true},
		{"-3", -3, true},
		{"12.9", 12, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := ParseLeadingInt(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
