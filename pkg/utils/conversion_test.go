package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBool(t *testing.T) {
	tests := []struct {
		in   interface{}
		want bool
	}{
		{true, true},
		{"yes", true},
		{"TRUE", true},
		{"0", false},
		{"nope", false},
		{float64(1), true},
		{0, false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToBool(tt.in), "%v", tt.in)
	}
}

func TestToInt(t *testing.T) {
	n, ok := ToInt(float64(12))
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	n, ok = ToInt(" 7 ")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = ToInt(2.5)
	assert.False(t, ok)

	_, ok = ToInt("abc")
	assert.False(t, ok)
}

func TestParseNumber(t *testing.T) {
	v, ok := ParseNumber("42")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	v, ok = ParseNumber("0.75")
	assert.True(t, ok)
	assert.Equal(t, 0.75, v)

	_, ok = ParseNumber("")
	assert.False(t, ok)
}
