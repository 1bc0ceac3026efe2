package ir

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		text, unit string
		want       string
	}{
		{"42", "", "42"},
		{"1_000", "", "1000"},
		{"0xff", "", "255"},
		{"0x00_10", "", "16"},
		{"2e3", "", "2000"},
		{"1", "ether", "1000000000000000000"},
		{"1.5", "ether", "1500000000000000000"},
		{"2", "gwei", "2000000000"},
		{"1", "days", "86400"},
		{"0.5", "minutes", "30"},
		{"0", "weeks", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.text+tt.unit, func(t *testing.T) {
			got, err := ParseNumber(tt.text, tt.unit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Dec())
		})
	}
}

func TestParseNumberErrors(t *testing.T) {
	for _, text := range []string{"1.5", "1e-1", "1e80"} {
		_, err := ParseNumber(text, "")
		assert.Error(t, err, text)
	}
	_, err := ParseNumber("1", "fortnights")
	assert.Error(t, err)
}

func TestFitsInt(t *testing.T) {
	u8 := &IntType{Bits: 8}
	i8 := &IntType{Signed: true, Bits: 8}

	assert.True(t, FitsInt(uint256.NewInt(255), u8, false))
	assert.False(t, FitsInt(uint256.NewInt(256), u8, false))
	assert.False(t, FitsInt(uint256.NewInt(1), u8, true))

	assert.True(t, FitsInt(uint256.NewInt(127), i8, false))
	assert.False(t, FitsInt(uint256.NewInt(128), i8, false))
	assert.True(t, FitsInt(uint256.NewInt(128), i8, true))
	assert.False(t, FitsInt(uint256.NewInt(129), i8, true))
}
