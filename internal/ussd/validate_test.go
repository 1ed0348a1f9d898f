package ussd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"08031234567", true},
		{"07012345678", true},
		{"09112345678", true},
		{"+2348031234567", true},
		{"2348031234567", true},
		{"8031234567", true},
		{"", false},
		{"0803123456", false},
		{"080312345678", false},
		{"06031234567", false},
		{"0823123456a", false},
		{"1. Login", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, validPhone(tt.phone), "phone %q", tt.phone)
	}
}

func TestValidPIN(t *testing.T) {
	tests := []struct {
		pin  string
		want bool
	}{
		{"123456", true},
		{"000000", true},
		{"12345", false},
		{"1234567", false},
		{"12a456", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, validPIN(tt.pin), "pin %q", tt.pin)
	}
}

func TestNaira(t *testing.T) {
	assert.Equal(t, "₦0", naira(0))
	assert.Equal(t, "₦500", naira(500))
	assert.Equal(t, "₦8,000", naira(8000))
	assert.Equal(t, "₦1,234,567", naira(1234567))
}
