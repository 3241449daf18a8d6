package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  any
		want float64
	}{
		{"native float", 18000.0, 18000},
		{"native int", 42, 42},
		{"plain string", "18000", 18000},
		{"decimal comma", "12,5", 12.5},
		{"thousands comma with dot decimal", "12,345.67", 12345.67},
		{"multiple thousands commas", "1,234,567.89", 1234567.89},
		{"currency sign", "$1,234.56", 1234.56},
		{"percent sign", "15%", 15},
		{"percent with comma decimal", "2,35%", 2.35},
		{"surrounding whitespace", "  1000.50  ", 1000.5},
		{"inner spaces", "$ 1 000.50", 1000.5},
		{"negative", "-12,5", -12.5},
		{"empty string", "", 0},
		{"whitespace only", "   ", 0},
		{"garbage", "n/a", 0},
		{"lone symbols", "$%", 0},
		{"nil", nil, 0},
		{"unsupported type", []string{"1"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, ParseNumber(tt.raw), 1e-9)
		})
	}
}
