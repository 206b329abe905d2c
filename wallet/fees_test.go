package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFeeRates(t *testing.T) {
	tests := []struct {
		name    string
		samples []uint64
		want    FeeRates
	}{
		{
			name:    "max positive sample wins",
			samples: []uint64{0, 3000, 7000},
			want:    FeeRates{Normal: 7700, Fast: 14000},
		},
		{
			name:    "all zero samples fall back to default base",
			samples: []uint64{0, 0, 0},
			want:    FeeRates{Normal: 5500, Fast: 10000},
		},
		{
			name:    "no samples fall back to default base",
			samples: nil,
			want:    FeeRates{Normal: 5500, Fast: 10000},
		},
		{
			name:    "single sample",
			samples: []uint64{1},
			want:    FeeRates{Normal: 1, Fast: 2},
		},
		{
			name:    "rounding of the normal tier",
			samples: []uint64{15},
			want:    FeeRates{Normal: 17, Fast: 30},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeFeeRates(tt.samples))
		})
	}
}
