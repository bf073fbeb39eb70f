package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "iPhone 13", b: "iphone 13", want: 1},
		{name: "both empty", a: "", b: "  ", want: 1},
		{name: "one empty", a: "lamp", b: "", want: 0},
		{name: "prefix", a: "samsung galaxy a23", b: "Samsung Galaxy A23 128GB", want: 36.0 / 42.0},
		{name: "disjoint", a: "abc", b: "xyz", want: 0},
		{name: "half", a: "abcd", b: "abxy", want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity_Threshold(t *testing.T) {
	t.Parallel()

	assert.GreaterOrEqual(t, Similarity("samsung galaxy a23", "samsung galaxy a23 128gb"), 0.70)
	assert.Less(t, Similarity("samsung galaxy a23", "nintendo switch"), 0.70)
}

func TestSimilarity_Symmetric(t *testing.T) {
	t.Parallel()

	a, b := "vintage leather jacket", "leather jacket vintage"
	assert.InDelta(t, Similarity(a, b), Similarity(b, a), 0.15)
}
