package engine_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
)

func TestReorder(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward", 0, 2, []string{"b", "c", "a", "d"}},
		{"backward", 3, 1, []string{"a", "d", "b", "c"}},
		{"same", 1, 1, []string{"a", "b", "c", "d"}},
		{"out of range", 0, 7, []string{"a", "b", "c", "d"}},
		{"negative", -1, 0, []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []string{"a", "b", "c", "d"}
			got := engine.Reorder(in, tt.from, tt.to)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"a", "b", "c", "d"}, in)

			sorted := append([]string(nil), got...)
			sort.Strings(sorted)
			assert.Equal(t, []string{"a", "b", "c", "d"}, sorted, "result is a permutation")
		})
	}
}

func TestReorderFilterOptions_Renumbers(t *testing.T) {
	opts := []domain.FilterOption{
		{Value: "red", Position: 0},
		{Value: "green", Position: 1},
		{Value: "blue", Position: 2},
	}

	out := engine.ReorderFilterOptions(opts, 2, 0)

	assert.Equal(t, []domain.FilterOption{
		{Value: "blue", Position: 0},
		{Value: "red", Position: 1},
		{Value: "green", Position: 2},
	}, out)
	assert.Equal(t, 2, opts[2].Position)
}
