package importer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchBounds(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want [][2]int
	}{
		{"exact multiple", 200, 100, [][2]int{{0, 100}, {100, 200}}},
		{"remainder", 250, 100, [][2]int{{0, 100}, {100, 200}, {200, 250}}},
		{"single short batch", 7, 100, [][2]int{{0, 7}}},
		{"empty", 0, 100, [][2]int{}},
		{"zero size falls back to default", 150, 0, [][2]int{{0, 100}, {100, 150}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, batchBounds(tt.n, tt.size))
		})
	}
}

func TestFoldResults(t *testing.T) {
	boom := errors.New("deadlock detected")
	results := []BatchResult{
		{Index: 0, Size: 100},
		{Index: 1, Size: 100, Err: boom},
		{Index: 2, Size: 50},
	}

	succeeded, failed, errs := FoldResults(results)

	assert.Equal(t, 150, succeeded)
	assert.Equal(t, 100, failed)
	require.Len(t, errs, 1)
	assert.Equal(t, "batch 2 (100 rows): deadlock detected", errs[0])
}

func TestFoldResults_AllSucceeded(t *testing.T) {
	succeeded, failed, errs := FoldResults([]BatchResult{
		{Index: 0, Size: 100},
		{Index: 1, Size: 30},
	})

	assert.Equal(t, 130, succeeded)
	assert.Equal(t, 0, failed)
	assert.Empty(t, errs)
}

func TestFoldResults_Empty(t *testing.T) {
	succeeded, failed, errs := FoldResults(nil)

	assert.Equal(t, 0, succeeded)
	assert.Equal(t, 0, failed)
	assert.Empty(t, errs)
}
