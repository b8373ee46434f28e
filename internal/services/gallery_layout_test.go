package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumns(t *testing.T) {
	t.Run("distributes round-robin", func(t *testing.T) {
		cols := Columns([]int{0, 1, 2, 3, 4, 5, 6}, 3)

		assert.Equal(t, [][]int{{0, 3, 6}, {1, 4}, {2, 5}}, cols)
	})

	t.Run("fewer items than columns leaves empty trailing columns", func(t *testing.T) {
		cols := Columns([]string{"a", "b"}, 3)

		require.Len(t, cols, 3)
		assert.Equal(t, []string{"a"}, cols[0])
		assert.Equal(t, []string{"b"}, cols[1])
		assert.NotNil(t, cols[2])
		assert.Empty(t, cols[2])
	})

	t.Run("no items", func(t *testing.T) {
		cols := Columns[int](nil, GalleryColumns)

		require.Len(t, cols, GalleryColumns)
		for _, c := range cols {
			assert.NotNil(t, c)
			assert.Empty(t, c)
		}
	})

	t.Run("k below one is a single column", func(t *testing.T) {
		for _, k := range []int{0, -2} {
			cols := Columns([]int{1, 2, 3}, k)
			assert.Equal(t, [][]int{{1, 2, 3}}, cols)
		}
	})

	t.Run("preserves every item exactly once", func(t *testing.T) {
		items := make([]int, 100)
		for i := range items {
			items[i] = i
		}

		for k := 1; k <= 7; k++ {
			cols := Columns(items, k)
			require.Len(t, cols, k)

			seen := make(map[int]bool)
			for c, col := range cols {
				for j, v := range col {
					assert.Equal(t, c, v%k)
					if j > 0 {
						assert.Less(t, col[j-1], v)
					}
					seen[v] = true
				}
			}
			assert.Len(t, seen, len(items))
		}
	})
}
