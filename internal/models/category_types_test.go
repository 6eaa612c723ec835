package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryWouldCycle(t *testing.T) {
	// 1 <- 2 <- 3, and 4 is a root.
	parents := map[int64]int64{2: 1, 3: 2}

	t.Run("self parent", func(t *testing.T) {
		assert.True(t, CategoryWouldCycle(parents, 1, 1))
	})

	t.Run("moving under own child", func(t *testing.T) {
		assert.True(t, CategoryWouldCycle(parents, 1, 2))
	})

	t.Run("moving under own grandchild", func(t *testing.T) {
		assert.True(t, CategoryWouldCycle(parents, 1, 3))
	})

	t.Run("moving under unrelated root", func(t *testing.T) {
		assert.False(t, CategoryWouldCycle(parents, 1, 4))
	})

	t.Run("moving leaf under sibling branch", func(t *testing.T) {
		assert.False(t, CategoryWouldCycle(parents, 3, 1))
	})

	t.Run("corrupt tree bails out", func(t *testing.T) {
		// 5 and 6 already point at each other.
		corrupt := map[int64]int64{5: 6, 6: 5}
		assert.True(t, CategoryWouldCycle(corrupt, 7, 5))
	})
}
