package models

import "time"

// Category is the model for the 'categories' table. ParentID forms a
// tree; reparenting is guarded against cycles in the handler.
type Category struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	ParentID  *int64    `json:"parentId,omitempty" db:"parent_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Children []Category `json:"children" db:"-"`
}

// CategoryWouldCycle reports whether reparenting category id under
// newParent would create a cycle. parents maps category id -> parent id
// for every category that has a parent.
func CategoryWouldCycle(parents map[int64]int64, id, newParent int64) bool {
	if id == newParent {
		return true
	}
	// Walk up from the proposed parent; if we reach id, the move would
	// put the category under one of its own descendants.
	seen := 0
	for cur := newParent; ; {
		p, ok := parents[cur]
		if !ok {
			return false
		}
		if p == id {
			return true
		}
		cur = p
		// Bail out if the stored tree is already corrupt.
		if seen++; seen > len(parents) {
			return true
		}
	}
}
