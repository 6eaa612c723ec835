package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"

	"github.com/vendora/vendora-golang/internal/models"
)

//
// --- Category Handlers ---
//

type CreateCategoryInput struct {
	Name     string `json:"name" binding:"required"`
	ParentID *int64 `json:"parentId"`
}

// CreateCategory is the handler for POST /api/admin/categories.
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	if input.ParentID != nil {
		var exists bool
		if err := h.DB.QueryRowContext(c,
			`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, *input.ParentID).Scan(&exists); err != nil {
			h.serverError(c, err, "Failed to check parent category")
			return
		}
		if !exists {
			respondError(c, http.StatusNotFound, "Parent category not found")
			return
		}
	}

	cat := models.Category{
		Name:     input.Name,
		Slug:     slug.Make(input.Name),
		ParentID: input.ParentID,
		Children: []models.Category{},
	}

	err := h.DB.QueryRowContext(c, `
		INSERT INTO categories (name, slug, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, created_at, updated_at`,
		cat.Name, cat.Slug, cat.ParentID,
	).Scan(&cat.ID, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(c, http.StatusBadRequest, "A category with this slug already exists")
			return
		}
		h.serverError(c, err, "Failed to create category")
		return
	}

	respondData(c, http.StatusCreated, gin.H{"category": cat})
}

// ListCategories is the handler for GET /api/categories. Returns the
// full tree: children nested under their parents, roots at the top
// level.
func (h *Handlers) ListCategories(c *gin.Context) {
	rows, err := h.DB.QueryContext(c, `
		SELECT id, name, slug, parent_id, created_at, updated_at
		FROM categories ORDER BY name ASC`)
	if err != nil {
		h.serverError(c, err, "Failed to list categories")
		return
	}
	defer rows.Close()

	var all []models.Category
	for rows.Next() {
		var cat models.Category
		cat.Children = []models.Category{}
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.ParentID, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			h.serverError(c, err, "Failed to scan category")
			return
		}
		all = append(all, cat)
	}
	if err := rows.Err(); err != nil {
		h.serverError(c, err, "Failed to iterate categories")
		return
	}

	// Index children by parent, then materialize the tree from the
	// roots down. The cycle guard on reparenting keeps this recursion
	// finite.
	byParent := map[int64][]models.Category{}
	for _, cat := range all {
		if cat.ParentID != nil {
			byParent[*cat.ParentID] = append(byParent[*cat.ParentID], cat)
		}
	}

	var build func(cat models.Category) models.Category
	build = func(cat models.Category) models.Category {
		cat.Children = []models.Category{}
		for _, child := range byParent[cat.ID] {
			cat.Children = append(cat.Children, build(child))
		}
		return cat
	}

	roots := []models.Category{}
	for _, cat := range all {
		if cat.ParentID == nil {
			roots = append(roots, build(cat))
		}
	}

	respondData(c, http.StatusOK, gin.H{"categories": roots})
}

type UpdateCategoryInput struct {
	Name     *string `json:"name"`
	ParentID *int64  `json:"parentId"`
	Detach   bool    `json:"detach"` // true moves the category to the root
}

// UpdateCategory is the handler for PUT /api/admin/categories/:id.
// Reparenting is rejected when it would create a cycle.
func (h *Handlers) UpdateCategory(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var input UpdateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	var cat models.Category
	err = h.DB.QueryRowContext(c,
		`SELECT id, name, slug, parent_id FROM categories WHERE id = $1`, categoryID,
	).Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.ParentID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Category not found")
			return
		}
		h.serverError(c, err, "Failed to load category")
		return
	}

	newParent := cat.ParentID
	if input.Detach {
		newParent = nil
	} else if input.ParentID != nil {
		newParent = input.ParentID
	}

	if newParent != nil {
		parents, err := h.loadCategoryParents(c)
		if err != nil {
			h.serverError(c, err, "Failed to load category tree")
			return
		}
		if _, known := parents[*newParent]; !known {
			// Still a valid parent if it exists as a root.
			var exists bool
			if err := h.DB.QueryRowContext(c,
				`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, *newParent).Scan(&exists); err != nil {
				h.serverError(c, err, "Failed to check parent category")
				return
			}
			if !exists {
				respondError(c, http.StatusNotFound, "Parent category not found")
				return
			}
		}
		if models.CategoryWouldCycle(parents, cat.ID, *newParent) {
			respondError(c, http.StatusBadRequest, "Cannot move a category under itself or one of its descendants")
			return
		}
	}

	name := cat.Name
	slugVal := cat.Slug
	if input.Name != nil {
		name = *input.Name
		slugVal = slug.Make(name)
	}

	_, err = h.DB.ExecContext(c, `
		UPDATE categories SET name = $1, slug = $2, parent_id = $3, updated_at = $4
		WHERE id = $5`,
		name, slugVal, newParent, time.Now(), cat.ID)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(c, http.StatusBadRequest, "A category with this slug already exists")
			return
		}
		h.serverError(c, err, "Failed to update category")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Category updated"})
}

// loadCategoryParents maps category id -> parent id for every category
// that has a parent.
func (h *Handlers) loadCategoryParents(c *gin.Context) (map[int64]int64, error) {
	rows, err := h.DB.QueryContext(c,
		`SELECT id, parent_id FROM categories WHERE parent_id IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parents := map[int64]int64{}
	for rows.Next() {
		var id, parentID int64
		if err := rows.Scan(&id, &parentID); err != nil {
			return nil, err
		}
		parents[id] = parentID
	}
	return parents, rows.Err()
}

// DeleteCategory is the handler for DELETE /api/admin/categories/:id.
// Children are promoted to the deleted category's parent; products keep
// their category via ON DELETE SET NULL.
func (h *Handlers) DeleteCategory(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid category ID")
		return
	}

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		h.serverError(c, err, "Failed to start transaction")
		return
	}
	defer tx.Rollback()

	var parentID *int64
	err = tx.QueryRowContext(c, `SELECT parent_id FROM categories WHERE id = $1`, categoryID).Scan(&parentID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Category not found")
			return
		}
		h.serverError(c, err, "Failed to load category")
		return
	}

	if _, err := tx.ExecContext(c,
		`UPDATE categories SET parent_id = $1, updated_at = now() WHERE parent_id = $2`,
		parentID, categoryID); err != nil {
		h.serverError(c, err, "Failed to reparent child categories")
		return
	}

	if _, err := tx.ExecContext(c, `DELETE FROM categories WHERE id = $1`, categoryID); err != nil {
		h.serverError(c, err, "Failed to delete category")
		return
	}

	if err := tx.Commit(); err != nil {
		h.serverError(c, err, "Failed to commit category delete")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Category deleted"})
}
