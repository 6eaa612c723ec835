package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"github.com/vendora/vendora-golang/internal/models"
)

//
// --- Product Handlers ---
//

type VariantInput struct {
	Name     string           `json:"name" binding:"required"`
	SKU      string           `json:"sku" binding:"required"`
	Price    *decimal.Decimal `json:"price"`
	Quantity int              `json:"quantity" binding:"gte=0"`
}

type ImageInput struct {
	URL      string  `json:"url" binding:"required"`
	Alt      *string `json:"alt"`
	Position int     `json:"position"`
}

type CreateProductInput struct {
	Name          string           `json:"name" binding:"required"`
	SKU           string           `json:"sku" binding:"required"`
	Description   *string          `json:"description"`
	Price         decimal.Decimal  `json:"price" binding:"required"`
	ComparePrice  *decimal.Decimal `json:"comparePrice"`
	Quantity      int              `json:"quantity" binding:"gte=0"`
	TrackQuantity bool             `json:"trackQuantity"`
	Weight        *float64         `json:"weight" binding:"omitempty,gt=0"`
	IsActive      *bool            `json:"isActive"`
	CategoryID    *int64           `json:"categoryId"`
	Images        []ImageInput     `json:"images"`
	Variants      []VariantInput   `json:"variants"`
}

// CreateProduct is the handler for POST /api/admin/products.
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}
	if input.Price.IsNegative() {
		respondError(c, http.StatusBadRequest, "Price must not be negative")
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		h.serverError(c, err, "Failed to start transaction")
		return
	}
	defer tx.Rollback()

	product := models.Product{
		Name:          input.Name,
		Slug:          slug.Make(input.Name),
		SKU:           input.SKU,
		Description:   input.Description,
		Price:         input.Price,
		ComparePrice:  input.ComparePrice,
		Quantity:      input.Quantity,
		TrackQuantity: input.TrackQuantity,
		Weight:        input.Weight,
		IsActive:      isActive,
		CategoryID:    input.CategoryID,
	}

	err = tx.QueryRowContext(c, `
		INSERT INTO products
			(name, slug, sku, description, price, compare_price, quantity,
			 track_quantity, weight, is_active, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING id, created_at, updated_at`,
		product.Name, product.Slug, product.SKU, product.Description,
		product.Price, product.ComparePrice, product.Quantity,
		product.TrackQuantity, product.Weight, product.IsActive, product.CategoryID,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(c, http.StatusBadRequest, "A product with this SKU or slug already exists")
			return
		}
		h.serverError(c, err, "Failed to create product")
		return
	}

	for _, img := range input.Images {
		var image models.ProductImage
		err = tx.QueryRowContext(c, `
			INSERT INTO product_images (product_id, url, alt, position, created_at)
			VALUES ($1, $2, $3, $4, now())
			RETURNING id, created_at`,
			product.ID, img.URL, img.Alt, img.Position,
		).Scan(&image.ID, &image.CreatedAt)
		if err != nil {
			h.serverError(c, err, "Failed to save product image")
			return
		}
		image.ProductID = product.ID
		image.URL, image.Alt, image.Position = img.URL, img.Alt, img.Position
		product.Images = append(product.Images, image)
	}

	for _, v := range input.Variants {
		variant := models.ProductVariant{
			ProductID: product.ID,
			Name:      v.Name,
			SKU:       v.SKU,
			Price:     v.Price,
			Quantity:  v.Quantity,
		}
		err = tx.QueryRowContext(c, `
			INSERT INTO product_variants (product_id, name, sku, price, quantity, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			RETURNING id, created_at, updated_at`,
			product.ID, v.Name, v.SKU, v.Price, v.Quantity,
		).Scan(&variant.ID, &variant.CreatedAt, &variant.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				respondError(c, http.StatusBadRequest, fmt.Sprintf("Variant SKU %q already exists", v.SKU))
				return
			}
			h.serverError(c, err, "Failed to save product variant")
			return
		}
		product.Variants = append(product.Variants, variant)
	}

	if err := tx.Commit(); err != nil {
		h.serverError(c, err, "Failed to commit product")
		return
	}

	respondData(c, http.StatusCreated, gin.H{"product": product})
}

// ListProducts is the handler for GET /api/products. Supports paging
// and filtering by category, active flag and a name/sku search term.
func (h *Handlers) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	where := []string{"1=1"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	// Customers only see active products; admins may ask for everything.
	if c.Query("includeInactive") != "true" {
		where = append(where, "is_active = TRUE")
	}
	if v := c.Query("categoryId"); v != "" {
		where = append(where, "category_id = "+arg(v))
	}
	if v := c.Query("search"); v != "" {
		p := arg("%" + v + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR sku ILIKE %s)", p, p))
	}

	query := fmt.Sprintf(`
		SELECT id, name, slug, sku, description, price, compare_price, quantity,
		       track_quantity, weight, is_active, category_id, created_at, updated_at
		FROM products
		WHERE %s
		ORDER BY created_at DESC
		LIMIT %s OFFSET %s`,
		strings.Join(where, " AND "), arg(limit), arg((page-1)*limit))

	rows, err := h.DB.QueryContext(c, query, args...)
	if err != nil {
		h.serverError(c, err, "Failed to list products")
		return
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.SKU, &p.Description,
			&p.Price, &p.ComparePrice, &p.Quantity, &p.TrackQuantity, &p.Weight,
			&p.IsActive, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			h.serverError(c, err, "Failed to scan product")
			return
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		h.serverError(c, err, "Failed to iterate products")
		return
	}

	respondData(c, http.StatusOK, gin.H{"products": products, "page": page, "limit": limit})
}

// GetProduct is the handler for GET /api/products/:id. The parameter
// may be a numeric id or a slug.
func (h *Handlers) GetProduct(c *gin.Context) {
	param := c.Param("id")

	var p models.Product
	var row *sql.Row
	if id, err := strconv.ParseInt(param, 10, 64); err == nil {
		row = h.DB.QueryRowContext(c, productSelect+` WHERE id = $1`, id)
	} else {
		row = h.DB.QueryRowContext(c, productSelect+` WHERE slug = $1`, param)
	}

	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.SKU, &p.Description,
		&p.Price, &p.ComparePrice, &p.Quantity, &p.TrackQuantity, &p.Weight,
		&p.IsActive, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		h.serverError(c, err, "Failed to load product")
		return
	}

	if err := h.attachProductRelations(c, &p); err != nil {
		h.serverError(c, err, "Failed to load product details")
		return
	}

	respondData(c, http.StatusOK, gin.H{"product": p})
}

const productSelect = `
	SELECT id, name, slug, sku, description, price, compare_price, quantity,
	       track_quantity, weight, is_active, category_id, created_at, updated_at
	FROM products`

func (h *Handlers) attachProductRelations(c *gin.Context, p *models.Product) error {
	if p.CategoryID != nil {
		var cat models.Category
		err := h.DB.QueryRowContext(c, `
			SELECT id, name, slug, parent_id, created_at, updated_at
			FROM categories WHERE id = $1`, *p.CategoryID,
		).Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.ParentID, &cat.CreatedAt, &cat.UpdatedAt)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if err == nil {
			p.Category = &cat
		}
	}

	imgRows, err := h.DB.QueryContext(c, `
		SELECT id, product_id, url, alt, position, created_at
		FROM product_images WHERE product_id = $1 ORDER BY position, id`, p.ID)
	if err != nil {
		return err
	}
	defer imgRows.Close()
	for imgRows.Next() {
		var img models.ProductImage
		if err := imgRows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Alt, &img.Position, &img.CreatedAt); err != nil {
			return err
		}
		p.Images = append(p.Images, img)
	}
	if err := imgRows.Err(); err != nil {
		return err
	}

	varRows, err := h.DB.QueryContext(c, `
		SELECT id, product_id, name, sku, price, quantity, created_at, updated_at
		FROM product_variants WHERE product_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return err
	}
	defer varRows.Close()
	for varRows.Next() {
		var v models.ProductVariant
		if err := varRows.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.Price, &v.Quantity, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return err
		}
		p.Variants = append(p.Variants, v)
	}
	return varRows.Err()
}

type UpdateProductInput struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	ComparePrice  *decimal.Decimal `json:"comparePrice"`
	Quantity      *int             `json:"quantity" binding:"omitempty,gte=0"`
	TrackQuantity *bool            `json:"trackQuantity"`
	Weight        *float64         `json:"weight" binding:"omitempty,gt=0"`
	IsActive      *bool            `json:"isActive"`
	CategoryID    *int64           `json:"categoryId"`
}

// UpdateProduct is the handler for PUT /api/admin/products/:id.
// Renaming regenerates the slug.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}
	if input.Price != nil && input.Price.IsNegative() {
		respondError(c, http.StatusBadRequest, "Price must not be negative")
		return
	}

	var newSlug *string
	if input.Name != nil {
		s := slug.Make(*input.Name)
		newSlug = &s
	}

	result, err := h.DB.ExecContext(c, `
		UPDATE products SET
			name = COALESCE($1, name),
			slug = COALESCE($2, slug),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			compare_price = COALESCE($5, compare_price),
			quantity = COALESCE($6, quantity),
			track_quantity = COALESCE($7, track_quantity),
			weight = COALESCE($8, weight),
			is_active = COALESCE($9, is_active),
			category_id = COALESCE($10, category_id),
			updated_at = $11
		WHERE id = $12`,
		input.Name, newSlug, input.Description, input.Price, input.ComparePrice,
		input.Quantity, input.TrackQuantity, input.Weight, input.IsActive,
		input.CategoryID, time.Now(), productID)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(c, http.StatusBadRequest, "A product with this slug already exists")
			return
		}
		h.serverError(c, err, "Failed to update product")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		respondError(c, http.StatusNotFound, "Product not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Product updated"})
}

// DeleteProduct is the handler for DELETE /api/admin/products/:id.
// Products referenced by orders are deactivated instead of removed so
// order history keeps resolving.
func (h *Handlers) DeleteProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var referenced bool
	err = h.DB.QueryRowContext(c,
		`SELECT EXISTS(SELECT 1 FROM order_items WHERE product_id = $1)`, productID,
	).Scan(&referenced)
	if err != nil {
		h.serverError(c, err, "Failed to check product references")
		return
	}

	if referenced {
		result, err := h.DB.ExecContext(c,
			`UPDATE products SET is_active = FALSE, updated_at = now() WHERE id = $1`, productID)
		if err != nil {
			h.serverError(c, err, "Failed to deactivate product")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondData(c, http.StatusOK, gin.H{"message": "Product has order history; deactivated instead of deleted"})
		return
	}

	result, err := h.DB.ExecContext(c, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		h.serverError(c, err, "Failed to delete product")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		respondError(c, http.StatusNotFound, "Product not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Product deleted"})
}
