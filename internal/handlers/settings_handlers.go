package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Settings Handlers ---
//

// PublicSettings is the handler for GET /api/settings. Only settings
// flagged public are exposed; the storefront uses these for currency,
// store name and similar display concerns.
func (h *Handlers) PublicSettings(c *gin.Context) {
	list, err := h.Settings.GetPublic(c)
	if err != nil {
		h.serverError(c, err, "Failed to load settings")
		return
	}

	out := gin.H{}
	for _, s := range list {
		out[s.Key] = s.Value
	}
	respondData(c, http.StatusOK, out)
}

// AdminGetSettings is the handler for GET /api/admin/settings, grouped
// by category, optionally filtered with ?category=.
func (h *Handlers) AdminGetSettings(c *gin.Context) {
	var (
		list interface{}
		err  error
	)
	if category := c.Query("category"); category != "" {
		list, err = h.Settings.GetByCategory(c, category)
	} else {
		list, err = h.Settings.GetAll(c)
	}
	if err != nil {
		h.serverError(c, err, "Failed to load settings")
		return
	}

	respondData(c, http.StatusOK, list)
}

type SettingInput struct {
	Key      string          `json:"key" binding:"required"`
	Value    json.RawMessage `json:"value" binding:"required"`
	Category string          `json:"category" binding:"required"`
	IsPublic bool            `json:"isPublic"`
}

type UpdateSettingsInput struct {
	Settings []SettingInput `json:"settings" binding:"required,min=1,dive"`
}

// AdminUpdateSettings is the handler for PUT /api/admin/settings. Each
// write goes through the store so the cache entry for that key is
// invalidated immediately.
func (h *Handlers) AdminUpdateSettings(c *gin.Context) {
	var input UpdateSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	for _, s := range input.Settings {
		if err := h.Settings.Set(c, s.Key, s.Value, s.Category, s.IsPublic); err != nil {
			h.serverError(c, err, "Failed to save setting '"+s.Key+"'")
			return
		}
	}

	h.Log.Info().Int("count", len(input.Settings)).Msg("settings updated")
	respondData(c, http.StatusOK, gin.H{"message": "Settings updated", "updated": len(input.Settings)})
}
