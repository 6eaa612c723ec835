package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//
// --- Upload Handler ---
//

var allowedUploadExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadImage is the handler for POST /api/admin/upload. Accepts one
// image under the 'file' field, renames it to a UUID and serves it back
// from the static /uploads route.
func (h *Handlers) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file provided under 'file'")
		return
	}

	maxBytes := int64(h.Cfg.UploadMaxMB) << 20
	if file.Size > maxBytes {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("File exceeds the %dMB limit", h.Cfg.UploadMaxMB))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedUploadExts[ext] {
		respondError(c, http.StatusBadRequest, "Unsupported file type: "+ext)
		return
	}

	if err := os.MkdirAll(h.Cfg.UploadDir, 0o755); err != nil {
		h.serverError(c, err, "Failed to prepare upload directory")
		return
	}

	name := uuid.New().String() + ext
	dst := filepath.Join(h.Cfg.UploadDir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		h.serverError(c, err, "Failed to save upload")
		return
	}

	url := strings.TrimRight(h.Cfg.BaseURL, "/") + "/uploads/" + name
	h.Log.Info().Str("file", name).Int64("bytes", file.Size).Msg("image uploaded")

	respondData(c, http.StatusCreated, gin.H{"url": url, "filename": name})
}
