package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"forumhub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Served instead of the image to hotlinking pages.
const hotlinkSVG = `<svg width="200" height="200" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%" height="100%" fill="#f8f9fa"/>
  <text x="50%" y="50%" font-family="Arial" font-size="14" fill="#6c757d" text-anchor="middle">
    Images are only available on the forum
  </text>
</svg>`

// UploadHandler stores and serves uploaded images.
type UploadHandler struct {
	uploads *services.UploadService
}

func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload - POST /api/uploads, multipart field "file"
func (h *UploadHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "missing file")
		return
	}
	defer file.Close()

	result, err := h.uploads.Save(file, header)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Serve - GET /uploads/:name, answering hotlinks with a placeholder SVG.
func (h *UploadHandler) Serve(c *gin.Context) {
	name := filepath.Base(c.Param("name"))
	ext := filepath.Ext(name)
	if _, err := uuid.Parse(strings.TrimSuffix(name, ext)); err != nil || ext == "" {
		c.Status(http.StatusNotFound)
		return
	}

	if !isAllowedRequest(c) {
		c.Header("Content-Type", "image/svg+xml")
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.String(http.StatusOK, hotlinkSVG)
		return
	}

	c.Header("Cache-Control", "public, max-age=604800")
	c.Header("Vary", "Sec-Fetch-Site, Sec-Fetch-Mode")
	c.File(filepath.Join(h.uploads.Dir(), name))
}

// isAllowedRequest uses the Sec-Fetch-* headers to tell page loads from hotlinks.
func isAllowedRequest(c *gin.Context) bool {
	switch c.GetHeader("Sec-Fetch-Site") {
	// old browsers, direct visits, same origin or site, typed URLs
	case "", "same-origin", "same-site", "none":
		return true
	}
	// opening the image in a new tab is fine; other cross-site loads are hotlinks
	return c.GetHeader("Sec-Fetch-Mode") == "navigate"
}
