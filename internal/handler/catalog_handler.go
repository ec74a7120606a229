package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/classpoints-backend/internal/model"
	"github.com/stemsi/classpoints-backend/internal/response"
)

// CatalogHandler serves the fixed behavior and avatar catalogs.
type CatalogHandler struct{}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// ListBehaviors godoc
// GET /api/v1/behaviors
// Returns the positive and negative behavior templates.
func (h *CatalogHandler) ListBehaviors(c *gin.Context) {
	response.Success(c, http.StatusOK, model.Catalog())
}

// ListAvatars godoc
// GET /api/v1/avatars?search=25
// Returns avatar ids whose number contains search, with sprite URLs.
func (h *CatalogHandler) ListAvatars(c *gin.Context) {
	avatars := model.SearchAvatars(c.Query("search"))
	response.Success(c, http.StatusOK, gin.H{"avatars": avatars, "count": len(avatars)})
}
