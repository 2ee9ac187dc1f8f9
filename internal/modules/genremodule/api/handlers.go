// Package api exposes the genre taxonomy over HTTP
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/api"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/mantonx/cinecache/internal/types"
	"github.com/mantonx/cinecache/internal/views"
)

// Handler serves the genre endpoints
type Handler struct {
	service services.GenreService
}

// NewHandler creates a genre handler
func NewHandler(service services.GenreService) *Handler {
	return &Handler{service: service}
}

// ListGenres handles GET /genres
//
// Query parameters:
//   - type: movie or tv, all genres when absent
func (h *Handler) ListGenres(c *gin.Context) {
	genres, err := h.service.List(c.Request.Context(), database.MediaKind(c.Query("type")))
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views.Genres(genres))
}

// GetGenre handles GET /genres/:id
func (h *Handler) GetGenre(c *gin.Context) {
	id, err := api.PathUUID(c, "id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	genre, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views.Genre(*genre))
}

// CreateGenre handles POST /genres
func (h *Handler) CreateGenre(c *gin.Context) {
	var req types.GenreCreateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondWithError(c, err)
		return
	}

	genre, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, views.Genre(*genre))
}

// UpdateGenre handles PUT /genres/:id
func (h *Handler) UpdateGenre(c *gin.Context) {
	id, err := api.PathUUID(c, "id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	var req types.GenreUpdateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondWithError(c, err)
		return
	}

	genre, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views.Genre(*genre))
}

// DeleteGenre handles DELETE /genres/:id
func (h *Handler) DeleteGenre(c *gin.Context) {
	id, err := api.PathUUID(c, "id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	api.RespondWithMessage(c, "Genre deleted successfully")
}
