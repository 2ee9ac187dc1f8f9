// Package api exposes tv shows over HTTP
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/api"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/mantonx/cinecache/internal/types"
	"github.com/mantonx/cinecache/internal/views"
)

// Handler serves the tv endpoints
type Handler struct {
	service services.TVShowService
	images  views.Images
}

// NewHandler creates a tv handler
func NewHandler(service services.TVShowService, images views.Images) *Handler {
	return &Handler{service: service, images: images}
}

// ListTVShows handles GET /tv. sort_by is popularity (default), name,
// first_air_date or vote_average.
func (h *Handler) ListTVShows(c *gin.Context) {
	params, err := api.ParseListParams(c, "popularity")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	shows, total, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewPage(h.images.TVShows(shows), total, params.Page, params.Size))
}

// SearchTVShows handles GET /tv/search against the local store
func (h *Handler) SearchTVShows(c *gin.Context) {
	params, err := api.ParseSearchParams(c)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	shows, total, err := h.service.Search(c.Request.Context(), params)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewPage(h.images.TVShows(shows), total, params.Page, params.Size))
}

func (h *Handler) GetTVShow(c *gin.Context) {
	id, err := api.PathUUID(c, "id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	show, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.TVShow(show))
}

func (h *Handler) CreateTVShow(c *gin.Context) {
	var req types.TVShowCreateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondWithError(c, err)
		return
	}

	show, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.images.TVShow(show))
}

func (h *Handler) UpdateTVShow(c *gin.Context) {
	id, err := api.PathUUID(c, "id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	var req types.TVShowUpdateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondWithError(c, err)
		return
	}

	show, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.TVShow(show))
}

func (h *Handler) DeleteTVShow(c *gin.Context) {
	id, err := api.PathUUID(c, "id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	api.RespondWithMessage(c, "TV show deleted successfully")
}
