// Package api exposes the combined local and upstream search
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/api"
	"github.com/mantonx/cinecache/internal/modules/searchmodule/service"
	"github.com/mantonx/cinecache/internal/types"
	"github.com/mantonx/cinecache/internal/views"
)

// Handler serves the search endpoints
type Handler struct {
	search *service.SearchService
	images views.Images
}

// NewHandler creates a search handler
func NewHandler(search *service.SearchService, images views.Images) *Handler {
	return &Handler{search: search, images: images}
}

func requireQuery(c *gin.Context) (string, error) {
	q := strings.TrimSpace(c.Query("query"))
	if q == "" {
		e := types.NewValidationError("invalid query", "query is required")
		e.HTTPStatus = http.StatusUnprocessableEntity
		return "", e.WithContext("field", "query")
	}
	return q, nil
}

// Multi handles GET /search/multi?query=&page=
func (h *Handler) Multi(c *gin.Context) {
	query, err := requireQuery(c)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	page, err := api.ParsePageParams(c)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	result, err := h.search.Multi(c.Request.Context(), query, page.Page)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views.MultiSearchResponse{
		Movies:       h.images.Movies(result.Movies),
		TVShows:      h.images.TVShows(result.TVShows),
		TotalResults: result.TotalResults,
		TotalPages:   result.TotalPages,
		Page:         result.Page,
	})
}

// Movies handles GET /search/movies?query=&page=&size=&year=
func (h *Handler) Movies(c *gin.Context) {
	if _, err := requireQuery(c); err != nil {
		api.RespondWithError(c, err)
		return
	}
	params, err := api.ParseSearchParams(c)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	movies, total, err := h.search.Movies(c.Request.Context(), params)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewPage(h.images.Movies(movies), total, params.Page, params.Size))
}

// TVShows handles GET /search/tv?query=&page=&size=&year=
func (h *Handler) TVShows(c *gin.Context) {
	if _, err := requireQuery(c); err != nil {
		api.RespondWithError(c, err)
		return
	}
	params, err := api.ParseSearchParams(c)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	shows, total, err := h.search.TVShows(c.Request.Context(), params)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewPage(h.images.TVShows(shows), total, params.Page, params.Size))
}
