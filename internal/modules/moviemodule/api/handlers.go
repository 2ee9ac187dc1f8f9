// Package api exposes movies over HTTP
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/api"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/mantonx/cinecache/internal/types"
	"github.com/mantonx/cinecache/internal/views"
)

// Handler serves the movie endpoints
type Handler struct {
	service services.MovieService
	images  views.Images
}

// NewHandler creates a movie handler
func NewHandler(service services.MovieService, images views.Images) *Handler {
	return &Handler{service: service, images: images}
}

// ListMovies handles GET /movies
//
// Query parameters:
//   - page, size: pagination, size 1..100
//   - sort_by: popularity (default), title, release_date or vote_average
func (h *Handler) ListMovies(c *gin.Context) {
	params, err := api.ParseListParams(c, "popularity")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	movies, total, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewPage(h.images.Movies(movies), total, params.Page, params.Size))
}

// SearchMovies handles GET /movies/search against the local store
//
// Query parameters:
//   - query: case-insensitive title substring
//   - genre_id: upstream genre id
//   - year: release year
//   - sort_by: field.direction, popularity.desc by default
//   - page, size: pagination
func (h *Handler) SearchMovies(c *gin.Context) {
	params, err := api.ParseSearchParams(c)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	movies, total, err := h.service.Search(c.Request.Context(), params)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewPage(h.images.Movies(movies), total, params.Page, params.Size))
}

// GetMovie handles GET /movies/:id
func (h *Handler) GetMovie(c *gin.Context) {
	id, err := api.PathUUID(c, "id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	movie, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.Movie(movie))
}

// CreateMovie handles POST /movies. An already stored tmdb_id returns the stored movie.
func (h *Handler) CreateMovie(c *gin.Context) {
	var req types.MovieCreateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondWithError(c, err)
		return
	}

	movie, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.images.Movie(movie))
}

// UpdateMovie handles PUT /movies/:id
func (h *Handler) UpdateMovie(c *gin.Context) {
	id, err := api.PathUUID(c, "id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	var req types.MovieUpdateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondWithError(c, err)
		return
	}

	movie, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.Movie(movie))
}

// DeleteMovie handles DELETE /movies/:id
func (h *Handler) DeleteMovie(c *gin.Context) {
	id, err := api.PathUUID(c, "id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	api.RespondWithMessage(c, "Movie deleted successfully")
}
