// Package api exposes the sync operations over HTTP
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/api"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/modules/syncmodule/service"
	"github.com/mantonx/cinecache/internal/types"
	"github.com/mantonx/cinecache/internal/views"
)

// Syncer is the part of the sync service the handlers drive
type Syncer interface {
	Genres(ctx context.Context) ([]database.Genre, []database.Genre, error)
	Movie(ctx context.Context, tmdbID int) (*database.Movie, error)
	TVShow(ctx context.Context, tmdbID int) (*database.TVShow, error)
	PopularMovies(ctx context.Context, page int) (*types.BatchResult[database.Movie], error)
	PopularTV(ctx context.Context, page int) (*types.BatchResult[database.TVShow], error)
	EnqueuePopularMovies(page int) (*service.Job, error)
	EnqueuePopularTV(page int) (*service.Job, error)
	Job(id string) (*service.Job, bool)
}

// GenreSyncResponse lists the genres of both kinds after a sync
type GenreSyncResponse struct {
	MovieGenres []views.GenreResponse `json:"movie_genres"`
	TVGenres    []views.GenreResponse `json:"tv_genres"`
}

// Handler serves the sync endpoints
type Handler struct {
	sync   Syncer
	images views.Images
}

// NewHandler creates a sync handler
func NewHandler(sync Syncer, images views.Images) *Handler {
	return &Handler{sync: sync, images: images}
}

// SyncGenres handles POST /sync/genres
func (h *Handler) SyncGenres(c *gin.Context) {
	movieGenres, tvGenres, err := h.sync.Genres(c.Request.Context())
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenreSyncResponse{
		MovieGenres: views.Genres(movieGenres),
		TVGenres:    views.Genres(tvGenres),
	})
}

// SyncPopularMovies handles POST /sync/movies/popular
//
// Query parameters:
//   - page: upstream listing page, 1 by default
//   - async: true queues the sync and answers 202 with the job
func (h *Handler) SyncPopularMovies(c *gin.Context) {
	page, async, err := popularParams(c)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	if async {
		job, err := h.sync.EnqueuePopularMovies(page)
		if err != nil {
			api.RespondWithError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, job)
		return
	}

	r, err := h.sync.PopularMovies(c.Request.Context(), page)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.BatchResult[views.MovieResponse]{
		Succeeded: h.images.Movies(r.Succeeded),
		Failed:    r.Failed,
	})
}

// SyncPopularTV handles POST /sync/tv/popular
func (h *Handler) SyncPopularTV(c *gin.Context) {
	page, async, err := popularParams(c)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	if async {
		job, err := h.sync.EnqueuePopularTV(page)
		if err != nil {
			api.RespondWithError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, job)
		return
	}

	r, err := h.sync.PopularTV(c.Request.Context(), page)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.BatchResult[views.TVShowResponse]{
		Succeeded: h.images.TVShows(r.Succeeded),
		Failed:    r.Failed,
	})
}

// SyncMovie handles POST /sync/movies/:tmdb_id
func (h *Handler) SyncMovie(c *gin.Context) {
	tmdbID, err := api.PathInt(c, "tmdb_id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	movie, err := h.sync.Movie(c.Request.Context(), tmdbID)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.Movie(movie))
}

// SyncTVShow handles POST /sync/tv/:tmdb_id
func (h *Handler) SyncTVShow(c *gin.Context) {
	tmdbID, err := api.PathInt(c, "tmdb_id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	show, err := h.sync.TVShow(c.Request.Context(), tmdbID)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.TVShow(show))
}

// SyncJob handles GET /sync/jobs/:job_id. Only the most recent jobs are
// kept; older ones answer 404.
func (h *Handler) SyncJob(c *gin.Context) {
	id, err := api.PathUUID(c, "job_id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	job, ok := h.sync.Job(id)
	if !ok {
		api.RespondWithError(c, types.NewNotFoundError("Sync job", id))
		return
	}
	c.JSON(http.StatusOK, job)
}

func popularParams(c *gin.Context) (int, bool, error) {
	page, err := api.QueryInt(c, "page", 1)
	if err != nil {
		return 0, false, err
	}
	if page < 1 {
		e := types.NewValidationError("invalid page", "must be at least 1")
		e.HTTPStatus = http.StatusUnprocessableEntity
		return 0, false, e
	}

	async := false
	if raw := c.Query("async"); raw != "" {
		async, err = strconv.ParseBool(raw)
		if err != nil {
			e := types.NewValidationError("invalid async", "must be a boolean")
			e.HTTPStatus = http.StatusUnprocessableEntity
			return 0, false, e
		}
	}
	return page, async, nil
}
