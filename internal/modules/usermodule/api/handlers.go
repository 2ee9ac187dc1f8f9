// Package api exposes accounts, watchlists and ratings over HTTP
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/api"
	"github.com/mantonx/cinecache/internal/auth"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/mantonx/cinecache/internal/types"
	"github.com/mantonx/cinecache/internal/views"
)

const defaultUserLimit = 100

// Handler serves the user endpoints
type Handler struct {
	service services.UserService
	images  views.Images
}

// NewHandler creates a user handler
func NewHandler(service services.UserService, images views.Images) *Handler {
	return &Handler{service: service, images: images}
}

// currentUser returns the user attached by the guard
func currentUser(c *gin.Context) *database.User {
	user, ok := auth.CurrentUser(c)
	if !ok {
		api.RespondWithError(c, types.NewUnauthorizedError(auth.MsgNotAuthenticated))
		return nil
	}
	return user
}

// Login handles POST /users/token with form fields username and password
func (h *Handler) Login(c *gin.Context) {
	username, password := c.PostForm("username"), c.PostForm("password")
	if username == "" || password == "" {
		e := types.NewValidationError("invalid credentials form", "username and password are required")
		e.HTTPStatus = http.StatusUnprocessableEntity
		api.RespondWithError(c, e)
		return
	}

	token, err := h.service.Login(c.Request.Context(), username, password)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// Register handles POST /users
func (h *Handler) Register(c *gin.Context) {
	var req types.UserCreateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondWithError(c, err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, views.User(user))
}

func (h *Handler) Me(c *gin.Context) {
	if user := currentUser(c); user != nil {
		c.JSON(http.StatusOK, views.User(user))
	}
}

// =============================================================================
// WATCHLIST
// =============================================================================

func (h *Handler) Watchlist(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	withList, err := h.service.GetWithWatchlist(c.Request.Context(), user.ID)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.UserWithWatchlist(withList))
}

type watchlistOp func(ctx context.Context, userID, mediaID string) (*database.User, error)

func (h *Handler) AddMovieToWatchlist(c *gin.Context) {
	h.changeWatchlist(c, "movie_id", h.service.AddMovieToWatchlist)
}

func (h *Handler) RemoveMovieFromWatchlist(c *gin.Context) {
	h.changeWatchlist(c, "movie_id", h.service.RemoveMovieFromWatchlist)
}

func (h *Handler) AddTVShowToWatchlist(c *gin.Context) {
	h.changeWatchlist(c, "tv_show_id", h.service.AddTVShowToWatchlist)
}

func (h *Handler) RemoveTVShowFromWatchlist(c *gin.Context) {
	h.changeWatchlist(c, "tv_show_id", h.service.RemoveTVShowFromWatchlist)
}

func (h *Handler) changeWatchlist(c *gin.Context, param string, op watchlistOp) {
	user := currentUser(c)
	if user == nil {
		return
	}
	mediaID, err := api.PathUUID(c, param)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	withList, err := op(c.Request.Context(), user.ID, mediaID)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.UserWithWatchlist(withList))
}

// =============================================================================
// RATINGS
// =============================================================================

func (h *Handler) MovieRatings(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	ratings, err := h.service.MovieRatings(c.Request.Context(), user.ID)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.MovieRatings(ratings))
}

// RateMovie handles POST /users/me/ratings/movies. Re-rating a movie
// overwrites the earlier rating.
func (h *Handler) RateMovie(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req types.MovieRatingCreateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondWithError(c, err)
		return
	}

	rating, err := h.service.RateMovie(c.Request.Context(), user.ID, req)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.MovieRating(rating))
}

func (h *Handler) UpdateMovieRating(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	movieID, err := api.PathUUID(c, "movie_id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	var req types.RatingUpdateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondWithError(c, err)
		return
	}

	rating, err := h.service.UpdateMovieRating(c.Request.Context(), user.ID, movieID, req)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.MovieRating(rating))
}

func (h *Handler) DeleteMovieRating(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	movieID, err := api.PathUUID(c, "movie_id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	if err := h.service.DeleteMovieRating(c.Request.Context(), user.ID, movieID); err != nil {
		api.RespondWithError(c, err)
		return
	}
	api.RespondWithMessage(c, "Movie rating deleted successfully")
}

func (h *Handler) TVShowRatings(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	ratings, err := h.service.TVShowRatings(c.Request.Context(), user.ID)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.TVShowRatings(ratings))
}

func (h *Handler) RateTVShow(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req types.TVShowRatingCreateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondWithError(c, err)
		return
	}

	rating, err := h.service.RateTVShow(c.Request.Context(), user.ID, req)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.TVShowRating(rating))
}

func (h *Handler) UpdateTVShowRating(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	showID, err := api.PathUUID(c, "tv_show_id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	var req types.RatingUpdateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondWithError(c, err)
		return
	}

	rating, err := h.service.UpdateTVShowRating(c.Request.Context(), user.ID, showID, req)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images.TVShowRating(rating))
}

func (h *Handler) DeleteTVShowRating(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	showID, err := api.PathUUID(c, "tv_show_id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	if err := h.service.DeleteTVShowRating(c.Request.Context(), user.ID, showID); err != nil {
		api.RespondWithError(c, err)
		return
	}
	api.RespondWithMessage(c, "TV show rating deleted successfully")
}

// =============================================================================
// ADMINISTRATION
// =============================================================================

// ListUsers handles GET /users?skip=&limit=
func (h *Handler) ListUsers(c *gin.Context) {
	skip, err := api.QueryInt(c, "skip", 0)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	limit, err := api.QueryInt(c, "limit", defaultUserLimit)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	if skip < 0 || limit < 1 {
		e := types.NewValidationError("invalid pagination", "skip must be >= 0 and limit >= 1")
		e.HTTPStatus = http.StatusUnprocessableEntity
		api.RespondWithError(c, e)
		return
	}

	users, err := h.service.List(c.Request.Context(), skip, limit)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views.Users(users))
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := api.PathUUID(c, "user_id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	user, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views.User(user))
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := api.PathUUID(c, "user_id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	var req types.UserUpdateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondWithError(c, err)
		return
	}

	user, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views.User(user))
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := api.PathUUID(c, "user_id")
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	api.RespondWithMessage(c, "User deleted successfully")
}
