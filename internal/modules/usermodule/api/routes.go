package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/apiroutes"
	"github.com/mantonx/cinecache/internal/services"
)

// RegisterRoutes registers the account routes. Token and registration are
// open, /me requires a user and the rest a superuser.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, guard services.AuthGuard) {
	users := router.Group("/users")
	users.POST("/token", handler.Login)
	users.POST("", handler.Register)

	me := users.Group("/me", guard.RequireUser())
	{
		me.GET("", handler.Me)

		me.GET("/watchlist", handler.Watchlist)
		me.POST("/watchlist/movies/:movie_id", handler.AddMovieToWatchlist)
		me.DELETE("/watchlist/movies/:movie_id", handler.RemoveMovieFromWatchlist)
		me.POST("/watchlist/tv/:tv_show_id", handler.AddTVShowToWatchlist)
		me.DELETE("/watchlist/tv/:tv_show_id", handler.RemoveTVShowFromWatchlist)

		me.GET("/ratings/movies", handler.MovieRatings)
		me.POST("/ratings/movies", handler.RateMovie)
		me.PUT("/ratings/movies/:movie_id", handler.UpdateMovieRating)
		me.DELETE("/ratings/movies/:movie_id", handler.DeleteMovieRating)
		me.GET("/ratings/tv", handler.TVShowRatings)
		me.POST("/ratings/tv", handler.RateTVShow)
		me.PUT("/ratings/tv/:tv_show_id", handler.UpdateTVShowRating)
		me.DELETE("/ratings/tv/:tv_show_id", handler.DeleteTVShowRating)
	}

	admin := users.Group("", guard.RequireSuperuser())
	{
		admin.GET("", handler.ListUsers)
		admin.GET("/:user_id", handler.GetUser)
		admin.PUT("/:user_id", handler.UpdateUser)
		admin.DELETE("/:user_id", handler.DeleteUser)
	}

	base := users.BasePath()
	apiroutes.Register(base+"/token", "POST", "Exchange username and password for a bearer token")
	apiroutes.Register(base, "POST", "Register an account")
	apiroutes.Register(base+"/me", "GET", "Current user")
	apiroutes.Register(base+"/me/watchlist", "GET", "Current user's watchlists")
	apiroutes.Register(base+"/me/watchlist/movies/:movie_id", "POST", "Add a movie to the watchlist")
	apiroutes.Register(base+"/me/watchlist/movies/:movie_id", "DELETE", "Remove a movie from the watchlist")
	apiroutes.Register(base+"/me/watchlist/tv/:tv_show_id", "POST", "Add a tv show to the watchlist")
	apiroutes.Register(base+"/me/watchlist/tv/:tv_show_id", "DELETE", "Remove a tv show from the watchlist")
	apiroutes.Register(base+"/me/ratings/movies", "GET", "List movie ratings")
	apiroutes.Register(base+"/me/ratings/movies", "POST", "Rate a movie")
	apiroutes.Register(base+"/me/ratings/movies/:movie_id", "PUT", "Update a movie rating")
	apiroutes.Register(base+"/me/ratings/movies/:movie_id", "DELETE", "Delete a movie rating")
	apiroutes.Register(base+"/me/ratings/tv", "GET", "List tv show ratings")
	apiroutes.Register(base+"/me/ratings/tv", "POST", "Rate a tv show")
	apiroutes.Register(base+"/me/ratings/tv/:tv_show_id", "PUT", "Update a tv show rating")
	apiroutes.Register(base+"/me/ratings/tv/:tv_show_id", "DELETE", "Delete a tv show rating")
	apiroutes.Register(base, "GET", "List users (superuser)")
	apiroutes.Register(base+"/:user_id", "GET", "Get a user (superuser)")
	apiroutes.Register(base+"/:user_id", "PUT", "Update a user (superuser)")
	apiroutes.Register(base+"/:user_id", "DELETE", "Delete a user (superuser)")
}
