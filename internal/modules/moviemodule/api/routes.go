package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/apiroutes"
	"github.com/mantonx/cinecache/internal/services"
)

// RegisterRoutes registers the movie routes; writes require a superuser
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, guard services.AuthGuard) {
	movies := router.Group("/movies")
	{
		movies.GET("", handler.ListMovies)
		movies.GET("/search", handler.SearchMovies)
		movies.GET("/:id", handler.GetMovie)
	}

	admin := movies.Group("", guard.RequireSuperuser())
	{
		admin.POST("", handler.CreateMovie)
		admin.PUT("/:id", handler.UpdateMovie)
		admin.DELETE("/:id", handler.DeleteMovie)
	}

	base := movies.BasePath()
	apiroutes.Register(base, "GET", "List movies")
	apiroutes.Register(base+"/search", "GET", "Search stored movies")
	apiroutes.Register(base+"/:id", "GET", "Get a movie")
	apiroutes.Register(base, "POST", "Create a movie (superuser)")
	apiroutes.Register(base+"/:id", "PUT", "Update a movie (superuser)")
	apiroutes.Register(base+"/:id", "DELETE", "Delete a movie (superuser)")
}
