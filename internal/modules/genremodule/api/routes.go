package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/apiroutes"
	"github.com/mantonx/cinecache/internal/services"
)

// RegisterRoutes registers the genre routes; writes require a superuser
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, guard services.AuthGuard) {
	genres := router.Group("/genres")
	{
		genres.GET("", handler.ListGenres)
		genres.GET("/:id", handler.GetGenre)
	}

	admin := genres.Group("", guard.RequireSuperuser())
	{
		admin.POST("", handler.CreateGenre)
		admin.PUT("/:id", handler.UpdateGenre)
		admin.DELETE("/:id", handler.DeleteGenre)
	}

	base := genres.BasePath()
	apiroutes.Register(base, "GET", "List genres, optionally filtered by type")
	apiroutes.Register(base+"/:id", "GET", "Get a genre")
	apiroutes.Register(base, "POST", "Create a genre (superuser)")
	apiroutes.Register(base+"/:id", "PUT", "Update a genre (superuser)")
	apiroutes.Register(base+"/:id", "DELETE", "Delete a genre (superuser)")
}
