package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/apiroutes"
	"github.com/mantonx/cinecache/internal/services"
)

// RegisterRoutes registers the tv routes; writes require a superuser
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, guard services.AuthGuard) {
	tv := router.Group("/tv")
	{
		tv.GET("", handler.ListTVShows)
		tv.GET("/search", handler.SearchTVShows)
		tv.GET("/:id", handler.GetTVShow)
	}

	admin := tv.Group("", guard.RequireSuperuser())
	{
		admin.POST("", handler.CreateTVShow)
		admin.PUT("/:id", handler.UpdateTVShow)
		admin.DELETE("/:id", handler.DeleteTVShow)
	}

	base := tv.BasePath()
	apiroutes.Register(base, "GET", "List tv shows")
	apiroutes.Register(base+"/search", "GET", "Search stored tv shows")
	apiroutes.Register(base+"/:id", "GET", "Get a tv show")
	apiroutes.Register(base, "POST", "Create a tv show (superuser)")
	apiroutes.Register(base+"/:id", "PUT", "Update a tv show (superuser)")
	apiroutes.Register(base+"/:id", "DELETE", "Delete a tv show (superuser)")
}
