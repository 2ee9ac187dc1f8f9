package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/apiroutes"
)

// RegisterRoutes registers the search routes
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	search := router.Group("/search")
	{
		search.GET("/multi", handler.Multi)
		search.GET("/movies", handler.Movies)
		search.GET("/tv", handler.TVShows)
	}

	base := search.BasePath()
	apiroutes.Register(base+"/multi", "GET", "Search movies and tv shows upstream")
	apiroutes.Register(base+"/movies", "GET", "Search movies locally, falling back to upstream")
	apiroutes.Register(base+"/tv", "GET", "Search tv shows locally, falling back to upstream")
}
