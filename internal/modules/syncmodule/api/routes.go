package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/apiroutes"
	"github.com/mantonx/cinecache/internal/services"
)

// RegisterRoutes registers the sync routes, all restricted to superusers
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, guard services.AuthGuard) {
	sync := router.Group("/sync", guard.RequireSuperuser())
	{
		sync.POST("/genres", handler.SyncGenres)
		sync.POST("/movies/popular", handler.SyncPopularMovies)
		sync.POST("/movies/:tmdb_id", handler.SyncMovie)
		sync.POST("/tv/popular", handler.SyncPopularTV)
		sync.POST("/tv/:tmdb_id", handler.SyncTVShow)
		sync.GET("/jobs/:job_id", handler.SyncJob)
	}

	base := sync.BasePath()
	apiroutes.Register(base+"/genres", "POST", "Sync movie and tv genres from upstream (superuser)")
	apiroutes.Register(base+"/movies/popular", "POST", "Sync a page of popular movies (superuser)")
	apiroutes.Register(base+"/movies/:tmdb_id", "POST", "Sync one movie by upstream id (superuser)")
	apiroutes.Register(base+"/tv/popular", "POST", "Sync a page of popular tv shows (superuser)")
	apiroutes.Register(base+"/tv/:tmdb_id", "POST", "Sync one tv show by upstream id (superuser)")
	apiroutes.Register(base+"/jobs/:job_id", "GET", "Status and outcome of a background sync (superuser)")
}
