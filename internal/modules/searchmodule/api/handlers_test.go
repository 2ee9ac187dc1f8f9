package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/apiroutes"
	"github.com/mantonx/cinecache/internal/modules/catalogmodule/client"
	genreservice "github.com/mantonx/cinecache/internal/modules/genremodule/service"
	movieservice "github.com/mantonx/cinecache/internal/modules/moviemodule/service"
	"github.com/mantonx/cinecache/internal/modules/searchmodule/service"
	tvservice "github.com/mantonx/cinecache/internal/modules/tvmodule/service"
	"github.com/mantonx/cinecache/internal/testutil"
	"github.com/mantonx/cinecache/internal/types"
	"github.com/mantonx/cinecache/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// downUpstream fails every search as if the provider were unreachable
type downUpstream struct{}

func (downUpstream) SearchMulti(context.Context, string, int) (*client.ListResponse, error) {
	return nil, types.NewUpstreamUnavailableError(context.DeadlineExceeded)
}

func (downUpstream) SearchMovies(context.Context, string, int, *int) (*client.ListResponse, error) {
	return nil, types.NewUpstreamUnavailableError(context.DeadlineExceeded)
}

func (downUpstream) SearchTV(context.Context, string, int, *int) (*client.ListResponse, error) {
	return nil, types.NewUpstreamUnavailableError(context.DeadlineExceeded)
}

func TestSearchEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	apiroutes.ClearForTesting()

	db := testutil.NewTestDB(t)
	genres := genreservice.NewGenreService(db, nil, nil)
	movies := movieservice.NewMovieService(db, nil, genres, nil)
	tv := tvservice.NewTVShowService(db, nil, genres, nil)
	testutil.CreateMovie(t, db, 603, "The Matrix")

	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(service.NewSearchService(downUpstream{}, movies, tv, nil), views.NewImages("")))

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/api/search/movies?query=matrix")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
	assert.Contains(t, w.Body.String(), "The Matrix")

	assert.Equal(t, http.StatusUnprocessableEntity, get("/api/search/movies").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, get("/api/search/tv?query=x&size=0").Code)

	// no local match and the provider is down
	assert.Equal(t, http.StatusServiceUnavailable, get("/api/search/tv?query=thrones").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/api/search/multi?query=thrones").Code)

	assert.Len(t, apiroutes.Get(), 3)
}
