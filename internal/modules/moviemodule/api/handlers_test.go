package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/apiroutes"
	"github.com/mantonx/cinecache/internal/auth"
	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/database"
	genreservice "github.com/mantonx/cinecache/internal/modules/genremodule/service"
	"github.com/mantonx/cinecache/internal/modules/moviemodule/service"
	"github.com/mantonx/cinecache/internal/testutil"
	"github.com/mantonx/cinecache/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	router *gin.Engine
	db     *gorm.DB
	admin  string
	user   string
}

func setup(t *testing.T) *fixture {
	gin.SetMode(gin.TestMode)
	apiroutes.ClearForTesting()

	db := testutil.NewTestDB(t)
	tokens, err := auth.NewTokenManager(config.SecurityConfig{SecretKey: "s", AccessTokenExpire: time.Hour})
	require.NoError(t, err)

	genres := genreservice.NewGenreService(db, nil, nil)
	svc := service.NewMovieService(db, nil, genres, nil)

	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(svc, views.NewImages("https://img.test")), auth.NewGuard(tokens, db))

	admin, err := tokens.Issue(testutil.CreateUser(t, db, "root", true).ID)
	require.NoError(t, err)
	user, err := tokens.Issue(testutil.CreateUser(t, db, "ann", false).ID)
	require.NoError(t, err)
	return &fixture{router: r, db: db, admin: admin, user: user}
}

func (f *fixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type page struct {
	Items []map[string]interface{} `json:"items"`
	Total int                      `json:"total"`
	Page  int                      `json:"page"`
	Size  int                      `json:"size"`
	Pages int                      `json:"pages"`
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) page {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var p page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func TestListMoviesPagination(t *testing.T) {
	f := setup(t)
	for i := 0; i < 5; i++ {
		pop := float64(i)
		require.NoError(t, f.db.Create(&database.Movie{TMDBID: i + 1, Title: string(rune('A' + i)), Popularity: &pop}).Error)
	}

	p := decodePage(t, f.do(http.MethodGet, "/api/movies?page=2&size=2", "", nil))
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 3, p.Pages)
	assert.Equal(t, 2, p.Page)
	require.Len(t, p.Items, 2)
	assert.Equal(t, "C", p.Items[0]["title"])

	p = decodePage(t, f.do(http.MethodGet, "/api/movies?page=9", "", nil))
	assert.Empty(t, p.Items)
	assert.Equal(t, 1, p.Pages)

	assert.Equal(t, http.StatusUnprocessableEntity, f.do(http.MethodGet, "/api/movies?size=101", "", nil).Code)
}

func TestSearchMovies(t *testing.T) {
	f := setup(t)
	drama := testutil.CreateGenre(t, f.db, 18, "Drama", database.MediaKindMovie)
	testutil.CreateMovie(t, f.db, 550, "Fight Club", *drama)
	testutil.CreateMovie(t, f.db, 680, "Pulp Fiction")

	p := decodePage(t, f.do(http.MethodGet, "/api/movies/search?query=fight", "", nil))
	require.Len(t, p.Items, 1)
	assert.Equal(t, "Fight Club", p.Items[0]["title"])

	p = decodePage(t, f.do(http.MethodGet, "/api/movies/search?genre_id=18", "", nil))
	assert.Equal(t, 1, p.Total)

	p = decodePage(t, f.do(http.MethodGet, "/api/movies/search?sort_by=title.desc", "", nil))
	assert.Equal(t, "Pulp Fiction", p.Items[0]["title"])
}

func TestGetMovie(t *testing.T) {
	f := setup(t)
	m := testutil.CreateMovie(t, f.db, 550, "Fight Club")
	require.NoError(t, f.db.Model(m).Update("poster_path", "/p.jpg").Error)

	w := f.do(http.MethodGet, "/api/movies/"+m.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "https://img.test/w500/p.jpg", body["poster_url"])
	assert.Nil(t, body["backdrop_url"])

	w = f.do(http.MethodGet, "/api/movies/7f9c2f4e-6a1b-4c3d-9e8f-0a1b2c3d4e5f", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Movie not found")
}

func TestMovieWrites(t *testing.T) {
	f := setup(t)
	body := map[string]interface{}{"tmdb_id": 550, "title": "Fight Club", "release_date": "1999-10-15"}

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/movies", "", body).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/movies", f.user, body).Code)

	w := f.do(http.MethodPost, "/api/movies", f.admin, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "1999-10-15", created["release_date"])
	id := created["id"].(string)

	w = f.do(http.MethodPut, "/api/movies/"+id, f.admin, map[string]interface{}{"vote_average": 8.4})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"vote_average":8.4`)
	assert.Contains(t, w.Body.String(), `"title":"Fight Club"`)

	w = f.do(http.MethodDelete, "/api/movies/"+id, f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Movie deleted successfully")

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/movies/"+id, f.admin, nil).Code)
}

func TestCreateMovieRejectsBadDate(t *testing.T) {
	f := setup(t)
	w := f.do(http.MethodPost, "/api/movies", f.admin, map[string]interface{}{"tmdb_id": 1, "title": "x", "release_date": "soon"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
