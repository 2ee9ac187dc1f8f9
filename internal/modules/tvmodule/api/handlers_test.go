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
	genreservice "github.com/mantonx/cinecache/internal/modules/genremodule/service"
	"github.com/mantonx/cinecache/internal/modules/tvmodule/service"
	"github.com/mantonx/cinecache/internal/testutil"
	"github.com/mantonx/cinecache/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTVShowEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	apiroutes.ClearForTesting()

	db := testutil.NewTestDB(t)
	tokens, err := auth.NewTokenManager(config.SecurityConfig{SecretKey: "s", AccessTokenExpire: time.Hour})
	require.NoError(t, err)
	svc := service.NewTVShowService(db, nil, genreservice.NewGenreService(db, nil, nil), nil)

	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(svc, views.NewImages("https://img.test/")), auth.NewGuard(tokens, db))
	admin, err := tokens.Issue(testutil.CreateUser(t, db, "root", true).ID)
	require.NoError(t, err)

	do := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	body := map[string]interface{}{"tmdb_id": 1399, "name": "Game of Thrones", "backdrop_path": "/b.jpg"}
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/api/tv", "", body).Code)

	w := do(http.MethodPost, "/api/tv", admin, map[string]interface{}{"tmdb_id": 1, "name": "x", "type": "soap"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(http.MethodPost, "/api/tv", admin, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "tv", created["type"])
	assert.Equal(t, "https://img.test/original/b.jpg", created["backdrop_url"])
	id := created["id"].(string)

	w = do(http.MethodGet, "/api/tv/search?query=THRONES", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = do(http.MethodPut, "/api/tv/"+id, admin, map[string]interface{}{"status": "Ended"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Ended"`)

	assert.Equal(t, http.StatusUnprocessableEntity, do(http.MethodGet, "/api/tv/not-a-uuid", "", nil).Code)

	w = do(http.MethodDelete, "/api/tv/"+id, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TV show deleted successfully")

	w = do(http.MethodGet, "/api/tv/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "TV show not found")
}
