package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextWithQuery(rawQuery string) *gin.Context {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return c
}

func TestParsePageParamsDefaults(t *testing.T) {
	p, err := ParsePageParams(contextWithQuery(""))
	require.NoError(t, err)
	assert.Equal(t, PageParams{Page: 1, Size: 20}, p)
}

func TestParsePageParamsBounds(t *testing.T) {
	tests := []struct {
		query string
		ok    bool
	}{
		{"page=2&size=100", true},
		{"page=0", false},
		{"size=0", false},
		{"size=101", false},
		{"page=abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := ParsePageParams(contextWithQuery(tt.query))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, types.ErrorCodeValidation, types.CodeOf(err))
		})
	}
}

func TestOptionalQueryInt(t *testing.T) {
	v, err := OptionalQueryInt(contextWithQuery("year=1999"), "year")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 1999, *v)

	v, err = OptionalQueryInt(contextWithQuery(""), "year")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestPathUUID(t *testing.T) {
	c := contextWithQuery("")
	c.Params = gin.Params{{Key: "id", Value: "7f9c2f4e-6a1b-4c3d-9e8f-0a1b2c3d4e5f"}}
	id, err := PathUUID(c, "id")
	require.NoError(t, err)
	assert.Equal(t, "7f9c2f4e-6a1b-4c3d-9e8f-0a1b2c3d4e5f", id)

	c.Params = gin.Params{{Key: "id", Value: "42"}}
	_, err = PathUUID(c, "id")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, err.(*types.AppError).HTTPStatus)
}

func TestParseSearchParams(t *testing.T) {
	p, err := ParseSearchParams(contextWithQuery("query=alien&genre_id=878&year=1979&page=2&size=5"))
	require.NoError(t, err)
	assert.Equal(t, "alien", p.Query)
	assert.Equal(t, 878, *p.GenreID)
	assert.Equal(t, 1979, *p.Year)
	assert.Equal(t, "popularity.desc", p.SortBy)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 5, p.Size)

	_, err = ParseSearchParams(contextWithQuery("year=soon"))
	assert.Error(t, err)
}

func TestParseListParams(t *testing.T) {
	p, err := ParseListParams(contextWithQuery(""), "popularity")
	require.NoError(t, err)
	assert.Equal(t, "popularity", p.SortBy)

	p, err = ParseListParams(contextWithQuery("sort_by=title"), "popularity")
	require.NoError(t, err)
	assert.Equal(t, "title", p.SortBy)
}
