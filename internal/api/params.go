package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/filters"
	"github.com/mantonx/cinecache/internal/types"
	"github.com/mantonx/cinecache/internal/utils"
)

// PageParams holds the validated page/size query parameters
type PageParams struct {
	Page int
	Size int
}

// ParsePageParams reads page (>= 1, default 1) and size (1..100, default 20)
func ParsePageParams(c *gin.Context) (PageParams, error) {
	page, err := QueryInt(c, "page", 1)
	if err != nil {
		return PageParams{}, err
	}
	if page < 1 {
		return PageParams{}, unprocessable("page", "must be greater than or equal to 1")
	}

	size, err := QueryInt(c, "size", types.DefaultPageSize)
	if err != nil {
		return PageParams{}, err
	}
	if size < 1 || size > types.MaxPageSize {
		return PageParams{}, unprocessable("size", fmt.Sprintf("must be between 1 and %d", types.MaxPageSize))
	}

	return PageParams{Page: page, Size: size}, nil
}

// ParseListParams reads page, size and the single-word sort_by of a listing
func ParseListParams(c *gin.Context, defaultSort string) (filters.ListParams, error) {
	p, err := ParsePageParams(c)
	if err != nil {
		return filters.ListParams{}, err
	}
	return filters.ListParams{
		SortBy: c.DefaultQuery("sort_by", defaultSort),
		Page:   p.Page,
		Size:   p.Size,
	}, nil
}

// ParseSearchParams reads query, genre_id, year, sort_by, page and size.
// sort_by defaults to popularity.desc.
func ParseSearchParams(c *gin.Context) (filters.SearchParams, error) {
	p, err := ParsePageParams(c)
	if err != nil {
		return filters.SearchParams{}, err
	}
	genreID, err := OptionalQueryInt(c, "genre_id")
	if err != nil {
		return filters.SearchParams{}, err
	}
	year, err := OptionalQueryInt(c, "year")
	if err != nil {
		return filters.SearchParams{}, err
	}
	return filters.SearchParams{
		Query:   c.Query("query"),
		GenreID: genreID,
		Year:    year,
		SortBy:  c.DefaultQuery("sort_by", "popularity.desc"),
		Page:    p.Page,
		Size:    p.Size,
	}, nil
}

// QueryInt reads an integer query parameter, returning def when absent
func QueryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, unprocessable(name, "must be an integer")
	}
	return v, nil
}

// OptionalQueryInt reads an integer query parameter, returning nil when absent
func OptionalQueryInt(c *gin.Context, name string) (*int, error) {
	if c.Query(name) == "" {
		return nil, nil
	}
	v, err := QueryInt(c, name, 0)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// PathInt reads an integer path parameter
func PathInt(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, unprocessable(name, "must be an integer")
	}
	return v, nil
}

// PathUUID reads a UUID path parameter
func PathUUID(c *gin.Context, name string) (string, error) {
	v := c.Param(name)
	if !utils.IsValidUUID(v) {
		return "", unprocessable(name, "must be a valid UUID")
	}
	return v, nil
}

// BindJSON binds the request body, mapping binding failures to a validation error
func BindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		e := types.NewValidationError("invalid request body", err.Error())
		e.HTTPStatus = http.StatusUnprocessableEntity
		return e
	}
	return nil
}

func unprocessable(field, msg string) *types.AppError {
	err := types.NewValidationError(fmt.Sprintf("invalid %s", field), msg)
	err.HTTPStatus = http.StatusUnprocessableEntity
	return err.WithContext("field", field)
}
