// Package filters builds the filtered, sorted and paginated read queries
// shared by the movie and tv catalogs.
package filters

import (
	"fmt"
	"strings"
	"time"

	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/types"
	"gorm.io/gorm"
)

// SearchParams are the inputs of a catalog search
type SearchParams struct {
	Query   string
	GenreID *int // upstream genre id
	Year    *int
	SortBy  string // field.direction, e.g. popularity.desc
	Page    int
	Size    int
}

// ListParams are the inputs of a plain catalog listing
type ListParams struct {
	SortBy string
	Page   int
	Size   int
}

// Columns names the table and columns a filter works on
type Columns struct {
	Table     string
	Title     string
	Date      string
	JoinTable string
	JoinKey   string
	Kind      database.MediaKind
}

var (
	MovieColumns = Columns{
		Table:     "movies",
		Title:     "title",
		Date:      "release_date",
		JoinTable: "movie_genres",
		JoinKey:   "movie_id",
		Kind:      database.MediaKindMovie,
	}
	TVShowColumns = Columns{
		Table:     "tv_shows",
		Title:     "name",
		Date:      "first_air_date",
		JoinTable: "tv_show_genres",
		JoinKey:   "tv_show_id",
		Kind:      database.MediaKindTV,
	}
)

// CatalogFilter applies search criteria to movie or tv queries
type CatalogFilter struct {
	cols Columns
}

// NewCatalogFilter creates a filter for the given table layout
func NewCatalogFilter(cols Columns) *CatalogFilter {
	return &CatalogFilter{cols: cols}
}

// ApplySearch adds the text, genre and year conditions of p to query
func (f *CatalogFilter) ApplySearch(query *gorm.DB, p SearchParams) *gorm.DB {
	if p.Query != "" {
		query = query.Where(fmt.Sprintf(`LOWER(%s.%s) LIKE ? ESCAPE '\'`, f.cols.Table, f.cols.Title),
			"%"+escapeLike(strings.ToLower(p.Query))+"%")
	}

	if p.GenreID != nil {
		sub := query.Session(&gorm.Session{NewDB: true}).
			Table(f.cols.JoinTable+" AS jt").
			Select("jt."+f.cols.JoinKey).
			Joins("JOIN genres ON genres.id = jt.genre_id").
			Where("genres.tmdb_id = ? AND genres.type = ?", *p.GenreID, f.cols.Kind)
		query = query.Where(fmt.Sprintf("%s.id IN (?)", f.cols.Table), sub)
	}

	if p.Year != nil {
		start := time.Date(*p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		query = query.Where(fmt.Sprintf("%s.%s >= ? AND %s.%s < ?", f.cols.Table, f.cols.Date, f.cols.Table, f.cols.Date),
			start, start.AddDate(1, 0, 0))
	}

	return query
}

// SearchOrder resolves a field.direction sort expression. Unknown fields
// yield no ordering; any direction other than desc sorts ascending.
func (f *CatalogFilter) SearchOrder(sortBy string) (string, bool) {
	if sortBy == "" {
		return "", false
	}
	field, dir, _ := strings.Cut(sortBy, ".")

	column, ok := f.sortColumn(field)
	if !ok {
		return "", false
	}
	if dir == "desc" {
		return column + " DESC", true
	}
	return column + " ASC", true
}

// ListOrder resolves the single-word sort of the plain listing: popularity,
// rating and date sort descending, title/name ascending
func (f *CatalogFilter) ListOrder(sortBy string) (string, bool) {
	column, ok := f.sortColumn(sortBy)
	if !ok {
		return "", false
	}
	if sortBy == f.cols.Title {
		return column + " ASC", true
	}
	return column + " DESC", true
}

func (f *CatalogFilter) sortColumn(field string) (string, bool) {
	switch field {
	case "popularity", "vote_average", f.cols.Title, f.cols.Date:
		return f.cols.Table + "." + field, true
	default:
		return "", false
	}
}

// ApplyOrder orders query by the resolved expression, if any
func ApplyOrder(query *gorm.DB, order string, ok bool) *gorm.DB {
	if !ok {
		return query
	}
	return query.Order(order)
}

// Paginate applies the offset and limit of a 1-indexed page
func Paginate(page, size int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(types.Offset(page, size)).Limit(size)
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
