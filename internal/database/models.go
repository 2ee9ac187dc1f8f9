package database

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/mantonx/cinecache/internal/utils"
	"gorm.io/gorm"
)

// MediaKind discriminates movie genres from tv genres
type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindTV    MediaKind = "tv"
)

// Valid reports whether k is a known kind
func (k MediaKind) Valid() bool {
	return k == MediaKindMovie || k == MediaKindTV
}

func (k MediaKind) Value() (driver.Value, error) {
	return string(k), nil
}

func (k *MediaKind) Scan(value interface{}) error {
	if value == nil {
		*k = ""
		return nil
	}
	switch s := value.(type) {
	case string:
		*k = MediaKind(s)
	case []byte:
		*k = MediaKind(s)
	default:
		return fmt.Errorf("cannot scan %T into MediaKind", value)
	}
	return nil
}

// TV show classification
const (
	TVShowTypeTV    = "tv"
	TVShowTypeAnime = "anime"
)

// =============================================================================
// CATALOG
// =============================================================================

// Genre is an upstream taxonomy entry, unique per (tmdb_id, type)
type Genre struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TMDBID    int       `gorm:"column:tmdb_id;not null;uniqueIndex:idx_genres_tmdb_type" json:"tmdb_id"`
	Name      string    `gorm:"not null;index" json:"name"`
	Type      MediaKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_genres_tmdb_type;index" json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Movie mirrors an upstream movie record
type Movie struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	TMDBID           int        `gorm:"column:tmdb_id;not null;uniqueIndex" json:"tmdb_id"`
	Title            string     `gorm:"not null;index" json:"title"`
	OriginalTitle    *string    `json:"original_title"`
	Overview         *string    `gorm:"type:text" json:"overview"`
	PosterPath       *string    `json:"poster_path"`
	BackdropPath     *string    `json:"backdrop_path"`
	ReleaseDate      *time.Time `gorm:"index" json:"release_date"`
	Popularity       *float64   `gorm:"index" json:"popularity"`
	VoteAverage      *float64   `gorm:"index" json:"vote_average"`
	VoteCount        *int       `json:"vote_count"`
	Adult            bool       `gorm:"not null" json:"adult"`
	OriginalLanguage *string    `json:"original_language"`

	// Credits are denormalized: one director and up to three leads
	DirectorName   *string `gorm:"column:director_name" json:"director_name"`
	DirectorTMDBID *int    `gorm:"column:director_tmdb_id" json:"director_tmdb_id"`
	Actor1Name     *string `gorm:"column:actor1_name" json:"actor1_name"`
	Actor1TMDBID   *int    `gorm:"column:actor1_tmdb_id" json:"actor1_tmdb_id"`
	Actor2Name     *string `gorm:"column:actor2_name" json:"actor2_name"`
	Actor2TMDBID   *int    `gorm:"column:actor2_tmdb_id" json:"actor2_tmdb_id"`
	Actor3Name     *string `gorm:"column:actor3_name" json:"actor3_name"`
	Actor3TMDBID   *int    `gorm:"column:actor3_tmdb_id" json:"actor3_tmdb_id"`

	Genres []Genre `gorm:"many2many:movie_genres;constraint:OnDelete:CASCADE" json:"genres"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TVShow mirrors an upstream tv record
type TVShow struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	TMDBID           int        `gorm:"column:tmdb_id;not null;uniqueIndex" json:"tmdb_id"`
	Name             string     `gorm:"not null;index" json:"name"`
	OriginalName     *string    `json:"original_name"`
	Overview         *string    `gorm:"type:text" json:"overview"`
	PosterPath       *string    `json:"poster_path"`
	BackdropPath     *string    `json:"backdrop_path"`
	FirstAirDate     *time.Time `gorm:"index" json:"first_air_date"`
	Popularity       *float64   `gorm:"index" json:"popularity"`
	VoteAverage      *float64   `gorm:"index" json:"vote_average"`
	VoteCount        *int       `json:"vote_count"`
	OriginalLanguage *string    `json:"original_language"`
	NumberOfSeasons  *int       `json:"number_of_seasons"`
	NumberOfEpisodes *int       `json:"number_of_episodes"`
	Status           *string    `json:"status"`
	Type             *string    `gorm:"type:varchar(16);index" json:"type"` // tv or anime

	Genres []Genre `gorm:"many2many:tv_show_genres;constraint:OnDelete:CASCADE" json:"genres"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name stable regardless of naming strategy
func (TVShow) TableName() string {
	return "tv_shows"
}

// =============================================================================
// USERS
// =============================================================================

// User is an account with watchlists and ratings
type User struct {
	ID             string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email          string `gorm:"uniqueIndex;not null" json:"email"`
	Username       string `gorm:"uniqueIndex;not null" json:"username"`
	HashedPassword string `gorm:"not null" json:"-"`
	IsActive       bool   `gorm:"not null" json:"is_active"`
	IsSuperuser    bool   `gorm:"not null" json:"is_superuser"`

	WatchlistMovies  []Movie        `gorm:"many2many:user_movie_watchlist;constraint:OnDelete:CASCADE" json:"-"`
	WatchlistTVShows []TVShow       `gorm:"many2many:user_tv_show_watchlist;constraint:OnDelete:CASCADE" json:"-"`
	MovieRatings     []MovieRating  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TVShowRatings    []TVShowRating `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserMovieWatchlist is the join row behind User.WatchlistMovies
type UserMovieWatchlist struct {
	UserID    string `gorm:"type:varchar(36);primaryKey"`
	MovieID   string `gorm:"type:varchar(36);primaryKey"`
	CreatedAt time.Time
}

func (UserMovieWatchlist) TableName() string {
	return "user_movie_watchlist"
}

// UserTVShowWatchlist is the join row behind User.WatchlistTVShows
type UserTVShowWatchlist struct {
	UserID    string `gorm:"type:varchar(36);primaryKey"`
	TVShowID  string `gorm:"column:tv_show_id;type:varchar(36);primaryKey"`
	CreatedAt time.Time
}

func (UserTVShowWatchlist) TableName() string {
	return "user_tv_show_watchlist"
}

// MovieRating is one user's score for one movie
type MovieRating struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_movie_ratings_user_movie" json:"user_id"`
	MovieID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_movie_ratings_user_movie;index" json:"movie_id"`
	Rating    float64   `gorm:"not null" json:"rating"`
	Comment   *string   `gorm:"type:text" json:"comment"`
	Movie     *Movie    `gorm:"constraint:OnDelete:CASCADE" json:"movie,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TVShowRating is one user's score for one tv show
type TVShowRating struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_tv_show_ratings_user_show" json:"user_id"`
	TVShowID  string    `gorm:"column:tv_show_id;type:varchar(36);not null;uniqueIndex:idx_tv_show_ratings_user_show;index" json:"tv_show_id"`
	Rating    float64   `gorm:"not null" json:"rating"`
	Comment   *string   `gorm:"type:text" json:"comment"`
	TVShow    *TVShow   `gorm:"constraint:OnDelete:CASCADE" json:"tv_show,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// ID HOOKS
// =============================================================================

func (g *Genre) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = utils.GenerateUUID()
	}
	return nil
}

func (m *Movie) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateUUID()
	}
	return nil
}

func (s *TVShow) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = utils.GenerateUUID()
	}
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = utils.GenerateUUID()
	}
	return nil
}

func (r *MovieRating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = utils.GenerateUUID()
	}
	return nil
}

func (r *TVShowRating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = utils.GenerateUUID()
	}
	return nil
}
