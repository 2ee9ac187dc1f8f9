package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format of release and air dates
const DateLayout = "2006-01-02"

// Date is a calendar date carried as YYYY-MM-DD on the wire
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string as midnight UTC
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("date must be formatted as YYYY-MM-DD: %w", err)
	}
	*d = parsed
	return nil
}

// TimePtr returns the date as a *time.Time, nil for a nil date
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// Credits are the denormalized director and lead actors of a movie
type Credits struct {
	DirectorName   *string `json:"director_name"`
	DirectorTMDBID *int    `json:"director_tmdb_id"`
	Actor1Name     *string `json:"actor1_name"`
	Actor1TMDBID   *int    `json:"actor1_tmdb_id"`
	Actor2Name     *string `json:"actor2_name"`
	Actor2TMDBID   *int    `json:"actor2_tmdb_id"`
	Actor3Name     *string `json:"actor3_name"`
	Actor3TMDBID   *int    `json:"actor3_tmdb_id"`
}

// MovieCreateRequest is the body of a movie create
type MovieCreateRequest struct {
	TMDBID           int      `json:"tmdb_id" binding:"required"`
	Title            string   `json:"title" binding:"required"`
	OriginalTitle    *string  `json:"original_title"`
	Overview         *string  `json:"overview"`
	PosterPath       *string  `json:"poster_path"`
	BackdropPath     *string  `json:"backdrop_path"`
	ReleaseDate      *Date    `json:"release_date"`
	Popularity       *float64 `json:"popularity"`
	VoteAverage      *float64 `json:"vote_average"`
	VoteCount        *int     `json:"vote_count"`
	Adult            bool     `json:"adult"`
	OriginalLanguage *string  `json:"original_language"`
	GenreIDs         []int    `json:"genre_ids"` // upstream genre ids
	Credits
}

// MovieUpdateRequest carries the fields to change; nil means unchanged
type MovieUpdateRequest struct {
	Title            *string  `json:"title"`
	OriginalTitle    *string  `json:"original_title"`
	Overview         *string  `json:"overview"`
	PosterPath       *string  `json:"poster_path"`
	BackdropPath     *string  `json:"backdrop_path"`
	ReleaseDate      *Date    `json:"release_date"`
	Popularity       *float64 `json:"popularity"`
	VoteAverage      *float64 `json:"vote_average"`
	VoteCount        *int     `json:"vote_count"`
	Adult            *bool    `json:"adult"`
	OriginalLanguage *string  `json:"original_language"`
	GenreIDs         []int    `json:"genre_ids"`
	Credits
}

// TVShowCreateRequest is the body of a tv show create
type TVShowCreateRequest struct {
	TMDBID           int      `json:"tmdb_id" binding:"required"`
	Name             string   `json:"name" binding:"required"`
	OriginalName     *string  `json:"original_name"`
	Overview         *string  `json:"overview"`
	PosterPath       *string  `json:"poster_path"`
	BackdropPath     *string  `json:"backdrop_path"`
	FirstAirDate     *Date    `json:"first_air_date"`
	Popularity       *float64 `json:"popularity"`
	VoteAverage      *float64 `json:"vote_average"`
	VoteCount        *int     `json:"vote_count"`
	OriginalLanguage *string  `json:"original_language"`
	NumberOfSeasons  *int     `json:"number_of_seasons"`
	NumberOfEpisodes *int     `json:"number_of_episodes"`
	Status           *string  `json:"status"`
	Type             *string  `json:"type" binding:"omitempty,oneof=tv anime"`
	GenreIDs         []int    `json:"genre_ids"`
}

// TVShowUpdateRequest carries the fields to change; nil means unchanged
type TVShowUpdateRequest struct {
	Name             *string  `json:"name"`
	OriginalName     *string  `json:"original_name"`
	Overview         *string  `json:"overview"`
	PosterPath       *string  `json:"poster_path"`
	BackdropPath     *string  `json:"backdrop_path"`
	FirstAirDate     *Date    `json:"first_air_date"`
	Popularity       *float64 `json:"popularity"`
	VoteAverage      *float64 `json:"vote_average"`
	VoteCount        *int     `json:"vote_count"`
	OriginalLanguage *string  `json:"original_language"`
	NumberOfSeasons  *int     `json:"number_of_seasons"`
	NumberOfEpisodes *int     `json:"number_of_episodes"`
	Status           *string  `json:"status"`
	Type             *string  `json:"type" binding:"omitempty,oneof=tv anime"`
	GenreIDs         []int    `json:"genre_ids"`
}

// GenreCreateRequest is the body of a genre create
type GenreCreateRequest struct {
	TMDBID int    `json:"tmdb_id" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Type   string `json:"type" binding:"required,oneof=movie tv"`
}

// GenreUpdateRequest carries the fields to change
type GenreUpdateRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type" binding:"omitempty,oneof=movie tv"`
}
