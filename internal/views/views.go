// Package views shapes stored rows into API responses
package views

import (
	"strings"
	"time"

	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/types"
)

// Images builds poster and backdrop URLs from stored paths
type Images struct {
	BaseURL string
}

// NewImages trims any trailing slash of base
func NewImages(base string) Images {
	return Images{BaseURL: strings.TrimRight(base, "/")}
}

// Poster returns <base>/w500<path>, or nil without a path
func (i Images) Poster(path *string) *string {
	return i.url("w500", path)
}

// Backdrop returns <base>/original<path>, or nil without a path
func (i Images) Backdrop(path *string) *string {
	return i.url("original", path)
}

func (i Images) url(size string, path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	u := i.BaseURL + "/" + size + *path
	return &u
}

// GenreResponse is the public shape of a genre
type GenreResponse struct {
	ID     string `json:"id"`
	TMDBID int    `json:"tmdb_id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

// MovieResponse is the public shape of a movie
type MovieResponse struct {
	ID               string          `json:"id"`
	TMDBID           int             `json:"tmdb_id"`
	Title            string          `json:"title"`
	OriginalTitle    *string         `json:"original_title"`
	Overview         *string         `json:"overview"`
	PosterPath       *string         `json:"poster_path"`
	BackdropPath     *string         `json:"backdrop_path"`
	ReleaseDate      *types.Date     `json:"release_date"`
	Popularity       *float64        `json:"popularity"`
	VoteAverage      *float64        `json:"vote_average"`
	VoteCount        *int            `json:"vote_count"`
	Adult            bool            `json:"adult"`
	OriginalLanguage *string         `json:"original_language"`
	Genres           []GenreResponse `json:"genres"`
	types.Credits
	PosterURL   *string `json:"poster_url"`
	BackdropURL *string `json:"backdrop_url"`
}

// TVShowResponse is the public shape of a tv show
type TVShowResponse struct {
	ID               string          `json:"id"`
	TMDBID           int             `json:"tmdb_id"`
	Name             string          `json:"name"`
	OriginalName     *string         `json:"original_name"`
	Overview         *string         `json:"overview"`
	PosterPath       *string         `json:"poster_path"`
	BackdropPath     *string         `json:"backdrop_path"`
	FirstAirDate     *types.Date     `json:"first_air_date"`
	Popularity       *float64        `json:"popularity"`
	VoteAverage      *float64        `json:"vote_average"`
	VoteCount        *int            `json:"vote_count"`
	OriginalLanguage *string         `json:"original_language"`
	NumberOfSeasons  *int            `json:"number_of_seasons"`
	NumberOfEpisodes *int            `json:"number_of_episodes"`
	Status           *string         `json:"status"`
	Type             *string         `json:"type"`
	Genres           []GenreResponse `json:"genres"`
	PosterURL        *string         `json:"poster_url"`
	BackdropURL      *string         `json:"backdrop_url"`
}

// UserResponse never carries the password hash
type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}

// UserWithWatchlistResponse is a user plus both watchlists
type UserWithWatchlistResponse struct {
	UserResponse
	WatchlistMovies  []MovieResponse  `json:"watchlist_movies"`
	WatchlistTVShows []TVShowResponse `json:"watchlist_tv_shows"`
}

// MovieRatingResponse embeds the rated movie
type MovieRatingResponse struct {
	ID      string         `json:"id"`
	UserID  string         `json:"user_id"`
	MovieID string         `json:"movie_id"`
	Rating  float64        `json:"rating"`
	Comment *string        `json:"comment"`
	Movie   *MovieResponse `json:"movie"`
}

// TVShowRatingResponse embeds the rated tv show
type TVShowRatingResponse struct {
	ID       string          `json:"id"`
	UserID   string          `json:"user_id"`
	TVShowID string          `json:"tv_show_id"`
	Rating   float64         `json:"rating"`
	Comment  *string         `json:"comment"`
	TVShow   *TVShowResponse `json:"tv_show"`
}

func date(t *time.Time) *types.Date {
	if t == nil {
		return nil
	}
	return &types.Date{Time: t.UTC()}
}

// Genre shapes one genre
func Genre(g database.Genre) GenreResponse {
	return GenreResponse{ID: g.ID, TMDBID: g.TMDBID, Name: g.Name, Type: string(g.Type)}
}

// Genres shapes a genre list, never returning nil
func Genres(genres []database.Genre) []GenreResponse {
	out := make([]GenreResponse, 0, len(genres))
	for _, g := range genres {
		out = append(out, Genre(g))
	}
	return out
}

// Movie shapes one movie
func (i Images) Movie(m *database.Movie) MovieResponse {
	return MovieResponse{
		ID:               m.ID,
		TMDBID:           m.TMDBID,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		Overview:         m.Overview,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		ReleaseDate:      date(m.ReleaseDate),
		Popularity:       m.Popularity,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Adult:            m.Adult,
		OriginalLanguage: m.OriginalLanguage,
		Genres:           Genres(m.Genres),
		Credits: types.Credits{
			DirectorName:   m.DirectorName,
			DirectorTMDBID: m.DirectorTMDBID,
			Actor1Name:     m.Actor1Name,
			Actor1TMDBID:   m.Actor1TMDBID,
			Actor2Name:     m.Actor2Name,
			Actor2TMDBID:   m.Actor2TMDBID,
			Actor3Name:     m.Actor3Name,
			Actor3TMDBID:   m.Actor3TMDBID,
		},
		PosterURL:   i.Poster(m.PosterPath),
		BackdropURL: i.Backdrop(m.BackdropPath),
	}
}

// Movies shapes a movie list, never returning nil
func (i Images) Movies(movies []database.Movie) []MovieResponse {
	out := make([]MovieResponse, 0, len(movies))
	for idx := range movies {
		out = append(out, i.Movie(&movies[idx]))
	}
	return out
}

// TVShow shapes one tv show
func (i Images) TVShow(s *database.TVShow) TVShowResponse {
	return TVShowResponse{
		ID:               s.ID,
		TMDBID:           s.TMDBID,
		Name:             s.Name,
		OriginalName:     s.OriginalName,
		Overview:         s.Overview,
		PosterPath:       s.PosterPath,
		BackdropPath:     s.BackdropPath,
		FirstAirDate:     date(s.FirstAirDate),
		Popularity:       s.Popularity,
		VoteAverage:      s.VoteAverage,
		VoteCount:        s.VoteCount,
		OriginalLanguage: s.OriginalLanguage,
		NumberOfSeasons:  s.NumberOfSeasons,
		NumberOfEpisodes: s.NumberOfEpisodes,
		Status:           s.Status,
		Type:             s.Type,
		Genres:           Genres(s.Genres),
		PosterURL:        i.Poster(s.PosterPath),
		BackdropURL:      i.Backdrop(s.BackdropPath),
	}
}

// TVShows shapes a tv show list, never returning nil
func (i Images) TVShows(shows []database.TVShow) []TVShowResponse {
	out := make([]TVShowResponse, 0, len(shows))
	for idx := range shows {
		out = append(out, i.TVShow(&shows[idx]))
	}
	return out
}

// User shapes one user
func User(u *database.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
	}
}

// Users shapes a user list
func Users(users []database.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for idx := range users {
		out = append(out, User(&users[idx]))
	}
	return out
}

// UserWithWatchlist shapes a user with preloaded watchlists
func (i Images) UserWithWatchlist(u *database.User) UserWithWatchlistResponse {
	return UserWithWatchlistResponse{
		UserResponse:     User(u),
		WatchlistMovies:  i.Movies(u.WatchlistMovies),
		WatchlistTVShows: i.TVShows(u.WatchlistTVShows),
	}
}

// MovieRating shapes a rating; the movie is embedded when preloaded
func (i Images) MovieRating(r *database.MovieRating) MovieRatingResponse {
	resp := MovieRatingResponse{
		ID:      r.ID,
		UserID:  r.UserID,
		MovieID: r.MovieID,
		Rating:  r.Rating,
		Comment: r.Comment,
	}
	if r.Movie != nil {
		m := i.Movie(r.Movie)
		resp.Movie = &m
	}
	return resp
}

// MovieRatings shapes a rating list
func (i Images) MovieRatings(ratings []database.MovieRating) []MovieRatingResponse {
	out := make([]MovieRatingResponse, 0, len(ratings))
	for idx := range ratings {
		out = append(out, i.MovieRating(&ratings[idx]))
	}
	return out
}

// TVShowRating shapes a rating; the show is embedded when preloaded
func (i Images) TVShowRating(r *database.TVShowRating) TVShowRatingResponse {
	resp := TVShowRatingResponse{
		ID:       r.ID,
		UserID:   r.UserID,
		TVShowID: r.TVShowID,
		Rating:   r.Rating,
		Comment:  r.Comment,
	}
	if r.TVShow != nil {
		s := i.TVShow(r.TVShow)
		resp.TVShow = &s
	}
	return resp
}

// TVShowRatings shapes a rating list
func (i Images) TVShowRatings(ratings []database.TVShowRating) []TVShowRatingResponse {
	out := make([]TVShowRatingResponse, 0, len(ratings))
	for idx := range ratings {
		out = append(out, i.TVShowRating(&ratings[idx]))
	}
	return out
}

// MultiSearchResponse is a page of mixed upstream search results
type MultiSearchResponse struct {
	Movies       []MovieResponse  `json:"movies"`
	TVShows      []TVShowResponse `json:"tv_shows"`
	TotalResults int              `json:"total_results"`
	TotalPages   int              `json:"total_pages"`
	Page         int              `json:"page"`
}
