package services

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/filters"
	"github.com/mantonx/cinecache/internal/types"
	"gorm.io/gorm"
)

// Registry names of the shared services
const (
	CatalogServiceName = "catalog"
	AuthServiceName    = "auth"
	GenreServiceName   = "genres"
	MovieServiceName   = "movies"
	TVShowServiceName  = "tvshows"
	UserServiceName    = "users"
)

// AuthGuard protects routes with bearer tokens
type AuthGuard interface {
	// RequireUser rejects requests without a valid token for an active user
	RequireUser() gin.HandlerFunc

	// RequireSuperuser additionally requires the superuser flag
	RequireSuperuser() gin.HandlerFunc
}

// GenreService manages the genre taxonomy of both media kinds
type GenreService interface {
	// List returns genres ordered by name, optionally of one kind only
	List(ctx context.Context, kind database.MediaKind) ([]database.Genre, error)
	Get(ctx context.Context, id string) (*database.Genre, error)

	// Create returns the existing genre when (tmdb_id, type) is already known
	Create(ctx context.Context, req types.GenreCreateRequest) (*database.Genre, error)
	Update(ctx context.Context, id string, req types.GenreUpdateRequest) (*database.Genre, error)
	Delete(ctx context.Context, id string) error

	// SyncFromUpstream find-or-creates every upstream genre of both kinds.
	// Names of genres already stored are left untouched.
	SyncFromUpstream(ctx context.Context) (movie []database.Genre, tv []database.Genre, err error)

	// ResolveUpstream maps upstream genre ids of one kind to stored rows,
	// dropping ids that are not stored. tx may be nil.
	ResolveUpstream(ctx context.Context, tx *gorm.DB, kind database.MediaKind, upstreamIDs []int) ([]database.Genre, error)
}

// MovieService reads, writes and reconciles movies
type MovieService interface {
	List(ctx context.Context, params filters.ListParams) ([]database.Movie, int64, error)
	Search(ctx context.Context, params filters.SearchParams) ([]database.Movie, int64, error)
	Get(ctx context.Context, id string) (*database.Movie, error)
	GetByTMDBID(ctx context.Context, tmdbID int) (*database.Movie, error)

	// Create returns the existing movie when tmdb_id is already stored
	Create(ctx context.Context, req types.MovieCreateRequest) (*database.Movie, error)
	Update(ctx context.Context, id string, req types.MovieUpdateRequest) (*database.Movie, error)
	Delete(ctx context.Context, id string) error

	// SyncFromUpstream fetches the movie upstream and inserts or overwrites the local row
	SyncFromUpstream(ctx context.Context, tmdbID int) (*database.Movie, error)

	// SyncPopular reconciles one page of the upstream popular listing
	SyncPopular(ctx context.Context, page int) (*types.BatchResult[database.Movie], error)

	// GetOrSync returns the stored movie, syncing it first when missing
	GetOrSync(ctx context.Context, tmdbID int) (*database.Movie, error)
}

// TVShowService reads, writes and reconciles tv shows
type TVShowService interface {
	List(ctx context.Context, params filters.ListParams) ([]database.TVShow, int64, error)
	Search(ctx context.Context, params filters.SearchParams) ([]database.TVShow, int64, error)
	Get(ctx context.Context, id string) (*database.TVShow, error)
	GetByTMDBID(ctx context.Context, tmdbID int) (*database.TVShow, error)
	Create(ctx context.Context, req types.TVShowCreateRequest) (*database.TVShow, error)
	Update(ctx context.Context, id string, req types.TVShowUpdateRequest) (*database.TVShow, error)
	Delete(ctx context.Context, id string) error
	SyncFromUpstream(ctx context.Context, tmdbID int) (*database.TVShow, error)
	SyncPopular(ctx context.Context, page int) (*types.BatchResult[database.TVShow], error)
	GetOrSync(ctx context.Context, tmdbID int) (*database.TVShow, error)
}

// UserService manages accounts, watchlists and ratings
type UserService interface {
	// Login checks the credentials and issues a bearer token
	Login(ctx context.Context, username, password string) (*types.TokenResponse, error)

	// Register creates an active, non-superuser account
	Register(ctx context.Context, req types.UserCreateRequest) (*database.User, error)
	List(ctx context.Context, skip, limit int) ([]database.User, error)
	Get(ctx context.Context, id string) (*database.User, error)
	Update(ctx context.Context, id string, req types.UserUpdateRequest) (*database.User, error)
	Delete(ctx context.Context, id string) error

	// EnsureSuperuser creates the account when no user has the username
	EnsureSuperuser(ctx context.Context, username, email, password string) error

	GetWithWatchlist(ctx context.Context, userID string) (*database.User, error)
	AddMovieToWatchlist(ctx context.Context, userID, movieID string) (*database.User, error)
	RemoveMovieFromWatchlist(ctx context.Context, userID, movieID string) (*database.User, error)
	AddTVShowToWatchlist(ctx context.Context, userID, tvShowID string) (*database.User, error)
	RemoveTVShowFromWatchlist(ctx context.Context, userID, tvShowID string) (*database.User, error)

	MovieRatings(ctx context.Context, userID string) ([]database.MovieRating, error)
	// RateMovie creates the rating or overwrites the existing one in place
	RateMovie(ctx context.Context, userID string, req types.MovieRatingCreateRequest) (*database.MovieRating, error)
	UpdateMovieRating(ctx context.Context, userID, movieID string, req types.RatingUpdateRequest) (*database.MovieRating, error)
	DeleteMovieRating(ctx context.Context, userID, movieID string) error

	TVShowRatings(ctx context.Context, userID string) ([]database.TVShowRating, error)
	RateTVShow(ctx context.Context, userID string, req types.TVShowRatingCreateRequest) (*database.TVShowRating, error)
	UpdateTVShowRating(ctx context.Context, userID, tvShowID string, req types.RatingUpdateRequest) (*database.TVShowRating, error)
	DeleteTVShowRating(ctx context.Context, userID, tvShowID string) error
}
