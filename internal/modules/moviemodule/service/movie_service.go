// Package service implements movie storage, search and upstream reconciliation
package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/filters"
	"github.com/mantonx/cinecache/internal/metrics"
	"github.com/mantonx/cinecache/internal/modules/catalogmodule/client"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/mantonx/cinecache/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const syncKind = "movie"

// Upstream is the part of the catalog client the movie service needs
type Upstream interface {
	MovieDetails(ctx context.Context, id int) (*client.MovieDetails, error)
	PopularMovies(ctx context.Context, page int) (*client.ListResponse, error)
}

type movieService struct {
	db       *gorm.DB
	upstream Upstream
	genres   services.GenreService
	filter   *filters.CatalogFilter
	log      hclog.Logger
}

// NewMovieService creates the movie service
func NewMovieService(db *gorm.DB, upstream Upstream, genres services.GenreService, log hclog.Logger) services.MovieService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &movieService{
		db:       db,
		upstream: upstream,
		genres:   genres,
		filter:   filters.NewCatalogFilter(filters.MovieColumns),
		log:      log,
	}
}

func (s *movieService) List(ctx context.Context, params filters.ListParams) ([]database.Movie, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&database.Movie{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}

	order, ok := s.filter.ListOrder(params.SortBy)
	query := filters.ApplyOrder(s.db.WithContext(ctx).Model(&database.Movie{}), order, ok)

	var movies []database.Movie
	if err := query.Scopes(filters.Paginate(params.Page, params.Size)).Preload("Genres").Find(&movies).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, total, nil
}

func (s *movieService) Search(ctx context.Context, params filters.SearchParams) ([]database.Movie, int64, error) {
	base := s.filter.ApplySearch(s.db.WithContext(ctx).Model(&database.Movie{}), params).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}

	order, ok := s.filter.SearchOrder(params.SortBy)
	var movies []database.Movie
	err := filters.ApplyOrder(base, order, ok).
		Scopes(filters.Paginate(params.Page, params.Size)).
		Preload("Genres").
		Find(&movies).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search movies: %w", err)
	}
	return movies, total, nil
}

func (s *movieService) Get(ctx context.Context, id string) (*database.Movie, error) {
	return s.first(s.db.WithContext(ctx), "id = ?", id, id)
}

func (s *movieService) GetByTMDBID(ctx context.Context, tmdbID int) (*database.Movie, error) {
	return s.first(s.db.WithContext(ctx), "tmdb_id = ?", tmdbID, strconv.Itoa(tmdbID))
}

func (s *movieService) first(db *gorm.DB, cond string, arg interface{}, label string) (*database.Movie, error) {
	var movie database.Movie
	if err := db.Preload("Genres").Where(cond, arg).First(&movie).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("Movie", label)
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return &movie, nil
}

func (s *movieService) Create(ctx context.Context, req types.MovieCreateRequest) (*database.Movie, error) {
	if existing, err := s.GetByTMDBID(ctx, req.TMDBID); err == nil {
		return existing, nil
	} else if !types.IsNotFound(err) {
		return nil, err
	}

	movie := database.Movie{
		TMDBID:           req.TMDBID,
		Title:            req.Title,
		OriginalTitle:    req.OriginalTitle,
		Overview:         req.Overview,
		PosterPath:       req.PosterPath,
		BackdropPath:     req.BackdropPath,
		ReleaseDate:      req.ReleaseDate.TimePtr(),
		Popularity:       req.Popularity,
		VoteAverage:      req.VoteAverage,
		VoteCount:        req.VoteCount,
		Adult:            req.Adult,
		OriginalLanguage: req.OriginalLanguage,
	}
	setCredits(&movie, req.Credits)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		genres, err := s.genres.ResolveUpstream(ctx, tx, database.MediaKindMovie, req.GenreIDs)
		if err != nil {
			return err
		}
		movie.Genres = genres
		if err := tx.Create(&movie).Error; err != nil {
			return fmt.Errorf("failed to create movie: %w", err)
		}
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return s.GetByTMDBID(ctx, req.TMDBID)
		}
		return nil, err
	}
	return s.Get(ctx, movie.ID)
}

func (s *movieService) Update(ctx context.Context, id string, req types.MovieUpdateRequest) (*database.Movie, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		movie, err := s.first(tx, "id = ?", id, id)
		if err != nil {
			return err
		}

		applyUpdate(movie, req)
		if err := tx.Omit(clause.Associations).Save(movie).Error; err != nil {
			return fmt.Errorf("failed to update movie: %w", err)
		}

		// genres are only replaced when new ones are given
		if len(req.GenreIDs) > 0 {
			genres, err := s.genres.ResolveUpstream(ctx, tx, database.MediaKindMovie, req.GenreIDs)
			if err != nil {
				return err
			}
			if err := replaceGenres(tx, movie, genres); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the movie together with its genre links, watchlist
// entries and ratings
func (s *movieService) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		movie, err := s.first(tx, "id = ?", id, id)
		if err != nil {
			return err
		}

		for _, table := range []string{"movie_genres", "user_movie_watchlist", "movie_ratings"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE movie_id = ?", movie.ID).Error; err != nil {
				return fmt.Errorf("failed to delete movie references from %s: %w", table, err)
			}
		}
		if err := tx.Delete(&database.Movie{ID: movie.ID}).Error; err != nil {
			return fmt.Errorf("failed to delete movie: %w", err)
		}
		return nil
	})
}

func (s *movieService) SyncFromUpstream(ctx context.Context, tmdbID int) (*database.Movie, error) {
	details, err := s.upstream.MovieDetails(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	fields := mapMovie(details, s.log)
	genreIDs := upstreamGenreIDs(details.Genres)

	id, created, err := s.upsert(ctx, fields, genreIDs)
	if database.IsUniqueViolation(err) {
		// a concurrent sync inserted the row first; the second pass updates it
		s.log.Debug("movie inserted concurrently, re-reading", "tmdb_id", tmdbID)
		id, created, err = s.upsert(ctx, fields, genreIDs)
	}
	if err != nil {
		metrics.SyncItems.WithLabelValues(syncKind, "failed").Inc()
		return nil, err
	}

	outcome := "updated"
	if created {
		outcome = "created"
	}
	metrics.SyncItems.WithLabelValues(syncKind, outcome).Inc()
	s.log.Debug("movie synced", "tmdb_id", tmdbID, "outcome", outcome)

	return s.Get(ctx, id)
}

// upsert writes fields onto the row with the same upstream id, or inserts
// a new row, and replaces its genres. It returns the row id.
func (s *movieService) upsert(ctx context.Context, fields database.Movie, genreIDs []int) (string, bool, error) {
	var (
		id      string
		created bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		genres, err := s.genres.ResolveUpstream(ctx, tx, database.MediaKindMovie, genreIDs)
		if err != nil {
			return err
		}

		var existing database.Movie
		err = tx.Where("tmdb_id = ?", fields.TMDBID).First(&existing).Error
		switch {
		case err == nil:
			fields.ID = existing.ID
			fields.CreatedAt = existing.CreatedAt
			if err := tx.Omit(clause.Associations).Save(&fields).Error; err != nil {
				return fmt.Errorf("failed to update movie %d: %w", fields.TMDBID, err)
			}
			if err := replaceGenres(tx, &fields, genres); err != nil {
				return err
			}
		case database.IsNotFound(err):
			fields.Genres = genres
			if err := tx.Create(&fields).Error; err != nil {
				return fmt.Errorf("failed to insert movie %d: %w", fields.TMDBID, err)
			}
			created = true
		default:
			return fmt.Errorf("failed to look up movie %d: %w", fields.TMDBID, err)
		}

		id = fields.ID
		return nil
	})
	return id, created, err
}

func (s *movieService) SyncPopular(ctx context.Context, page int) (*types.BatchResult[database.Movie], error) {
	listing, err := s.upstream.PopularMovies(ctx, page)
	if err != nil {
		return nil, err
	}

	result := types.NewBatchResult[database.Movie]()
	for _, item := range listing.Results {
		movie, err := s.SyncFromUpstream(ctx, item.ID)
		if err != nil {
			s.log.Error("error syncing movie", "tmdb_id", item.ID, "error", err)
			result.AddFailure(item.ID, err)
			continue
		}
		result.Succeeded = append(result.Succeeded, *movie)
	}

	s.log.Info("popular movies synced", "page", page, "succeeded", len(result.Succeeded), "failed", len(result.Failed))
	return result, nil
}

func (s *movieService) GetOrSync(ctx context.Context, tmdbID int) (*database.Movie, error) {
	movie, err := s.GetByTMDBID(ctx, tmdbID)
	if err == nil {
		return movie, nil
	}
	if !types.IsNotFound(err) {
		return nil, err
	}
	return s.SyncFromUpstream(ctx, tmdbID)
}

func replaceGenres(tx *gorm.DB, movie *database.Movie, genres []database.Genre) error {
	assoc := tx.Model(movie).Association("Genres")
	var err error
	if len(genres) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(genres)
	}
	if err != nil {
		return fmt.Errorf("failed to replace movie genres: %w", err)
	}
	return nil
}

func setCredits(m *database.Movie, c types.Credits) {
	m.DirectorName, m.DirectorTMDBID = c.DirectorName, c.DirectorTMDBID
	m.Actor1Name, m.Actor1TMDBID = c.Actor1Name, c.Actor1TMDBID
	m.Actor2Name, m.Actor2TMDBID = c.Actor2Name, c.Actor2TMDBID
	m.Actor3Name, m.Actor3TMDBID = c.Actor3Name, c.Actor3TMDBID
}

// applyUpdate copies the non-nil fields of req onto m
func applyUpdate(m *database.Movie, req types.MovieUpdateRequest) {
	if req.Title != nil {
		m.Title = *req.Title
	}
	if req.Adult != nil {
		m.Adult = *req.Adult
	}
	if req.ReleaseDate != nil {
		m.ReleaseDate = req.ReleaseDate.TimePtr()
	}
	setIf(&m.OriginalTitle, req.OriginalTitle)
	setIf(&m.Overview, req.Overview)
	setIf(&m.PosterPath, req.PosterPath)
	setIf(&m.BackdropPath, req.BackdropPath)
	setIf(&m.Popularity, req.Popularity)
	setIf(&m.VoteAverage, req.VoteAverage)
	setIf(&m.VoteCount, req.VoteCount)
	setIf(&m.OriginalLanguage, req.OriginalLanguage)
	setIf(&m.DirectorName, req.DirectorName)
	setIf(&m.DirectorTMDBID, req.DirectorTMDBID)
	setIf(&m.Actor1Name, req.Actor1Name)
	setIf(&m.Actor1TMDBID, req.Actor1TMDBID)
	setIf(&m.Actor2Name, req.Actor2Name)
	setIf(&m.Actor2TMDBID, req.Actor2TMDBID)
	setIf(&m.Actor3Name, req.Actor3Name)
	setIf(&m.Actor3TMDBID, req.Actor3TMDBID)
}

func setIf[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}
