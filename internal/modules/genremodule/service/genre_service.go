// Package service implements the genre taxonomy and its upstream reconciliation
package service

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/modules/catalogmodule/client"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/mantonx/cinecache/internal/types"
	"gorm.io/gorm"
)

// Upstream is the part of the catalog client the genre service needs
type Upstream interface {
	MovieGenres(ctx context.Context) ([]client.Genre, error)
	TVGenres(ctx context.Context) ([]client.Genre, error)
}

type genreService struct {
	db       *gorm.DB
	upstream Upstream
	log      hclog.Logger
}

// NewGenreService creates the genre service
func NewGenreService(db *gorm.DB, upstream Upstream, log hclog.Logger) services.GenreService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &genreService{db: db, upstream: upstream, log: log}
}

func (s *genreService) List(ctx context.Context, kind database.MediaKind) ([]database.Genre, error) {
	query := s.db.WithContext(ctx).Order("name ASC")
	if kind != "" {
		query = query.Where("type = ?", kind)
	}

	var genres []database.Genre
	if err := query.Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, nil
}

func (s *genreService) Get(ctx context.Context, id string) (*database.Genre, error) {
	var genre database.Genre
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&genre).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("Genre", id)
		}
		return nil, fmt.Errorf("failed to get genre: %w", err)
	}
	return &genre, nil
}

func (s *genreService) Create(ctx context.Context, req types.GenreCreateRequest) (*database.Genre, error) {
	return s.findOrCreate(s.db.WithContext(ctx), req.TMDBID, req.Name, database.MediaKind(req.Type))
}

func (s *genreService) Update(ctx context.Context, id string, req types.GenreUpdateRequest) (*database.Genre, error) {
	genre, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		genre.Name = *req.Name
	}
	if req.Type != nil {
		genre.Type = database.MediaKind(*req.Type)
	}

	if err := s.db.WithContext(ctx).Save(genre).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, types.NewConflictError(fmt.Sprintf("genre %d already exists for type %s", genre.TMDBID, genre.Type))
		}
		return nil, fmt.Errorf("failed to update genre: %w", err)
	}
	return genre, nil
}

// Delete removes the genre and its memberships in one transaction
func (s *genreService) Delete(ctx context.Context, id string) error {
	genre, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"movie_genres", "tv_show_genres"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE genre_id = ?", genre.ID).Error; err != nil {
				return fmt.Errorf("failed to unlink genre: %w", err)
			}
		}
		if err := tx.Delete(genre).Error; err != nil {
			return fmt.Errorf("failed to delete genre: %w", err)
		}
		return nil
	})
}

func (s *genreService) SyncFromUpstream(ctx context.Context) ([]database.Genre, []database.Genre, error) {
	movieGenres, err := s.upstream.MovieGenres(ctx)
	if err != nil {
		return nil, nil, err
	}
	tvGenres, err := s.upstream.TVGenres(ctx)
	if err != nil {
		return nil, nil, err
	}

	movies, err := s.reconcile(ctx, database.MediaKindMovie, movieGenres)
	if err != nil {
		return nil, nil, err
	}
	tv, err := s.reconcile(ctx, database.MediaKindTV, tvGenres)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("genres synced", "movie", len(movies), "tv", len(tv))
	return movies, tv, nil
}

func (s *genreService) reconcile(ctx context.Context, kind database.MediaKind, upstream []client.Genre) ([]database.Genre, error) {
	out := make([]database.Genre, 0, len(upstream))
	db := s.db.WithContext(ctx)
	for _, g := range upstream {
		genre, err := s.findOrCreate(db, g.ID, g.Name, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, *genre)
	}
	return out, nil
}

// findOrCreate returns the genre keyed by (tmdbID, kind), inserting it when
// absent. An existing genre keeps its name.
func (s *genreService) findOrCreate(db *gorm.DB, tmdbID int, name string, kind database.MediaKind) (*database.Genre, error) {
	existing, err := s.byUpstream(db, tmdbID, kind)
	if err == nil {
		return existing, nil
	}
	if !database.IsNotFound(err) {
		return nil, err
	}

	genre := &database.Genre{TMDBID: tmdbID, Name: name, Type: kind}
	if err := db.Create(genre).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// lost the race against a concurrent insert
			return s.byUpstream(db, tmdbID, kind)
		}
		return nil, fmt.Errorf("failed to create genre: %w", err)
	}
	return genre, nil
}

func (s *genreService) byUpstream(db *gorm.DB, tmdbID int, kind database.MediaKind) (*database.Genre, error) {
	var genre database.Genre
	err := db.Where("tmdb_id = ? AND type = ?", tmdbID, kind).First(&genre).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up genre %d: %w", tmdbID, err)
	}
	return &genre, nil
}

func (s *genreService) ResolveUpstream(ctx context.Context, tx *gorm.DB, kind database.MediaKind, upstreamIDs []int) ([]database.Genre, error) {
	genres := []database.Genre{}
	if len(upstreamIDs) == 0 {
		return genres, nil
	}
	if tx == nil {
		tx = s.db
	}

	if err := tx.WithContext(ctx).Where("tmdb_id IN ? AND type = ?", upstreamIDs, kind).Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve genres: %w", err)
	}
	return genres, nil
}
