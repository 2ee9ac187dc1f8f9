// Package service implements tv show storage, search and upstream reconciliation
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

const syncKind = "tv"

// tables holding rows that point at a show
var referencingTables = []string{"tv_show_genres", "user_tv_show_watchlist", "tv_show_ratings"}

// Upstream is the part of the catalog client the tv service needs
type Upstream interface {
	TVDetails(ctx context.Context, id int) (*client.TVDetails, error)
	PopularTV(ctx context.Context, page int) (*client.ListResponse, error)
}

type tvShowService struct {
	db       *gorm.DB
	upstream Upstream
	genres   services.GenreService
	filter   *filters.CatalogFilter
	log      hclog.Logger
}

// NewTVShowService creates the tv show service
func NewTVShowService(db *gorm.DB, upstream Upstream, genres services.GenreService, log hclog.Logger) services.TVShowService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &tvShowService{
		db:       db,
		upstream: upstream,
		genres:   genres,
		filter:   filters.NewCatalogFilter(filters.TVShowColumns),
		log:      log,
	}
}

func (s *tvShowService) model(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&database.TVShow{})
}

func (s *tvShowService) List(ctx context.Context, params filters.ListParams) ([]database.TVShow, int64, error) {
	var total int64
	if err := s.model(ctx).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tv shows: %w", err)
	}

	order, ok := s.filter.ListOrder(params.SortBy)
	var shows []database.TVShow
	err := filters.ApplyOrder(s.model(ctx), order, ok).
		Scopes(filters.Paginate(params.Page, params.Size)).
		Preload("Genres").
		Find(&shows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tv shows: %w", err)
	}
	return shows, total, nil
}

func (s *tvShowService) Search(ctx context.Context, params filters.SearchParams) ([]database.TVShow, int64, error) {
	base := s.filter.ApplySearch(s.model(ctx), params).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tv shows: %w", err)
	}

	order, ok := s.filter.SearchOrder(params.SortBy)
	var shows []database.TVShow
	err := filters.ApplyOrder(base, order, ok).
		Scopes(filters.Paginate(params.Page, params.Size)).
		Preload("Genres").
		Find(&shows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search tv shows: %w", err)
	}
	return shows, total, nil
}

func (s *tvShowService) Get(ctx context.Context, id string) (*database.TVShow, error) {
	return s.first(s.db.WithContext(ctx), "id = ?", id, id)
}

func (s *tvShowService) GetByTMDBID(ctx context.Context, tmdbID int) (*database.TVShow, error) {
	return s.first(s.db.WithContext(ctx), "tmdb_id = ?", tmdbID, strconv.Itoa(tmdbID))
}

func (s *tvShowService) first(db *gorm.DB, cond string, arg interface{}, label string) (*database.TVShow, error) {
	var show database.TVShow
	if err := db.Preload("Genres").Where(cond, arg).First(&show).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("TV show", label)
		}
		return nil, fmt.Errorf("failed to get tv show: %w", err)
	}
	return &show, nil
}

func (s *tvShowService) Create(ctx context.Context, req types.TVShowCreateRequest) (*database.TVShow, error) {
	if existing, err := s.GetByTMDBID(ctx, req.TMDBID); err == nil {
		return existing, nil
	} else if !types.IsNotFound(err) {
		return nil, err
	}

	kind := database.TVShowTypeTV
	if req.Type != nil {
		kind = *req.Type
	}
	show := database.TVShow{
		TMDBID:           req.TMDBID,
		Name:             req.Name,
		OriginalName:     req.OriginalName,
		Overview:         req.Overview,
		PosterPath:       req.PosterPath,
		BackdropPath:     req.BackdropPath,
		FirstAirDate:     req.FirstAirDate.TimePtr(),
		Popularity:       req.Popularity,
		VoteAverage:      req.VoteAverage,
		VoteCount:        req.VoteCount,
		OriginalLanguage: req.OriginalLanguage,
		NumberOfSeasons:  req.NumberOfSeasons,
		NumberOfEpisodes: req.NumberOfEpisodes,
		Status:           req.Status,
		Type:             &kind,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		genres, err := s.genres.ResolveUpstream(ctx, tx, database.MediaKindTV, req.GenreIDs)
		if err != nil {
			return err
		}
		show.Genres = genres
		if err := tx.Create(&show).Error; err != nil {
			return fmt.Errorf("failed to create tv show: %w", err)
		}
		return nil
	})
	switch {
	case database.IsUniqueViolation(err):
		return s.GetByTMDBID(ctx, req.TMDBID)
	case err != nil:
		return nil, err
	}
	return s.Get(ctx, show.ID)
}

func (s *tvShowService) Update(ctx context.Context, id string, req types.TVShowUpdateRequest) (*database.TVShow, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		show, err := s.first(tx, "id = ?", id, id)
		if err != nil {
			return err
		}

		applyUpdate(show, req)
		if err := tx.Omit(clause.Associations).Save(show).Error; err != nil {
			return fmt.Errorf("failed to update tv show: %w", err)
		}

		if len(req.GenreIDs) == 0 {
			return nil
		}
		genres, err := s.genres.ResolveUpstream(ctx, tx, database.MediaKindTV, req.GenreIDs)
		if err != nil {
			return err
		}
		return replaceGenres(tx, show, genres)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the show together with its genre links, watchlist
// entries and ratings
func (s *tvShowService) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		show, err := s.first(tx, "id = ?", id, id)
		if err != nil {
			return err
		}

		for _, table := range referencingTables {
			if err := tx.Exec("DELETE FROM "+table+" WHERE tv_show_id = ?", show.ID).Error; err != nil {
				return fmt.Errorf("failed to delete tv show references from %s: %w", table, err)
			}
		}
		if err := tx.Delete(&database.TVShow{ID: show.ID}).Error; err != nil {
			return fmt.Errorf("failed to delete tv show: %w", err)
		}
		return nil
	})
}

func (s *tvShowService) SyncFromUpstream(ctx context.Context, tmdbID int) (*database.TVShow, error) {
	details, err := s.upstream.TVDetails(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	fields := mapTVShow(details, s.log)
	genreIDs := upstreamGenreIDs(details.Genres)

	id, created, err := s.upsert(ctx, fields, genreIDs)
	if database.IsUniqueViolation(err) {
		s.log.Debug("tv show inserted concurrently, re-reading", "tmdb_id", tmdbID)
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
	s.log.Debug("tv show synced", "tmdb_id", tmdbID, "type", *fields.Type, "outcome", outcome)

	return s.Get(ctx, id)
}

// upsert writes fields onto the row with the same upstream id, or inserts
// a new row, and replaces its genres. It returns the row id.
func (s *tvShowService) upsert(ctx context.Context, fields database.TVShow, genreIDs []int) (string, bool, error) {
	var (
		id      string
		created bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		genres, err := s.genres.ResolveUpstream(ctx, tx, database.MediaKindTV, genreIDs)
		if err != nil {
			return err
		}

		var existing database.TVShow
		err = tx.Where("tmdb_id = ?", fields.TMDBID).First(&existing).Error
		switch {
		case err == nil:
			fields.ID = existing.ID
			fields.CreatedAt = existing.CreatedAt
			if err := tx.Omit(clause.Associations).Save(&fields).Error; err != nil {
				return fmt.Errorf("failed to update tv show %d: %w", fields.TMDBID, err)
			}
			if err := replaceGenres(tx, &fields, genres); err != nil {
				return err
			}
		case database.IsNotFound(err):
			fields.Genres = genres
			if err := tx.Create(&fields).Error; err != nil {
				return fmt.Errorf("failed to insert tv show %d: %w", fields.TMDBID, err)
			}
			created = true
		default:
			return fmt.Errorf("failed to look up tv show %d: %w", fields.TMDBID, err)
		}

		id = fields.ID
		return nil
	})
	return id, created, err
}

func (s *tvShowService) SyncPopular(ctx context.Context, page int) (*types.BatchResult[database.TVShow], error) {
	listing, err := s.upstream.PopularTV(ctx, page)
	if err != nil {
		return nil, err
	}

	result := types.NewBatchResult[database.TVShow]()
	for _, item := range listing.Results {
		show, err := s.SyncFromUpstream(ctx, item.ID)
		if err != nil {
			s.log.Error("error syncing tv show", "tmdb_id", item.ID, "error", err)
			result.AddFailure(item.ID, err)
			continue
		}
		result.Succeeded = append(result.Succeeded, *show)
	}

	s.log.Info("popular tv shows synced", "page", page, "succeeded", len(result.Succeeded), "failed", len(result.Failed))
	return result, nil
}

func (s *tvShowService) GetOrSync(ctx context.Context, tmdbID int) (*database.TVShow, error) {
	show, err := s.GetByTMDBID(ctx, tmdbID)
	if types.IsNotFound(err) {
		return s.SyncFromUpstream(ctx, tmdbID)
	}
	return show, err
}

func replaceGenres(tx *gorm.DB, show *database.TVShow, genres []database.Genre) error {
	assoc := tx.Model(show).Association("Genres")
	var err error
	if len(genres) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(genres)
	}
	if err != nil {
		return fmt.Errorf("failed to replace tv show genres: %w", err)
	}
	return nil
}

// applyUpdate copies the non-nil fields of req onto show
func applyUpdate(show *database.TVShow, req types.TVShowUpdateRequest) {
	if req.Name != nil {
		show.Name = *req.Name
	}
	if req.FirstAirDate != nil {
		show.FirstAirDate = req.FirstAirDate.TimePtr()
	}
	setIf(&show.OriginalName, req.OriginalName)
	setIf(&show.Overview, req.Overview)
	setIf(&show.PosterPath, req.PosterPath)
	setIf(&show.BackdropPath, req.BackdropPath)
	setIf(&show.Popularity, req.Popularity)
	setIf(&show.VoteAverage, req.VoteAverage)
	setIf(&show.VoteCount, req.VoteCount)
	setIf(&show.OriginalLanguage, req.OriginalLanguage)
	setIf(&show.NumberOfSeasons, req.NumberOfSeasons)
	setIf(&show.NumberOfEpisodes, req.NumberOfEpisodes)
	setIf(&show.Status, req.Status)
	setIf(&show.Type, req.Type)
}

func setIf[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}
