package service

import (
	"context"
	"fmt"

	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *userService) GetWithWatchlist(ctx context.Context, userID string) (*database.User, error) {
	var user database.User
	err := s.db.WithContext(ctx).
		Preload("WatchlistMovies", orderByName("movies.title")).
		Preload("WatchlistMovies.Genres").
		Preload("WatchlistTVShows", orderByName("tv_shows.name")).
		Preload("WatchlistTVShows.Genres").
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError(userResourceName, userID)
		}
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	return &user, nil
}

func orderByName(col string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Order(col) }
}

// AddMovieToWatchlist is idempotent; concurrent adds of the same movie
// leave a single entry
func (s *userService) AddMovieToWatchlist(ctx context.Context, userID, movieID string) (*database.User, error) {
	if err := s.exists(ctx, &database.Movie{}, movieID, movieResourceName); err != nil {
		return nil, err
	}
	entry := database.UserMovieWatchlist{UserID: userID, MovieID: movieID}
	if err := s.insertIgnore(ctx, &entry); err != nil {
		return nil, fmt.Errorf("failed to add movie to watchlist: %w", err)
	}
	return s.GetWithWatchlist(ctx, userID)
}

func (s *userService) RemoveMovieFromWatchlist(ctx context.Context, userID, movieID string) (*database.User, error) {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&database.UserMovieWatchlist{}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to remove movie from watchlist: %w", err)
	}
	return s.GetWithWatchlist(ctx, userID)
}

func (s *userService) AddTVShowToWatchlist(ctx context.Context, userID, tvShowID string) (*database.User, error) {
	if err := s.exists(ctx, &database.TVShow{}, tvShowID, tvShowResourceName); err != nil {
		return nil, err
	}
	entry := database.UserTVShowWatchlist{UserID: userID, TVShowID: tvShowID}
	if err := s.insertIgnore(ctx, &entry); err != nil {
		return nil, fmt.Errorf("failed to add tv show to watchlist: %w", err)
	}
	return s.GetWithWatchlist(ctx, userID)
}

func (s *userService) RemoveTVShowFromWatchlist(ctx context.Context, userID, tvShowID string) (*database.User, error) {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND tv_show_id = ?", userID, tvShowID).
		Delete(&database.UserTVShowWatchlist{}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to remove tv show from watchlist: %w", err)
	}
	return s.GetWithWatchlist(ctx, userID)
}

// insertIgnore inserts a join row unless its composite key already exists
func (s *userService) insertIgnore(ctx context.Context, row interface{}) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (s *userService) exists(ctx context.Context, model interface{}, id, resource string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to look up %s: %w", resource, err)
	}
	if n == 0 {
		return types.NewNotFoundError(resource, id)
	}
	return nil
}
