package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/types"
	"gorm.io/gorm"
)

func (s *userService) MovieRatings(ctx context.Context, userID string) ([]database.MovieRating, error) {
	var ratings []database.MovieRating
	err := s.db.WithContext(ctx).
		Preload("Movie.Genres").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list movie ratings: %w", err)
	}
	return ratings, nil
}

// RateMovie writes the rating in place when the user already rated the
// movie, so the rating id is stable across re-rates
func (s *userService) RateMovie(ctx context.Context, userID string, req types.MovieRatingCreateRequest) (*database.MovieRating, error) {
	if err := s.exists(ctx, &database.Movie{}, req.MovieID, movieResourceName); err != nil {
		return nil, err
	}

	upsert := func() error {
		return s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
			var rating database.MovieRating
			err := tx.Where("user_id = ? AND movie_id = ?", userID, req.MovieID).First(&rating).Error
			if database.IsNotFound(err) {
				rating = database.MovieRating{UserID: userID, MovieID: req.MovieID, Rating: *req.Rating, Comment: req.Comment}
				return tx.Create(&rating).Error
			}
			if err != nil {
				return err
			}
			rating.Rating, rating.Comment = *req.Rating, req.Comment
			return tx.Omit("Movie").Save(&rating).Error
		})
	}

	err := upsert()
	if database.IsUniqueViolation(err) {
		err = upsert()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rate movie: %w", err)
	}
	return s.movieRating(s.db.WithContext(ctx), userID, req.MovieID)
}

func (s *userService) UpdateMovieRating(ctx context.Context, userID, movieID string, req types.RatingUpdateRequest) (*database.MovieRating, error) {
	rating, err := s.movieRating(s.db.WithContext(ctx), userID, movieID)
	if err != nil {
		return nil, err
	}
	if req.Rating != nil {
		rating.Rating = *req.Rating
	}
	if req.Comment != nil {
		rating.Comment = req.Comment
	}
	if err := s.db.WithContext(ctx).Omit("Movie").Save(rating).Error; err != nil {
		return nil, fmt.Errorf("failed to update movie rating: %w", err)
	}
	return rating, nil
}

func (s *userService) DeleteMovieRating(ctx context.Context, userID, movieID string) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(&database.MovieRating{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete movie rating: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ratingNotFound(movieID)
	}
	return nil
}

func (s *userService) movieRating(db *gorm.DB, userID, movieID string) (*database.MovieRating, error) {
	var rating database.MovieRating
	if err := db.Preload("Movie.Genres").Where("user_id = ? AND movie_id = ?", userID, movieID).First(&rating).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ratingNotFound(movieID)
		}
		return nil, fmt.Errorf("failed to get movie rating: %w", err)
	}
	return &rating, nil
}

func (s *userService) TVShowRatings(ctx context.Context, userID string) ([]database.TVShowRating, error) {
	var ratings []database.TVShowRating
	err := s.db.WithContext(ctx).
		Preload("TVShow.Genres").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tv show ratings: %w", err)
	}
	return ratings, nil
}

func (s *userService) RateTVShow(ctx context.Context, userID string, req types.TVShowRatingCreateRequest) (*database.TVShowRating, error) {
	if err := s.exists(ctx, &database.TVShow{}, req.TVShowID, tvShowResourceName); err != nil {
		return nil, err
	}

	upsert := func() error {
		return s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
			var rating database.TVShowRating
			err := tx.Where("user_id = ? AND tv_show_id = ?", userID, req.TVShowID).First(&rating).Error
			if database.IsNotFound(err) {
				rating = database.TVShowRating{UserID: userID, TVShowID: req.TVShowID, Rating: *req.Rating, Comment: req.Comment}
				return tx.Create(&rating).Error
			}
			if err != nil {
				return err
			}
			rating.Rating, rating.Comment = *req.Rating, req.Comment
			return tx.Omit("TVShow").Save(&rating).Error
		})
	}

	err := upsert()
	if database.IsUniqueViolation(err) {
		err = upsert()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rate tv show: %w", err)
	}
	return s.tvShowRating(s.db.WithContext(ctx), userID, req.TVShowID)
}

func (s *userService) UpdateTVShowRating(ctx context.Context, userID, tvShowID string, req types.RatingUpdateRequest) (*database.TVShowRating, error) {
	rating, err := s.tvShowRating(s.db.WithContext(ctx), userID, tvShowID)
	if err != nil {
		return nil, err
	}
	if req.Rating != nil {
		rating.Rating = *req.Rating
	}
	if req.Comment != nil {
		rating.Comment = req.Comment
	}
	if err := s.db.WithContext(ctx).Omit("TVShow").Save(rating).Error; err != nil {
		return nil, fmt.Errorf("failed to update tv show rating: %w", err)
	}
	return rating, nil
}

func (s *userService) DeleteTVShowRating(ctx context.Context, userID, tvShowID string) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND tv_show_id = ?", userID, tvShowID).Delete(&database.TVShowRating{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete tv show rating: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ratingNotFound(tvShowID)
	}
	return nil
}

func (s *userService) tvShowRating(db *gorm.DB, userID, tvShowID string) (*database.TVShowRating, error) {
	var rating database.TVShowRating
	if err := db.Preload("TVShow.Genres").Where("user_id = ? AND tv_show_id = ?", userID, tvShowID).First(&rating).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ratingNotFound(tvShowID)
		}
		return nil, fmt.Errorf("failed to get tv show rating: %w", err)
	}
	return &rating, nil
}

func ratingNotFound(mediaID string) error {
	return types.NewAppError(types.ErrorCodeNotFound, MsgRatingNotFound, http.StatusNotFound).WithContext("media_id", mediaID)
}
