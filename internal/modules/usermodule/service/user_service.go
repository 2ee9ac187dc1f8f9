// Package service implements accounts, watchlists and ratings
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/cinecache/internal/auth"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/mantonx/cinecache/internal/types"
	"gorm.io/gorm"
)

// Account error messages
const (
	MsgEmailTaken      = "Email already registered"
	MsgUsernameTaken   = "Username already taken"
	MsgBadLogin        = "Incorrect username or password"
	MsgRatingNotFound  = "Rating not found"
	tokenTypeBearer    = "bearer"
	defaultListLimit   = 100
	userResourceName   = "User"
	movieResourceName  = "Movie"
	tvShowResourceName = "TV show"
)

type userService struct {
	db         *gorm.DB
	tx         *database.TransactionManager
	tokens     *auth.TokenManager
	bcryptCost int
	log        hclog.Logger
}

// NewUserService creates the user service
func NewUserService(db *gorm.DB, tokens *auth.TokenManager, bcryptCost int, log hclog.Logger) services.UserService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &userService{
		db:         db,
		tx:         database.NewTransactionManager(db),
		tokens:     tokens,
		bcryptCost: bcryptCost,
		log:        log,
	}
}

// Login authenticates by username. A missing user and a wrong password
// produce the same error.
func (s *userService) Login(ctx context.Context, username, password string) (*types.TokenResponse, error) {
	var user database.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil && !database.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err != nil || !auth.CheckPassword(user.HashedPassword, password) {
		s.log.Debug("login rejected", "username", username)
		return nil, types.NewUnauthorizedError(MsgBadLogin).WithHeader("WWW-Authenticate", "Bearer")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, types.NewInternalError("failed to issue token", err)
	}
	return &types.TokenResponse{AccessToken: token, TokenType: tokenTypeBearer}, nil
}

func (s *userService) Register(ctx context.Context, req types.UserCreateRequest) (*database.User, error) {
	return s.create(ctx, req.Email, req.Username, req.Password, false)
}

func (s *userService) EnsureSuperuser(ctx context.Context, username, email, password string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&database.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to look up superuser: %w", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.create(ctx, email, username, password, true); err != nil {
		return err
	}
	s.log.Info("created first superuser", "username", username)
	return nil
}

// hashPassword rejects passwords bcrypt cannot take as a client error.
// The binding tags count runes, so multi-byte input can still get here.
func (s *userService) hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		e := types.NewValidationError("invalid password",
			fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
		e.HTTPStatus = http.StatusUnprocessableEntity
		return "", e.WithContext("field", "password")
	}
	if err != nil {
		return "", types.NewInternalError("failed to hash password", err)
	}
	return hash, nil
}

func (s *userService) create(ctx context.Context, email, username, password string, superuser bool) (*database.User, error) {
	if err := s.checkUnique(ctx, "", &email, &username); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := database.User{
		Email:          email,
		Username:       username,
		HashedPassword: hash,
		IsActive:       true,
		IsSuperuser:    superuser,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, s.conflictAfterRace(ctx, "", email, username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// checkUnique rejects an email or username held by a user other than selfID
func (s *userService) checkUnique(ctx context.Context, selfID string, email, username *string) error {
	if email != nil {
		taken, err := s.taken(ctx, selfID, "email", *email)
		if err != nil {
			return err
		}
		if taken {
			return types.NewConflictError(MsgEmailTaken)
		}
	}
	if username != nil {
		taken, err := s.taken(ctx, selfID, "username", *username)
		if err != nil {
			return err
		}
		if taken {
			return types.NewConflictError(MsgUsernameTaken)
		}
	}
	return nil
}

func (s *userService) taken(ctx context.Context, selfID, column, value string) (bool, error) {
	query := s.db.WithContext(ctx).Model(&database.User{}).Where(column+" = ?", value)
	if selfID != "" {
		query = query.Where("id <> ?", selfID)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check %s: %w", column, err)
	}
	return n > 0, nil
}

// conflictAfterRace names the column a concurrent writer claimed first
func (s *userService) conflictAfterRace(ctx context.Context, selfID, email, username string) error {
	if err := s.checkUnique(ctx, selfID, &email, &username); err != nil {
		return err
	}
	return types.NewConflictError(MsgEmailTaken)
}

func (s *userService) List(ctx context.Context, skip, limit int) ([]database.User, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var users []database.User
	if err := s.db.WithContext(ctx).Order("created_at").Offset(skip).Limit(limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, id string) (*database.User, error) {
	return s.get(s.db.WithContext(ctx), id)
}

func (s *userService) get(db *gorm.DB, id string) (*database.User, error) {
	var user database.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError(userResourceName, id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *userService) Update(ctx context.Context, id string, req types.UserUpdateRequest) (*database.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkUnique(ctx, id, changed(user.Email, req.Email), changed(user.Username, req.Username)); err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}
	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.HashedPassword = hash
	}

	if err := s.db.WithContext(ctx).Omit("WatchlistMovies", "WatchlistTVShows", "MovieRatings", "TVShowRatings").Save(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, s.conflictAfterRace(ctx, id, user.Email, user.Username)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// changed returns v when it differs from current
func changed(current string, v *string) *string {
	if v == nil || *v == current {
		return nil
	}
	return v
}

// Delete removes the user with its watchlists and ratings
func (s *userService) Delete(ctx context.Context, id string) error {
	return s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.get(tx, id); err != nil {
			return err
		}
		for _, table := range []string{"user_movie_watchlist", "user_tv_show_watchlist", "movie_ratings", "tv_show_ratings"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE user_id = ?", id).Error; err != nil {
				return fmt.Errorf("failed to delete user references from %s: %w", table, err)
			}
		}
		if err := tx.Delete(&database.User{ID: id}).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}
