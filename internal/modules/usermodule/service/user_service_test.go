package service

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mantonx/cinecache/internal/auth"
	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/mantonx/cinecache/internal/testutil"
	"github.com/mantonx/cinecache/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *auth.TokenManager, services.UserService) {
	db := testutil.NewTestDB(t)
	tokens, err := auth.NewTokenManager(config.SecurityConfig{SecretKey: "k", AccessTokenExpire: time.Hour})
	require.NoError(t, err)
	return db, tokens, NewUserService(db, tokens, bcrypt.MinCost, nil)
}

func register(t *testing.T, svc services.UserService, username string) *database.User {
	t.Helper()
	u, err := svc.Register(context.Background(), types.UserCreateRequest{
		Email:    username + "@example.com",
		Username: username,
		Password: "hunter2",
	})
	require.NoError(t, err)
	return u
}

func TestRegisterIgnoresPrivilegeFlags(t *testing.T) {
	_, _, svc := setup(t)
	yes, no := true, false
	u, err := svc.Register(context.Background(), types.UserCreateRequest{
		Email: "eve@example.com", Username: "eve", Password: "pw", IsSuperuser: &yes, IsActive: &no,
	})
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsSuperuser)
	assert.NotEqual(t, "pw", u.HashedPassword)
}

func TestRegisterConflicts(t *testing.T) {
	_, _, svc := setup(t)
	register(t, svc, "ann")
	ctx := context.Background()

	_, err := svc.Register(ctx, types.UserCreateRequest{Email: "ann@example.com", Username: "other", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, types.ErrorCodeConflict, types.CodeOf(err))
	assert.Equal(t, MsgEmailTaken, err.(*types.AppError).Message)
	assert.Equal(t, 400, err.(*types.AppError).HTTPStatus)

	_, err = svc.Register(ctx, types.UserCreateRequest{Email: "new@example.com", Username: "ann", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, MsgUsernameTaken, err.(*types.AppError).Message)
}

func TestLogin(t *testing.T) {
	_, tokens, svc := setup(t)
	u := register(t, svc, "ann")
	ctx := context.Background()

	resp, err := svc.Login(ctx, "ann", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	sub, err := tokens.Validate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sub)

	for _, creds := range [][2]string{{"ann", "wrong"}, {"nobody", "hunter2"}} {
		_, err := svc.Login(ctx, creds[0], creds[1])
		require.Error(t, err)
		assert.Equal(t, types.ErrorCodeUnauthorized, types.CodeOf(err))
		assert.Equal(t, MsgBadLogin, err.(*types.AppError).Message)
	}
}

func TestUpdateRechecksUniquenessAndRehashes(t *testing.T) {
	_, _, svc := setup(t)
	ctx := context.Background()
	ann := register(t, svc, "ann")
	register(t, svc, "bob")

	taken := "bob"
	_, err := svc.Update(ctx, ann.ID, types.UserUpdateRequest{Username: &taken})
	assert.Equal(t, MsgUsernameTaken, err.(*types.AppError).Message)

	// keeping one's own email is not a conflict
	same := "ann@example.com"
	pw := "new-password"
	updated, err := svc.Update(ctx, ann.ID, types.UserUpdateRequest{Email: &same, Password: &pw})
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(updated.HashedPassword, "new-password"))

	_, err = svc.Login(ctx, "ann", "hunter2")
	assert.Error(t, err)
	_, err = svc.Login(ctx, "ann", "new-password")
	assert.NoError(t, err)

	_, err = svc.Update(ctx, "7f9c2f4e-6a1b-4c3d-9e8f-0a1b2c3d4e5f", types.UserUpdateRequest{})
	assert.True(t, types.IsNotFound(err))
}

func TestEnsureSuperuserIsIdempotent(t *testing.T) {
	db, _, svc := setup(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureSuperuser(ctx, "admin", "admin@example.com", "changethis"))
	require.NoError(t, svc.EnsureSuperuser(ctx, "admin", "admin@example.com", "changethis"))

	var users []database.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsSuperuser)
	assert.True(t, users[0].IsActive)
}

func TestListUsesSkipAndLimit(t *testing.T) {
	_, _, svc := setup(t)
	for _, name := range []string{"a", "b", "c"} {
		register(t, svc, name)
	}
	users, err := svc.List(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, users, 1)

	users, err = svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestWatchlist(t *testing.T) {
	db, _, svc := setup(t)
	ctx := context.Background()
	u := register(t, svc, "ann")
	movie := testutil.CreateMovie(t, db, 550, "Fight Club")
	show := testutil.CreateTVShow(t, db, 1399, "Game of Thrones")

	withList, err := svc.AddMovieToWatchlist(ctx, u.ID, movie.ID)
	require.NoError(t, err)
	require.Len(t, withList.WatchlistMovies, 1)

	withList, err = svc.AddMovieToWatchlist(ctx, u.ID, movie.ID)
	require.NoError(t, err)
	assert.Len(t, withList.WatchlistMovies, 1)

	withList, err = svc.AddTVShowToWatchlist(ctx, u.ID, show.ID)
	require.NoError(t, err)
	assert.Len(t, withList.WatchlistTVShows, 1)

	_, err = svc.AddMovieToWatchlist(ctx, u.ID, show.ID)
	require.Error(t, err)
	assert.Equal(t, "Movie not found", err.(*types.AppError).Message)

	withList, err = svc.RemoveMovieFromWatchlist(ctx, u.ID, movie.ID)
	require.NoError(t, err)
	assert.Empty(t, withList.WatchlistMovies)
	assert.Len(t, withList.WatchlistTVShows, 1)

	// removing an absent entry is not an error
	_, err = svc.RemoveTVShowFromWatchlist(ctx, u.ID, movie.ID)
	assert.NoError(t, err)
}

func TestConcurrentWatchlistAdd(t *testing.T) {
	db, _, svc := setup(t)
	u := register(t, svc, "ann")
	movie := testutil.CreateMovie(t, db, 550, "Fight Club")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddMovieToWatchlist(context.Background(), u.ID, movie.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	withList, err := svc.GetWithWatchlist(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Len(t, withList.WatchlistMovies, 1)
}

func TestRateMovieKeepsRatingID(t *testing.T) {
	db, _, svc := setup(t)
	ctx := context.Background()
	u := register(t, svc, "ann")
	movie := testutil.CreateMovie(t, db, 550, "Fight Club")

	seven, nine := 7.0, 9.0
	comment := "great"
	first, err := svc.RateMovie(ctx, u.ID, types.MovieRatingCreateRequest{MovieID: movie.ID, Rating: &seven, Comment: &comment})
	require.NoError(t, err)
	require.NotNil(t, first.Movie)
	assert.Equal(t, "Fight Club", first.Movie.Title)

	second, err := svc.RateMovie(ctx, u.ID, types.MovieRatingCreateRequest{MovieID: movie.ID, Rating: &nine})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 9.0, second.Rating)
	assert.Nil(t, second.Comment)

	var n int64
	require.NoError(t, db.Model(&database.MovieRating{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	updated, err := svc.UpdateMovieRating(ctx, u.ID, movie.ID, types.RatingUpdateRequest{Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, 9.0, updated.Rating)
	assert.Equal(t, "great", *updated.Comment)

	ratings, err := svc.MovieRatings(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 1)

	require.NoError(t, svc.DeleteMovieRating(ctx, u.ID, movie.ID))
	err = svc.DeleteMovieRating(ctx, u.ID, movie.ID)
	require.Error(t, err)
	assert.Equal(t, MsgRatingNotFound, err.(*types.AppError).Message)

	_, err = svc.UpdateMovieRating(ctx, u.ID, movie.ID, types.RatingUpdateRequest{Rating: &seven})
	assert.True(t, types.IsNotFound(err))
}

func TestRateTVShow(t *testing.T) {
	db, _, svc := setup(t)
	ctx := context.Background()
	u := register(t, svc, "ann")
	show := testutil.CreateTVShow(t, db, 1399, "Game of Thrones")

	score := 8.5
	first, err := svc.RateTVShow(ctx, u.ID, types.TVShowRatingCreateRequest{TVShowID: show.ID, Rating: &score})
	require.NoError(t, err)
	require.NotNil(t, first.TVShow)

	score = 6
	second, err := svc.RateTVShow(ctx, u.ID, types.TVShowRatingCreateRequest{TVShowID: show.ID, Rating: &score})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 6.0, second.Rating)

	_, err = svc.RateTVShow(ctx, u.ID, types.TVShowRatingCreateRequest{TVShowID: u.ID, Rating: &score})
	assert.Equal(t, "TV show not found", err.(*types.AppError).Message)

	ratings, err := svc.TVShowRatings(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, ratings, 1)
	require.NoError(t, svc.DeleteTVShowRating(ctx, u.ID, show.ID))
}

func TestDeleteUserRemovesReferences(t *testing.T) {
	db, _, svc := setup(t)
	ctx := context.Background()
	u := register(t, svc, "ann")
	movie := testutil.CreateMovie(t, db, 550, "Fight Club")
	score := 5.0

	_, err := svc.AddMovieToWatchlist(ctx, u.ID, movie.ID)
	require.NoError(t, err)
	_, err = svc.RateMovie(ctx, u.ID, types.MovieRatingCreateRequest{MovieID: movie.ID, Rating: &score})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, u.ID))
	for _, table := range []string{"users", "user_movie_watchlist", "movie_ratings"} {
		var n int64
		require.NoError(t, db.Table(table).Count(&n).Error)
		assert.Zero(t, n, table)
	}
	assert.True(t, types.IsNotFound(svc.Delete(ctx, u.ID)))
}

func TestPasswordOverBcryptLimitIsValidationError(t *testing.T) {
	_, _, svc := setup(t)
	ctx := context.Background()

	// 37 runes but 74 bytes
	long := strings.Repeat("é", 37)
	_, err := svc.Register(ctx, types.UserCreateRequest{Email: "zed@example.com", Username: "zed", Password: long})
	require.Error(t, err)
	assert.Equal(t, types.ErrorCodeValidation, types.CodeOf(err))
	assert.Equal(t, http.StatusUnprocessableEntity, err.(*types.AppError).HTTPStatus)

	u := register(t, svc, "amy")
	_, err = svc.Update(ctx, u.ID, types.UserUpdateRequest{Password: &long})
	assert.Equal(t, types.ErrorCodeValidation, types.CodeOf(err))
}
