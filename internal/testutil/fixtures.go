package testutil

import (
	"testing"
	"time"

	"github.com/mantonx/cinecache/internal/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// StrPtr returns a pointer to s
func StrPtr(s string) *string { return &s }

// IntPtr returns a pointer to i
func IntPtr(i int) *int { return &i }

// FloatPtr returns a pointer to f
func FloatPtr(f float64) *float64 { return &f }

// Date returns midnight UTC on the given day
func Date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// CreateGenre inserts a genre row
func CreateGenre(t testing.TB, db *gorm.DB, tmdbID int, name string, kind database.MediaKind) *database.Genre {
	t.Helper()
	g := &database.Genre{TMDBID: tmdbID, Name: name, Type: kind}
	require.NoError(t, db.Create(g).Error)
	return g
}

// CreateMovie inserts a movie row with the given genres attached
func CreateMovie(t testing.TB, db *gorm.DB, tmdbID int, title string, genres ...database.Genre) *database.Movie {
	t.Helper()
	m := &database.Movie{TMDBID: tmdbID, Title: title, Genres: genres}
	require.NoError(t, db.Create(m).Error)
	return m
}

// CreateTVShow inserts a tv show row with the given genres attached
func CreateTVShow(t testing.TB, db *gorm.DB, tmdbID int, name string, genres ...database.Genre) *database.TVShow {
	t.Helper()
	s := &database.TVShow{TMDBID: tmdbID, Name: name, Genres: genres}
	require.NoError(t, db.Create(s).Error)
	return s
}

// CreateUser inserts an active user with a placeholder password hash
func CreateUser(t testing.TB, db *gorm.DB, username string, superuser bool) *database.User {
	t.Helper()
	u := &database.User{
		Email:          username + "@example.com",
		Username:       username,
		HashedPassword: "x",
		IsActive:       true,
		IsSuperuser:    superuser,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
