package service

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/modules/catalogmodule/client"
	"github.com/mantonx/cinecache/internal/types"
)

const directorJob = "Director"

// mapMovie converts an upstream movie into a row without id or genres.
// A release date that is not YYYY-MM-DD is dropped with a warning.
func mapMovie(d *client.MovieDetails, log hclog.Logger) database.Movie {
	movie := database.Movie{
		TMDBID:           d.ID,
		Title:            d.Title,
		OriginalTitle:    optional(d.OriginalTitle),
		Overview:         optional(d.Overview),
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		Popularity:       &d.Popularity,
		VoteAverage:      &d.VoteAverage,
		VoteCount:        &d.VoteCount,
		Adult:            d.Adult,
		OriginalLanguage: optional(d.OriginalLanguage),
	}

	if d.ReleaseDate != "" {
		date, err := types.ParseDate(d.ReleaseDate)
		if err != nil {
			log.Warn("invalid release date format", "tmdb_id", d.ID, "release_date", d.ReleaseDate)
		} else {
			movie.ReleaseDate = date.TimePtr()
		}
	}

	applyCredits(&movie, d.Credits)
	return movie
}

// applyCredits sets the first credited director and the first three cast members
func applyCredits(m *database.Movie, credits *client.Credits) {
	if credits == nil {
		return
	}

	for _, crew := range credits.Crew {
		if crew.Job == directorJob {
			m.DirectorName = optional(crew.Name)
			m.DirectorTMDBID = intPtr(crew.ID)
			break
		}
	}

	cast := credits.Cast
	if len(cast) > 0 {
		m.Actor1Name, m.Actor1TMDBID = optional(cast[0].Name), intPtr(cast[0].ID)
	}
	if len(cast) > 1 {
		m.Actor2Name, m.Actor2TMDBID = optional(cast[1].Name), intPtr(cast[1].ID)
	}
	if len(cast) > 2 {
		m.Actor3Name, m.Actor3TMDBID = optional(cast[2].Name), intPtr(cast[2].ID)
	}
}

func upstreamGenreIDs(genres []client.Genre) []int {
	ids := make([]int, 0, len(genres))
	for _, g := range genres {
		ids = append(ids, g.ID)
	}
	return ids
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func intPtr(i int) *int { return &i }
