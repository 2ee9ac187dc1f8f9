package service

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/modules/catalogmodule/client"
	"github.com/mantonx/cinecache/internal/types"
)

const (
	animationGenre   = "Animation"
	japaneseLanguage = "ja"
)

// mapTVShow converts an upstream show into a row without id or genres
func mapTVShow(d *client.TVDetails, log hclog.Logger) database.TVShow {
	show := database.TVShow{
		TMDBID:           d.ID,
		Name:             d.Name,
		OriginalName:     optional(d.OriginalName),
		Overview:         optional(d.Overview),
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		Popularity:       &d.Popularity,
		VoteAverage:      &d.VoteAverage,
		VoteCount:        &d.VoteCount,
		OriginalLanguage: optional(d.OriginalLanguage),
		NumberOfSeasons:  &d.NumberOfSeasons,
		NumberOfEpisodes: &d.NumberOfEpisodes,
		Status:           optional(d.Status),
	}

	if d.FirstAirDate != "" {
		date, err := types.ParseDate(d.FirstAirDate)
		if err != nil {
			log.Warn("invalid first air date format", "tmdb_id", d.ID, "first_air_date", d.FirstAirDate)
		} else {
			show.FirstAirDate = date.TimePtr()
		}
	}

	kind := classify(d)
	show.Type = &kind
	return show
}

// classify marks Japanese animation as anime
func classify(d *client.TVDetails) string {
	if d.OriginalLanguage != japaneseLanguage {
		return database.TVShowTypeTV
	}
	for _, g := range d.Genres {
		if g.Name == animationGenre {
			return database.TVShowTypeAnime
		}
	}
	return database.TVShowTypeTV
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
