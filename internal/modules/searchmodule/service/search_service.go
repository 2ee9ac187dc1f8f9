// Package service searches the local catalog and falls back to the upstream
// provider, persisting what it finds there
package service

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/filters"
	"github.com/mantonx/cinecache/internal/modules/catalogmodule/client"
	"github.com/mantonx/cinecache/internal/services"
)

const (
	mediaTypeMovie = "movie"
	mediaTypeTV    = "tv"
)

// Upstream is the search part of the catalog client
type Upstream interface {
	SearchMulti(ctx context.Context, query string, page int) (*client.ListResponse, error)
	SearchMovies(ctx context.Context, query string, page int, year *int) (*client.ListResponse, error)
	SearchTV(ctx context.Context, query string, page int, firstAirYear *int) (*client.ListResponse, error)
}

// MultiResult is one page of a mixed search
type MultiResult struct {
	Movies       []database.Movie
	TVShows      []database.TVShow
	TotalResults int
	TotalPages   int
	Page         int
}

// SearchService combines local search with upstream fallback
type SearchService struct {
	upstream Upstream
	movies   services.MovieService
	tv       services.TVShowService
	log      hclog.Logger
}

// NewSearchService creates the search service
func NewSearchService(upstream Upstream, movies services.MovieService, tv services.TVShowService, log hclog.Logger) *SearchService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &SearchService{upstream: upstream, movies: movies, tv: tv, log: log}
}

// Multi searches upstream and resolves each movie and tv hit to a stored
// row, syncing the ones not stored yet. Hits that fail to sync and people
// results are skipped.
func (s *SearchService) Multi(ctx context.Context, query string, page int) (*MultiResult, error) {
	listing, err := s.upstream.SearchMulti(ctx, query, page)
	if err != nil {
		return nil, err
	}

	result := &MultiResult{
		Movies:       []database.Movie{},
		TVShows:      []database.TVShow{},
		TotalResults: listing.TotalResults,
		TotalPages:   listing.TotalPages,
		Page:         listing.Page,
	}
	for _, hit := range listing.Results {
		switch hit.MediaType {
		case mediaTypeMovie:
			movie, err := s.movies.GetOrSync(ctx, hit.ID)
			if err != nil {
				s.log.Warn("skipping movie search hit", "tmdb_id", hit.ID, "error", err)
				continue
			}
			result.Movies = append(result.Movies, *movie)
		case mediaTypeTV:
			show, err := s.tv.GetOrSync(ctx, hit.ID)
			if err != nil {
				s.log.Warn("skipping tv search hit", "tmdb_id", hit.ID, "error", err)
				continue
			}
			result.TVShows = append(result.TVShows, *show)
		}
	}
	return result, nil
}

// Movies searches stored movies by popularity. When nothing is stored it
// syncs every upstream hit for the page instead, refreshing rows that are
// stored but missed the local filter, and the total becomes the upstream
// total.
func (s *SearchService) Movies(ctx context.Context, params filters.SearchParams) ([]database.Movie, int64, error) {
	params.SortBy = "popularity.desc"
	movies, total, err := s.movies.Search(ctx, params)
	if err != nil || len(movies) > 0 {
		return movies, total, err
	}

	listing, err := s.upstream.SearchMovies(ctx, params.Query, params.Page, params.Year)
	if err != nil {
		return nil, 0, err
	}
	s.log.Debug("local movie search empty, using upstream", "query", params.Query, "hits", len(listing.Results))

	movies = make([]database.Movie, 0, len(listing.Results))
	for _, hit := range listing.Results {
		movie, err := s.movies.SyncFromUpstream(ctx, hit.ID)
		if err != nil {
			s.log.Warn("skipping movie search hit", "tmdb_id", hit.ID, "error", err)
			continue
		}
		movies = append(movies, *movie)
	}
	return movies, int64(listing.TotalResults), nil
}

// TVShows is Movies for tv shows; year filters on the first air date
func (s *SearchService) TVShows(ctx context.Context, params filters.SearchParams) ([]database.TVShow, int64, error) {
	params.SortBy = "popularity.desc"
	shows, total, err := s.tv.Search(ctx, params)
	if err != nil || len(shows) > 0 {
		return shows, total, err
	}

	listing, err := s.upstream.SearchTV(ctx, params.Query, params.Page, params.Year)
	if err != nil {
		return nil, 0, err
	}
	s.log.Debug("local tv search empty, using upstream", "query", params.Query, "hits", len(listing.Results))

	shows = make([]database.TVShow, 0, len(listing.Results))
	for _, hit := range listing.Results {
		show, err := s.tv.SyncFromUpstream(ctx, hit.ID)
		if err != nil {
			s.log.Warn("skipping tv search hit", "tmdb_id", hit.ID, "error", err)
			continue
		}
		shows = append(shows, *show)
	}
	return shows, int64(listing.TotalResults), nil
}
