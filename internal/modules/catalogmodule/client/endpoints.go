package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

// MovieDetails fetches a movie with its credits embedded
func (c *Client) MovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var out MovieDetails
	params := url.Values{"append_to_response": {"credits"}}
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", id), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MovieCredits fetches the cast and crew of a movie
func (c *Client) MovieCredits(ctx context.Context, id int) (*Credits, error) {
	var out Credits
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d/credits", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) list(ctx context.Context, endpoint string, params url.Values) (*ListResponse, error) {
	var out ListResponse
	if err := c.getJSON(ctx, endpoint, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PopularMovies fetches one page of the popular movie listing
func (c *Client) PopularMovies(ctx context.Context, page int) (*ListResponse, error) {
	return c.list(ctx, "/movie/popular", pageParams(page))
}

func (c *Client) TopRatedMovies(ctx context.Context, page int) (*ListResponse, error) {
	return c.list(ctx, "/movie/top_rated", pageParams(page))
}

func (c *Client) UpcomingMovies(ctx context.Context, page int) (*ListResponse, error) {
	return c.list(ctx, "/movie/upcoming", pageParams(page))
}

func (c *Client) NowPlayingMovies(ctx context.Context, page int) (*ListResponse, error) {
	return c.list(ctx, "/movie/now_playing", pageParams(page))
}

// TVDetails fetches a tv show
func (c *Client) TVDetails(ctx context.Context, id int) (*TVDetails, error) {
	var out TVDetails
	if err := c.getJSON(ctx, fmt.Sprintf("/tv/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TVCredits fetches the cast and crew of a tv show
func (c *Client) TVCredits(ctx context.Context, id int) (*Credits, error) {
	var out Credits
	if err := c.getJSON(ctx, fmt.Sprintf("/tv/%d/credits", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PopularTV fetches one page of the popular tv listing
func (c *Client) PopularTV(ctx context.Context, page int) (*ListResponse, error) {
	return c.list(ctx, "/tv/popular", pageParams(page))
}

func (c *Client) TopRatedTV(ctx context.Context, page int) (*ListResponse, error) {
	return c.list(ctx, "/tv/top_rated", pageParams(page))
}

func (c *Client) OnTheAirTV(ctx context.Context, page int) (*ListResponse, error) {
	return c.list(ctx, "/tv/on_the_air", pageParams(page))
}

func (c *Client) AiringTodayTV(ctx context.Context, page int) (*ListResponse, error) {
	return c.list(ctx, "/tv/airing_today", pageParams(page))
}

// SearchMovies searches movie titles, optionally restricted to a release year
func (c *Client) SearchMovies(ctx context.Context, query string, page int, year *int) (*ListResponse, error) {
	params := pageParams(page)
	params.Set("query", query)
	if year != nil {
		params.Set("year", strconv.Itoa(*year))
	}
	return c.list(ctx, "/search/movie", params)
}

// SearchTV searches tv show names, optionally restricted to a first-air year
func (c *Client) SearchTV(ctx context.Context, query string, page int, firstAirYear *int) (*ListResponse, error) {
	params := pageParams(page)
	params.Set("query", query)
	if firstAirYear != nil {
		params.Set("first_air_date_year", strconv.Itoa(*firstAirYear))
	}
	return c.list(ctx, "/search/tv", params)
}

// SearchMulti searches movies, tv shows and people at once. Results carry
// a media_type discriminator.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (*ListResponse, error) {
	params := pageParams(page)
	params.Set("query", query)
	return c.list(ctx, "/search/multi", params)
}

// MovieGenres fetches the movie genre taxonomy
func (c *Client) MovieGenres(ctx context.Context) ([]Genre, error) {
	var out GenreList
	if err := c.getJSON(ctx, "/genre/movie/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

// TVGenres fetches the tv genre taxonomy
func (c *Client) TVGenres(ctx context.Context) ([]Genre, error) {
	var out GenreList
	if err := c.getJSON(ctx, "/genre/tv/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}
