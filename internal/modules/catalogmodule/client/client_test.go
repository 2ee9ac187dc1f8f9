package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mantonx/cinecache/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*Options)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts := Options{
		APIKey:          "test_api_key",
		BaseURL:         server.URL,
		UserAgent:       "cinecache-test",
		Timeout:         2 * time.Second,
		CacheEnabled:    true,
		CacheTTL:        time.Minute,
		CacheMaxEntries: 100,
		BreakerFailures: 3,
		BreakerTimeout:  time.Minute,
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestMovieDetailsSendsCreditsAndAPIKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/550", r.URL.Path)
		assert.Equal(t, "credits", r.URL.Query().Get("append_to_response"))
		assert.Equal(t, "test_api_key", r.URL.Query().Get("api_key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "cinecache-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"id":550,"title":"Fight Club","release_date":"1999-10-15",
			"genres":[{"id":18,"name":"Drama"}],
			"credits":{"cast":[{"id":819,"name":"Edward Norton"}],"crew":[{"id":7467,"name":"David Fincher","job":"Director"}]}}`)
	}, nil)

	movie, err := c.MovieDetails(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", movie.Title)
	require.NotNil(t, movie.Credits)
	assert.Equal(t, "Edward Norton", movie.Credits.Cast[0].Name)
	assert.Equal(t, "Director", movie.Credits.Crew[0].Job)
}

func TestReadAccessTokenUsesBearerHeader(t *testing.T) {
	token := "eyJ" + strings.Repeat("a", 120)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.Query().Get("api_key"))
		fmt.Fprint(w, `{"genres":[{"id":28,"name":"Action"}]}`)
	}, func(o *Options) { o.APIKey = token })

	genres, err := c.MovieGenres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Genre{{ID: 28, Name: "Action"}}, genres)
}

func TestCacheHitWithinTTLAndRefetchAfter(t *testing.T) {
	clock := newFakeClock()
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"page":1,"results":[{"id":1}],"total_results":1,"total_pages":1}`)
	}, func(o *Options) {
		o.Clock = clock.Now
		o.CacheTTL = 10 * time.Minute
	})
	ctx := context.Background()

	_, err := c.PopularMovies(ctx, 1)
	require.NoError(t, err)
	clock.Advance(9 * time.Minute)
	_, err = c.PopularMovies(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// different parameters are a different key
	_, err = c.PopularMovies(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	clock.Advance(time.Minute)
	_, err = c.PopularMovies(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCacheDisabled(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"genres":[]}`)
	}, func(o *Options) { o.CacheEnabled = false })

	for i := 0; i < 3; i++ {
		_, err := c.TVGenres(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Nil(t, c.Cache())
}

func TestCacheIsBounded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"page":1,"results":[]}`)
	}, func(o *Options) { o.CacheMaxEntries = 2 })

	for page := 1; page <= 5; page++ {
		_, err := c.PopularTV(context.Background(), page)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Cache().Len())
}

func TestNonSuccessStatusPassesThrough(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"status_message":"The resource you requested could not be found."}`)
	}, nil)

	_, err := c.MovieDetails(context.Background(), 999999)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrorCodeUpstreamError, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
	assert.Contains(t, appErr.Message, "could not be found")

	// errors are never cached
	_, err = c.MovieDetails(context.Background(), 999999)
	require.Error(t, err)
	assert.Equal(t, 0, c.Cache().Len())
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	c, err := New(Options{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.TVDetails(context.Background(), 1399)
	require.Error(t, err)
	assert.Equal(t, types.ErrorCodeUpstreamUnavailable, types.CodeOf(err))
	assert.True(t, types.IsRetryable(err))
}

func TestTimeoutIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, `{}`)
	}, func(o *Options) { o.Timeout = 50 * time.Millisecond })

	_, err := c.TVDetails(context.Background(), 1)
	assert.Equal(t, types.ErrorCodeUpstreamUnavailable, types.CodeOf(err))
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.TVDetails(ctx, i)
		assert.Equal(t, types.ErrorCodeUpstreamError, types.CodeOf(err))
	}
	assert.Equal(t, "open", c.BreakerState())

	_, err := c.TVDetails(ctx, 99)
	assert.Equal(t, types.ErrorCodeUpstreamUnavailable, types.CodeOf(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, nil)

	for i := 0; i < 5; i++ {
		_, _ = c.MovieDetails(context.Background(), i)
	}
	assert.Equal(t, "closed", c.BreakerState())
}

func TestSearchParameters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/search/movie":
			assert.Equal(t, "batman", q.Get("query"))
			assert.Equal(t, "1989", q.Get("year"))
		case "/search/tv":
			assert.Equal(t, "2011", q.Get("first_air_date_year"))
		case "/search/multi":
			assert.Equal(t, "3", q.Get("page"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"page":1,"results":[{"id":268,"media_type":"movie"}],"total_results":42,"total_pages":3}`)
	}, nil)
	ctx := context.Background()
	year := 1989
	airYear := 2011

	res, err := c.SearchMovies(ctx, "batman", 1, &year)
	require.NoError(t, err)
	assert.Equal(t, 42, res.TotalResults)

	_, err = c.SearchTV(ctx, "thrones", 1, &airYear)
	require.NoError(t, err)

	res, err = c.SearchMulti(ctx, "batman", 3)
	require.NoError(t, err)
	assert.Equal(t, "movie", res.Results[0].MediaType)
}

func TestMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}, nil)

	_, err := c.MovieGenres(context.Background())
	assert.Equal(t, types.ErrorCodeUpstreamError, types.CodeOf(err))
}

func TestRateLimiterHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"genres":[]}`)
	}, func(o *Options) {
		o.CacheEnabled = false
		o.RequestsPerSecond = 0.001
		o.Burst = 1
	})

	_, err := c.MovieGenres(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.MovieGenres(ctx)
	assert.Equal(t, types.ErrorCodeUpstreamUnavailable, types.CodeOf(err))
	assert.Equal(t, "closed", c.BreakerState())
}

func TestCallerCancellationDoesNotTripBreaker(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"id":1399,"name":"Game of Thrones"}`)
	}, func(o *Options) { o.CacheEnabled = false })

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := c.TVDetails(cancelled, 1399)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", c.BreakerState())

	show, err := c.TVDetails(context.Background(), 1399)
	require.NoError(t, err)
	assert.Equal(t, "Game of Thrones", show.Name)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
