package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMovies struct{ mock.Mock }

func (m *mockMovies) SyncFromUpstream(ctx context.Context, id int) (*database.Movie, error) {
	args := m.Called(ctx, id)
	movie, _ := args.Get(0).(*database.Movie)
	return movie, args.Error(1)
}

func (m *mockMovies) SyncPopular(ctx context.Context, page int) (*types.BatchResult[database.Movie], error) {
	args := m.Called(ctx, page)
	r, _ := args.Get(0).(*types.BatchResult[database.Movie])
	return r, args.Error(1)
}

type mockTV struct{ mock.Mock }

func (m *mockTV) SyncFromUpstream(ctx context.Context, id int) (*database.TVShow, error) {
	args := m.Called(ctx, id)
	show, _ := args.Get(0).(*database.TVShow)
	return show, args.Error(1)
}

func (m *mockTV) SyncPopular(ctx context.Context, page int) (*types.BatchResult[database.TVShow], error) {
	args := m.Called(ctx, page)
	r, _ := args.Get(0).(*types.BatchResult[database.TVShow])
	return r, args.Error(1)
}

type mockGenres struct{ mock.Mock }

func (m *mockGenres) SyncFromUpstream(ctx context.Context) ([]database.Genre, []database.Genre, error) {
	args := m.Called(ctx)
	return args.Get(0).([]database.Genre), args.Get(1).([]database.Genre), args.Error(2)
}

func TestInlineSyncDelegates(t *testing.T) {
	movies, tv, genres := &mockMovies{}, &mockTV{}, &mockGenres{}
	svc := NewSyncService(genres, movies, tv, 1, 1, 0, nil)
	defer svc.Stop()
	ctx := context.Background()

	movies.On("SyncFromUpstream", ctx, 550).Return(&database.Movie{TMDBID: 550, Title: "Fight Club"}, nil)
	tv.On("SyncFromUpstream", ctx, 1399).Return(nil, types.NewUpstreamError(http.StatusNotFound, "{}"))
	genres.On("SyncFromUpstream", ctx).Return([]database.Genre{{Name: "Drama"}}, []database.Genre{}, nil)

	movie, err := svc.Movie(ctx, 550)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", movie.Title)

	_, err = svc.TVShow(ctx, 1399)
	assert.Equal(t, types.ErrorCodeUpstreamError, types.CodeOf(err))

	movieGenres, tvGenres, err := svc.Genres(ctx)
	require.NoError(t, err)
	assert.Len(t, movieGenres, 1)
	assert.Empty(t, tvGenres)

	mock.AssertExpectationsForObjects(t, movies, tv, genres)
}

func TestEnqueueRunsInBackground(t *testing.T) {
	movies, tv := &mockMovies{}, &mockTV{}
	svc := NewSyncService(&mockGenres{}, movies, tv, 2, 4, 0, nil)
	defer svc.Stop()

	done := make(chan struct{}, 2)
	result := types.NewBatchResult[database.Movie]()
	result.Succeeded = append(result.Succeeded, database.Movie{TMDBID: 550})
	movies.On("SyncPopular", mock.Anything, 3).Return(result, nil).Run(func(mock.Arguments) { done <- struct{}{} })
	tv.On("SyncPopular", mock.Anything, 1).Return(nil, errors.New("listing failed")).Run(func(mock.Arguments) { done <- struct{}{} })

	job, err := svc.EnqueuePopularMovies(3)
	require.NoError(t, err)
	assert.Equal(t, KindMovie, job.Kind)
	assert.Equal(t, 3, job.Page)
	assert.Equal(t, JobQueued, job.Status)
	assert.NotEmpty(t, job.ID)

	_, err = svc.EnqueuePopularTV(1)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("background sync did not run")
		}
	}
}

func TestEnqueueRejectsWhenFull(t *testing.T) {
	movies := &mockMovies{}
	svc := NewSyncService(&mockGenres{}, movies, &mockTV{}, 1, 1, 0, nil)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	movies.On("SyncPopular", mock.Anything, mock.Anything).
		Return(types.NewBatchResult[database.Movie](), nil).
		Run(func(mock.Arguments) {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
		})

	_, err := svc.EnqueuePopularMovies(1)
	require.NoError(t, err)
	<-started

	_, err = svc.EnqueuePopularMovies(2) // fills the queue
	require.NoError(t, err)

	_, err = svc.EnqueuePopularMovies(3)
	require.Error(t, err)
	appErr := err.(*types.AppError)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.HTTPStatus)
	require.NotNil(t, appErr.RetryAfter)

	assert.Equal(t, types.ErrorCodeQueueFull, appErr.Code)

	queued, running := svc.Pending()
	assert.Equal(t, 1, queued)
	assert.Equal(t, 1, running)

	close(release)
	svc.Stop()
}

func TestStopCancelsJobContext(t *testing.T) {
	movies := &mockMovies{}
	svc := NewSyncService(&mockGenres{}, movies, &mockTV{}, 1, 1, 0, nil)

	cancelled := make(chan struct{})
	movies.On("SyncPopular", mock.Anything, 1).
		Return(nil, context.Canceled).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
			close(cancelled)
		})

	_, err := svc.EnqueuePopularMovies(1)
	require.NoError(t, err)

	// wait for the worker to pick the job up
	require.Eventually(t, func() bool { _, running := svc.Pending(); return running == 1 }, 5*time.Second, 10*time.Millisecond)
	svc.Stop()

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("job context was not cancelled")
	}
}

func TestJobRecordsOutcome(t *testing.T) {
	movies, tv := &mockMovies{}, &mockTV{}
	svc := NewSyncService(&mockGenres{}, movies, tv, 1, 4, 0, nil)
	defer svc.Stop()

	result := types.NewBatchResult[database.Movie]()
	result.Succeeded = append(result.Succeeded, database.Movie{TMDBID: 550}, database.Movie{TMDBID: 603})
	result.AddFailure(13, errors.New("upstream returned 404"))
	movies.On("SyncPopular", mock.Anything, 1).Return(result, nil)
	tv.On("SyncPopular", mock.Anything, 1).Return(nil, errors.New("listing failed"))

	movieJob, err := svc.EnqueuePopularMovies(1)
	require.NoError(t, err)
	tvJob, err := svc.EnqueuePopularTV(1)
	require.NoError(t, err)

	finished := func(id string) func() bool {
		return func() bool {
			job, ok := svc.Job(id)
			return ok && job.FinishedAt != nil
		}
	}
	require.Eventually(t, finished(movieJob.ID), 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, finished(tvJob.ID), 5*time.Second, 10*time.Millisecond)

	job, _ := svc.Job(movieJob.ID)
	assert.Equal(t, JobCompleted, job.Status)
	assert.Equal(t, 2, job.Succeeded)
	require.Len(t, job.Failed, 1)
	assert.Equal(t, 13, job.Failed[0].TMDBID)
	require.NotNil(t, job.StartedAt)
	assert.False(t, job.FinishedAt.Before(*job.StartedAt))

	job, _ = svc.Job(tvJob.ID)
	assert.Equal(t, JobFailed, job.Status)
	assert.Equal(t, "listing failed", job.Error)
	assert.Empty(t, job.Failed)

	_, ok := svc.Job("00000000-0000-0000-0000-000000000000")
	assert.False(t, ok)
}

func TestJobHistoryIsBounded(t *testing.T) {
	movies := &mockMovies{}
	svc := NewSyncService(&mockGenres{}, movies, &mockTV{}, 1, 4, 2, nil)
	defer svc.Stop()
	movies.On("SyncPopular", mock.Anything, mock.Anything).Return(types.NewBatchResult[database.Movie](), nil)

	var ids []string
	for page := 1; page <= 3; page++ {
		job, err := svc.EnqueuePopularMovies(page)
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}

	_, ok := svc.Job(ids[0])
	assert.False(t, ok)
	require.Eventually(t, func() bool {
		job, ok := svc.Job(ids[2])
		return ok && job.Status == JobCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRejectedJobIsNotKept(t *testing.T) {
	movies := &mockMovies{}
	svc := NewSyncService(&mockGenres{}, movies, &mockTV{}, 1, 1, 0, nil)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	movies.On("SyncPopular", mock.Anything, mock.Anything).
		Return(types.NewBatchResult[database.Movie](), nil).
		Run(func(mock.Arguments) {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
		})

	running, err := svc.EnqueuePopularMovies(1)
	require.NoError(t, err)
	<-started
	_, err = svc.EnqueuePopularMovies(2)
	require.NoError(t, err)
	_, err = svc.EnqueuePopularMovies(3)
	require.Error(t, err)

	job, ok := svc.Job(running.ID)
	require.True(t, ok)
	assert.Equal(t, JobRunning, job.Status)
	assert.Equal(t, 2, svc.jobs.Len())

	close(release)
	svc.Stop()
}
