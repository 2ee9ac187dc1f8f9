// Package service drives reconciliation of the local catalog against the
// upstream provider, inline or on a background worker pool
package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/metrics"
	"github.com/mantonx/cinecache/internal/types"
	"github.com/mantonx/cinecache/internal/utils"
)

// Job kinds
const (
	KindMovie = "movie"
	KindTV    = "tv"
)

const (
	queueFullRetry    = 30 * time.Second
	defaultJobHistory = 256
)

// GenreSyncer reconciles both genre taxonomies
type GenreSyncer interface {
	SyncFromUpstream(ctx context.Context) ([]database.Genre, []database.Genre, error)
}

// MovieSyncer reconciles movies
type MovieSyncer interface {
	SyncFromUpstream(ctx context.Context, tmdbID int) (*database.Movie, error)
	SyncPopular(ctx context.Context, page int) (*types.BatchResult[database.Movie], error)
}

// TVShowSyncer reconciles tv shows
type TVShowSyncer interface {
	SyncFromUpstream(ctx context.Context, tmdbID int) (*database.TVShow, error)
	SyncPopular(ctx context.Context, page int) (*types.BatchResult[database.TVShow], error)
}

// JobStatus is the lifecycle state of a background sync
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job describes an accepted background sync and, once it ran, its outcome
type Job struct {
	ID         string               `json:"job_id"`
	Kind       string               `json:"kind"`
	Page       int                  `json:"page"`
	Status     JobStatus            `json:"status"`
	Succeeded  int                  `json:"succeeded"`
	Failed     []types.BatchFailure `json:"failed"`
	Error      string               `json:"error,omitempty"`
	QueuedAt   time.Time            `json:"queued_at"`
	StartedAt  *time.Time           `json:"started_at,omitempty"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
}

// SyncService runs syncs inline and queues popular-page syncs
type SyncService struct {
	genres GenreSyncer
	movies MovieSyncer
	tv     TVShowSyncer
	pool   *utils.WorkerPool
	log    hclog.Logger

	// most recent jobs by id; the oldest fall out once history is full.
	// mu guards the fields of the stored jobs.
	jobs *lru.Cache[string, *Job]
	mu   sync.Mutex

	// background jobs outlive their request and stop with the service
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSyncService creates the service and starts its worker pool. history
// bounds how many jobs Job can still report on.
func NewSyncService(genres GenreSyncer, movies MovieSyncer, tv TVShowSyncer, workers, queueSize, history int, log hclog.Logger) *SyncService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if history < 1 {
		history = defaultJobHistory
	}
	jobs, _ := lru.New[string, *Job](history)

	ctx, cancel := context.WithCancel(context.Background())
	s := &SyncService{
		genres: genres,
		movies: movies,
		tv:     tv,
		pool:   utils.NewWorkerPool(workers, queueSize),
		log:    log,
		jobs:   jobs,
		ctx:    ctx,
		cancel: cancel,
	}
	s.pool.Start()
	return s
}

func (s *SyncService) Genres(ctx context.Context) ([]database.Genre, []database.Genre, error) {
	return s.genres.SyncFromUpstream(ctx)
}

func (s *SyncService) Movie(ctx context.Context, tmdbID int) (*database.Movie, error) {
	return s.movies.SyncFromUpstream(ctx, tmdbID)
}

func (s *SyncService) TVShow(ctx context.Context, tmdbID int) (*database.TVShow, error) {
	return s.tv.SyncFromUpstream(ctx, tmdbID)
}

func (s *SyncService) PopularMovies(ctx context.Context, page int) (*types.BatchResult[database.Movie], error) {
	return s.movies.SyncPopular(ctx, page)
}

func (s *SyncService) PopularTV(ctx context.Context, page int) (*types.BatchResult[database.TVShow], error) {
	return s.tv.SyncPopular(ctx, page)
}

// EnqueuePopularMovies queues a popular-movies page sync
func (s *SyncService) EnqueuePopularMovies(page int) (*Job, error) {
	return s.enqueue(KindMovie, page, func(ctx context.Context) (int, []types.BatchFailure, error) {
		r, err := s.movies.SyncPopular(ctx, page)
		if err != nil {
			return 0, nil, err
		}
		return len(r.Succeeded), r.Failed, nil
	})
}

// EnqueuePopularTV queues a popular-tv page sync
func (s *SyncService) EnqueuePopularTV(page int) (*Job, error) {
	return s.enqueue(KindTV, page, func(ctx context.Context) (int, []types.BatchFailure, error) {
		r, err := s.tv.SyncPopular(ctx, page)
		if err != nil {
			return 0, nil, err
		}
		return len(r.Succeeded), r.Failed, nil
	})
}

type jobFunc func(ctx context.Context) (succeeded int, failed []types.BatchFailure, err error)

func (s *SyncService) enqueue(kind string, page int, run jobFunc) (*Job, error) {
	job := &Job{
		ID:       utils.GenerateUUID(),
		Kind:     kind,
		Page:     page,
		Status:   JobQueued,
		Failed:   []types.BatchFailure{},
		QueuedAt: time.Now().UTC(),
	}
	queued := *job
	log := s.log.With("job_id", job.ID, "kind", kind, "page", page)
	accepted := s.pool.Submit(func() {
		s.execute(job, run, log)
	})
	if !accepted {
		metrics.SyncJobs.WithLabelValues(kind, "rejected").Inc()
		log.Warn("sync queue full, job rejected")
		err := types.NewAppError(types.ErrorCodeQueueFull, "sync queue is full", http.StatusServiceUnavailable)
		err.Severity = types.SeverityWarning
		return nil, err.WithRetryAfter(queueFullRetry)
	}

	// added only once accepted so a rejection never evicts an older job
	s.mu.Lock()
	s.jobs.Add(job.ID, job)
	s.mu.Unlock()

	metrics.SyncJobs.WithLabelValues(kind, "queued").Inc()
	log.Debug("background sync queued")
	return &queued, nil
}

func (s *SyncService) execute(job *Job, run jobFunc, log hclog.Logger) {
	started := time.Now().UTC()
	s.mu.Lock()
	job.Status = JobRunning
	job.StartedAt = &started
	s.mu.Unlock()

	succeeded, failed, err := run(s.ctx)
	finished := time.Now().UTC()

	s.mu.Lock()
	job.FinishedAt = &finished
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
	} else {
		job.Status = JobCompleted
		job.Succeeded = succeeded
		if failed != nil {
			job.Failed = failed
		}
	}
	s.mu.Unlock()

	if err != nil {
		metrics.SyncJobs.WithLabelValues(job.Kind, "failed").Inc()
		log.Error("background sync failed", "error", err)
		return
	}
	metrics.SyncJobs.WithLabelValues(job.Kind, "completed").Inc()
	log.Info("background sync finished", "succeeded", succeeded, "failed", len(failed), "duration", finished.Sub(started))
}

// Job reports on a background sync, or false once it left the history.
// Lookups do not count as use, so jobs leave in the order they were queued.
func (s *SyncService) Job(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs.Peek(id)
	if !ok {
		return nil, false
	}
	out := *job
	out.Failed = append(make([]types.BatchFailure, 0, len(job.Failed)), job.Failed...)
	return &out, true
}

// Pending returns queued and running background jobs
func (s *SyncService) Pending() (queued, running int) {
	return s.pool.Pending(), s.pool.Active()
}

// Stop cancels running jobs and waits for the workers
func (s *SyncService) Stop() {
	s.cancel()
	s.pool.Stop()
}
