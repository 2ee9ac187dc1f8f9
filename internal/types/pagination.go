package types

// DefaultPageSize and MaxPageSize bound the size query parameter
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is the envelope returned by every list endpoint
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Pages int   `json:"pages"`
}

// NewPage builds a page envelope, computing the page count from total and size
func NewPage[T any](items []T, total int64, page, size int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: PageCount(total, size),
	}
}

// PageCount returns ceil(total/size)
func PageCount(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Offset returns the row offset for a 1-indexed page
func Offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}

// MessageResponse is the plain {success, message} body
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// BatchFailure records one item that could not be processed in a batch
type BatchFailure struct {
	TMDBID int    `json:"tmdb_id"`
	Reason string `json:"reason"`
}

// BatchResult reports per-item outcomes of a bulk operation
type BatchResult[T any] struct {
	Succeeded []T            `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

// NewBatchResult returns an empty result with non-nil slices
func NewBatchResult[T any]() *BatchResult[T] {
	return &BatchResult[T]{
		Succeeded: []T{},
		Failed:    []BatchFailure{},
	}
}

// AddFailure records a failed item
func (b *BatchResult[T]) AddFailure(tmdbID int, err error) {
	b.Failed = append(b.Failed, BatchFailure{TMDBID: tmdbID, Reason: err.Error()})
}
