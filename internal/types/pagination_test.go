package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCountArithmetic(t *testing.T) {
	for _, size := range []int{1, 3, 20, 100} {
		for total := int64(0); total <= 250; total++ {
			pages := PageCount(total, size)
			// size*(pages-1) < total <= size*pages
			assert.Less(t, int64(size*(pages-1)), total, "size=%d total=%d", size, total)
			assert.LessOrEqual(t, total, int64(size*pages), "size=%d total=%d", size, total)
		}
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 20))
	assert.Equal(t, 40, Offset(3, 20))
	assert.Equal(t, 0, Offset(0, 20))
}

func TestNewPageNeverNilItems(t *testing.T) {
	p := NewPage[string](nil, 0, 1, 20)
	assert.NotNil(t, p.Items)
	assert.Equal(t, 0, p.Pages)

	p = NewPage([]string{"a"}, 41, 2, 20)
	assert.Equal(t, 3, p.Pages)
}

func TestBatchResult(t *testing.T) {
	b := NewBatchResult[int]()
	b.Succeeded = append(b.Succeeded, 1)
	b.AddFailure(42, errors.New("boom"))
	assert.Equal(t, []BatchFailure{{TMDBID: 42, Reason: "boom"}}, b.Failed)
}
