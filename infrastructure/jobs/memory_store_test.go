package jobs

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidesmith/domain/job"
	apperrors "slidesmith/pkg/errors"
)

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryStore()

	j := job.NewJob("job-1", "user@example.com")
	require.NoError(t, store.Create(j))

	t.Run("duplicate id rejected", func(t *testing.T) {
		err := store.Create(job.NewJob("job-1", "other"))
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("get returns a copy", func(t *testing.T) {
		got, ok := store.Get("job-1")
		require.True(t, ok)
		got.Status = job.StatusError

		again, _ := store.Get("job-1")
		assert.Equal(t, job.StatusProcessing, again.Status)
	})

	t.Run("update mutates stored state", func(t *testing.T) {
		require.NoError(t, store.Update("job-1", func(j *job.Job) {
			j.Complete("https://example.com/preview")
		}))

		got, _ := store.Get("job-1")
		assert.Equal(t, job.StatusCompleted, got.Status)
		assert.Equal(t, "https://example.com/preview", got.ResultLink)
		assert.True(t, got.Terminal())
	})

	t.Run("unknown job", func(t *testing.T) {
		_, ok := store.Get("missing")
		assert.False(t, ok)
		assert.Error(t, store.Update("missing", func(*job.Job) {}))
	})
}

func TestIdentityGuard(t *testing.T) {
	store := NewMemoryStore()

	assert.True(t, store.Acquire("user@example.com"))
	assert.False(t, store.Acquire("user@example.com"))
	assert.True(t, store.Acquire("other@example.com"))

	store.Release("user@example.com")
	assert.True(t, store.Acquire("user@example.com"))
}

func TestIdentityGuardConcurrent(t *testing.T) {
	store := NewMemoryStore()

	const attempts = 64
	var wins int64
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			if store.Acquire("contested") {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
}
