package backupcode_test

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/dmitrymomot/mfakit/pkg/backupcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("format", func(t *testing.T) {
		t.Parallel()
		codes, err := backupcode.Generate(10)
		require.NoError(t, err)
		require.Len(t, codes, 10)

		format := regexp.MustCompile(`^[a-z2-9]{4}-[a-z2-9]{4}-[a-z2-9]{4}-[a-z2-9]{4}$`)
		seen := make(map[string]struct{}, len(codes))
		for _, code := range codes {
			assert.Regexp(t, format, code)
			seen[code] = struct{}{}
		}
		assert.Len(t, seen, len(codes), "codes must be unique")
	})

	t.Run("invalid count", func(t *testing.T) {
		t.Parallel()
		_, err := backupcode.Generate(0)
		assert.ErrorIs(t, err, backupcode.ErrInvalidCodeCount)
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "x7km2qrt9wnpahj3", backupcode.Normalize("  X7KM-2QRT-9WNP-AHJ3 "))
	assert.Equal(t, "x7km2qrt9wnpahj3", backupcode.Normalize("x7km 2qrt 9wnp ahj3"))
}

func TestManager_EnrollAndConsume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	manager, err := backupcode.NewManager(backupcode.NewMemoryStore())
	require.NoError(t, err)

	codes, err := manager.Enroll(ctx, "user-1", 8)
	require.NoError(t, err)
	require.Len(t, codes, 8)

	remaining, err := manager.Remaining(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 8, remaining)

	// First consumption succeeds.
	entryID, err := manager.Consume(ctx, "user-1", codes[3])
	require.NoError(t, err)
	assert.NotEmpty(t, entryID)

	// Same code again is recognized as spent, not as a mismatch.
	againID, err := manager.Consume(ctx, "user-1", codes[3])
	assert.ErrorIs(t, err, backupcode.ErrCodeAlreadyConsumed)
	assert.Equal(t, entryID, againID)

	// Formatting differences do not matter.
	_, err = manager.Consume(ctx, "user-1", "  "+codes[4]+" ")
	require.NoError(t, err)

	remaining, err = manager.Remaining(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 6, remaining)
}

func TestManager_ConsumeErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	manager, err := backupcode.NewManager(backupcode.NewMemoryStore())
	require.NoError(t, err)

	t.Run("not enrolled", func(t *testing.T) {
		_, err := manager.Consume(ctx, "nobody", "aaaa-bbbb-cccc-dddd")
		assert.ErrorIs(t, err, backupcode.ErrNotEnrolled)
	})

	codes, err := manager.Enroll(ctx, "user-2", 2)
	require.NoError(t, err)

	t.Run("mismatch", func(t *testing.T) {
		_, err := manager.Consume(ctx, "user-2", "aaaa-bbbb-cccc-dddd")
		assert.ErrorIs(t, err, backupcode.ErrCodeMismatch)
	})

	t.Run("exhausted", func(t *testing.T) {
		for _, code := range codes {
			_, err := manager.Consume(ctx, "user-2", code)
			require.NoError(t, err)
		}
		_, err := manager.Consume(ctx, "user-2", "aaaa-bbbb-cccc-dddd")
		assert.ErrorIs(t, err, backupcode.ErrNoCodesRemaining)

		// A spent code on an exhausted set is still reported as spent.
		_, err = manager.Consume(ctx, "user-2", codes[0])
		assert.ErrorIs(t, err, backupcode.ErrCodeAlreadyConsumed)
	})
}

func TestManager_EnrollReplacesSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	manager, err := backupcode.NewManager(backupcode.NewMemoryStore())
	require.NoError(t, err)

	first, err := manager.Enroll(ctx, "user-3", 4)
	require.NoError(t, err)

	_, err = manager.Enroll(ctx, "user-3", 4)
	require.NoError(t, err)

	// Codes from the replaced set no longer validate.
	_, err = manager.Consume(ctx, "user-3", first[0])
	assert.ErrorIs(t, err, backupcode.ErrCodeMismatch)

	remaining, err := manager.Remaining(ctx, "user-3")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

// TestManager_ConcurrentConsume verifies the single-use guarantee under
// racing submissions of the same code: exactly one goroutine wins.
func TestManager_ConcurrentConsume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	manager, err := backupcode.NewManager(backupcode.NewMemoryStore())
	require.NoError(t, err)

	codes, err := manager.Enroll(ctx, "user-4", 4)
	require.NoError(t, err)

	const goroutines = 16
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make(chan error, goroutines)

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := manager.Consume(ctx, "user-4", codes[0])
			results <- err
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	var successes, consumed int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, backupcode.ErrCodeAlreadyConsumed):
			consumed++
		}
	}
	assert.Equal(t, 1, successes, "exactly one consume call may succeed")
	assert.Equal(t, goroutines-1, consumed)
}
