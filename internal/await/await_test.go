package await

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roost-io/roost/internal/testutil"
	"github.com/roost-io/roost/pkg/bus"
)

const (
	testHash  = "a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"
	otherHash = "b665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"
)

func TestResult(t *testing.T) {
	t.Run("returns matching result", func(t *testing.T) {
		b, _ := testutil.StartBus(t, "await-test")
		ctx := context.Background()

		sub, err := b.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		expected := &bus.ResultEvent{
			RequestID:   uuid.New().String(),
			ContentHash: testHash,
			Answers:     []string{"30 days"},
		}
		require.NoError(t, b.Publish(ctx, expected))

		result, err := Result(ctx, sub, testHash, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, expected, result)
	})

	t.Run("discards process events and foreign results", func(t *testing.T) {
		b, _ := testutil.StartBus(t, "await-test")
		ctx := context.Background()

		sub, err := b.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		// Noise first: a process event and a result for a different hash
		require.NoError(t, b.Publish(ctx, &bus.ProcessEvent{
			RequestID:     uuid.New().String(),
			ContentHash:   testHash,
			CanonicalPath: "downloads/document1.pdf",
		}))
		require.NoError(t, b.Publish(ctx, &bus.ResultEvent{
			RequestID:   uuid.New().String(),
			ContentHash: otherHash,
			Answers:     []string{"wrong document"},
		}))

		expected := &bus.ResultEvent{
			RequestID:   uuid.New().String(),
			ContentHash: testHash,
			Answers:     []string{"right document"},
		}
		require.NoError(t, b.Publish(ctx, expected))

		result, err := Result(ctx, sub, testHash, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, expected.Answers, result.Answers)
	})

	t.Run("times out on a silent bus", func(t *testing.T) {
		b, _ := testutil.StartBus(t, "await-test")
		ctx := context.Background()

		sub, err := b.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		start := time.Now()
		_, err = Result(ctx, sub, testHash, 100*time.Millisecond)
		elapsed := time.Since(start)

		assert.ErrorIs(t, err, ErrTimeout)
		// Bounded margin: the deadline timer must fire without any message
		// arriving to prompt a clock check
		assert.Less(t, elapsed, 2*time.Second)
	})

	t.Run("late result is not retroactively caught", func(t *testing.T) {
		b, _ := testutil.StartBus(t, "await-test")
		ctx := context.Background()

		sub, err := b.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		result, err := Result(ctx, sub, testHash, 50*time.Millisecond)
		require.ErrorIs(t, err, ErrTimeout)
		assert.Nil(t, result)

		// The deadline already fired; a result published now cannot reach
		// the completed wait
		require.NoError(t, b.Publish(ctx, &bus.ResultEvent{
			RequestID:   uuid.New().String(),
			ContentHash: testHash,
			Answers:     []string{"too late"},
		}))
	})

	t.Run("context cancellation wins over timeout", func(t *testing.T) {
		b, _ := testutil.StartBus(t, "await-test")

		ctx, cancel := context.WithCancel(context.Background())
		sub, err := b.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		_, err = Result(ctx, sub, testHash, 10*time.Second)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
