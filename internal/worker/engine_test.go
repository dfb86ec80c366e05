package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roost-io/roost/internal/pipeline"
	"github.com/roost-io/roost/internal/testutil"
	"github.com/roost-io/roost/pkg/bus"
)

const testHash = "a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"

// failingAnswerer always errors, standing in for a broken pipeline.
type failingAnswerer struct{}

func (failingAnswerer) Answer(context.Context, string, []string) ([]string, error) {
	return nil, errors.New("pipeline exploded")
}

func startEngine(t *testing.T, b *bus.Bus, answerer pipeline.Answerer) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(b, answerer).Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("engine did not stop after context cancellation")
		}
	})

	// Give the engine's subscription a moment to attach
	time.Sleep(50 * time.Millisecond)
}

func TestEngine(t *testing.T) {
	t.Run("answers process events and caches the result", func(t *testing.T) {
		b, _ := testutil.StartBus(t, "worker-test")
		startEngine(t, b, pipeline.Echo{})

		ctx := context.Background()
		sub, err := b.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		proc := &bus.ProcessEvent{
			RequestID:     uuid.New().String(),
			ContentHash:   testHash,
			CanonicalPath: "downloads/document1.pdf",
			Questions:     []string{"q1", "q2"},
		}
		require.NoError(t, b.Publish(ctx, proc))

		deadline := time.After(2 * time.Second)
		for {
			select {
			case ev := <-sub.Events():
				result, ok := ev.(*bus.ResultEvent)
				if !ok {
					continue // our own process event echoes back
				}
				assert.Equal(t, proc.RequestID, result.RequestID)
				assert.Equal(t, testHash, result.ContentHash)
				require.Len(t, result.Answers, 2)
				assert.Contains(t, result.Answers[0], "q1")

				cached, err := b.GetResult(ctx, testHash)
				require.NoError(t, err)
				assert.Equal(t, result.Answers, cached.Answers)
				return
			case <-deadline:
				t.Fatal("timeout waiting for result event")
			}
		}
	})

	t.Run("pipeline failure publishes nothing", func(t *testing.T) {
		b, _ := testutil.StartBus(t, "worker-test")
		startEngine(t, b, failingAnswerer{})

		ctx := context.Background()
		sub, err := b.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		require.NoError(t, b.Publish(ctx, &bus.ProcessEvent{
			RequestID:     uuid.New().String(),
			ContentHash:   testHash,
			CanonicalPath: "downloads/document1.pdf",
			Questions:     []string{"q"},
		}))

		deadline := time.After(500 * time.Millisecond)
		for {
			select {
			case ev := <-sub.Events():
				_, isResult := ev.(*bus.ResultEvent)
				assert.False(t, isResult, "failed pipeline must not publish a result")
			case <-deadline:
				// No result observed within the window
				_, err := b.GetResult(ctx, testHash)
				assert.True(t, bus.IsNotFound(err))
				return
			}
		}
	})

	t.Run("ignores result events from other workers", func(t *testing.T) {
		b, _ := testutil.StartBus(t, "worker-test")
		startEngine(t, b, pipeline.Echo{})

		ctx := context.Background()
		require.NoError(t, b.Publish(ctx, &bus.ResultEvent{
			RequestID:   uuid.New().String(),
			ContentHash: testHash,
			Answers:     []string{"from another worker"},
		}))

		// The engine must not re-answer a result event; nothing to assert
		// beyond the engine still being alive, which Cleanup verifies
		time.Sleep(100 * time.Millisecond)
	})
}
