package bus

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testHash = "a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"

func TestIsValidContentHash(t *testing.T) {
	t.Run("accepts sha256 hex digest", func(t *testing.T) {
		assert.True(t, IsValidContentHash(testHash))
	})

	t.Run("accepts uppercase hex", func(t *testing.T) {
		assert.True(t, IsValidContentHash(strings.ToUpper(testHash)))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		assert.False(t, IsValidContentHash(testHash[:63]))
		assert.False(t, IsValidContentHash(testHash+"a"))
		assert.False(t, IsValidContentHash(""))
	})

	t.Run("rejects non-hex characters", func(t *testing.T) {
		assert.False(t, IsValidContentHash(testHash[:63]+"g"))
	})
}

func TestProcessEventValidate(t *testing.T) {
	valid := func() *ProcessEvent {
		return &ProcessEvent{
			RequestID:     uuid.New().String(),
			ContentHash:   testHash,
			CanonicalPath: "downloads/document1.pdf",
			Questions:     []string{"What is the grace period?"},
		}
	}

	t.Run("accepts valid event", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects invalid request ID", func(t *testing.T) {
		ev := valid()
		ev.RequestID = "not-a-uuid"
		err := ev.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "request ID")
	})

	t.Run("rejects invalid content hash", func(t *testing.T) {
		ev := valid()
		ev.ContentHash = "deadbeef"
		err := ev.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "content hash")
	})

	t.Run("rejects empty canonical path", func(t *testing.T) {
		ev := valid()
		ev.CanonicalPath = ""
		assert.Error(t, ev.Validate())
	})

	t.Run("allows empty questions", func(t *testing.T) {
		ev := valid()
		ev.Questions = nil
		assert.NoError(t, ev.Validate())
	})
}

func TestResultEventValidate(t *testing.T) {
	t.Run("accepts valid event", func(t *testing.T) {
		ev := &ResultEvent{
			RequestID:   uuid.New().String(),
			ContentHash: testHash,
			Answers:     []string{"30 days"},
		}
		assert.NoError(t, ev.Validate())
	})

	t.Run("rejects invalid content hash", func(t *testing.T) {
		ev := &ResultEvent{
			RequestID:   uuid.New().String(),
			ContentHash: "short",
		}
		assert.Error(t, ev.Validate())
	})
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, EventTypeProcess, (&ProcessEvent{}).Type())
	assert.Equal(t, EventTypeResult, (&ResultEvent{}).Type())
}
