// Package pipeline defines the answering pipeline consumed by the worker.
// The retrieval/generation machinery that produces real answers lives out of
// process; this package only fixes the contract and ships a stub for tests
// and local development.
package pipeline

import (
	"context"
	"fmt"
)

// Answerer produces one answer per question for a stored document.
// Implementations must preserve question order: answers[i] corresponds to
// questions[i]. An error aborts the whole run - partial answers are not a
// state this system produces.
type Answerer interface {
	Answer(ctx context.Context, documentPath string, questions []string) ([]string, error)
}

// Echo is a stub Answerer that restates each question against the document
// path. Used by `roost worker --echo` and in tests.
type Echo struct{}

// Answer implements Answerer.
func (Echo) Answer(_ context.Context, documentPath string, questions []string) ([]string, error) {
	answers := make([]string, len(questions))
	for i, q := range questions {
		answers[i] = fmt.Sprintf("echo(%s): %s", documentPath, q)
	}
	return answers, nil
}
