package gateway

import "context"

// Completer sends a single rendered prompt upstream.
// This interface is implemented by the OpenAI client.
type Completer interface {
	// Complete returns the decoded upstream answer. Content is empty when the
	// body carried no first-choice message; that is not an error.
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

// Completion is the part of an upstream answer the gateway cares about.
type Completion struct {
	Content      string
	Model        string
	FinishReason string
	StatusCode   int
}

// Ensure OpenAIClient implements Completer.
var _ Completer = (*OpenAIClient)(nil)
