package llm

import (
	"context"
	"iter"
)

type Prompt struct {
	System string
	User   string
}

// Provider streams a completion as text fragments in arrival order.
// The sequence ends after the first non-nil error; breaking out of the loop stops the upstream request.
type Provider interface {
	Stream(ctx context.Context, prompt Prompt) iter.Seq2[string, error]
}
