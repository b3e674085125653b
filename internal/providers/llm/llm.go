package llm

import (
	"context"
	"errors"
)

// Request is one instruction to a language model. Prompt carries the rendered
// context (transcript, catalog hints) as a single user turn.
type Request struct {
	System    string
	Prompt    string
	JSON      bool // ask for a bare JSON object
	MaxTokens int
}

type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
	Close() error
}

// ErrEmptyResponse is returned when the backend answers with no text.
var ErrEmptyResponse = errors.New("llm: empty response")
