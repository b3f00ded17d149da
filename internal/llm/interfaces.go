package llm

import "context"

// TextGenerator is the interface for single-turn LLM text completion.
// Icon prompts are sent as one user message and the reply is returned
// as plain text.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GetModel() string
}
