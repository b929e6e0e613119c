package llm

import (
	"context"
	"errors"

	"github.com/AleutianAI/PromptTune/services/orchestrator/datatypes"
)

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend.
//
// Complete runs a chat completion over the full message list (system prompt
// included) and returns the assistant reply text. Implementations must
// respect ctx cancellation and deadlines.
type LLMClient interface {
	Complete(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error)
}

// UpstreamError indicates the backend answered but the payload was unusable
// (no choices, malformed JSON). Callers map this to a 502, distinct from
// transport failures and timeouts.
type UpstreamError struct {
	Backend string
	Message string
}

func (e *UpstreamError) Error() string {
	return "llm upstream error (" + e.Backend + "): " + e.Message
}

// IsUpstreamError checks if an error is an UpstreamError.
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
