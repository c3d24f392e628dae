// README: LLM capability contracts consumed by the dialogue core.
package ai

import (
	"context"
)

// Provider defines the language-model capabilities the assistant depends on.
// The interface allows swapping Gemini for another provider without touching
// the dialogue core.
type Provider interface {
	// Classify maps a user utterance plus recent turns to one of the fixed
	// intent labels with a confidence score.
	Classify(ctx context.Context, utterance string, recentTurns []string) (Classification, error)

	// Extract pulls a partial slot mapping out of the utterance. knownSlots
	// carries already-filled values so the model does not re-invent them.
	Extract(ctx context.Context, utterance string, recentTurns []string, knownSlots map[string]string) (SlotPatch, error)

	// Compose renders the orchestrator's decision and grounding data into a
	// natural-language reply (PT-BR).
	Compose(ctx context.Context, req ComposeRequest) (string, error)
}

// Embedder produces vector embeddings for retrieval.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
