// README: Knowledge corpus types.
package knowledge

import "time"

// Chunk is one stored fragment of the restaurant corpus (menu, house rules,
// address, policies), embedded once at ingestion.
type Chunk struct {
	ID        int64
	Title     string
	Content   string
	Embedding []float32
	CreatedAt time.Time
}

// Passage is a retrieval hit handed to the composer as grounding.
type Passage struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
