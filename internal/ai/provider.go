package ai

import (
	"context"
	"errors"

	"peer-match/internal/domain/profile"
)

// Provider faults are recovered locally by callers: a failed expansion
// falls back to the original text, a failed embedding means "no signal".
var (
	ErrExpansion = errors.New("text expansion failed")
	ErrEmbedding = errors.New("embedding generation failed")
)

// TextExpander turns a short normalized phrase into a longer, synonym-rich
// description tuned per slot, to improve embedding recall.
type TextExpander interface {
	Expand(ctx context.Context, text string, slot profile.Slot) (string, error)
}

// EmbeddingProvider turns text into a fixed-length vector. Empty input
// yields a nil vector without error.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
