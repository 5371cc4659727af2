// Package out defines outbound ports implemented by adapters.
package out

import (
	"context"

	"jobtrack_server/core/domain"
)

// UnifiedCompletion is the raw outcome of the single-call processing path.
// Payload is the model's JSON object as returned; defensive parsing with
// per-field defaults is the unified processor's job, not the adapter's.
type UnifiedCompletion struct {
	Payload          []byte
	TokensUsed       int
	ProcessingTimeMs int64
	Model            string
}

// LLMProcessor is the port to the language model provider. Every call blocks;
// timeouts and retries belong to the adapter behind this interface.
type LLMProcessor interface {
	// Classify runs the cheap first-stage call on any email.
	Classify(ctx context.Context, email *domain.RawEmail) (*domain.ClassificationResult, error)

	// ExtractContent runs only for job-related emails.
	ExtractContent(ctx context.Context, email *domain.RawEmail, cls *domain.ClassificationResult) (*domain.ContentExtractionResult, error)

	// ExtractStructured pulls dates, links and action items.
	ExtractStructured(ctx context.Context, email *domain.RawEmail, ext *domain.ContentExtractionResult) (*domain.StructuredDataResult, error)

	// CompleteUnified collapses all three stages into one call.
	CompleteUnified(ctx context.Context, email *domain.RawEmail) (*UnifiedCompletion, error)
}

// CapacitySuggester shapes batch throughput. SuggestChunkSize returns how many
// items the next chunk may contain given the remaining token budget; it is a
// throughput policy, never a correctness requirement.
type CapacitySuggester interface {
	SuggestChunkSize(ctx context.Context, batchSize int) int
	RecordUsage(ctx context.Context, tokens int)
}
