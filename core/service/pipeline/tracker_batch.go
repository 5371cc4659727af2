package pipeline

import (
	"context"

	"jobtrack_server/core/domain"
	"jobtrack_server/core/port/out"
	"jobtrack_server/pkg/logger"
)

// batchProgressEvery controls how often batch progress is logged.
const batchProgressEvery = 10

// Processor is the ingest-facing contract implemented by both the unified and
// staged flows.
type Processor interface {
	Process(ctx context.Context, email *domain.RawEmail) *domain.ProcessingResult
	ProcessBatch(ctx context.Context, emails []*domain.RawEmail) []*domain.ProcessingResult
	ProcessBatchSmart(ctx context.Context, emails []*domain.RawEmail) []*domain.ProcessingResult
	Stats() ProcessorStats
}

// runBatch processes emails sequentially. One item's failure never aborts the
// batch; the returned slice always has one result per input.
func runBatch(ctx context.Context, emails []*domain.RawEmail, log *logger.Logger,
	process func(context.Context, *domain.RawEmail) *domain.ProcessingResult,
) []*domain.ProcessingResult {
	results := make([]*domain.ProcessingResult, 0, len(emails))
	for i, email := range emails {
		results = append(results, process(ctx, email))
		if (i+1)%batchProgressEvery == 0 {
			log.Info("batch progress: %d/%d processed", i+1, len(emails))
		}
	}
	return results
}

// runBatchSmart partitions the batch into chunks sized by the capacity
// suggester. Throughput shaping only; results are identical to runBatch.
// afterChunk runs once per chunk with that chunk's token spend.
func runBatchSmart(ctx context.Context, emails []*domain.RawEmail,
	suggester out.CapacitySuggester, log *logger.Logger,
	process func(context.Context, *domain.RawEmail) *domain.ProcessingResult,
	afterChunk func(tokens int),
) []*domain.ProcessingResult {
	if suggester == nil {
		return runBatch(ctx, emails, log, process)
	}

	results := make([]*domain.ProcessingResult, 0, len(emails))
	remaining := emails
	for len(remaining) > 0 {
		size := suggester.SuggestChunkSize(ctx, len(remaining))
		if size <= 0 {
			size = 1
		}
		if size > len(remaining) {
			size = len(remaining)
		}
		chunk := remaining[:size]
		remaining = remaining[size:]

		chunkResults := runBatch(ctx, chunk, log, process)
		results = append(results, chunkResults...)

		tokens := 0
		for _, r := range chunkResults {
			tokens += r.TotalTokens
		}
		suggester.RecordUsage(ctx, tokens)
		afterChunk(tokens)
	}
	return results
}
