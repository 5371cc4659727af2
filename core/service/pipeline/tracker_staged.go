package pipeline

import (
	"context"
	"fmt"

	"jobtrack_server/core/domain"
	"jobtrack_server/core/port/out"
	"jobtrack_server/pkg/logger"
)

// StagedProcessor runs the three-call pipeline: classification, then content
// extraction, then data structuring. Later stages run only for job-related
// emails; unrelated mail never reaches a second paid call.
type StagedProcessor struct {
	llm       out.LLMProcessor
	suggester out.CapacitySuggester

	// skipNonJobRelated short-circuits after classification for unrelated
	// mail. Cost control, on by default.
	skipNonJobRelated bool

	stats ProcessorStats
	log   *logger.Logger
}

var _ Processor = (*StagedProcessor)(nil)

// StagedOption configures a StagedProcessor.
type StagedOption func(*StagedProcessor)

// WithSkipNonJobRelated toggles the classification short-circuit.
func WithSkipNonJobRelated(skip bool) StagedOption {
	return func(p *StagedProcessor) { p.skipNonJobRelated = skip }
}

// WithCapacitySuggester enables smart-batch chunk sizing.
func WithCapacitySuggester(s out.CapacitySuggester) StagedOption {
	return func(p *StagedProcessor) { p.suggester = s }
}

// NewStagedProcessor creates a staged processor.
func NewStagedProcessor(llm out.LLMProcessor, opts ...StagedOption) *StagedProcessor {
	p := &StagedProcessor{
		llm:               llm,
		skipNonJobRelated: true,
		log:               logger.Default().WithField("component", "staged_processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stats returns a copy of the running counters.
func (p *StagedProcessor) Stats() ProcessorStats {
	return p.stats
}

// Process runs one email through the pipeline. It always returns a result:
// stage failures terminate the item with success=false, they never escape
// to the caller.
func (p *StagedProcessor) Process(ctx context.Context, email *domain.RawEmail) *domain.ProcessingResult {
	res := p.process(ctx, email)
	p.stats = mergeStats(p.stats, res)
	return res
}

func (p *StagedProcessor) process(ctx context.Context, email *domain.RawEmail) *domain.ProcessingResult {
	res := domain.NewProcessingResult(*email)

	if err := email.Validate(); err != nil {
		res.MarkFailed(fmt.Sprintf("invalid input: %v", err))
		return res
	}

	cls, err := p.llm.Classify(ctx, email)
	if err != nil {
		res.MarkFailed(fmt.Sprintf("classification failed: %v", err))
		p.log.WithError(err).Warn("classification failed for %s", email.GmailMessageID)
		return res
	}
	res.ApplyClassification(cls)

	if p.skipNonJobRelated && !cls.IsJobRelated {
		res.Finalize()
		return res
	}

	if cls.IsJobRelated {
		ext, err := p.llm.ExtractContent(ctx, email, cls)
		if err != nil {
			res.MarkFailed(fmt.Sprintf("content extraction failed: %v", err))
			p.log.WithError(err).Warn("content extraction failed for %s", email.GmailMessageID)
			return res
		}
		res.ApplyContentExtraction(ext)

		// Structuring only makes sense when extraction produced something.
		if ext != nil {
			structured, err := p.llm.ExtractStructured(ctx, email, ext)
			if err != nil {
				res.MarkFailed(fmt.Sprintf("data structuring failed: %v", err))
				p.log.WithError(err).Warn("data structuring failed for %s", email.GmailMessageID)
				return res
			}
			res.ApplyStructuredData(structured)
		}
	}

	res.Finalize()
	return res
}

// ProcessBatch processes emails sequentially with per-item isolation.
func (p *StagedProcessor) ProcessBatch(ctx context.Context, emails []*domain.RawEmail) []*domain.ProcessingResult {
	return runBatch(ctx, emails, p.log, p.Process)
}

// ProcessBatchSmart chunks the batch by the capacity suggester and resets
// token counters between chunks.
func (p *StagedProcessor) ProcessBatchSmart(ctx context.Context, emails []*domain.RawEmail) []*domain.ProcessingResult {
	return runBatchSmart(ctx, emails, p.suggester, p.log, p.Process,
		func(int) { p.stats.ResetUsage() })
}
