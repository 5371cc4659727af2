// Package pipeline implements the staged and unified email processing flows.
package pipeline

import "jobtrack_server/core/domain"

// ProcessorStats are running counters owned by a processor instance. They are
// updated through the pure mergeStats function after each item completes;
// execution is single-threaded so no locking is needed.
type ProcessorStats struct {
	TotalProcessed int     `json:"total_processed"`
	Succeeded      int     `json:"succeeded"`
	Failed         int     `json:"failed"`
	JobRelated     int     `json:"job_related"`
	TotalTokens    int     `json:"total_tokens"`
	AverageTokens  float64 `json:"average_tokens_per_email"`
}

// SuccessRate returns the fraction of processed items that completed, in [0,1].
func (s ProcessorStats) SuccessRate() float64 {
	if s.TotalProcessed == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.TotalProcessed)
}

// JobRelatedPercentage returns the share of processed items classified
// job-related, in [0,100].
func (s ProcessorStats) JobRelatedPercentage() float64 {
	if s.TotalProcessed == 0 {
		return 0
	}
	return float64(s.JobRelated) / float64(s.TotalProcessed) * 100
}

// ResetUsage clears the token counters while keeping outcome counts. Called
// between smart-batch chunks so per-chunk budgets start fresh.
func (s *ProcessorStats) ResetUsage() {
	s.TotalTokens = 0
	s.AverageTokens = 0
}

// mergeStats folds one finished result into the counters. The average is an
// incremental mean so it never needs the full history.
func mergeStats(s ProcessorStats, res *domain.ProcessingResult) ProcessorStats {
	s.TotalProcessed++
	if res.Success {
		s.Succeeded++
	} else {
		s.Failed++
	}
	if res.IsJobRelated() {
		s.JobRelated++
	}
	s.TotalTokens += res.TotalTokens
	s.AverageTokens += (float64(res.TotalTokens) - s.AverageTokens) / float64(s.TotalProcessed)
	return s
}
