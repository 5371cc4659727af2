package llm

import (
	"sync"
)

// pricing is USD per 1M tokens.
type pricing struct {
	Input  float64
	Output float64
}

// modelPricing covers the models this service is expected to run with.
var modelPricing = map[string]pricing{
	"gpt-4o-mini":   {Input: 0.15, Output: 0.60},
	"gpt-4o":        {Input: 2.50, Output: 10.00},
	"gpt-4.1-mini":  {Input: 0.40, Output: 1.60},
	"gpt-4.1":       {Input: 2.00, Output: 8.00},
	"gpt-3.5-turbo": {Input: 0.50, Output: 1.50},
}

// CostStats is a snapshot of accumulated API spend.
type CostStats struct {
	Requests     int     `json:"requests"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// CostTracker accumulates token spend across requests.
type CostTracker struct {
	mu    sync.Mutex
	stats CostStats
}

// NewCostTracker creates an empty tracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{}
}

// Track records one request's usage.
func (t *CostTracker) Track(model string, inputTokens, outputTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Requests++
	t.stats.InputTokens += inputTokens
	t.stats.OutputTokens += outputTokens
	t.stats.TotalCostUSD += EstimateCost(model, inputTokens, outputTokens)
}

// Stats returns a copy of the accumulated stats.
func (t *CostTracker) Stats() CostStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Reset clears accumulated stats.
func (t *CostTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = CostStats{}
}

// EstimateCost returns the USD cost for one request. Unknown models are
// priced at the gpt-4o-mini tier rather than zero so spend is never
// silently undercounted.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := modelPricing[model]
	if !ok {
		p = modelPricing["gpt-4o-mini"]
	}
	return float64(inputTokens)/1_000_000*p.Input + float64(outputTokens)/1_000_000*p.Output
}
