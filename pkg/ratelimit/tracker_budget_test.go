package ratelimit

import (
	"context"
	"testing"
)

func TestSuggestChunkSizeLocalCounters(t *testing.T) {
	ctx := context.Background()
	budget := NewTokenBudget(nil, &BudgetConfig{
		TokensPerMinute: 10000,
		TokensPerEmail:  1000,
		MaxChunkSize:    25,
		MinChunkSize:    1,
	})

	// Fresh bucket: full budget allows 10 emails.
	if got := budget.SuggestChunkSize(ctx, 50); got != 10 {
		t.Errorf("fresh suggestion = %d, want 10", got)
	}

	// Spending most of the budget shrinks the next chunk.
	budget.RecordUsage(ctx, 8000)
	if got := budget.SuggestChunkSize(ctx, 50); got != 2 {
		t.Errorf("after spend suggestion = %d, want 2", got)
	}

	// Exhausted budget still suggests the minimum so progress never stalls.
	budget.RecordUsage(ctx, 5000)
	if got := budget.SuggestChunkSize(ctx, 50); got != 1 {
		t.Errorf("exhausted suggestion = %d, want min 1", got)
	}
}

func TestSuggestChunkSizeCaps(t *testing.T) {
	ctx := context.Background()
	budget := NewTokenBudget(nil, &BudgetConfig{
		TokensPerMinute: 1_000_000,
		TokensPerEmail:  100,
		MaxChunkSize:    25,
		MinChunkSize:    1,
	})

	// Huge budget is bounded by MaxChunkSize.
	if got := budget.SuggestChunkSize(ctx, 500); got != 25 {
		t.Errorf("suggestion = %d, want max 25", got)
	}

	// And never exceeds what remains in the batch.
	if got := budget.SuggestChunkSize(ctx, 7); got != 7 {
		t.Errorf("suggestion = %d, want batch size 7", got)
	}
}

func TestRecordUsageIgnoresNonPositive(t *testing.T) {
	ctx := context.Background()
	budget := NewTokenBudget(nil, &BudgetConfig{
		TokensPerMinute: 1000,
		TokensPerEmail:  100,
		MaxChunkSize:    25,
		MinChunkSize:    1,
	})

	budget.RecordUsage(ctx, 0)
	budget.RecordUsage(ctx, -50)

	if got := budget.SuggestChunkSize(ctx, 100); got != 10 {
		t.Errorf("suggestion = %d, want untouched budget 10", got)
	}
}

func TestNilConfigUsesDefaults(t *testing.T) {
	budget := NewTokenBudget(nil, nil)
	if budget.config.TokensPerMinute != 200000 {
		t.Errorf("default TPM = %d, want 200000", budget.config.TokensPerMinute)
	}
}
