// Package ratelimit provides token-budget shaping for LLM batch processing.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// BudgetConfig holds token budget configuration.
type BudgetConfig struct {
	TokensPerMinute int // provider-side TPM budget (default: 200000)
	TokensPerEmail  int // planning estimate per email (default: 1500)
	MaxChunkSize    int // hard cap per chunk (default: 25)
	MinChunkSize    int // never suggest less than this (default: 1)
}

// DefaultBudgetConfig returns sensible defaults for a mini-tier model.
func DefaultBudgetConfig() *BudgetConfig {
	return &BudgetConfig{
		TokensPerMinute: 200000,
		TokensPerEmail:  1500,
		MaxChunkSize:    25,
		MinChunkSize:    1,
	}
}

// TokenBudget tracks recent token spend in a per-minute redis bucket and
// suggests how many emails the next chunk can hold without blowing the
// provider's TPM budget. Without redis it falls back to local counters, so a
// single process still gets shaping.
type TokenBudget struct {
	redis  *redis.Client
	config *BudgetConfig

	mu          sync.Mutex
	localBucket string
	localTokens int
}

// NewTokenBudget creates a token budget tracker.
func NewTokenBudget(redisClient *redis.Client, config *BudgetConfig) *TokenBudget {
	if config == nil {
		config = DefaultBudgetConfig()
	}
	return &TokenBudget{redis: redisClient, config: config}
}

func bucketKey(now time.Time) string {
	return fmt.Sprintf("llm:budget:%s", now.Format("2006-01-02T15:04"))
}

// RecordUsage adds spent tokens to the current minute bucket.
func (b *TokenBudget) RecordUsage(ctx context.Context, tokens int) {
	if tokens <= 0 {
		return
	}
	key := bucketKey(time.Now())

	if b.redis != nil {
		pipe := b.redis.Pipeline()
		pipe.IncrBy(ctx, key, int64(tokens))
		pipe.Expire(ctx, key, 2*time.Minute)
		if _, err := pipe.Exec(ctx); err == nil {
			return
		}
		// fall through to local counters on redis failure
	}

	b.mu.Lock()
	if b.localBucket != key {
		b.localBucket = key
		b.localTokens = 0
	}
	b.localTokens += tokens
	b.mu.Unlock()
}

// usedThisMinute returns the tokens already spent in the current bucket.
func (b *TokenBudget) usedThisMinute(ctx context.Context) int {
	key := bucketKey(time.Now())

	if b.redis != nil {
		if used, err := b.redis.Get(ctx, key).Int(); err == nil {
			return used
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.localBucket != key {
		return 0
	}
	return b.localTokens
}

// SuggestChunkSize returns how many emails the next chunk may contain given
// the remaining minute budget. Throughput shaping only: the answer is always
// at least MinChunkSize so progress never stalls.
func (b *TokenBudget) SuggestChunkSize(ctx context.Context, batchSize int) int {
	remaining := b.config.TokensPerMinute - b.usedThisMinute(ctx)
	size := remaining / b.config.TokensPerEmail

	if size > b.config.MaxChunkSize {
		size = b.config.MaxChunkSize
	}
	if size > batchSize {
		size = batchSize
	}
	if size < b.config.MinChunkSize {
		size = b.config.MinChunkSize
	}
	return size
}
