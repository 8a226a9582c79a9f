package consolidation

import (
	"fmt"

	"tokocart/internal/models"
)

// Strategy selects the similarity dimension used by AutoMerge.
type Strategy string

// Only StrategyByProduct is implemented. The others are accepted and
// currently score the same way.
const (
	StrategyByProduct Strategy = "byProduct"
	StrategyByTime    Strategy = "byTime"
	StrategyManual    Strategy = "manual"
)

// DefaultAutoMergeThreshold is the confidence percentage a pair must exceed.
const DefaultAutoMergeThreshold = 85

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyByProduct, StrategyByTime, StrategyManual:
		return st, nil
	case "":
		return StrategyByProduct, nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q", s)
	}
}

// Config controls AutoMerge.
type Config struct {
	EnableAutoMerge    bool
	AutoMergeThreshold int
	MergeStrategy      Strategy
}

// DefaultConfig returns auto-merge enabled at the default threshold.
func DefaultConfig() Config {
	return Config{
		EnableAutoMerge:    true,
		AutoMergeThreshold: DefaultAutoMergeThreshold,
		MergeStrategy:      StrategyByProduct,
	}
}

// AutoMergeResult is the consolidated set plus the pairs that were applied.
type AutoMergeResult struct {
	Carts  []models.Cart
	Merged []Pair
}

// AutoMerge runs one pass over carts, merging every pair whose confidence
// exceeds the configured threshold. Pairs are applied in ranked order
// against a working copy; a pair whose side was already consumed by an
// earlier merge in the same pass is skipped. Scores are not recomputed
// between merges.
func AutoMerge(carts []models.Cart, cfg Config, by Actor) AutoMergeResult {
	working := models.CloneCarts(carts)
	if !cfg.EnableAutoMerge {
		return AutoMergeResult{Carts: working}
	}

	var applied []Pair
	for _, pair := range FindMergeablePairs(carts) {
		if pair.Confidence() <= cfg.AutoMergeThreshold {
			continue
		}
		next, err := Merge(working, pair.CartA.ID, pair.CartB.ID, by)
		if err != nil {
			// One side was consumed earlier in this pass.
			continue
		}
		working = next
		applied = append(applied, pair)
	}
	return AutoMergeResult{Carts: working, Merged: applied}
}
