package consolidation

import (
	"math"
	"sort"
	"strings"

	"tokocart/internal/models"
)

const (
	// HighOverlapThreshold is the Jaccard index above which two carts are
	// flagged for product overlap.
	HighOverlapThreshold = 0.7
	// FewItemsLimit flags pairs where both carts hold fewer items than this.
	FewItemsLimit = 3
)

// Reasons a pair is reported as mergeable, in priority order.
const (
	ReasonHighOverlap  = "High product overlap"
	ReasonSimilarNames = "Similar names"
	ReasonFewItems     = "Both carts have few items"
)

// Pair is a candidate merge. CartA is the side that would be folded into CartB.
type Pair struct {
	CartA      models.Cart
	CartB      models.Cart
	Similarity float64
	Reason     string
}

// Confidence is the similarity as a rounded percentage.
func (p Pair) Confidence() int {
	return int(math.Round(p.Similarity * 100))
}

// Benefit labels the impact of merging the pair.
func (p Pair) Benefit() string {
	return BenefitLabel(len(p.CartA.Items) + len(p.CartB.Items))
}

// BenefitLabel labels a merge by the number of items it would combine.
func BenefitLabel(itemCount int) string {
	switch {
	case itemCount < 5:
		return "Low impact"
	case itemCount < 10:
		return "Medium impact"
	default:
		return "High impact — significant consolidation"
	}
}

func productSet(c models.Cart) map[string]struct{} {
	set := make(map[string]struct{}, len(c.Items))
	for _, item := range c.Items {
		set[item.ProductID] = struct{}{}
	}
	return set
}

// Similarity is the Jaccard index over the distinct product ids of a and b.
// ok is false when neither cart holds any product.
func Similarity(a, b models.Cart) (score float64, ok bool) {
	setA, setB := productSet(a), productSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0, false
	}
	var shared int
	for id := range setA {
		if _, found := setB[id]; found {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union), true
}

func similarNames(a, b models.Cart) bool {
	na, nb := NormalizeName(a.Name), NormalizeName(b.Name)
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

func mergeReason(a, b models.Cart, score float64) (string, bool) {
	switch {
	case score > HighOverlapThreshold:
		return ReasonHighOverlap, true
	case similarNames(a, b):
		return ReasonSimilarNames, true
	case len(a.Items) < FewItemsLimit && len(b.Items) < FewItemsLimit:
		return ReasonFewItems, true
	default:
		return "", false
	}
}

// FindMergeablePairs scores every pair in carts and returns the qualifying
// ones, highest similarity first. Equal scores keep enumeration order.
func FindMergeablePairs(carts []models.Cart) []Pair {
	var pairs []Pair
	for i := 0; i < len(carts); i++ {
		for j := i + 1; j < len(carts); j++ {
			a, b := carts[i], carts[j]
			score, ok := Similarity(a, b)
			if !ok {
				continue
			}
			reason, qualifies := mergeReason(a, b, score)
			if !qualifies {
				continue
			}
			pairs = append(pairs, Pair{
				CartA:      a.Clone(),
				CartB:      b.Clone(),
				Similarity: score,
				Reason:     reason,
			})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Similarity > pairs[j].Similarity
	})
	return pairs
}
