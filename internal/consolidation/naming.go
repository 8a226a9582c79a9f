package consolidation

import (
	"context"
	"fmt"
	"strings"

	"tokocart/internal/models"
)

// Resolution is the outcome of ResolveName. Exactly one field is set.
type Resolution struct {
	FinalName     string
	MergeTargetID string
}

// IsMerge reports whether the caller should merge into an existing cart
// instead of naming one.
func (r Resolution) IsMerge() bool {
	return r.MergeTargetID != ""
}

// NormalizeName returns the form used for cart name comparisons.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindByName returns the cart whose name collides with name, skipping the
// cart identified by exceptID.
func FindByName(carts []models.Cart, name, exceptID string) (models.Cart, bool) {
	key := NormalizeName(name)
	for _, c := range carts {
		if c.ID == exceptID {
			continue
		}
		if NormalizeName(c.Name) == key {
			return c, true
		}
	}
	return models.Cart{}, false
}

// ResolveName decides what to do with a desired cart name. selfID is the
// cart being renamed, or "" when creating. A nil confirmer takes the
// "create separate" path on collision.
func ResolveName(ctx context.Context, desired string, carts []models.Cart, selfID string, confirm Confirmer) (Resolution, error) {
	name := strings.TrimSpace(desired)
	if name == "" {
		return Resolution{}, ErrEmptyName
	}

	existing, collides := FindByName(carts, name, selfID)
	if !collides {
		return Resolution{FinalName: name}, nil
	}

	if confirm != nil {
		prompt := fmt.Sprintf("A cart named %q already exists. Merge into it instead of creating a separate cart?", existing.Name)
		decision, err := confirm.Confirm(ctx, prompt)
		if err != nil {
			return Resolution{}, fmt.Errorf("confirm merge into cart %s: %w", existing.ID, err)
		}
		switch decision {
		case DecisionYes:
			return Resolution{MergeTargetID: existing.ID}, nil
		case DecisionCancel:
			return Resolution{}, ErrCancelled
		}
	}

	return Resolution{FinalName: Disambiguate(name, carts, selfID)}, nil
}

// Disambiguate appends the lowest free " (N)" suffix, N >= 2, to base.
func Disambiguate(base string, carts []models.Cart, selfID string) string {
	taken := make(map[string]struct{}, len(carts))
	for _, c := range carts {
		if c.ID == selfID {
			continue
		}
		taken[NormalizeName(c.Name)] = struct{}{}
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if _, ok := taken[NormalizeName(candidate)]; !ok {
			return candidate
		}
	}
}
