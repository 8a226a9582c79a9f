package consolidation

import (
	"time"

	"tokocart/internal/models"
)

// Actor identifies who performs a mutation and when.
type Actor struct {
	Name string
	At   time.Time
}

// Now returns an Actor for name stamped with the current time.
func Now(name string) Actor {
	return Actor{Name: name, At: time.Now().UTC()}
}

func indexOf(carts []models.Cart, id string) int {
	for i, c := range carts {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the cart with the given id.
func Find(carts []models.Cart, id string) (models.Cart, error) {
	i := indexOf(carts, id)
	if i < 0 {
		return models.Cart{}, &CartNotFoundError{CartID: id}
	}
	return carts[i], nil
}

// Merge folds the source cart into the target cart and returns the new set
// with the source removed. Source items are appended after the target's in
// their original order and stamped as edited by the actor.
func Merge(carts []models.Cart, sourceID, targetID string, by Actor) ([]models.Cart, error) {
	if sourceID == targetID {
		return nil, ErrSelfMerge
	}
	si := indexOf(carts, sourceID)
	if si < 0 {
		return nil, &CartNotFoundError{CartID: sourceID}
	}
	ti := indexOf(carts, targetID)
	if ti < 0 {
		return nil, &CartNotFoundError{CartID: targetID}
	}

	out := make([]models.Cart, 0, len(carts)-1)
	for i, c := range carts {
		switch i {
		case si:
			continue
		case ti:
			out = append(out, combine(c, carts[si], by))
		default:
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func combine(target, source models.Cart, by Actor) models.Cart {
	merged := target.Clone()
	for _, item := range source.Items {
		at := by.At
		item.EditedBy = by.Name
		item.EditedAt = &at
		merged.Items = append(merged.Items, item)
	}
	merged.RecalculateTotal()
	merged.Touch(by.Name, by.At)
	return merged
}
