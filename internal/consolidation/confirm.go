package consolidation

import "context"

// Decision is the outcome of a confirmation prompt.
type Decision int

const (
	DecisionNo Decision = iota
	DecisionYes
	DecisionCancel
)

func (d Decision) String() string {
	switch d {
	case DecisionYes:
		return "yes"
	case DecisionNo:
		return "no"
	case DecisionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Confirmer asks a human (or a script standing in for one) a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (Decision, error)
}

// ConfirmFunc adapts a plain function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (Decision, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (Decision, error) {
	return f(ctx, prompt)
}

// Always returns a Confirmer that answers every prompt with d.
func Always(d Decision) Confirmer {
	return ConfirmFunc(func(context.Context, string) (Decision, error) {
		return d, nil
	})
}

// FromBool maps a pre-collected yes/no answer to a Confirmer.
func FromBool(yes bool) Confirmer {
	if yes {
		return Always(DecisionYes)
	}
	return Always(DecisionNo)
}
