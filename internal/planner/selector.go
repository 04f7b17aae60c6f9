package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/kartquake/kartquake/internal/model"
)

// Oracle ranks surviving plans against the user's stated preference. The
// LLM client satisfies this.
type Oracle interface {
	ChoosePlan(ctx context.Context, plans []*model.CandidatePlan, preference string, constraints model.PlanConstraints) (key, explanation string, err error)
}

// Select picks one plan key and builds the user-facing explanation. With a
// single survivor there is nothing to rank; otherwise the oracle chooses,
// and any failure or unknown key falls back to the first plan in generation
// order. Substitution notes are appended to whatever explanation wins.
func Select(ctx context.Context, oracle Oracle, plans []*model.CandidatePlan, preference string, constraints model.PlanConstraints, notes []string) (string, string) {
	valid := make(map[string]bool, len(plans))
	for _, p := range plans {
		valid[p.Key] = true
	}

	var key, explanation string
	switch {
	case len(plans) == 1:
		key = plans[0].Key
		explanation = fmt.Sprintf("I selected the '%s' plan because the others did not satisfy your constraints or your current plan tier.", key)
	default:
		if oracle != nil {
			chosen, why, err := oracle.ChoosePlan(ctx, plans, preference, constraints)
			if err == nil && valid[chosen] {
				key = chosen
				explanation = why
			}
		}
		if key == "" {
			key = plans[0].Key
			explanation = fmt.Sprintf("I defaulted to the '%s' plan because I could not evaluate preferences.", key)
		}
	}

	if len(notes) > 0 {
		var b strings.Builder
		b.WriteString(explanation)
		b.WriteString("\n\nSubstitutions & availability notes:\n")
		for i, note := range notes {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- ")
			b.WriteString(note)
		}
		explanation = b.String()
	}
	return key, explanation
}
