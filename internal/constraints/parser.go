// Package constraints turns free-form trip language into structured
// PlanConstraints. Parsing is pure and merge-based: rules only overwrite the
// fields they match, so repeated messages accumulate into one constraint set.
package constraints

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kartquake/kartquake/internal/model"
)

// Store-cap trigger words, checked in order; the first one that matches wins.
var storeCapTriggers = []string{"only", "max", "at most", "no more than", "limit"}

var storeCapPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(storeCapTriggers))
	for i, word := range storeCapTriggers {
		patterns[i] = regexp.MustCompile(word + `\s+(?:to\s+)?(\d+)`)
	}
	return patterns
}()

var oneStoreOnlyPattern = regexp.MustCompile(`\b1\s+store\s+only\b`)

var avoidCostcoPhrases = []string{
	"avoid costco",
	"no costco",
	"don't go to costco",
	"dont go to costco",
}

var includeCostcoPhrases = []string{
	"only costco",
	"costco + one grocery",
	"costco and one grocery",
	"costco and one other grocery",
}

var cheapestPhrases = []string{
	"cheapest overall",
	"lowest total cost",
	"as cheap as possible",
	"best price",
}

var fastestPhrases = []string{
	"fastest drive",
	"shortest drive",
	"fastest route",
	"as fast as possible",
}

// Parse merges trip language from text into the existing constraints.
// Case-insensitive; text that matches no rule returns existing unchanged.
//
// Rule order matters: the inclusion family runs after the avoidance family,
// so a message containing both ends up with must_include_costco set. The
// fastest-drive family runs after the cheapest family for the same reason.
func Parse(text string, existing model.PlanConstraints) model.PlanConstraints {
	t := strings.ToLower(text)
	c := existing
	if c.OptimizeFor == "" {
		c.OptimizeFor = model.OptimizeBalanced
	}

	// Numeric store cap: "only 2 stores", "max 3", "limit to 2".
	for _, pattern := range storeCapPatterns {
		m := pattern.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			c.MaxStores = &n
			break
		}
	}

	// "1 store only" overrides whatever the numeric rule found.
	if oneStoreOnlyPattern.MatchString(t) {
		one := 1
		c.MaxStores = &one
	}

	if containsAny(t, avoidCostcoPhrases) {
		c.AvoidCostco = true
		c.MustIncludeCostco = false
	}

	if containsAny(t, includeCostcoPhrases) {
		c.MustIncludeCostco = true
		c.AvoidCostco = false
		two := 2
		c.MaxStores = &two
	}

	if strings.Contains(t, "cheapest gas") || strings.Contains(t, "cheap gas") {
		c.IncludeCheapestGas = true
	}

	if containsAny(t, cheapestPhrases) {
		c.OptimizeFor = model.OptimizeCheapestOverall
	}
	if containsAny(t, fastestPhrases) {
		c.OptimizeFor = model.OptimizeFastestDrive
	}

	return c
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
