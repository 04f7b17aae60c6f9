package constraints

import (
	"testing"

	"github.com/kartquake/kartquake/internal/model"
)

func TestParseStoreCap(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"only 2 stores please", 2},
		{"max 3 stops", 3},
		{"at most 2 stores", 2},
		{"no more than 4 places", 4},
		{"limit to 2 stores", 2},
		{"limit 1 store", 1},
	}
	for _, tt := range tests {
		got := Parse(tt.text, model.DefaultConstraints())
		if got.MaxStores == nil || *got.MaxStores != tt.want {
			t.Errorf("Parse(%q): max stores = %v, want %d", tt.text, got.MaxStores, tt.want)
		}
	}
}

func TestParseOneStoreOnlyOverrides(t *testing.T) {
	got := Parse("max 3 but actually 1 store only", model.DefaultConstraints())
	if got.MaxStores == nil || *got.MaxStores != 1 {
		t.Fatalf("max stores = %v, want 1", got.MaxStores)
	}
}

func TestParseAvoidClearsInclude(t *testing.T) {
	existing := model.DefaultConstraints()
	existing.MustIncludeCostco = true

	got := Parse("avoid costco this week", existing)
	if !got.AvoidCostco {
		t.Error("expected avoid_costco set")
	}
	if got.MustIncludeCostco {
		t.Error("expected must_include_costco cleared")
	}
}

func TestParseIncludeWinsOverAvoidInSameMessage(t *testing.T) {
	got := Parse("no costco... wait, only costco", model.DefaultConstraints())
	if !got.MustIncludeCostco {
		t.Error("expected must_include_costco set")
	}
	if got.AvoidCostco {
		t.Error("expected avoid_costco cleared")
	}
	if got.MaxStores == nil || *got.MaxStores != 2 {
		t.Errorf("max stores = %v, want 2", got.MaxStores)
	}
}

func TestParseFastestWinsOverCheapest(t *testing.T) {
	got := Parse("cheapest overall but fastest route", model.DefaultConstraints())
	if got.OptimizeFor != model.OptimizeFastestDrive {
		t.Errorf("optimize_for = %q, want %q", got.OptimizeFor, model.OptimizeFastestDrive)
	}
}

func TestParseOptimizeFamilies(t *testing.T) {
	got := Parse("I want the lowest total cost", model.DefaultConstraints())
	if got.OptimizeFor != model.OptimizeCheapestOverall {
		t.Errorf("optimize_for = %q, want cheapest_overall", got.OptimizeFor)
	}

	got = Parse("shortest drive please", model.DefaultConstraints())
	if got.OptimizeFor != model.OptimizeFastestDrive {
		t.Errorf("optimize_for = %q, want fastest_drive", got.OptimizeFor)
	}
}

func TestParseCheapestGas(t *testing.T) {
	got := Parse("and find the cheapest gas on the way", model.DefaultConstraints())
	if !got.IncludeCheapestGas {
		t.Error("expected include_cheapest_gas set")
	}
}

func TestParseMergePreservesUnmatchedFields(t *testing.T) {
	first := Parse("avoid costco", model.DefaultConstraints())
	second := Parse("max 2 stores", first)

	if !second.AvoidCostco {
		t.Error("expected avoid_costco to survive the second message")
	}
	if second.MaxStores == nil || *second.MaxStores != 2 {
		t.Errorf("max stores = %v, want 2", second.MaxStores)
	}
}

func TestParseIdempotent(t *testing.T) {
	text := "only 2 stores, avoid costco, cheapest overall, cheap gas"
	once := Parse(text, model.DefaultConstraints())
	twice := Parse(text, once)
	if !once.Equal(twice) {
		t.Errorf("reparsing changed constraints: %+v vs %+v", once, twice)
	}
}

func TestParseNoMatchReturnsExisting(t *testing.T) {
	existing := Parse("avoid costco", model.DefaultConstraints())
	got := Parse("hello there", existing)
	if !got.Equal(existing) {
		t.Errorf("unrelated text changed constraints: %+v vs %+v", got, existing)
	}
}
