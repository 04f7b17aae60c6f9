// Package catalog is the static demo product table for the default store,
// with heuristic intent-to-SKU matching and substitution notes.
package catalog

import (
	"fmt"
	"math"
	"strings"

	"github.com/kartquake/kartquake/internal/model"
)

// Default store identity. The demo catalog only covers this one store; other
// stores in a plan are priced by the estimator.
const (
	FredMeyerStoreID   = "fred_meyer_demo"
	FredMeyerStoreName = "Fred Meyer (demo)"
)

// SKU is one catalog row. Attribute fields are zero-valued when they do not
// apply to the product's category.
type SKU struct {
	SKU               string  `json:"sku"`
	CanonicalCategory string  `json:"canonical_category"`
	Name              string  `json:"name"`
	Brand             string  `json:"brand"`
	Volume            string  `json:"volume,omitempty"`
	FatLevel          string  `json:"fat_level,omitempty"`
	LactoseFree       *bool   `json:"lactose_free,omitempty"`
	EggSize           string  `json:"egg_size,omitempty"`
	Flavor            string  `json:"flavor,omitempty"`
	Type              string  `json:"type,omitempty"`
	Count             int     `json:"count,omitempty"`
	SizeOz            int     `json:"size_oz,omitempty"`
	Loads             int     `json:"loads,omitempty"`
	Price             float64 `json:"price"`
}

func boolPtr(b bool) *bool { return &b }

var skus = []SKU{
	// Milk
	{
		SKU:               "fm_milk_2pct_1gal",
		CanonicalCategory: model.CategoryMilk,
		Name:              "Fred Meyer 2% Milk 1 Gallon",
		Brand:             "Fred Meyer",
		Volume:            "1 gallon",
		FatLevel:          "2%",
		LactoseFree:       boolPtr(false),
		Price:             3.79,
	},
	{
		SKU:               "fm_milk_2pct_1gal_lf",
		CanonicalCategory: model.CategoryMilk,
		Name:              "Fred Meyer 2% Lactose Free Milk 1 Gallon",
		Brand:             "Fred Meyer",
		Volume:            "1 gallon",
		FatLevel:          "2%",
		LactoseFree:       boolPtr(true),
		Price:             4.69,
	},
	{
		SKU:               "fm_milk_1pct_1gal",
		CanonicalCategory: model.CategoryMilk,
		Name:              "Fred Meyer 1% Milk 1 Gallon",
		Brand:             "Fred Meyer",
		Volume:            "1 gallon",
		FatLevel:          "1%",
		LactoseFree:       boolPtr(false),
		Price:             3.59,
	},

	// Eggs
	{
		SKU:               "fm_eggs_large_12",
		CanonicalCategory: model.CategoryEggs,
		Name:              "Fred Meyer Large Eggs 12 ct",
		Brand:             "Fred Meyer",
		EggSize:           "large",
		Count:             12,
		Price:             2.49,
	},
	{
		SKU:               "fm_eggs_large_18",
		CanonicalCategory: model.CategoryEggs,
		Name:              "Fred Meyer Large Eggs 18 ct",
		Brand:             "Fred Meyer",
		EggSize:           "large",
		Count:             18,
		Price:             3.59,
	},

	// Cereal
	{
		SKU:               "fm_cereal_cornflakes_18oz",
		CanonicalCategory: model.CategoryCereal,
		Name:              "Kellogg's Corn Flakes 18 oz",
		Brand:             "Kellogg",
		Flavor:            "corn flakes",
		SizeOz:            18,
		Price:             4.29,
	},
	{
		SKU:               "fm_cereal_frootloops_14oz",
		CanonicalCategory: model.CategoryCereal,
		Name:              "Kellogg's Froot Loops 14 oz",
		Brand:             "Kellogg",
		Flavor:            "froot loops",
		SizeOz:            14,
		Price:             4.49,
	},

	// Detergent
	{
		SKU:               "fm_detergent_tide_pods_42ct",
		CanonicalCategory: model.CategoryDetergent,
		Name:              "Tide Pods Laundry Detergent 42 ct",
		Brand:             "Tide",
		Type:              "pods",
		Count:             42,
		Price:             14.99,
	},
	{
		SKU:               "fm_detergent_tide_liquid_64",
		CanonicalCategory: model.CategoryDetergent,
		Name:              "Tide Liquid Laundry Detergent 64 loads",
		Brand:             "Tide",
		Type:              "liquid",
		Loads:             64,
		Price:             13.99,
	},
}

// MatchResult holds the best-scoring SKU for an intent, up to three runner-up
// alternatives, and a substitution note when the best match is approximate.
type MatchResult struct {
	Best         *SKU
	Alternatives []SKU
	Exact        bool
	Note         string
}

// attribute keys that decide whether a match counts as exact
var exactnessKeys = []string{"fat_level", "volume", "lactose_free", "egg_size", "flavor", "type"}

func stringAttr(attrs map[string]any, key string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

func score(intent *model.ItemIntent, sku *SKU) int {
	attrs := intent.Attributes
	cat := strings.ToLower(intent.CanonicalCategory)
	if cat == "" || cat != strings.ToLower(sku.CanonicalCategory) {
		return 0
	}
	s := 5 // category gate

	if fat := stringAttr(attrs, "fat_level"); fat != "" && fat == sku.FatLevel {
		s += 3
	}
	if vol := stringAttr(attrs, "volume"); vol != "" && strings.EqualFold(vol, sku.Volume) {
		s += 2
	}
	if lf, ok := attrs["lactose_free"].(bool); ok {
		skuLF := sku.LactoseFree != nil && *sku.LactoseFree
		if lf == skuLF {
			s += 2
		}
	}
	if brand := stringAttr(attrs, "brand"); brand != "" {
		b := strings.ToLower(brand)
		if strings.Contains(strings.ToLower(sku.Brand), b) {
			s += 2
		}
		if strings.Contains(strings.ToLower(sku.Name), b) {
			s++
		}
	}
	if size := stringAttr(attrs, "egg_size"); size != "" && size == sku.EggSize {
		s += 2
	}
	if flavor := stringAttr(attrs, "flavor"); flavor != "" && strings.Contains(strings.ToLower(sku.Flavor), strings.ToLower(flavor)) {
		s += 2
	}
	if dtype := stringAttr(attrs, "type"); dtype != "" && strings.EqualFold(dtype, sku.Type) {
		s += 2
	}
	return s
}

// skuAttrEqual compares one exactness attribute on the SKU against the
// intent's requested value. A key the SKU does not carry never matches.
func skuAttrEqual(sku *SKU, key string, want any) bool {
	switch key {
	case "fat_level":
		s, ok := want.(string)
		return ok && sku.FatLevel != "" && s == sku.FatLevel
	case "volume":
		s, ok := want.(string)
		return ok && sku.Volume != "" && s == sku.Volume
	case "lactose_free":
		b, ok := want.(bool)
		return ok && sku.LactoseFree != nil && b == *sku.LactoseFree
	case "egg_size":
		s, ok := want.(string)
		return ok && sku.EggSize != "" && s == sku.EggSize
	case "flavor":
		s, ok := want.(string)
		return ok && sku.Flavor != "" && s == sku.Flavor
	case "type":
		s, ok := want.(string)
		return ok && sku.Type != "" && s == sku.Type
	}
	return false
}

// Match scores the catalog against an intent and picks the best SKU. An
// intent without a category matches nothing.
func Match(intent *model.ItemIntent) MatchResult {
	if intent.CanonicalCategory == "" {
		return MatchResult{}
	}

	type scored struct {
		score int
		sku   SKU
	}
	var candidates []scored
	for i := range skus {
		if s := score(intent, &skus[i]); s > 0 {
			candidates = append(candidates, scored{score: s, sku: skus[i]})
		}
	}
	if len(candidates) == 0 {
		return MatchResult{}
	}

	// Stable sort keeps catalog order for ties.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].score > candidates[j-1].score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	best := candidates[0].sku
	var alts []SKU
	for _, c := range candidates[1:] {
		alts = append(alts, c.sku)
		if len(alts) == 3 {
			break
		}
	}

	exact := true
	for _, key := range exactnessKeys {
		want, present := intent.Attributes[key]
		if !present {
			continue
		}
		if !skuAttrEqual(&best, key, want) {
			exact = false
			break
		}
	}

	result := MatchResult{Best: &best, Alternatives: alts, Exact: exact}
	if !exact {
		result.Note = substitutionNote(intent, &best, alts)
	}
	return result
}

func substitutionNote(intent *model.ItemIntent, best *SKU, alts []SKU) string {
	desc := intent.RawText
	if desc == "" {
		desc = intent.CanonicalCategory
		if desc == "" {
			desc = "item"
		}
	}

	if len(alts) == 0 {
		return fmt.Sprintf("At %s, I couldn't find an exact match for %q. I suggest %q as the closest alternative.",
			FredMeyerStoreName, desc, best.Name)
	}

	names := make([]string, len(alts))
	for i, a := range alts {
		names[i] = a.Name
	}
	return fmt.Sprintf("At %s, I couldn't find an exact match for %q. I suggest %q instead. Other close options: %s.",
		FredMeyerStoreName, desc, best.Name, strings.Join(names, ", "))
}

// Price prices an intent from the catalog: best SKU unit price times the
// effective quantity, rounded to cents. Returns nil when nothing matched;
// the note carries forward any substitution text.
func Price(intent *model.ItemIntent) (*float64, string) {
	m := Match(intent)
	if m.Best == nil {
		return nil, ""
	}
	price := math.Round(m.Best.Price*float64(intent.EffectiveQuantity())*100) / 100
	return &price, m.Note
}
