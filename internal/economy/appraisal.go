package economy

import (
	"fmt"
	"strings"

	"github.com/talgya/pawnshop/internal/entropy"
	"github.com/talgya/pawnshop/internal/shop"
)

// Appraisal is what one appraisal attempt revealed. Zero fields were not revealed.
type Appraisal struct {
	ValueLow  int `json:"valueLow,omitempty"`
	ValueHigh int `json:"valueHigh,omitempty"`

	Condition           string  `json:"condition,omitempty"`
	ConditionMultiplier float64 `json:"conditionMultiplier,omitempty"`

	Rarity           string  `json:"rarity,omitempty"`
	RarityMultiplier float64 `json:"rarityMultiplier,omitempty"`
}

// Appraise makes three independent coin flips, in order value range,
// condition, rarity, each revealing one hidden fact about item.
func (g *Generator) Appraise(item *shop.Item) Appraisal {
	return Appraise(item, g.tables, g.src)
}

// Appraise is the generator-free form of Generator.Appraise.
func Appraise(item *shop.Item, t Tables, src entropy.Source) Appraisal {
	var a Appraisal
	if item == nil {
		return a
	}

	if src.Float64() < 0.5 && item.BaseValue > 0 {
		spread := max(10, round(float64(item.BaseValue)*0.2))
		a.ValueLow = max(1, item.BaseValue-spread)
		a.ValueHigh = item.BaseValue + spread
	}
	if src.Float64() < 0.5 && item.Condition != "" {
		a.Condition = item.Condition
		if m, ok := t.ConditionMultiplier(item.Condition); ok {
			a.ConditionMultiplier = m
		}
	}
	if src.Float64() < 0.5 && item.Rarity != "" {
		a.Rarity = item.Rarity
		if m, ok := t.RarityMultiplier(item.Rarity); ok {
			a.RarityMultiplier = m
		}
	}
	return a
}

// Revealed reports how many facts the appraisal uncovered.
func (a Appraisal) Revealed() int {
	n := 0
	if a.ValueHigh > 0 {
		n++
	}
	if a.Condition != "" {
		n++
	}
	if a.Rarity != "" {
		n++
	}
	return n
}

// Summary renders the appraisal as a single dialogue line.
func (a Appraisal) Summary() string {
	var found []string
	if a.ValueHigh > 0 {
		found = append(found, fmt.Sprintf("estimated base value around $%d-%d", a.ValueLow, a.ValueHigh))
	}
	if a.Condition != "" {
		s := "true condition is " + a.Condition
		if a.ConditionMultiplier > 0 {
			s += fmt.Sprintf(" (x%.2f)", a.ConditionMultiplier)
		}
		found = append(found, s)
	}
	if a.Rarity != "" {
		s := "rarity seems to be " + a.Rarity
		if a.RarityMultiplier > 0 {
			s += fmt.Sprintf(" (x%.1f)", a.RarityMultiplier)
		}
		found = append(found, s)
	}

	if len(found) == 0 {
		return "Appraisal results: Couldn't determine much about this item."
	}
	return "Appraisal results: You found out the " + strings.Join(found, ", and the ") + "."
}
