// Package economy generates the hidden numbers behind every negotiation:
// item value, condition and rarity, seller floors, buyer ceilings, and the
// appraisal reveals.
package economy

// Condition is an item condition with its value multiplier (≤ 1).
type Condition struct {
	Name       string
	Multiplier float64
}

// Rarity is an item rarity with its value multiplier (≥ 1) and selection weight.
type Rarity struct {
	Name       string
	Multiplier float64
	Weight     int
}

// Tables holds every static list the generator draws from.
type Tables struct {
	Conditions    []Condition
	Rarities      []Rarity
	Personalities []string
	Themes        []string
	ObjectTypes   []string
}

// DefaultTables returns the stock shop tables.
func DefaultTables() Tables {
	return Tables{
		Conditions: []Condition{
			{"Broken", 0.25},
			{"Damaged", 0.40},
			{"Worn", 0.50},
			{"Regular", 0.75},
			{"Good", 0.90},
			{"Perfect", 1.00},
		},
		Rarities: []Rarity{
			{"Common", 1.0, 40},
			{"Uncommon", 1.5, 30},
			{"Rare", 2.0, 20},
			{"Unique", 3.0, 8},
			{"Legendary", 5.0, 2},
		},
		Personalities: []string{
			"Grumpy", "Cheerful", "Nervous", "Suspicious", "Friendly", "Arrogant",
			"Desperate", "Calm", "Shady", "Formal", "Enthusiastic", "Timid",
			"World-weary", "Sarcastic", "Naive", "Cunning", "Regretful", "Boastful",
			"Melancholy", "Pragmatic", "Distracted", "Curious", "Impatient",
			"Secretive", "Jovial", "Collector", "Bargain Hunter", "Wealthy Patron",
		},
		Themes: []string{
			"Sci-Fi", "Fantasy", "Antique", "Steampunk", "Everyday Clutter",
			"Post-Apocalyptic", "Cyberpunk", "Historical", "Noir Detective",
			"Magical Academy", "Gothic Horror",
		},
		ObjectTypes: []string{
			"Weapon", "Tool", "Coin", "Jewelry", "Clothing", "Toy", "Book/Scroll",
			"Musical Instrument", "Device/Gadget", "Container", "Art Piece",
			"Component/Part", "Utensil", "Trinket", "Relic", "Armor Piece",
			"Data Storage", "Medical Supply", "Key/Access Card", "Figurine/Statue",
			"Map/Chart",
		},
	}
}

// ConditionMultiplier looks up a condition by name.
func (t Tables) ConditionMultiplier(name string) (float64, bool) {
	for _, c := range t.Conditions {
		if c.Name == name {
			return c.Multiplier, true
		}
	}
	return 0, false
}

// RarityMultiplier looks up a rarity by name.
func (t Tables) RarityMultiplier(name string) (float64, bool) {
	for _, r := range t.Rarities {
		if r.Name == name {
			return r.Multiplier, true
		}
	}
	return 0, false
}

func (t Tables) totalRarityWeight() int {
	total := 0
	for _, r := range t.Rarities {
		if r.Weight > 0 {
			total += r.Weight
		}
	}
	return total
}
