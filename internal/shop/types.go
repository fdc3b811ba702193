// Package shop provides the pawn shop data model: items, customers, the
// player's ledger and the persisted save record.
package shop

// Role is the side a customer takes in a negotiation.
type Role string

const (
	RoleNone   Role = ""
	RoleSeller Role = "seller" // Customer sells an item to the player
	RoleBuyer  Role = "buyer"  // Customer buys an item from the player's inventory
)

// Item is a good with randomized economics. Name and Description stay empty
// until the model invents them.
type Item struct {
	ID          string `json:"id,omitempty"` // Stamped at acquisition
	Name        string `json:"name"`
	Description string `json:"description"`

	BaseValue           int     `json:"baseValue"` // Market value before modifiers
	Condition           string  `json:"condition"`
	ConditionMultiplier float64 `json:"conditionMultiplier"` // ≤ 1
	Rarity              string  `json:"rarity"`
	RarityMultiplier    float64 `json:"rarityMultiplier"` // ≥ 1
	ActualValue         int     `json:"actualValue"`      // round(base × cond × rarity), ≥ 1
}

// InventoryItem is an item the player owns, stamped with what they paid.
type InventoryItem struct {
	Item
	PurchasePrice int `json:"purchasePrice"`
}

// RevealedInfo tracks which invented personal details the model has disclosed.
// A flag never reverts to false once set.
type RevealedInfo struct {
	Name       bool `json:"name"`
	Age        bool `json:"age"`
	Occupation bool `json:"occupation"`
}

// SellerTerms are the hidden price bounds of a customer selling an item.
type SellerTerms struct {
	ItemHint               string `json:"itemHint"` // Theme + object type, e.g. "Steampunk Tool"
	MinimumAcceptablePrice int    `json:"minimumAcceptablePrice"`
	InitialAskingPrice     int    `json:"initialAskingPrice"`
	CurrentAskingPrice     int    `json:"currentAskingPrice"`
}

// BuyerTerms are the hidden price bounds of a customer buying an item.
type BuyerTerms struct {
	InitialOffer           int `json:"initialOffer"`
	MaximumAcceptablePrice int `json:"maximumAcceptablePrice"` // Soft target for the model
	CurrentOffer           int `json:"currentOffer"`
}

// Customer is a shop visitor. Exactly one of Seller or Buyer is set.
type Customer struct {
	Personality      string  `json:"personality"` // Tone only, no mechanics
	Patience         int     `json:"patience"`    // Starting pool, 50–100
	CurrentPatience  int     `json:"currentPatience"`
	PriceSensitivity float64 `json:"priceSensitivity"`

	// Invented by the model; meaningful only once revealed.
	Name       string       `json:"name,omitempty"`
	Age        int          `json:"age,omitempty"`
	Occupation string       `json:"occupation,omitempty"`
	Revealed   RevealedInfo `json:"revealed"`

	PortraitURL string `json:"portraitUrl"`
	AvatarSeed  string `json:"avatarSeed"`

	Seller *SellerTerms `json:"seller,omitempty"`
	Buyer  *BuyerTerms  `json:"buyer,omitempty"`
}

// Role reports which variant the customer is.
func (c *Customer) Role() Role {
	switch {
	case c == nil:
		return RoleNone
	case c.Seller != nil:
		return RoleSeller
	case c.Buyer != nil:
		return RoleBuyer
	}
	return RoleNone
}

// DisplayName is the customer's invented name, or "Customer" before any is known.
func (c *Customer) DisplayName() string {
	if c == nil || c.Name == "" {
		return "Customer"
	}
	return c.Name
}

// AdjustPatience applies delta and clamps the result to [0, Patience].
func (c *Customer) AdjustPatience(delta int) int {
	c.CurrentPatience += delta
	if c.CurrentPatience < 0 {
		c.CurrentPatience = 0
	}
	if c.CurrentPatience > c.Patience {
		c.CurrentPatience = c.Patience
	}
	return c.CurrentPatience
}

// RevealName records the customer's name. It reports whether this was the
// first reveal; the stored value is overwritten either way.
func (c *Customer) RevealName(name string) bool {
	first := !c.Revealed.Name
	c.Name = name
	c.Revealed.Name = true
	return first
}

// RevealAge records the customer's age. See RevealName.
func (c *Customer) RevealAge(age int) bool {
	first := !c.Revealed.Age
	c.Age = age
	c.Revealed.Age = true
	return first
}

// RevealOccupation records the customer's occupation. See RevealName.
func (c *Customer) RevealOccupation(occupation string) bool {
	first := !c.Revealed.Occupation
	c.Occupation = occupation
	c.Revealed.Occupation = true
	return first
}

// CurrentPrice is the live number on the table: the seller's asking price or
// the buyer's offer.
func (c *Customer) CurrentPrice() int {
	switch c.Role() {
	case RoleSeller:
		return c.Seller.CurrentAskingPrice
	case RoleBuyer:
		return c.Buyer.CurrentOffer
	}
	return 0
}

// Clone returns a deep copy so callers can hand the customer to collaborators
// without sharing the role payload.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	out := *c
	if c.Seller != nil {
		s := *c.Seller
		out.Seller = &s
	}
	if c.Buyer != nil {
		b := *c.Buyer
		out.Buyer = &b
	}
	return &out
}
