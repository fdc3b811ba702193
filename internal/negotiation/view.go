package negotiation

import (
	"time"

	"github.com/talgya/pawnshop/internal/economy"
	"github.com/talgya/pawnshop/internal/llm"
	"github.com/talgya/pawnshop/internal/shop"
)

// CustomerView is what the player can see of a customer. Price bounds and
// unrevealed details are left out.
type CustomerView struct {
	Name            string    `json:"name"`
	Age             int       `json:"age,omitempty"`
	Occupation      string    `json:"occupation,omitempty"`
	Personality     string    `json:"personality"`
	Role            shop.Role `json:"role"`
	Patience        int       `json:"patience"`
	CurrentPatience int       `json:"currentPatience"`
	PortraitURL     string    `json:"portraitUrl"`
}

// ItemView is what the player can see of the item under negotiation. A
// seller's condition stays hidden unless appraisal revealed it.
type ItemView struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Condition   string `json:"condition,omitempty"`
	Rarity      string `json:"rarity,omitempty"`
	ItemHint    string `json:"itemHint,omitempty"`
}

// View is a point-in-time snapshot of the controller for display.
type View struct {
	State     State              `json:"state"`
	Thinking  bool               `json:"thinking"`
	SessionID string             `json:"sessionId,omitempty"`
	StartedAt *time.Time         `json:"startedAt,omitempty"`
	Customer  *CustomerView      `json:"customer,omitempty"`
	Item      *ItemView          `json:"item,omitempty"`
	Price     int                `json:"price,omitempty"`
	Appraisal *economy.Appraisal `json:"appraisal,omitempty"`
	Dialogue  []llm.Turn         `json:"dialogue,omitempty"`
	Controls  Controls           `json:"controls"`
	Cash      int                `json:"cash"`
	Inventory int                `json:"inventoryCount"`
	Profile   shop.Profile       `json:"profile"`
}

// Snapshot returns the current view. Dialogue lines are cleaned for display.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:     c.state,
		Thinking:  c.thinking,
		Controls:  c.controls(),
		Cash:      c.ledger.Cash(),
		Inventory: c.ledger.Len(),
		Profile:   c.profile,
	}
	sess := c.session
	if sess == nil {
		return v
	}

	started := sess.StartedAt
	v.SessionID = sess.ID
	v.StartedAt = &started
	v.Price = sess.Customer.CurrentPrice()
	v.Appraisal = sess.Appraisal
	v.Customer = customerView(sess.Customer)
	v.Item = itemView(sess)
	for _, t := range sess.History {
		v.Dialogue = append(v.Dialogue, llm.Turn{Role: t.Role, Text: llm.CleanDialogue(t.Text)})
	}
	return v
}

func customerView(c *shop.Customer) *CustomerView {
	v := &CustomerView{
		Name:            c.DisplayName(),
		Personality:     c.Personality,
		Role:            c.Role(),
		Patience:        c.Patience,
		CurrentPatience: c.CurrentPatience,
		PortraitURL:     c.PortraitURL,
	}
	if !c.Revealed.Name {
		v.Name = "Customer"
	}
	if c.Revealed.Age {
		v.Age = c.Age
	}
	if c.Revealed.Occupation {
		v.Occupation = c.Occupation
	}
	return v
}

func itemView(sess *Session) *ItemView {
	it := sess.Item
	v := &ItemView{Name: it.Name, Description: it.Description, Rarity: it.Rarity}
	switch sess.Role() {
	case shop.RoleBuyer:
		v.Condition = it.Condition
	case shop.RoleSeller:
		v.ItemHint = sess.Customer.Seller.ItemHint
		if sess.Appraisal != nil {
			v.Condition = sess.Appraisal.Condition
		}
	}
	return v
}
