package negotiation

import (
	"github.com/talgya/pawnshop/internal/economy"
	"github.com/talgya/pawnshop/internal/notify"
	"github.com/talgya/pawnshop/internal/shop"
)

// SystemSpeaker labels dialogue lines the shop itself writes.
const SystemSpeaker = "System"

// Controls says which player actions are currently available.
type Controls struct {
	Role        shop.Role `json:"role"`
	CanType     bool      `json:"canType"`
	CanEnd      bool      `json:"canEnd"`
	CanAppraise bool      `json:"canAppraise"`
}

// UI is the presentation surface the controller drives. Every method is
// called with the controller's lock held; implementations must not call
// back into the controller.
type UI interface {
	notify.Notifier

	// DisplayCustomer shows the visitor. The customer is a copy.
	DisplayCustomer(c *shop.Customer)
	// DisplayItem shows the item under negotiation. price is 0 while unknown.
	DisplayItem(item *shop.Item, price int, role shop.Role)
	// DisplayAppraisal toggles the appraisal panel. a is nil until appraised.
	DisplayAppraisal(visible bool, a *economy.Appraisal)
	UpdatePatience(current, max int)
	// LogDialogue appends a cleaned line to the visible conversation.
	LogDialogue(speaker, text string)
	SetControls(c Controls)
	DisplayLedger(cash int, inventory []shop.InventoryItem)
	// ClearCustomer empties the customer area and the dialogue log.
	ClearCustomer()
}
