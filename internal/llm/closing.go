package llm

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/talgya/pawnshop/internal/shop"
)

// Reason is why a negotiation is concluding.
type Reason string

const (
	ReasonPlayerAccept Reason = "deal_success_player_accept" // Player took the customer's number
	ReasonModelAccept  Reason = "deal_success_llm_accept"    // Customer took the player's number
	ReasonPatience     Reason = "patience_zero"
	ReasonManual       Reason = "manual_leave"
	ReasonLoadGame     Reason = "load_game"
)

// SilentExit replaces a closing remark the model did not deliver.
const SilentExit = "*Says nothing and leaves.*"

// ClosingPrompt builds the single-turn request for a customer's parting line.
// price is only read for the two deal reasons. Returns "" without a customer,
// item or role.
func ClosingPrompt(c *shop.Customer, item *shop.Item, role shop.Role, reason Reason, price int) string {
	if c == nil || item == nil || role == shop.RoleNone {
		return ""
	}

	name := c.Name
	if name == "" {
		name = "a customer"
	}
	itemName := item.Name
	if itemName == "" {
		itemName = "an item"
	}
	personality := c.Personality
	if personality == "" {
		personality = "a certain way"
	}

	verb, deal := "buying", "sale"
	if role == shop.RoleSeller {
		verb, deal = "selling", "purchase"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, known for being %s. You were trying to %s the %s. The interaction with the pawn shop owner is now ending. Provide a brief, in-character concluding remark (1-2 sentences, conversational, no game tags) based on the outcome.\n\nOutcome: ",
		name, personality, verb, itemName)

	switch reason {
	case ReasonPlayerAccept:
		if role == shop.RoleSeller {
			fmt.Fprintf(&b, "A deal was successfully made! The player agreed to buy the %s for $%d.", itemName, price)
		} else {
			fmt.Fprintf(&b, "A deal was successfully made! The player agreed to sell the %s for $%d.", itemName, price)
		}
	case ReasonModelAccept:
		if role == shop.RoleSeller {
			fmt.Fprintf(&b, "A deal was successfully made! You decided to accept the player's offer of $%d for the %s.", price, itemName)
		} else {
			fmt.Fprintf(&b, "A deal was successfully made! You decided to accept the player's asking price of $%d for the %s.", price, itemName)
		}
	case ReasonPatience:
		complaint := "prices were too high"
		if role == shop.RoleSeller {
			complaint = "offers were too low"
		}
		fmt.Fprintf(&b, "You lost patience and are leaving angrily because the negotiation took too long or the %s.", complaint)
	case ReasonManual:
		b.WriteString("The player decided to end the negotiation before a deal was reached.")
	default:
		fmt.Fprintf(&b, "The interaction ended without a successful %s.", deal)
	}

	b.WriteString("\n\nYour concluding remark:")
	return b.String()
}

var stageDirection = regexp.MustCompile(`\*.*?\*`)

// CleanRemark strips quotes, line breaks and *stage directions* from a
// parting line.
func CleanRemark(s string) string {
	s = strings.NewReplacer(`"`, "", "\n", "", "\r", "").Replace(s)
	return strings.TrimSpace(stageDirection.ReplaceAllString(s, ""))
}

// ClosingRemark asks the model for the customer's parting line. Any failure
// yields SilentExit so the session can always conclude.
func ClosingRemark(ctx context.Context, gw Gateway, c *shop.Customer, item *shop.Item, role shop.Role, reason Reason, price int) string {
	prompt := ClosingPrompt(c, item, role, reason, price)
	if prompt == "" || gw == nil {
		return SilentExit
	}
	slog.Debug("requesting closing remark", "role", role, "reason", reason)

	text, err := gw.Generate(ctx, nil, prompt, true)
	if err != nil || text == "" {
		if err != nil {
			slog.Warn("closing remark failed", "error", err)
		}
		return SilentExit
	}
	if remark := CleanRemark(text); remark != "" {
		return remark
	}
	return SilentExit
}
