package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/pawnshop/internal/shop"
)

type stubGateway struct {
	reply      string
	err        error
	prompt     string
	singleTurn bool
	calls      int
}

func (s *stubGateway) Generate(_ context.Context, _ []Turn, prompt string, singleTurn bool) (string, error) {
	s.calls++
	s.prompt = prompt
	s.singleTurn = singleTurn
	return s.reply, s.err
}

func TestClosingPromptOutcomes(t *testing.T) {
	c := &shop.Customer{Name: "Vera", Personality: "Grumpy"}
	item := &shop.Item{Name: "Lantern"}

	tests := []struct {
		name   string
		role   shop.Role
		reason Reason
		want   string
	}{
		{"player accepts seller", shop.RoleSeller, ReasonPlayerAccept, "The player agreed to buy the Lantern for $80."},
		{"player accepts buyer", shop.RoleBuyer, ReasonPlayerAccept, "The player agreed to sell the Lantern for $80."},
		{"seller accepts offer", shop.RoleSeller, ReasonModelAccept, "You decided to accept the player's offer of $80 for the Lantern."},
		{"buyer accepts price", shop.RoleBuyer, ReasonModelAccept, "You decided to accept the player's asking price of $80 for the Lantern."},
		{"seller loses patience", shop.RoleSeller, ReasonPatience, "the offers were too low."},
		{"buyer loses patience", shop.RoleBuyer, ReasonPatience, "the prices were too high."},
		{"manual", shop.RoleSeller, ReasonManual, "The player decided to end the negotiation"},
		{"generic seller", shop.RoleSeller, ReasonLoadGame, "ended without a successful purchase."},
		{"generic buyer", shop.RoleBuyer, Reason("other"), "ended without a successful sale."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ClosingPrompt(c, item, tt.role, tt.reason, 80)
			assert.Contains(t, p, tt.want)
			assert.Contains(t, p, "You are Vera, known for being Grumpy.")
			assert.Contains(t, p, "\n\nYour concluding remark:")
		})
	}
}

func TestClosingPromptFallbackNames(t *testing.T) {
	p := ClosingPrompt(&shop.Customer{}, &shop.Item{}, shop.RoleBuyer, ReasonManual, 0)
	assert.Contains(t, p, "You are a customer, known for being a certain way. You were trying to buying the an item.")
	assert.Empty(t, ClosingPrompt(&shop.Customer{}, &shop.Item{}, shop.RoleNone, ReasonManual, 0))
}

func TestCleanRemark(t *testing.T) {
	assert.Equal(t, "Pleasure doing business.", CleanRemark("\"Pleasure doing business.\" *tips hat*\n"))
	assert.Equal(t, "", CleanRemark("*storms out*"))
}

func TestClosingRemark(t *testing.T) {
	c := &shop.Customer{Name: "Vera", Personality: "Grumpy"}
	item := &shop.Item{Name: "Lantern"}

	gw := &stubGateway{reply: "\"Hmph. Fine.\""}
	assert.Equal(t, "Hmph. Fine.", ClosingRemark(context.Background(), gw, c, item, shop.RoleSeller, ReasonManual, 0))
	assert.True(t, gw.singleTurn)

	gw = &stubGateway{err: errors.New("offline")}
	assert.Equal(t, SilentExit, ClosingRemark(context.Background(), gw, c, item, shop.RoleSeller, ReasonManual, 0))

	gw = &stubGateway{reply: lostForWords}
	assert.Equal(t, SilentExit, ClosingRemark(context.Background(), gw, c, item, shop.RoleSeller, ReasonManual, 0))

	gw = &stubGateway{}
	assert.Equal(t, SilentExit, ClosingRemark(context.Background(), gw, nil, item, shop.RoleSeller, ReasonManual, 0))
	assert.Zero(t, gw.calls)
}
