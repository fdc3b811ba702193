package negotiation

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/talgya/pawnshop/internal/economy"
	"github.com/talgya/pawnshop/internal/llm"
	"github.com/talgya/pawnshop/internal/shop"
)

// State is the controller's position in the negotiation lifecycle.
type State int

const (
	Idle          State = iota // No customer in the shop
	Generating                 // Customer drawn, first model call in flight
	Active                     // Waiting on the player
	AwaitingModel              // Player spoke, model call in flight
	Concluding                 // Closing remark requested
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	case Active:
		return "active"
	case AwaitingModel:
		return "awaiting_model"
	case Concluding:
		return "concluding"
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Session is one customer visit, from generation to conclusion.
type Session struct {
	ID        string
	StartedAt time.Time

	Customer *shop.Customer
	// Item is the good under negotiation. For a buyer it points into ItemToSell.
	Item       *shop.Item
	ItemToSell *shop.InventoryItem

	Prompt    string
	History   []llm.Turn
	Appraisal *economy.Appraisal // Set once the single appraisal is used
}

func newSession(now time.Time) *Session {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	return &Session{
		ID:        ulid.MustNew(ulid.Timestamp(now), entropy).String(),
		StartedAt: now,
	}
}

// Role reports which side the customer is on.
func (s *Session) Role() shop.Role {
	if s == nil {
		return shop.RoleNone
	}
	return s.Customer.Role()
}

// Appraised reports whether the appraisal was already used.
func (s *Session) Appraised() bool {
	return s.Appraisal != nil
}

func (s *Session) history() []llm.Turn {
	out := make([]llm.Turn, len(s.History))
	copy(out, s.History)
	return out
}
