package shop

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrInsufficientCash is returned when a purchase would overdraw the ledger.
var ErrInsufficientCash = errors.New("insufficient cash")

// Ledger is the player's cash balance and inventory. It outlives negotiation
// sessions and is mutated only by deal finalization and save loading.
type Ledger struct {
	mu        sync.Mutex
	cash      int
	inventory []InventoryItem
}

// NewLedger creates a ledger. Inventory entries without an ID are stamped
// with a fresh one.
func NewLedger(cash int, inventory []InventoryItem) *Ledger {
	l := &Ledger{}
	l.Replace(cash, inventory)
	return l
}

// Replace swaps the whole ledger, e.g. after loading a save.
func (l *Ledger) Replace(cash int, inventory []InventoryItem) {
	items := make([]InventoryItem, len(inventory))
	copy(items, inventory)
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cash = cash
	l.inventory = items
}

// Cash returns the current balance.
func (l *Ledger) Cash() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// Len returns the number of items in inventory.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inventory)
}

// Inventory returns a copy of the inventory.
func (l *Ledger) Inventory() []InventoryItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]InventoryItem, len(l.inventory))
	copy(out, l.inventory)
	return out
}

// CanAfford reports whether price can be paid without going negative.
func (l *Ledger) CanAfford(price int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash >= price
}

// Purchase debits price and adds the item to inventory with a new identity.
func (l *Ledger) Purchase(item Item, price int) (InventoryItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cash < price {
		return InventoryItem{}, ErrInsufficientCash
	}
	l.cash -= price

	item.ID = uuid.NewString()
	bought := InventoryItem{Item: item, PurchasePrice: price}
	l.inventory = append(l.inventory, bought)
	return bought, nil
}

// Sell credits price and removes the sold item. The item is matched by ID,
// falling back to name and purchase price. The credit is applied even if no
// match is found; the return value reports whether an item was removed.
func (l *Ledger) Sell(item InventoryItem, price int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cash += price

	idx := -1
	if item.ID != "" {
		for i, it := range l.inventory {
			if it.ID == item.ID {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		for i, it := range l.inventory {
			if it.Name == item.Name && it.PurchasePrice == item.PurchasePrice {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return false
	}

	l.inventory = append(l.inventory[:idx], l.inventory[idx+1:]...)
	return true
}
