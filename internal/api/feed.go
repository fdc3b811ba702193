package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/talgya/pawnshop/internal/economy"
	"github.com/talgya/pawnshop/internal/negotiation"
	"github.com/talgya/pawnshop/internal/notify"
	"github.com/talgya/pawnshop/internal/shop"
)

// Event kinds recorded in the feed.
const (
	KindDialogue  = "dialogue"
	KindNotice    = "notice"
	KindCustomer  = "customer"
	KindItem      = "item"
	KindAppraisal = "appraisal"
	KindPatience  = "patience"
	KindControls  = "controls"
	KindLedger    = "ledger"
	KindClear     = "clear"
)

// Event is one UI update, numbered in emission order.
type Event struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Kind    string    `json:"kind"`
	Speaker string    `json:"speaker,omitempty"`
	Text    string    `json:"text,omitempty"`
	Level   string    `json:"level,omitempty"`
	Data    any       `json:"data,omitempty"`
}

// Feed is the negotiation.UI for HTTP clients. It keeps the most recent
// events in a ring and fans them out to stream subscribers. Sends never
// block: a subscriber that falls behind misses events and can catch up
// through Since.
type Feed struct {
	mu     sync.Mutex
	events []Event
	size   int
	seq    uint64

	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewFeed returns a feed retaining up to size events.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 500
	}
	return &Feed{size: size, subs: make(map[int]chan Event)}
}

func (f *Feed) add(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	e.Seq = f.seq
	e.Time = time.Now()
	f.events = append(f.events, e)
	if len(f.events) > f.size {
		f.events = f.events[len(f.events)-f.size:]
	}
	for _, ch := range f.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Since returns retained events with a sequence number above seq.
func (f *Feed) Since(seq uint64) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Event{}
	for _, e := range f.events {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the sequence number of the newest event.
func (f *Feed) Last() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq
}

// Subscribe registers a stream listener.
func (f *Feed) Subscribe() (int, <-chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ch := make(chan Event, 64)
	if f.closed {
		close(ch)
		return f.nextID, ch
	}
	f.subs[f.nextID] = ch
	return f.nextID, ch
}

// Unsubscribe removes a listener and closes its channel.
func (f *Feed) Unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(ch)
	}
}

// Close ends every stream. Later subscribers get a closed channel; events
// are still retained for Since.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}

func (f *Feed) Notify(text string, level notify.Level, d time.Duration) {
	f.add(Event{Kind: KindNotice, Text: text, Level: string(level), Data: map[string]any{"durationMs": d.Milliseconds()}})
}

func (f *Feed) DisplayCustomer(c *shop.Customer) {
	f.add(Event{Kind: KindCustomer, Data: map[string]any{
		"name":        c.DisplayName(),
		"personality": c.Personality,
		"role":        c.Role(),
		"portraitUrl": c.PortraitURL,
	}})
}

func (f *Feed) DisplayItem(item *shop.Item, price int, role shop.Role) {
	data := map[string]any{"role": role, "rarity": item.Rarity}
	if item.Name != "" {
		data["name"] = item.Name
	}
	if item.Description != "" {
		data["description"] = item.Description
	}
	if role == shop.RoleBuyer {
		data["condition"] = item.Condition
	}
	if price > 0 {
		data["price"] = price
	}
	f.add(Event{Kind: KindItem, Data: data})
}

func (f *Feed) DisplayAppraisal(visible bool, a *economy.Appraisal) {
	e := Event{Kind: KindAppraisal, Data: map[string]any{"visible": visible}}
	if a != nil {
		e.Text = a.Summary()
		e.Data = map[string]any{"visible": visible, "appraisal": a}
	}
	f.add(e)
}

func (f *Feed) UpdatePatience(current, max int) {
	f.add(Event{Kind: KindPatience, Text: fmt.Sprintf("%d/%d", current, max),
		Data: map[string]int{"current": current, "max": max}})
}

func (f *Feed) LogDialogue(speaker, text string) {
	f.add(Event{Kind: KindDialogue, Speaker: speaker, Text: text})
}

func (f *Feed) SetControls(c negotiation.Controls) {
	f.add(Event{Kind: KindControls, Data: c})
}

func (f *Feed) DisplayLedger(cash int, inventory []shop.InventoryItem) {
	f.add(Event{Kind: KindLedger, Data: map[string]int{"cash": cash, "items": len(inventory)}})
}

func (f *Feed) ClearCustomer() {
	f.add(Event{Kind: KindClear})
}
