// Package terminal plays the shop in a text console.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/pawnshop/internal/economy"
	"github.com/talgya/pawnshop/internal/negotiation"
	"github.com/talgya/pawnshop/internal/notify"
	"github.com/talgya/pawnshop/internal/shop"
)

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type theme struct {
	customer lipgloss.Style
	player   lipgloss.Style
	system   lipgloss.Style
	info     lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
	panel    lipgloss.Style
	title    lipgloss.Style
	muted    lipgloss.Style
}

func newTheme(color bool) theme {
	if !color {
		plain := lipgloss.NewStyle()
		return theme{plain, plain, plain, plain, plain, plain, plain, plain, plain}
	}

	gold := lipgloss.Color("#e0b04a")
	teal := lipgloss.Color("#4ac1c0")
	green := lipgloss.Color("#7bd88f")
	red := lipgloss.Color("#fc618d")
	muted := lipgloss.Color("#8b8b99")

	return theme{
		customer: lipgloss.NewStyle().Foreground(gold).Bold(true),
		player:   lipgloss.NewStyle().Foreground(teal).Bold(true),
		system:   lipgloss.NewStyle().Foreground(muted).Italic(true),
		info:     lipgloss.NewStyle().Foreground(teal),
		success:  lipgloss.NewStyle().Foreground(green).Bold(true),
		failure:  lipgloss.NewStyle().Foreground(red).Bold(true),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(gold).
			Padding(0, 1),
		title: lipgloss.NewStyle().Foreground(gold).Bold(true),
		muted: lipgloss.NewStyle().Foreground(muted),
	}
}

// UI writes controller updates to a console.
type UI struct {
	mu     sync.Mutex
	w      io.Writer
	th     theme
	player string
}

// New returns a console UI writing to w. color enables styling.
func New(w io.Writer, color bool) *UI {
	return &UI{w: w, th: newTheme(color)}
}

// SetPlayer names the speaker whose lines get the player style.
func (u *UI) SetPlayer(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.player = name
}

func (u *UI) println(s string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintln(u.w, s)
}

// Println writes a plain line.
func (u *UI) Println(format string, args ...any) {
	u.println(fmt.Sprintf(format, args...))
}

func (u *UI) Notify(text string, level notify.Level, _ time.Duration) {
	style := u.th.info
	switch level {
	case notify.Success:
		style = u.th.success
	case notify.Error:
		style = u.th.failure
	}
	u.println(style.Render("» " + text))
}

func (u *UI) DisplayCustomer(c *shop.Customer) {
	var b strings.Builder
	b.WriteString(u.th.title.Render(c.DisplayName()))
	fmt.Fprintf(&b, "\n%s, %s", c.Personality, roleLabel(c.Role()))
	if c.Revealed.Age {
		fmt.Fprintf(&b, "\nAge: %d", c.Age)
	}
	if c.Revealed.Occupation {
		fmt.Fprintf(&b, "\nOccupation: %s", c.Occupation)
	}
	fmt.Fprintf(&b, "\n%s", u.th.muted.Render(c.PortraitURL))
	u.println(u.th.panel.Render(b.String()))
}

func roleLabel(r shop.Role) string {
	switch r {
	case shop.RoleSeller:
		return "wants to sell"
	case shop.RoleBuyer:
		return "wants to buy"
	}
	return "browsing"
}

func (u *UI) DisplayItem(item *shop.Item, price int, role shop.Role) {
	name := item.Name
	if name == "" {
		name = "(unnamed item)"
	}
	line := u.th.title.Render(name)
	if item.Rarity != "" {
		line += " " + u.th.muted.Render("["+item.Rarity+"]")
	}
	if role == shop.RoleBuyer && item.Condition != "" {
		line += " " + u.th.muted.Render(item.Condition)
	}
	if price > 0 {
		label := "Asking"
		if role == shop.RoleBuyer {
			label = "Offer"
		}
		line += fmt.Sprintf("  %s: $%s", label, humanize.Comma(int64(price)))
	}
	if item.Description != "" {
		line += "\n  " + item.Description
	}
	u.println(line)
}

func (u *UI) DisplayAppraisal(visible bool, a *economy.Appraisal) {
	if !visible || a == nil {
		return
	}
	u.println(u.th.muted.Render("Appraisal on file: " + a.Summary()))
}

func (u *UI) UpdatePatience(current, limit int) {
	const width = 20
	filled := 0
	if limit > 0 {
		filled = current * width / limit
	}
	filled = min(max(filled, 0), width)
	bar := strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
	u.println(u.th.muted.Render(fmt.Sprintf("Patience [%s] %d/%d", bar, current, limit)))
}

func (u *UI) LogDialogue(speaker, text string) {
	u.mu.Lock()
	player := u.player
	u.mu.Unlock()

	style := u.th.customer
	switch speaker {
	case negotiation.SystemSpeaker:
		u.println(u.th.system.Render("* " + text))
		return
	case player:
		style = u.th.player
	}
	u.println(style.Render(speaker+":") + " " + text)
}

func (u *UI) SetControls(c negotiation.Controls) {
	if c.Role == shop.RoleNone {
		return
	}
	var opts []string
	if c.CanType {
		opts = append(opts, "type to talk", "/accept")
	}
	if c.CanAppraise {
		opts = append(opts, "/appraise")
	}
	if c.CanEnd {
		opts = append(opts, "/end")
	}
	if len(opts) > 0 {
		u.println(u.th.muted.Render("(" + strings.Join(opts, ", ") + ")"))
	}
}

func (u *UI) DisplayLedger(cash int, inventory []shop.InventoryItem) {
	u.println(fmt.Sprintf("Cash: $%s   Items: %d", humanize.Comma(int64(cash)), len(inventory)))
}

func (u *UI) ClearCustomer() {
	u.println(u.th.muted.Render(strings.Repeat("─", 40)))
}

// PrintInventory lists the shop's stock.
func (u *UI) PrintInventory(cash int, inv []shop.InventoryItem) {
	if len(inv) == 0 {
		u.println(fmt.Sprintf("Cash: $%s. Your shop is empty.", humanize.Comma(int64(cash))))
		return
	}
	var b strings.Builder
	b.WriteString(u.th.title.Render(fmt.Sprintf("Inventory (%d)  Cash: $%s", len(inv), humanize.Comma(int64(cash)))))
	for i, it := range inv {
		fmt.Fprintf(&b, "\n%2d. %s [%s, %s] paid $%s, worth $%s",
			i+1, it.Name, it.Condition, it.Rarity,
			humanize.Comma(int64(it.PurchasePrice)), humanize.Comma(int64(it.ActualValue)))
	}
	u.println(u.th.panel.Render(b.String()))
}
