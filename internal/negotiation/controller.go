// Package negotiation runs the shop counter: it draws a customer, relays the
// conversation to the model, applies the tags in each reply, and settles
// deals against the player's ledger.
package negotiation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/talgya/pawnshop/internal/economy"
	"github.com/talgya/pawnshop/internal/entropy"
	"github.com/talgya/pawnshop/internal/llm"
	"github.com/talgya/pawnshop/internal/notify"
	"github.com/talgya/pawnshop/internal/shop"
)

var (
	ErrBusy             = errors.New("waiting for customer response")
	ErrNoSession        = errors.New("no customer in the shop")
	ErrSessionActive    = errors.New("a negotiation is in progress")
	ErrSetup            = errors.New("could not start interaction")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrInvalidPrice     = errors.New("no valid price on the table")
	ErrCannotAfford     = errors.New("not enough cash")
	ErrAlreadyAppraised = errors.New("item already appraised")
	ErrNotSeller        = errors.New("only items offered for sale can be appraised")
	ErrEmptyName        = errors.New("player name cannot be empty")
)

// Deps are the collaborators a Controller drives.
type Deps struct {
	Gateway   llm.Gateway
	UI        UI
	Ledger    *shop.Ledger
	Generator *economy.Generator
	Source    entropy.Source // Customer type and inventory picks
	Profile   shop.Profile
	Now       func() time.Time
}

// Controller owns the single negotiation session. It is safe for concurrent
// use: actions that need the model while another call is in flight get ErrBusy.
type Controller struct {
	gw     llm.Gateway
	ui     UI
	ledger *shop.Ledger
	gen    *economy.Generator
	src    entropy.Source
	now    func() time.Time

	mu       sync.Mutex
	profile  shop.Profile
	state    State
	thinking bool
	session  *Session
}

// New creates a controller in the Idle state.
func New(d Deps) *Controller {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Ledger == nil {
		d.Ledger = shop.NewLedger(0, nil)
	}
	if d.Profile.PlayerName == "" {
		d.Profile = shop.DefaultProfile()
	}
	return &Controller{
		gw:      d.Gateway,
		ui:      d.UI,
		ledger:  d.Ledger,
		gen:     d.Generator,
		src:     d.Source,
		now:     d.Now,
		profile: d.Profile,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ledger returns the player's ledger.
func (c *Controller) Ledger() *shop.Ledger { return c.ledger }

// Profile returns the player's display identity.
func (c *Controller) Profile() shop.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// StartCustomer draws a new customer and obtains their opening line. A buyer
// is drawn with even odds once the inventory holds at least two items.
func (c *Controller) StartCustomer(ctx context.Context) error {
	c.mu.Lock()
	if c.thinking {
		c.ui.Notify("Please wait...", notify.Info, notify.Short)
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state != Idle {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.state = Generating
	c.thinking = true
	c.ui.ClearCustomer()
	c.ui.Notify("Generating customer...", notify.Info, notify.Short)

	sess, err := c.prepareSession()
	if err != nil {
		c.abortSetup(err)
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrSetup, err)
	}
	c.session = sess
	c.mu.Unlock()

	reply, err := c.gw.Generate(ctx, nil, sess.Prompt, false)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != sess {
		c.thinking = false
		return ErrNoSession
	}
	if err != nil {
		c.abortSetup(fmt.Errorf("failed to get initial response: %w", err))
		return fmt.Errorf("%w: %v", ErrSetup, err)
	}

	c.openSession(reply)
	return nil
}

// prepareSession generates the customer and their instructions and puts the
// customer on screen. Called with the lock held.
func (c *Controller) prepareSession() (*Session, error) {
	sess := newSession(c.now())
	style := c.profile.AvatarStyle

	if c.ledger.Len() >= 2 && c.src.Float64() < 0.5 {
		inv := c.ledger.Inventory()
		pick := inv[c.src.Intn(len(inv))]
		if pick.Description == "" {
			pick.Description = fallbackDescription(&pick.Item, pick.Name)
		}
		cust, err := c.gen.GenerateBuyer(&pick, style)
		if err != nil {
			return nil, fmt.Errorf("generate buyer: %w", err)
		}
		sess.Customer = cust
		sess.ItemToSell = &pick
		sess.Item = &sess.ItemToSell.Item
		sess.Prompt = llm.BuyerPrompt(cust, sess.ItemToSell)
	} else {
		item, err := c.gen.GenerateItem()
		if err != nil {
			return nil, fmt.Errorf("generate item: %w", err)
		}
		cust, err := c.gen.GenerateSeller(item, style)
		if err != nil {
			return nil, fmt.Errorf("generate seller: %w", err)
		}
		sess.Customer = cust
		sess.Item = item
		sess.Prompt = llm.SellerPrompt(cust, item)
	}
	if sess.Prompt == "" {
		return nil, fmt.Errorf("failed to construct %s prompt", sess.Role())
	}

	role := sess.Role()
	c.ui.DisplayCustomer(sess.Customer.Clone())
	c.ui.UpdatePatience(sess.Customer.CurrentPatience, sess.Customer.Patience)
	if role == shop.RoleSeller {
		c.ui.DisplayItem(&shop.Item{Rarity: sess.Item.Rarity}, 0, role)
	} else {
		c.ui.DisplayItem(sess.Item, sess.Customer.Buyer.InitialOffer, role)
	}
	c.ui.DisplayAppraisal(role == shop.RoleSeller, nil)
	c.ui.SetControls(Controls{Role: role})

	slog.Info("customer generated", "session", sess.ID, "role", role, "personality", sess.Customer.Personality)
	return sess, nil
}

// openSession applies the first reply and hands the counter to the player.
func (c *Controller) openSession(reply string) {
	sess := c.session
	cust := sess.Customer
	tags := llm.ParseTags(reply)

	c.applyReveals(tags)
	sess.History = append(sess.History, llm.Turn{Role: llm.RoleModel, Text: reply})
	c.ui.LogDialogue(cust.DisplayName(), llm.CleanDialogue(reply))
	c.ui.DisplayCustomer(cust.Clone())

	switch sess.Role() {
	case shop.RoleSeller:
		if ask, ok := tags.Int(llm.TagPriceAsk); ok {
			cust.Seller.CurrentAskingPrice = ask
		} else {
			cust.Seller.CurrentAskingPrice = cust.Seller.InitialAskingPrice
		}
		c.applyItemDetails(tags)
		c.ui.DisplayItem(sess.Item, cust.Seller.CurrentAskingPrice, shop.RoleSeller)
	case shop.RoleBuyer:
		if offer, ok := tags.Int(llm.TagPriceOffer); ok {
			cust.Buyer.CurrentOffer = offer
		} else {
			cust.Buyer.CurrentOffer = cust.Buyer.InitialOffer
		}
		c.ui.DisplayItem(sess.Item, cust.Buyer.CurrentOffer, shop.RoleBuyer)
	}

	c.state = Active
	c.thinking = false
	c.ui.SetControls(c.controls())
	slog.Info("customer interaction started", "session", sess.ID, "role", sess.Role())
}

func (c *Controller) abortSetup(err error) {
	slog.Error("customer setup failed", "error", err)
	c.ui.Notify(fmt.Sprintf("Error starting interaction: %v", err), notify.Error, notify.Long)
	c.session = nil
	c.state = Idle
	c.thinking = false
	c.ui.ClearCustomer()
	c.ui.SetControls(Controls{})
}

// Send relays a player message and applies the customer's reply.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if text == "" {
		c.ui.Notify("Please type a message.", notify.Info, 2*time.Second)
		c.mu.Unlock()
		return ErrEmptyMessage
	}
	sess, err := c.claimTurn()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	sess.History = append(sess.History, llm.Turn{Role: llm.RoleUser, Text: text})
	c.ui.LogDialogue(c.profile.PlayerName, text)
	c.state = AwaitingModel
	c.ui.SetControls(c.controls())
	c.ui.Notify("Waiting for customer response...", notify.Info, notify.Short)
	history := sess.history()
	c.mu.Unlock()

	reply, err := c.gw.Generate(ctx, history, sess.Prompt, false)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != sess {
		return ErrNoSession
	}
	if err != nil {
		slog.Warn("customer turn failed", "session", sess.ID, "error", err)
		c.ui.Notify("Customer seems to have trouble responding.", notify.Error, notify.Long)
		c.state = Active
		c.thinking = false
		c.ui.SetControls(c.controls())
		return fmt.Errorf("customer turn: %w", err)
	}

	c.applyReply(ctx, reply)
	return nil
}

// claimTurn checks that the player may act and takes the thinking guard.
// Called with the lock held.
func (c *Controller) claimTurn() (*Session, error) {
	if c.session == nil {
		return nil, ErrNoSession
	}
	if c.thinking || c.state != Active {
		return nil, ErrBusy
	}
	c.thinking = true
	return c.session, nil
}

// applyReply folds one customer reply into the session. Called with the
// lock held and the thinking guard taken.
func (c *Controller) applyReply(ctx context.Context, reply string) {
	sess := c.session
	cust := sess.Customer
	sess.History = append(sess.History, llm.Turn{Role: llm.RoleModel, Text: reply})
	tags := llm.ParseTags(reply)

	if c.applyReveals(tags) {
		c.ui.DisplayCustomer(cust.Clone())
	}
	line := llm.CleanDialogue(reply)

	if delta, ok := tags.Int(llm.TagPatience); ok {
		left := cust.AdjustPatience(delta)
		c.ui.UpdatePatience(left, cust.Patience)
		if left <= 0 {
			c.ui.LogDialogue(cust.DisplayName(), line)
			c.ui.Notify("Customer lost patience!", notify.Error, 4*time.Second)
			c.conclude(ctx, llm.ReasonPatience, 0, false)
			return
		}
	}

	switch sess.Role() {
	case shop.RoleSeller:
		if c.applyItemDetails(tags) {
			c.ui.DisplayItem(sess.Item, cust.Seller.CurrentAskingPrice, shop.RoleSeller)
		}
		if ask, ok := tags.Int(llm.TagPriceAsk); ok {
			cust.Seller.CurrentAskingPrice = ask
			c.ui.DisplayItem(sess.Item, ask, shop.RoleSeller)
		}
		if price, ok := tags.Int(llm.TagAcceptOffer); ok {
			c.ui.LogDialogue(cust.DisplayName(), line)
			if c.ledger.CanAfford(price) {
				c.ui.Notify(fmt.Sprintf("Deal agreed at $%d!", price), notify.Success, 4*time.Second)
				c.conclude(ctx, llm.ReasonModelAccept, price, true)
				return
			}
			c.ui.LogDialogue(c.profile.PlayerName, fmt.Sprintf("Wait, I don't actually have $%d... My mistake.", price))
			c.ui.Notify(fmt.Sprintf("You can't afford $%d!", price), notify.Error, notify.Short)
			slog.Info("acceptance rejected", "session", sess.ID, "price", price, "cash", c.ledger.Cash())
			c.resume()
			return
		}
	case shop.RoleBuyer:
		if offer, ok := tags.Int(llm.TagPriceOffer); ok {
			cust.Buyer.CurrentOffer = offer
			c.ui.DisplayItem(sess.Item, offer, shop.RoleBuyer)
		}
		if price, ok := tags.Int(llm.TagAcceptPrice); ok {
			c.ui.LogDialogue(cust.DisplayName(), line)
			c.ui.Notify(fmt.Sprintf("Sale agreed at $%d!", price), notify.Success, 4*time.Second)
			c.conclude(ctx, llm.ReasonModelAccept, price, true)
			return
		}
	}

	c.ui.LogDialogue(cust.DisplayName(), line)
	c.resume()
}

// resume hands the counter back to the player.
func (c *Controller) resume() {
	c.state = Active
	c.thinking = false
	c.ui.SetControls(c.controls())
}

// applyReveals records any REVEALED_* tags and reports whether one was present.
func (c *Controller) applyReveals(tags llm.Tags) bool {
	cust := c.session.Customer
	found := false
	if name, ok := tags.Text(llm.TagRevealedName); ok {
		if cust.RevealName(name) {
			slog.Debug("customer revealed name", "name", name)
		}
		found = true
	}
	if age, ok := tags.Int(llm.TagRevealedAge); ok {
		cust.RevealAge(age)
		found = true
	}
	if occ, ok := tags.Text(llm.TagRevealedOccupation); ok {
		cust.RevealOccupation(occ)
		found = true
	}
	return found
}

// applyItemDetails fills the seller's invented item name and description.
// After the opening turn only still-missing fields are filled.
func (c *Controller) applyItemDetails(tags llm.Tags) bool {
	sess := c.session
	if sess.Role() != shop.RoleSeller {
		return false
	}
	opening := len(sess.History) <= 1
	changed := false
	if name, ok := tags.Text(llm.TagItemName); ok && (opening || sess.Item.Name == "") {
		sess.Item.Name = name
		changed = true
	}
	if desc, ok := tags.Text(llm.TagItemDesc); ok && (opening || sess.Item.Description == "") {
		sess.Item.Description = desc
		changed = true
	}
	return changed
}

// Accept takes the customer's current number: the seller's asking price or
// the buyer's offer.
func (c *Controller) Accept(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ErrNoSession
	}
	if c.thinking || c.state != Active {
		return ErrBusy
	}
	sess := c.session
	cust := sess.Customer

	var line string
	price := cust.CurrentPrice()
	switch sess.Role() {
	case shop.RoleSeller:
		if price <= 0 {
			c.ui.Notify("Cannot accept price - no valid asking price from seller.", notify.Error, notify.Short)
			return ErrInvalidPrice
		}
		if !c.ledger.CanAfford(price) {
			c.ui.Notify(fmt.Sprintf("You cannot afford the asking price of $%d. You only have $%d.", price, c.ledger.Cash()),
				notify.Error, 4*time.Second)
			return fmt.Errorf("%w: asking $%d", ErrCannotAfford, price)
		}
		line = fmt.Sprintf("Okay, I accept your price of $%d.", price)
	case shop.RoleBuyer:
		if price <= 0 {
			c.ui.Notify("Cannot accept offer - no valid offer from buyer.", notify.Error, notify.Short)
			return ErrInvalidPrice
		}
		line = fmt.Sprintf("Okay, I accept your offer of $%d.", price)
	}

	c.thinking = true
	sess.History = append(sess.History, llm.Turn{Role: llm.RoleUser, Text: line})
	c.ui.LogDialogue(c.profile.PlayerName, line)
	c.conclude(ctx, llm.ReasonPlayerAccept, price, true)
	return nil
}

// End walks away from the negotiation without a deal.
func (c *Controller) End(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.claimTurn()
	if err != nil {
		return err
	}
	line := "Sorry, I don't think I can sell this item to you today."
	if sess.Role() == shop.RoleSeller {
		line = "Actually, I don't think we can make a deal today. Thanks for your time."
	}
	sess.History = append(sess.History, llm.Turn{Role: llm.RoleUser, Text: line})
	c.ui.LogDialogue(c.profile.PlayerName, line)
	slog.Info("player ended negotiation", "session", sess.ID)
	c.conclude(ctx, llm.ReasonManual, 0, false)
	return nil
}

// conclude settles the session: it applies any deal to the ledger, asks for
// the customer's parting line and returns the controller to Idle. Called with
// the lock and the thinking guard held. The lock is released while the
// closing remark is generated.
func (c *Controller) conclude(ctx context.Context, reason llm.Reason, price int, deal bool) {
	sess := c.session
	cust := sess.Customer
	role := sess.Role()
	c.state = Concluding
	c.ui.SetControls(Controls{Role: role})

	endReason := string(reason)
	if deal {
		if c.settle(sess, price) {
			endReason = "deal_made_purchase"
			if role == shop.RoleBuyer {
				endReason = "deal_made_sale"
			}
		}
	}

	customer := cust.Clone()
	item := *sess.Item
	c.mu.Unlock()
	remark := llm.ClosingRemark(ctx, c.gw, customer, &item, role, reason, price)
	c.mu.Lock()

	if c.session != sess {
		return
	}
	c.ui.LogDialogue(cust.DisplayName(), remark)
	c.endInteraction(endReason)
}

// settle applies an agreed price to the ledger. It reports whether the deal
// went through.
func (c *Controller) settle(sess *Session, price int) bool {
	switch sess.Role() {
	case shop.RoleSeller:
		item := *sess.Item
		if item.Name == "" {
			item.Name = sess.Customer.Seller.ItemHint
		}
		if item.Description == "" {
			item.Description = fallbackDescription(&item, sess.Customer.Seller.ItemHint)
		}
		bought, err := c.ledger.Purchase(item, price)
		if err != nil {
			slog.Error("purchase failed", "session", sess.ID, "price", price, "error", err)
			c.ui.Notify(fmt.Sprintf("You cannot afford $%d!", price), notify.Error, notify.Short)
			return false
		}
		c.ui.Notify(fmt.Sprintf("Purchase complete! Acquired %s for $%d.", bought.Name, price), notify.Success, notify.Long)
		slog.Info("purchase complete", "session", sess.ID, "item", bought.Name, "price", price, "cash", c.ledger.Cash())
	case shop.RoleBuyer:
		if !c.ledger.Sell(*sess.ItemToSell, price) {
			slog.Warn("sold item missing from inventory", "session", sess.ID, "item", sess.ItemToSell.Name)
		}
		c.ui.Notify(fmt.Sprintf("Sale complete! Sold %s for $%d.", sess.ItemToSell.Name, price), notify.Success, notify.Long)
		slog.Info("sale complete", "session", sess.ID, "item", sess.ItemToSell.Name, "price", price, "cash", c.ledger.Cash())
	default:
		return false
	}
	c.ui.DisplayLedger(c.ledger.Cash(), c.ledger.Inventory())
	return true
}

// fallbackDescription stands in when the seller never described the item.
func fallbackDescription(item *shop.Item, hint string) string {
	if hint == "" {
		hint = "curio"
	}
	return fmt.Sprintf("A %s %s in %s condition.",
		strings.ToLower(item.Rarity), hint, strings.ToLower(item.Condition))
}

// endInteraction clears the session and returns to Idle. Called with the lock held.
func (c *Controller) endInteraction(reason string) {
	sess := c.session
	name := "Customer"
	if sess != nil {
		name = sess.Customer.DisplayName()
		slog.Info("customer interaction ended", "session", sess.ID, "reason", reason,
			"turns", len(sess.History), "duration", c.now().Sub(sess.StartedAt))
	}

	c.session = nil
	c.state = Idle
	c.thinking = false
	c.ui.SetControls(Controls{})

	switch reason {
	case string(llm.ReasonLoadGame):
	case "deal_made_purchase":
		c.ui.DisplayAppraisal(false, nil)
		c.ui.LogDialogue(SystemSpeaker, name+" has left after making a purchase.")
	case "deal_made_sale":
		c.ui.DisplayAppraisal(false, nil)
		c.ui.LogDialogue(SystemSpeaker, name+" has left after making a sale.")
	default:
		c.ui.ClearCustomer()
		c.ui.LogDialogue(SystemSpeaker, name+" has left the shop.")
	}
}

// Appraise inspects the seller's item once per session.
func (c *Controller) Appraise() (economy.Appraisal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess := c.session
	if sess == nil {
		return economy.Appraisal{}, ErrNoSession
	}
	if sess.Appraised() {
		c.ui.Notify("You can only appraise once per customer.", notify.Info, 2*time.Second)
		return *sess.Appraisal, ErrAlreadyAppraised
	}
	if sess.Role() != shop.RoleSeller {
		c.ui.Notify("You cannot appraise items you are selling.", notify.Info, notify.Short)
		return economy.Appraisal{}, ErrNotSeller
	}
	if c.thinking || c.state != Active {
		return economy.Appraisal{}, ErrBusy
	}

	a := c.gen.Appraise(sess.Item)
	sess.Appraisal = &a
	c.ui.DisplayAppraisal(true, &a)
	c.ui.LogDialogue(SystemSpeaker, a.Summary())
	c.ui.Notify("Appraisal complete.", notify.Info, notify.Short)
	c.ui.SetControls(c.controls())
	slog.Info("item appraised", "session", sess.ID, "revealed", a.Revealed())
	return a, nil
}

// controls derives the available actions from the current state.
func (c *Controller) controls() Controls {
	sess := c.session
	if sess == nil {
		return Controls{}
	}
	ctl := Controls{Role: sess.Role()}
	interactive := c.state == Active && !c.thinking
	ctl.CanType = interactive
	ctl.CanEnd = interactive
	ctl.CanAppraise = interactive && sess.Role() == shop.RoleSeller && !sess.Appraised()
	return ctl
}

// SaveState captures the ledger and profile. Refused during a negotiation.
func (c *Controller) SaveState() (shop.SaveState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle || c.thinking {
		c.ui.Notify("Cannot save game during a negotiation.", notify.Error, notify.Short)
		return shop.SaveState{}, ErrSessionActive
	}
	return shop.SaveState{
		Cash:        c.ledger.Cash(),
		Inventory:   c.ledger.Inventory(),
		PlayerName:  c.profile.PlayerName,
		AvatarStyle: c.profile.AvatarStyle,
		AvatarSeed:  c.profile.AvatarSeed,
		Version:     shop.SaveFormatVersion,
	}, nil
}

// LoadState replaces the ledger and profile, abandoning any open
// negotiation first. Refused while a model call is in flight.
func (c *Controller) LoadState(s shop.SaveState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.thinking {
		return ErrBusy
	}
	if c.session != nil {
		c.endInteraction(string(llm.ReasonLoadGame))
	}

	c.ledger.Replace(s.Cash, s.Inventory)
	p := s.Profile()
	if p.PlayerName == "" {
		p.PlayerName = shop.DefaultPlayerName
	}
	if p.AvatarStyle == "" {
		p.AvatarStyle = shop.DefaultAvatarStyle
	}
	if p.AvatarSeed == "" {
		p.AvatarSeed = shop.DefaultAvatarSeed
	}
	c.profile = p

	c.ui.ClearCustomer()
	c.ui.DisplayLedger(c.ledger.Cash(), c.ledger.Inventory())
	c.ui.LogDialogue(SystemSpeaker, "Game Loaded.")
	c.ui.SetControls(Controls{})
	c.ui.Notify("Game Loaded!", notify.Success, notify.Short)
	slog.Info("game loaded", "cash", c.ledger.Cash(), "items", c.ledger.Len(), "player", p.PlayerName)
	return nil
}

// SetPlayerName renames the player.
func (c *Controller) SetPlayerName(name string) error {
	name = strings.TrimSpace(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "" {
		c.ui.Notify("Player name cannot be empty.", notify.Error, notify.Short)
		return ErrEmptyName
	}
	c.profile.PlayerName = name
	return nil
}

// SetAvatarStyle changes the portrait style used for future customers.
func (c *Controller) SetAvatarStyle(style string) {
	style = strings.TrimSpace(style)
	if style == "" {
		style = shop.DefaultAvatarStyle
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile.AvatarStyle = style
}
