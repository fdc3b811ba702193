package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/pawnshop/internal/shop"
)

func sellerFixture() (*shop.Customer, *shop.Item) {
	c := &shop.Customer{
		Personality:     "Shady",
		Patience:        70,
		CurrentPatience: 70,
		Seller: &shop.SellerTerms{
			ItemHint:               "Steampunk Tool",
			MinimumAcceptablePrice: 107,
			InitialAskingPrice:     161,
			CurrentAskingPrice:     161,
		},
	}
	item := &shop.Item{BaseValue: 100, Condition: "Worn", Rarity: "Rare", ActualValue: 113}
	return c, item
}

func buyerFixture() (*shop.Customer, *shop.InventoryItem) {
	c := &shop.Customer{
		Personality: "Collector",
		Patience:    55,
		Buyer:       &shop.BuyerTerms{InitialOffer: 60, MaximumAcceptablePrice: 130, CurrentOffer: 60},
	}
	item := &shop.InventoryItem{
		Item: shop.Item{
			Name: "Clockwork Owl", Description: "Ticks when nobody watches.",
			Condition: "Good", Rarity: "Unique", ActualValue: 120,
		},
		PurchasePrice: 90,
	}
	return c, item
}

func TestSellerPrompt(t *testing.T) {
	c, item := sellerFixture()
	p := SellerPrompt(c, item)

	assert.Contains(t, p, "Your goal is to SELL an item")
	assert.Contains(t, p, "You are generally **Shady**")
	assert.Contains(t, p, "theme/type: **Steampunk Tool**")
	assert.Contains(t, p, "**[PRICE_ASK: 161]**")
	assert.Contains(t, p, "Your absolute minimum price is **$107**. Do NOT reveal this.")
	assert.Contains(t, p, "DO NOT explicitly state this condition (\"Worn\")")
	assert.Contains(t, p, "rarity level of **Rare**")
	assert.Contains(t, p, "starting patience level is **70**")
	assert.Contains(t, p, "[PATIENCE: -X]")
	assert.NotContains(t, p, "PRICE_OFFER")
}

func TestSellerPromptMissingFields(t *testing.T) {
	c, item := sellerFixture()
	assert.Empty(t, SellerPrompt(nil, item))
	assert.Empty(t, SellerPrompt(c, nil))

	noHint := c.Clone()
	noHint.Seller.ItemHint = ""
	assert.Empty(t, SellerPrompt(noHint, item))

	buyer, _ := buyerFixture()
	assert.Empty(t, SellerPrompt(buyer, item), "a buyer cannot get seller instructions")
}

func TestBuyerPrompt(t *testing.T) {
	c, item := buyerFixture()
	p := BuyerPrompt(c, item)

	assert.Contains(t, p, "Your goal is to BUY a specific item")
	assert.Contains(t, p, `buying the **"Clockwork Owl"**`)
	assert.Contains(t, p, `Description: "Ticks when nobody watches.", Condition: Good, Rarity: Unique`)
	assert.Contains(t, p, "**[PRICE_OFFER: 60]**")
	assert.Contains(t, p, "willing to pay is **$130**")
	assert.Contains(t, p, "[ACCEPT_PRICE: accepted_price]")
	assert.NotContains(t, p, "90", "purchase price is private to the player")
}

func TestBuyerPromptNeedsInventedDetails(t *testing.T) {
	c, item := buyerFixture()
	item.Description = ""
	assert.Empty(t, BuyerPrompt(c, item))
}
