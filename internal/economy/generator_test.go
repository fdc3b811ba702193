package economy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pawnshop/internal/entropy"
	"github.com/talgya/pawnshop/internal/shop"
)

func TestActualValueScenario(t *testing.T) {
	assert.Equal(t, 113, ActualValue(100, 0.75, 1.5))
	assert.Equal(t, 1, ActualValue(1, 0.25, 1.0), "actual value never drops below 1")
}

func TestSellerTermsScenario(t *testing.T) {
	terms := SellerTerms(113, 100, 1.0)
	assert.Equal(t, 107, terms.MinimumAcceptablePrice)
	assert.Equal(t, 161, terms.InitialAskingPrice)
	assert.Equal(t, terms.InitialAskingPrice, terms.CurrentAskingPrice)
}

func TestSellerTermsCaps(t *testing.T) {
	tests := []struct {
		name        string
		actual      int
		base        int
		sensitivity float64
		wantMin     int
		wantAsk     int
	}{
		{"tiny item floored above minimum", 1, 10, 0.7, 1, 2},
		{"base cap then floored above minimum", 250, 10, 1.0, 238, 239},
		{"low sensitivity", 200, 400, 0.7, 160, 218},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := SellerTerms(tt.actual, tt.base, tt.sensitivity)
			assert.Equal(t, tt.wantMin, terms.MinimumAcceptablePrice)
			assert.Equal(t, tt.wantAsk, terms.InitialAskingPrice)
		})
	}
}

func TestBuyerTermsOrdering(t *testing.T) {
	terms := BuyerTerms(100, 1.0, 0, 0)
	assert.Equal(t, 101, terms.MaximumAcceptablePrice)
	assert.Equal(t, 100, terms.InitialOffer)

	terms = BuyerTerms(1, 1.0, 0, 0)
	assert.Equal(t, 2, terms.MaximumAcceptablePrice)
	assert.Equal(t, 1, terms.InitialOffer)
}

func TestGeneratedItemsHoldInvariants(t *testing.T) {
	g := NewGenerator(entropy.NewSeeded(7))
	for i := 0; i < 500; i++ {
		item, err := g.GenerateItem()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, item.ActualValue, 1)
		assert.Equal(t, ActualValue(item.BaseValue, item.ConditionMultiplier, item.RarityMultiplier), item.ActualValue)
		assert.True(t, item.BaseValue >= 10 && item.BaseValue <= 500)
		assert.Empty(t, item.Name)
	}
}

func TestGeneratedSellersHoldInvariants(t *testing.T) {
	g := NewGenerator(entropy.NewSeeded(11))
	for i := 0; i < 500; i++ {
		item, err := g.GenerateItem()
		require.NoError(t, err)
		c, err := g.GenerateSeller(item, "bottts")
		require.NoError(t, err)
		require.Equal(t, shop.RoleSeller, c.Role())

		assert.GreaterOrEqual(t, c.Seller.MinimumAcceptablePrice, 1)
		assert.GreaterOrEqual(t, c.Seller.CurrentAskingPrice, c.Seller.MinimumAcceptablePrice+1)
		assert.True(t, c.Patience >= 50 && c.Patience <= 100)
		assert.Equal(t, c.Patience, c.CurrentPatience)
		assert.True(t, c.PriceSensitivity >= 0.7 && c.PriceSensitivity < 1.0)
		assert.Contains(t, c.Seller.ItemHint, " ")
		assert.Len(t, c.AvatarSeed, 13)
		assert.True(t, strings.HasPrefix(c.PortraitURL, "https://api.dicebear.com/9.x/bottts/svg?seed="))
	}
}

func TestGeneratedBuyersHoldInvariants(t *testing.T) {
	g := NewGenerator(entropy.NewSeeded(13))
	for i := 0; i < 500; i++ {
		item, err := g.GenerateItem()
		require.NoError(t, err)
		c, err := g.GenerateBuyer(&shop.InventoryItem{Item: *item}, "")
		require.NoError(t, err)
		require.Equal(t, shop.RoleBuyer, c.Role())

		assert.Less(t, c.Buyer.InitialOffer, c.Buyer.MaximumAcceptablePrice)
		assert.GreaterOrEqual(t, c.Buyer.MaximumAcceptablePrice, item.ActualValue+1)
		assert.GreaterOrEqual(t, c.Buyer.InitialOffer, 1)
		assert.True(t, c.PriceSensitivity >= 0.6 && c.PriceSensitivity < 1.0)
		assert.Contains(t, c.PortraitURL, "/pixel-art/")
	}
}

func TestWeightedRarityFollowsWeights(t *testing.T) {
	g := NewGenerator(entropy.NewSeeded(99))
	counts := map[string]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		counts[g.weightedRarity().Name]++
	}
	assert.InDelta(t, 0.40, float64(counts["Common"])/n, 0.02)
	assert.InDelta(t, 0.30, float64(counts["Uncommon"])/n, 0.02)
	assert.InDelta(t, 0.02, float64(counts["Legendary"])/n, 0.01)
}

func TestWeightedRarityBucketEdges(t *testing.T) {
	// 0.995 × 100 = 99.5 lands in the Legendary bucket [98, 100).
	g := NewGenerator(entropy.NewSequence(0.995))
	assert.Equal(t, "Legendary", g.weightedRarity().Name)

	g = NewGenerator(entropy.NewSequence(0.0))
	assert.Equal(t, "Common", g.weightedRarity().Name)
}

func TestGeneratorErrors(t *testing.T) {
	g := NewGeneratorWithTables(entropy.NewSeeded(1), Tables{})
	_, err := g.GenerateItem()
	assert.ErrorIs(t, err, ErrEmptyTables)

	g = NewGenerator(entropy.NewSeeded(1))
	_, err = g.GenerateSeller(nil, "")
	assert.ErrorIs(t, err, ErrMissingInput)
	_, err = g.GenerateBuyer(&shop.InventoryItem{}, "")
	assert.ErrorIs(t, err, ErrMissingInput)

	g = NewGeneratorWithTables(entropy.NewSeeded(1), Tables{Conditions: DefaultTables().Conditions, Rarities: DefaultTables().Rarities})
	item, err := g.GenerateItem()
	require.NoError(t, err)
	_, err = g.GenerateSeller(item, "")
	assert.ErrorIs(t, err, ErrEmptyTables)
}

func TestPortraitURLEscapesSeed(t *testing.T) {
	assert.Equal(t, "https://api.dicebear.com/9.x/pixel-art/svg?seed=a+b%26c", PortraitURL("", "a b&c"))
}
