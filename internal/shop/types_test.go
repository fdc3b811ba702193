package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustPatienceClamps(t *testing.T) {
	c := &Customer{Patience: 60, CurrentPatience: 10}

	assert.Equal(t, 0, c.AdjustPatience(-15))
	assert.Equal(t, 0, c.AdjustPatience(-30), "patience never drops below zero")
	assert.Equal(t, 60, c.AdjustPatience(500))
}

func TestRevealIsMonotonic(t *testing.T) {
	c := &Customer{}

	assert.True(t, c.RevealName("Mira"))
	assert.False(t, c.RevealName("Mirabel"), "second reveal is not a first reveal")
	assert.Equal(t, "Mirabel", c.Name, "second reveal still overwrites the value")
	assert.True(t, c.Revealed.Name)

	assert.True(t, c.RevealAge(41))
	assert.True(t, c.RevealOccupation("Tinker"))
	assert.Equal(t, RevealedInfo{Name: true, Age: true, Occupation: true}, c.Revealed)
}

func TestCustomerRole(t *testing.T) {
	var none *Customer
	assert.Equal(t, RoleNone, none.Role())
	assert.Equal(t, "Customer", none.DisplayName())

	seller := &Customer{Seller: &SellerTerms{CurrentAskingPrice: 120}}
	assert.Equal(t, RoleSeller, seller.Role())
	assert.Equal(t, 120, seller.CurrentPrice())

	buyer := &Customer{Buyer: &BuyerTerms{CurrentOffer: 70}, Name: "Oskar"}
	assert.Equal(t, RoleBuyer, buyer.Role())
	assert.Equal(t, 70, buyer.CurrentPrice())
	assert.Equal(t, "Oskar", buyer.DisplayName())
}

func TestCloneDetachesTerms(t *testing.T) {
	orig := &Customer{Seller: &SellerTerms{CurrentAskingPrice: 50}}
	cp := orig.Clone()
	cp.Seller.CurrentAskingPrice = 10
	assert.Equal(t, 50, orig.Seller.CurrentAskingPrice)
}
