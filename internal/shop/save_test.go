package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRoundTripKeepsLedgerFields(t *testing.T) {
	in := SaveState{
		Cash:        420,
		Inventory:   []InventoryItem{{Item: testItem("Lens"), PurchasePrice: 77}},
		PlayerName:  "Ada",
		AvatarStyle: "bottts",
		AvatarSeed:  "abc123",
	}
	data, err := EncodeSave(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"saveFormatVersion":1`)

	out, err := DecodeSave(data)
	require.NoError(t, err)
	assert.Equal(t, 420, out.Cash)
	assert.Equal(t, "Ada", out.PlayerName)
	require.Len(t, out.Inventory, 1)
	assert.Equal(t, 77, out.Inventory[0].PurchasePrice)
}

func TestDecodeSaveRejectsWrongShapes(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"cash as string", `{"playerCash":"100","shopInventory":[],"playerName":"A"}`},
		{"inventory as object", `{"playerCash":100,"shopInventory":{},"playerName":"A"}`},
		{"name missing", `{"playerCash":100,"shopInventory":[]}`},
		{"name as number", `{"playerCash":100,"shopInventory":[],"playerName":7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSave([]byte(tt.data))
			assert.ErrorIs(t, err, ErrCorruptSave)
		})
	}
}

func TestDecodeSaveDefaultsAvatar(t *testing.T) {
	s, err := DecodeSave([]byte(`{"playerCash":5,"shopInventory":[],"playerName":"B"}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultAvatarStyle, s.AvatarStyle)
	assert.Equal(t, DefaultAvatarSeed, s.AvatarSeed)
}
