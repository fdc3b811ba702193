package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pawnshop/internal/shop"
)

func sampleSave() shop.SaveState {
	return shop.SaveState{
		Cash: 740,
		Inventory: []shop.InventoryItem{{
			Item: shop.Item{
				ID: "7d1c", Name: "Brass Sextant", Description: "It has seen some seas.",
				BaseValue: 120, Condition: "Good", ConditionMultiplier: 0.9,
				Rarity: "Uncommon", RarityMultiplier: 1.5, ActualValue: 162,
			},
			PurchasePrice: 110,
		}},
		PlayerName:  "Ada",
		AvatarStyle: "bottts",
		AvatarSeed:  "ada",
	}
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Save(ctx, DefaultKey, sampleSave()))
	got, err := db.Load(ctx, DefaultKey)
	require.NoError(t, err)

	want := sampleSave()
	want.Version = shop.SaveFormatVersion
	assert.Equal(t, want, got)

	key, err := db.LastSaveKey()
	require.NoError(t, err)
	assert.Equal(t, DefaultKey, key)
}

func TestSQLiteOverwrite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Save(ctx, "slot", sampleSave()))
	second := sampleSave()
	second.Cash = 5
	second.Inventory = nil
	require.NoError(t, db.Save(ctx, "slot", second))

	got, err := db.Load(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Cash)
	assert.Empty(t, got.Inventory)
}

func TestSQLiteMissingSave(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Load(context.Background(), "nothing-here")
	assert.ErrorIs(t, err, ErrNoSave)

	key, err := db.LastSaveKey()
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestSQLiteCorruptSave(t *testing.T) {
	db := openTestDB(t)
	_, err := db.conn.Exec(
		"INSERT INTO saves (key, data, version, saved_at) VALUES (?, ?, ?, ?)",
		"bad", `{"playerCash":"lots","shopInventory":[],"playerName":"Ada"}`, 1, 0,
	)
	require.NoError(t, err)

	_, err = db.Load(context.Background(), "bad")
	assert.ErrorIs(t, err, shop.ErrCorruptSave)
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	ctx := context.Background()

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Save(ctx, DefaultKey, sampleSave()))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.PlayerName)
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &DB{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Driver: "redis"})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Driver: "mongo"})
	assert.Error(t, err, "mongo without a URI")
}

func TestMongoRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}
	ctx := context.Background()
	m, err := OpenMongo(ctx, uri, "pawnshop_test")
	require.NoError(t, err)
	defer m.Close()

	key := "test-" + t.Name()
	require.NoError(t, m.Save(ctx, key, sampleSave()))
	got, err := m.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 740, got.Cash)
	require.Len(t, got.Inventory, 1)
	assert.Equal(t, "Brass Sextant", got.Inventory[0].Name)

	_, err = m.Load(ctx, "missing-"+t.Name())
	assert.ErrorIs(t, err, ErrNoSave)
}
