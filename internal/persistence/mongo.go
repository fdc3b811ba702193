package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talgya/pawnshop/internal/shop"
)

// Mongo keeps save records in a MongoDB collection named "saves".
type Mongo struct {
	client *mongo.Client
	saves  *mongo.Collection
}

type saveDocument struct {
	Key     string    `bson:"_id"`
	Data    string    `bson:"data"`
	Version int       `bson:"version"`
	SavedAt time.Time `bson:"savedAt"`
}

// OpenMongo connects to uri and verifies the connection.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if uri == "" {
		return nil, errors.New("mongo: connection URI not set")
	}
	if database == "" {
		database = "pawnshop"
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	slog.Info("connected to mongodb", "database", database)
	return &Mongo{client: client, saves: client.Database(database).Collection("saves")}, nil
}

// Save upserts the record under key.
func (m *Mongo) Save(ctx context.Context, key string, s shop.SaveState) error {
	data, err := shop.EncodeSave(s)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	doc := saveDocument{Key: key, Data: string(data), Version: shop.SaveFormatVersion, SavedAt: time.Now()}
	_, err = m.saves.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("write save %q: %w", key, err)
	}
	slog.Info("game saved", "key", key, "cash", s.Cash, "items", len(s.Inventory))
	return nil
}

// Load reads and validates the record under key.
func (m *Mongo) Load(ctx context.Context, key string) (shop.SaveState, error) {
	var doc saveDocument
	err := m.saves.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return shop.SaveState{}, ErrNoSave
	}
	if err != nil {
		return shop.SaveState{}, fmt.Errorf("read save %q: %w", key, err)
	}
	return shop.DecodeSave([]byte(doc.Data))
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
