package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for the MongoDB credential directory.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. bookit
	Collection string // e.g. accounts
}

// MongoDirectory implements Directory on a MongoDB collection keyed by email.
type MongoDirectory struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

type accountDoc struct {
	Email        string    `bson:"_id"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	Name         string    `bson:"name"`
	CreatedAt    time.Time `bson:"created_at"`
}

// NewMongoDirectory establishes connection, seeds demo accounts and returns the directory.
func NewMongoDirectory(cfg MongoConfig, seeds []SeedAccount) (*MongoDirectory, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "bookit"
	}
	if cfg.Collection == "" {
		cfg.Collection = "accounts"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	d := &MongoDirectory{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}
	if err := Seed(ctx, d, seeds); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return d, nil
}

// Lookup implements Directory.
func (m *MongoDirectory) Lookup(ctx context.Context, email string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var doc accountDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Account{
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Role:         Role(doc.Role),
		Name:         doc.Name,
	}, nil
}

// Create implements Directory.
func (m *MongoDirectory) Create(ctx context.Context, account Account) error {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	_, err := m.collection.InsertOne(ctx, accountDoc{
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Role:         string(account.Role),
		Name:         account.Name,
		CreatedAt:    time.Now(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrAccountExists
	}
	return err
}

// Close terminates connection.
func (m *MongoDirectory) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
