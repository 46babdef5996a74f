package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	defaultMongoDatabase   = "auth"
	defaultMongoCollection = "userauths"
)

type mongoSession struct {
	UserID       string    `bson:"userId"`
	RefreshToken string    `bson:"refreshToken"`
	CreatedAt    time.Time `bson:"createdAt"`
}

// MongoStorage stores session records as documents keyed by a unique userId.
type MongoStorage struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoStorage(ctx context.Context, uri, database, collection string) (*MongoStorage, error) {
	const op = "storage.NewMongoStorage"

	if database == "" {
		database = defaultMongoDatabase
	}
	if collection == "" {
		collection = defaultMongoCollection
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	coll := client.Database(database).Collection(collection)

	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &MongoStorage{
		client: client,
		coll:   coll,
	}, nil
}

func (m *MongoStorage) SetRefreshToken(ctx context.Context, userID, token string) error {
	const op = "storage.SetRefreshToken"

	if userID == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyUserID)
	}

	filter := bson.D{{Key: "userId", Value: userID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "refreshToken", Value: token}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: time.Now().UTC()}}},
	}

	_, err := m.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (m *MongoStorage) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	const op = "storage.GetRefreshToken"

	if userID == "" {
		return "", nil
	}

	var sess mongoSession
	err := m.coll.FindOne(ctx, bson.D{{Key: "userId", Value: userID}}).Decode(&sess)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return sess.RefreshToken, nil
}

func (m *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.client.Disconnect(ctx)
}
