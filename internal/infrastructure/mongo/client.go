package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colBooks          = "books"
	colOrders         = "orders"
	colUsers          = "users"
	colSellerRequests = "sellerRequests"
	colWishlists      = "wishlists"

	connectTimeout = 10 * time.Second
)

// Open connects and pings. The caller owns the client and must Disconnect it.
func Open(ctx context.Context, uri, database string) (*mongodrv.Client, *mongodrv.Database, error) {
	if uri == "" {
		return nil, nil, errors.New("mongo: uri is empty")
	}
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongodrv.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return client, client.Database(database), nil
}

// EnsureIndexes creates the secondary indexes the stores query by.
func EnsureIndexes(ctx context.Context, db *mongodrv.Database) error {
	specs := map[string][]mongodrv.IndexModel{
		colOrders: {
			{Keys: bson.D{{Key: "customer", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "seller.email", Value: 1}}},
			{Keys: bson.D{{Key: "bookId", Value: 1}}},
		},
		colBooks: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "seller.email", Value: 1}}},
		},
		colWishlists: {
			{Keys: bson.D{{Key: "userEmail", Value: 1}}},
		},
	}
	for col, models := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: create indexes on %s: %w", col, err)
		}
	}
	return nil
}
