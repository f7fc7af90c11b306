// Package mongo implements the document store on MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const documentsCollection = "documents"

// DB owns the client and the database handle.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// New connects to uri and pings the primary.
func New(ctx context.Context, uri, database string) (*DB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &DB{Client: client, Database: client.Database(database)}, nil
}

// Migrate creates the indexes the document store relies on.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.Database.Collection(documentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "collectionPath", Value: 1}, {Key: "docId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "collectionId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (d *DB) Close() error {
	return d.Client.Disconnect(context.Background())
}

// Documents returns the document store.
func (d *DB) Documents() *DocumentStore {
	return NewDocumentStore(d.Database.Collection(documentsCollection))
}
