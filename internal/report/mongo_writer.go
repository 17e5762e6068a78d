package report

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/archenemy/domainhawk/internal/types"
)

// MongoWriter streams accepted records straight to a MongoDB collection —
// the durable storage the purpose statement calls for so a long-running
// scan survives interruption. Adapted from the teacher's
// internal/storage/database.go MongoStorage, simplified from batch
// InsertMany to a per-record InsertOne since the Sink forwards one record
// at a time.
type MongoWriter struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoWriter connects to uri and selects dbName.results.
func NewMongoWriter(ctx context.Context, uri, dbName string) (*MongoWriter, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo report store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo report store: %w", err)
	}

	return &MongoWriter{
		client:     client,
		collection: client.Database(dbName).Collection("results"),
	}, nil
}

func (m *MongoWriter) Write(record types.ResultRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := m.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("insert result record: %w", err)
	}
	return nil
}

func (m *MongoWriter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoWriter) Name() string { return "mongo" }
