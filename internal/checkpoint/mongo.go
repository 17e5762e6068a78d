package checkpoint

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/archenemy/domainhawk/internal/types"
)

// MongoCheckpointer persists ScanState to a MongoDB collection, keyed by
// search term, as a durable alternative to the file-based checkpoint.
// Adapted from the teacher's internal/storage/database.go MongoStorage
// connect/ping pattern.
type MongoCheckpointer struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongo connects to uri and selects dbName.checkpoints.
func NewMongo(ctx context.Context, uri, dbName string) (*MongoCheckpointer, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo checkpoint store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo checkpoint store: %w", err)
	}

	return &MongoCheckpointer{
		client:     client,
		collection: client.Database(dbName).Collection("checkpoints"),
	}, nil
}

type mongoDoc struct {
	Term         string                   `bson:"term"`
	StartedAt    time.Time                `bson:"started_at"`
	SavedAt      time.Time                `bson:"saved_at"`
	Interrupted  bool                     `bson:"interrupted"`
	CurrentSlice string                   `bson:"current_slice"`
	Counts       map[types.RecordKind]int `bson:"counts"`
	SeenURLs     []string                 `bson:"seen_urls"`
}

// Save upserts the checkpoint document for term.
func (m *MongoCheckpointer) Save(ctx context.Context, term string, state *types.ScanState, seenURLs []string) error {
	doc := mongoDoc{
		Term:         term,
		StartedAt:    state.StartedAt,
		SavedAt:      time.Now(),
		Interrupted:  state.IsInterrupted(),
		CurrentSlice: state.CurrentSlice,
		Counts:       state.Snapshot(),
		SeenURLs:     seenURLs,
	}

	_, err := m.collection.ReplaceOne(ctx,
		bson.M{"term": term},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert checkpoint for %q: %w", term, err)
	}
	return nil
}

// Load fetches the checkpoint document for term, if any.
func (m *MongoCheckpointer) Load(ctx context.Context, term string) (seenURLs []string, counts map[types.RecordKind]int, found bool, err error) {
	var doc mongoDoc
	err = m.collection.FindOne(ctx, bson.M{"term": term}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("load checkpoint for %q: %w", term, err)
	}
	return doc.SeenURLs, doc.Counts, true, nil
}

// Close disconnects the underlying client.
func (m *MongoCheckpointer) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
