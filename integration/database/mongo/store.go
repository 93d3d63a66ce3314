package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type document struct {
	Name      string    `bson:"name"`
	Body      []byte    `bson:"body"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store keeps constraint documents in a collection of {name, body,
// updated_at} records and implements ingest.Source.
type Store struct {
	coll *mongo.Collection
}

// NewStore creates a Store over cfg.Database and cfg.Collection.
func NewStore(client *mongo.Client, cfg Config) *Store {
	return &Store{coll: client.Database(cfg.Database).Collection(cfg.Collection)}
}

// EnsureIndexes creates the unique index on name.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo: create index: %w", err)
	}
	return nil
}

// List returns every document name, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 0}}).
		SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list documents: %w", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: list documents: %w", err)
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names, nil
}

// Fetch returns one document.
func (s *Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyDocumentName
	}
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: fetch %s: %w", name, err)
	}
	return doc.Body, nil
}

// Put inserts or replaces a document.
func (s *Store) Put(ctx context.Context, name string, body []byte) error {
	if name == "" {
		return ErrEmptyDocumentName
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "name", Value: name}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "body", Value: body},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo: put %s: %w", name, err)
	}
	return nil
}

// Delete removes a document. It reports whether the document existed.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, fmt.Errorf("mongo: delete %s: %w", name, err)
	}
	return res.DeletedCount > 0, nil
}
