package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rss-ingest/pkg/domain"
)

// MongoStore persists entries in a MongoDB collection keyed by link.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)

	// Link uniqueness is enforced by the store, not just the pipeline.
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "link", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ensure link index: %w", err)
	}

	return &MongoStore{client: client, collection: coll}, nil
}

func (s *MongoStore) ExistingLinks(ctx context.Context, links []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(links))
	if len(links) == 0 {
		return existing, nil
	}

	cursor, err := s.collection.Find(ctx,
		bson.M{"link": bson.M{"$in": links}},
		options.Find().SetProjection(bson.M{"link": 1, "_id": 0}),
	)
	if err != nil {
		return nil, fmt.Errorf("query existing links: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			Link string `bson:"link"`
		}
		if err := cursor.Decode(&row); err != nil {
			continue
		}
		if row.Link != "" {
			existing[row.Link] = true
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("read existing links: %w", err)
	}
	return existing, nil
}

func (s *MongoStore) Insert(ctx context.Context, entry domain.FeedEntry) error {
	doc := bson.M{
		"title":      entry.Title,
		"content":    entry.Content,
		"published":  entry.Published,
		"link":       entry.Link,
		"created_at": time.Now(),
	}

	_, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateLink
		}
		return fmt.Errorf("insert %s: %w", entry.Link, err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
