package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Catalog mirrors session snapshots into MongoDB for fast listing and
// history queries. The disk snapshot stays authoritative; the catalog is an
// observability surface, so every write error is swallowed.
type Catalog struct {
	client   *mongo.Client
	sessions *mongo.Collection
}

// NewCatalog connects to MongoDB and prepares the sessions collection.
func NewCatalog(ctx context.Context, uri, database string) (*Catalog, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %v", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %v", err)
	}

	sessions := client.Database(database).Collection("sessions")
	_, err = sessions.Indexes().CreateMany(connectCtx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create indexes: %v", err)
	}

	return &Catalog{client: client, sessions: sessions}, nil
}

// Upsert records the latest snapshot for a session. Safe on a nil catalog so
// callers without MongoDB configured need no branching.
func (c *Catalog) Upsert(ctx context.Context, sess *Session) {
	if c == nil {
		return
	}
	_, err := c.sessions.UpdateOne(
		ctx,
		bson.M{"session_id": sess.ID},
		bson.M{"$set": sess},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Printf("Warning: session catalog update failed for %s: %v", sess.ID, err)
	}
}

// ListIDs returns known session ids, newest first.
func (c *Catalog) ListIDs(ctx context.Context) ([]string, error) {
	if c == nil {
		return nil, nil
	}
	cursor, err := c.sessions.Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetProjection(bson.M{"session_id": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %v", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		SessionID string `bson:"session_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sessions: %v", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.SessionID)
	}
	return ids, nil
}

// Close disconnects from MongoDB.
func (c *Catalog) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}
