// Package db persists collected transcripts. MongoDB is the primary archive;
// Postgres-compatible providers back the replica used for analytics.
package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"transcript-collector/pkg/domain"
)

// Client wraps the MongoDB client and the episode archive collection.
type Client struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	collection  *mongo.Collection
}

// NewClient creates a new archive client.
func NewClient(connectionString, databaseName, collectionName string) *Client {
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		// Return client with nil - error will be caught during Connect()
		return &Client{}
	}

	database := mongoClient.Database(databaseName)
	collection := database.Collection(collectionName)

	return &Client{
		mongoClient: mongoClient,
		database:    database,
		collection:  collection,
	}
}

// Connect establishes connection to MongoDB
func (c *Client) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return c.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// SaveEpisodes upserts resolved episodes keyed by (feed_id, external_id), so
// a re-run refreshes an episode's content instead of duplicating it.
func (c *Client) SaveEpisodes(ctx context.Context, episodes []domain.ResolvedEpisode) error {
	if c.collection == nil {
		return fmt.Errorf("collection not initialized")
	}

	for _, ep := range episodes {
		filter := bson.M{"feed_id": ep.FeedID, "external_id": ep.ExternalID}
		update := bson.M{"$set": ep}
		opts := options.Update().SetUpsert(true)

		if _, err := c.collection.UpdateOne(ctx, filter, update, opts); err != nil {
			return fmt.Errorf("upsert episode %s/%s: %w", ep.FeedID, ep.ExternalID, err)
		}
	}
	return nil
}

// GetAllEpisodes fetches every archived episode, used by replication.
func (c *Client) GetAllEpisodes(ctx context.Context) ([]domain.ResolvedEpisode, error) {
	if c.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := c.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer cursor.Close(ctx)

	var episodes []domain.ResolvedEpisode
	for cursor.Next(ctx) {
		var ep domain.ResolvedEpisode
		if err := cursor.Decode(&ep); err != nil {
			continue // Skip invalid documents
		}
		episodes = append(episodes, ep)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return episodes, nil
}

