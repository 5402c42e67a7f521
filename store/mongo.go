package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"voyage/models"
)

// Mongo implements Gateway and ProfileStore on MongoDB.
type Mongo struct {
	Client        *mongo.Client
	Conversations *mongo.Collection
	Profiles      *mongo.Collection

	now func() time.Time
}

// Connect dials MongoDB and binds the collections used by the app.
func Connect(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	log.Info().Str("database", database).Msg("connected to mongodb")

	db := client.Database(database)
	return &Mongo{
		Client:        client,
		Conversations: db.Collection("conversations"),
		Profiles:      db.Collection("profiles"),
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// Load reads the proposal payload of the conversation docID and merges the
// default field values over it.
func (m *Mongo) Load(ctx context.Context, docID string) (*models.VoyageDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var conv struct {
		Proposal bson.M `bson:"proposal"`
	}
	err := m.Conversations.FindOne(ctx, bson.M{"_id": docID}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("conversation %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", docID, err)
	}
	return models.FromMap(conv.Proposal)
}

// Save replaces the conversation with the full proposal and a fresh
// modification timestamp. Last writer wins.
func (m *Mongo) Save(ctx context.Context, docID string, doc *models.VoyageDocument) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := m.now()
	replacement := bson.M{
		"_id":       docID,
		"proposal":  doc,
		"updatedAt": now,
	}
	_, err := m.Conversations.ReplaceOne(ctx, bson.M{"_id": docID}, replacement, options.Replace().SetUpsert(true))
	if err != nil {
		return time.Time{}, fmt.Errorf("save conversation %s: %w", docID, err)
	}
	return now, nil
}

func (m *Mongo) ResolveDocumentID(ctx context.Context, userID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Profile
	opts := options.FindOne().SetProjection(bson.M{"conversationId": 1})
	err := m.Profiles.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("load profile %s: %w", userID, err)
	}
	if p.ConversationID == "" {
		return "", ErrNoDocumentID
	}
	return p.ConversationID, nil
}

func (m *Mongo) LoadOverlay(ctx context.Context, userID string) (models.DesignOverlay, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Profile
	opts := options.FindOne().SetProjection(bson.M{"designOverlay": 1})
	err := m.Profiles.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && p.DesignOverlay == nil) {
		return models.DefaultOverlay(), nil
	}
	if err != nil {
		return models.DesignOverlay{}, fmt.Errorf("load overlay %s: %w", userID, err)
	}
	return *p.DesignOverlay, nil
}

// SaveOverlay merges the overlay into the profile.
func (m *Mongo) SaveOverlay(ctx context.Context, userID string, overlay models.DesignOverlay) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"designOverlay": overlay,
		"updatedAt":     m.now(),
	}}
	_, err := m.Profiles.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save overlay %s: %w", userID, err)
	}
	return nil
}

// AttachDocument points the profile at a conversation. Used by the CLI seed
// command and integration tests.
func (m *Mongo) AttachDocument(ctx context.Context, userID, docID string) error {
	update := bson.M{"$set": bson.M{"conversationId": docID, "updatedAt": m.now()}}
	_, err := m.Profiles.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("attach document to profile %s: %w", userID, err)
	}
	return nil
}
