// Package store is the persistence gateway for proposal documents and the
// user profile data they hang off.
package store

import (
	"context"
	"errors"
	"time"

	"voyage/models"
)

var (
	// ErrNotFound is returned when the document or profile does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoDocumentID is returned when the profile has no proposal attached.
	ErrNoDocumentID = errors.New("profile has no session document identifier")
)

// Gateway loads and saves proposal documents keyed by the session document
// identifier. Save overwrites the whole document; there is no version check.
type Gateway interface {
	Load(ctx context.Context, docID string) (*models.VoyageDocument, error)
	Save(ctx context.Context, docID string, doc *models.VoyageDocument) (time.Time, error)
}

// ProfileStore resolves the session document identifier and persists the
// design overlay. Profile writes merge into the existing profile.
type ProfileStore interface {
	ResolveDocumentID(ctx context.Context, userID string) (string, error)
	LoadOverlay(ctx context.Context, userID string) (models.DesignOverlay, error)
	SaveOverlay(ctx context.Context, userID string, overlay models.DesignOverlay) error
}

// Profile is the per-user record.
type Profile struct {
	UserID         string                `json:"userId" bson:"_id"`
	ConversationID string                `json:"conversationId" bson:"conversationId"`
	DesignOverlay  *models.DesignOverlay `json:"designOverlay,omitempty" bson:"designOverlay,omitempty"`
	UpdatedAt      time.Time             `json:"updatedAt" bson:"updatedAt"`
}

// Conversation is the stored document holding the generated proposal.
type Conversation struct {
	ID        string         `bson:"_id"`
	Proposal  map[string]any `bson:"proposal"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}
