package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voyage/models"
)

// Memory is an in-process Gateway and ProfileStore. It backs the offline
// CLI and tests.
type Memory struct {
	mu       sync.Mutex
	docs     map[string]*models.VoyageDocument
	stamps   map[string]time.Time
	profiles map[string]*Profile

	// Saves counts successful Save calls.
	Saves int
	// FailSave, when set, is returned by Save.
	FailSave error
	// FailOverlay, when set, is returned by SaveOverlay.
	FailOverlay error
}

func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string]*models.VoyageDocument),
		stamps:   make(map[string]time.Time),
		profiles: make(map[string]*Profile),
	}
}

// Put stores doc under docID and attaches it to userID when non-empty.
func (m *Memory) Put(userID, docID string, doc *models.VoyageDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[docID] = doc.Clone()
	if userID != "" {
		m.profile(userID).ConversationID = docID
	}
}

func (m *Memory) profile(userID string) *Profile {
	p, ok := m.profiles[userID]
	if !ok {
		p = &Profile{UserID: userID}
		m.profiles[userID] = p
	}
	return p
}

func (m *Memory) Load(_ context.Context, docID string) (*models.VoyageDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", docID, ErrNotFound)
	}
	return doc.Clone(), nil
}

func (m *Memory) Save(_ context.Context, docID string, doc *models.VoyageDocument) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return time.Time{}, m.FailSave
	}
	now := time.Now().UTC()
	m.docs[docID] = doc.Clone()
	m.stamps[docID] = now
	m.Saves++
	return now, nil
}

// UpdatedAt returns the timestamp of the last save of docID.
func (m *Memory) UpdatedAt(docID string) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stamps[docID]
}

func (m *Memory) ResolveDocumentID(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return "", fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	if p.ConversationID == "" {
		return "", ErrNoDocumentID
	}
	return p.ConversationID, nil
}

func (m *Memory) LoadOverlay(_ context.Context, userID string) (models.DesignOverlay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok || p.DesignOverlay == nil {
		return models.DefaultOverlay(), nil
	}
	return p.DesignOverlay.Clone(), nil
}

func (m *Memory) SaveOverlay(_ context.Context, userID string, overlay models.DesignOverlay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOverlay != nil {
		return m.FailOverlay
	}
	o := overlay.Clone()
	p := m.profile(userID)
	p.DesignOverlay = &o
	p.UpdatedAt = time.Now().UTC()
	return nil
}
