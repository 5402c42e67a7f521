// Package design edits the cosmetic overlay drawn over a proposal preview.
// Overlay changes are saved on every step; they never touch the proposal.
package design

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"voyage/history"
	"voyage/models"
	"voyage/store"
)

var (
	ErrUnknownOp  = errors.New("unknown design operation")
	ErrNotFound   = errors.New("overlay element not found")
	ErrInvalidOp  = errors.New("invalid design operation")
	ErrNoHistory  = errors.New("nothing to undo or redo")
	errNoChange   = errors.New("no change")
	validShapes   = map[string]bool{"rect": true, "circle": true, "line": true}
	validFontRole = map[string]bool{"heading": true, "body": true}
)

// Op types.
const (
	OpSetColor    = "setColor"
	OpSetFont     = "setFont"
	OpAddShape    = "addShape"
	OpUpdateShape = "updateShape"
	OpRemoveShape = "removeShape"
	OpAddImage    = "addImage"
	OpUpdateImage = "updateImage"
	OpRemoveImage = "removeImage"
	OpUndo        = "undo"
	OpRedo        = "redo"
)

// Op is one overlay edit as sent by the client.
type Op struct {
	Type  string               `json:"type"`
	Key   string               `json:"key,omitempty"`
	Value string               `json:"value,omitempty"`
	Size  float64              `json:"size,omitempty"`
	ID    string               `json:"id,omitempty"`
	Shape *models.Shape        `json:"shape,omitempty"`
	Image *models.OverlayImage `json:"image,omitempty"`
}

// Session holds one user's overlay and its unbounded history.
type Session struct {
	mu      sync.Mutex
	userID  string
	store   store.ProfileStore
	current models.DesignOverlay
	hist    *history.History[models.DesignOverlay]
}

// Load opens the overlay stored on the user's profile.
func Load(ctx context.Context, profiles store.ProfileStore, userID string) (*Session, error) {
	o, err := profiles.LoadOverlay(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load overlay: %w", err)
	}
	return &Session{
		userID:  userID,
		store:   profiles,
		current: o,
		hist:    history.New(0, models.DesignOverlay.Clone),
	}, nil
}

// Overlay returns a copy of the current overlay.
func (s *Session) Overlay() models.DesignOverlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanRedo()
}

// Apply runs op and saves the result. When the save fails the change is kept
// in memory and the error is returned.
func (s *Session) Apply(ctx context.Context, op Op) (models.DesignOverlay, error) {
	switch op.Type {
	case OpUndo:
		return s.Undo(ctx)
	case OpRedo:
		return s.Redo(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	if err := apply(&next, op); err != nil {
		if errors.Is(err, errNoChange) {
			return s.current.Clone(), nil
		}
		return s.current.Clone(), err
	}
	s.hist.Push(s.current)
	s.current = next
	return s.current.Clone(), s.persistLocked(ctx)
}

func (s *Session) Undo(ctx context.Context) (models.DesignOverlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.hist.Undo(s.current)
	if !ok {
		return s.current.Clone(), ErrNoHistory
	}
	s.current = prev
	return s.current.Clone(), s.persistLocked(ctx)
}

func (s *Session) Redo(ctx context.Context) (models.DesignOverlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.hist.Redo(s.current)
	if !ok {
		return s.current.Clone(), ErrNoHistory
	}
	s.current = next
	return s.current.Clone(), s.persistLocked(ctx)
}

func (s *Session) persistLocked(ctx context.Context) error {
	if err := s.store.SaveOverlay(ctx, s.userID, s.current.Clone()); err != nil {
		log.Warn().Err(err).Str("userId", s.userID).Msg("overlay autosave failed")
		return fmt.Errorf("autosave overlay: %w", err)
	}
	return nil
}

func apply(o *models.DesignOverlay, op Op) error {
	switch op.Type {
	case OpSetColor:
		key := strings.TrimSpace(op.Key)
		if !models.ValidColorKey(key) {
			return fmt.Errorf("%w: color key %q", ErrInvalidOp, op.Key)
		}
		if o.Colors == nil {
			o.Colors = map[string]string{}
		}
		if o.Colors[key] == op.Value {
			return errNoChange
		}
		o.Colors[key] = op.Value
	case OpSetFont:
		if !validFontRole[op.Key] {
			return fmt.Errorf("%w: font role %q", ErrInvalidOp, op.Key)
		}
		if op.Size < 0 {
			return fmt.Errorf("%w: negative font size", ErrInvalidOp)
		}
		if op.Key == "heading" {
			o.Typography.HeadingFont = op.Value
		} else {
			o.Typography.BodyFont = op.Value
		}
		if op.Size > 0 {
			o.Typography.BaseSize = op.Size
		}
	case OpAddShape:
		if op.Shape == nil || !validShapes[op.Shape.Kind] {
			return fmt.Errorf("%w: shape kind", ErrInvalidOp)
		}
		sh := *op.Shape
		sh.ID = uuid.NewString()
		o.Shapes = append(o.Shapes, sh)
	case OpUpdateShape:
		i := shapeIndex(o, op.ID)
		if i < 0 {
			return fmt.Errorf("%w: shape %s", ErrNotFound, op.ID)
		}
		if op.Shape == nil {
			return fmt.Errorf("%w: missing shape", ErrInvalidOp)
		}
		if op.Shape.Kind != "" && !validShapes[op.Shape.Kind] {
			return fmt.Errorf("%w: shape kind", ErrInvalidOp)
		}
		sh := *op.Shape
		sh.ID = op.ID
		if sh.Kind == "" {
			sh.Kind = o.Shapes[i].Kind
		}
		o.Shapes[i] = sh
	case OpRemoveShape:
		i := shapeIndex(o, op.ID)
		if i < 0 {
			return fmt.Errorf("%w: shape %s", ErrNotFound, op.ID)
		}
		o.Shapes = append(o.Shapes[:i], o.Shapes[i+1:]...)
	case OpAddImage:
		if op.Image == nil || strings.TrimSpace(op.Image.URL) == "" {
			return fmt.Errorf("%w: image url", ErrInvalidOp)
		}
		img := *op.Image
		img.ID = uuid.NewString()
		o.Images = append(o.Images, img)
	case OpUpdateImage:
		i := imageIndex(o, op.ID)
		if i < 0 {
			return fmt.Errorf("%w: image %s", ErrNotFound, op.ID)
		}
		if op.Image == nil {
			return fmt.Errorf("%w: missing image", ErrInvalidOp)
		}
		img := *op.Image
		img.ID = op.ID
		if img.URL == "" {
			img.URL = o.Images[i].URL
		}
		o.Images[i] = img
	case OpRemoveImage:
		i := imageIndex(o, op.ID)
		if i < 0 {
			return fmt.Errorf("%w: image %s", ErrNotFound, op.ID)
		}
		o.Images = append(o.Images[:i], o.Images[i+1:]...)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op.Type)
	}
	return nil
}

func shapeIndex(o *models.DesignOverlay, id string) int {
	for i, sh := range o.Shapes {
		if sh.ID == id {
			return i
		}
	}
	return -1
}

func imageIndex(o *models.DesignOverlay, id string) int {
	for i, img := range o.Images {
		if img.ID == id {
			return i
		}
	}
	return -1
}
