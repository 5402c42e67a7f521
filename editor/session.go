// Package editor implements the proposal edit session: a view/edit state
// machine over a copy-on-write VoyageDocument snapshot.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"voyage/history"
	"voyage/models"
	"voyage/store"
)

type Mode string

const (
	ModeView Mode = "view"
	ModeEdit Mode = "edit"
)

var (
	ErrNotEditing        = errors.New("session is not in edit mode")
	ErrMissingDocumentID = errors.New("session document identifier is not resolved")
	ErrEmptyItinerary    = errors.New("itinerary is empty")
	ErrSaveInProgress    = errors.New("a save is already in progress")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrUnknownList       = errors.New("unknown list")
	ErrUnknownField      = errors.New("unknown field")
	ErrNothingToRestore  = errors.New("no deleted section with that id")
)

const (
	historyDepth  = 100
	trashCapacity = 32
)

// errNoChange makes mutate skip the history push.
var errNoChange = errors.New("no change")

// Saver is the write half of store.Gateway.
type Saver interface {
	Save(ctx context.Context, docID string, doc *models.VoyageDocument) (time.Time, error)
}

// Warning is a non-blocking validation message.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Session owns the in-memory proposal for one editing user. All methods are
// safe for concurrent use.
type Session struct {
	mu    sync.Mutex
	busy  atomic.Bool
	saver Saver
	docID string

	mode     Mode
	current  *models.VoyageDocument
	baseline *models.VoyageDocument
	hist     *history.History[*models.VoyageDocument]
	trash    *history.Trash
	hidden   map[string]bool
	savedAt  time.Time
}

// New starts a session in view mode over doc.
func New(saver Saver, docID string, doc *models.VoyageDocument) *Session {
	if doc == nil {
		doc, _ = models.FromMap(nil)
	}
	doc = doc.Clone()
	doc.EnsureIDs()
	return &Session{
		saver:    saver,
		docID:    docID,
		mode:     ModeView,
		current:  doc,
		baseline: doc,
		// snapshots are never mutated in place, so no clone is needed
		hist:   history.New[*models.VoyageDocument](historyDepth, nil),
		trash:  history.NewTrash(trashCapacity),
		hidden: make(map[string]bool),
	}
}

// Open loads docID through gw and starts a session over it.
func Open(ctx context.Context, gw store.Gateway, docID string) (*Session, error) {
	if docID == "" {
		return nil, ErrMissingDocumentID
	}
	doc, err := gw.Load(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("load proposal: %w", err)
	}
	return New(gw, docID, doc), nil
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) DocumentID() string {
	return s.docID
}

// Busy reports whether a save is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Snapshot returns a deep copy of the current document.
func (s *Session) Snapshot() *models.VoyageDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// EnterEdit takes the current document as the baseline and switches to edit.
func (s *Session) EnterEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeEdit {
		return
	}
	s.baseline = s.current
	s.hist.Reset()
	s.mode = ModeEdit
}

// CancelEdit drops every change since EnterEdit and switches to view.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEdit {
		return
	}
	s.current = s.baseline
	s.hist.Reset()
	s.mode = ModeView
}

// Save writes the current document and, on success, switches to view.
// On failure the session keeps its snapshot and mode.
func (s *Session) Save(ctx context.Context) (time.Time, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return time.Time{}, ErrSaveInProgress
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	if s.docID == "" {
		s.mu.Unlock()
		return time.Time{}, ErrMissingDocumentID
	}
	if len(s.current.Itinerary) == 0 {
		s.mu.Unlock()
		return time.Time{}, ErrEmptyItinerary
	}
	snapshot := s.current
	s.mu.Unlock()

	// the lock is not held during the write so reads and exports go on
	at, err := s.saver.Save(ctx, s.docID, snapshot.Clone())
	if err != nil {
		log.Error().Err(err).Str("document", s.docID).Msg("proposal save failed")
		return time.Time{}, fmt.Errorf("save proposal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseline = snapshot
	s.savedAt = at
	// snapshots are copy-on-write: a different pointer means the document
	// changed while the write was in flight, so editing continues
	if s.current == snapshot {
		s.hist.Reset()
		s.mode = ModeView
	}
	log.Info().Str("document", s.docID).Time("savedAt", at).Msg("proposal saved")
	return at, nil
}

// Undo steps back one change within the current edit.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEdit {
		return false, ErrNotEditing
	}
	prev, ok := s.hist.Undo(s.current)
	if ok {
		s.current = prev
	}
	return ok, nil
}

func (s *Session) Redo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEdit {
		return false, ErrNotEditing
	}
	next, ok := s.hist.Redo(s.current)
	if ok {
		s.current = next
	}
	return ok, nil
}

// mutate applies fn to a copy of the current document and installs it.
// Caller must not hold s.mu.
func (s *Session) mutate(fn func(doc *models.VoyageDocument) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(fn)
}

func (s *Session) mutateLocked(fn func(doc *models.VoyageDocument) error) error {
	if s.mode != ModeEdit {
		return ErrNotEditing
	}
	next := s.current.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	s.hist.Push(s.current)
	s.current = next
	return nil
}

// SetField replaces one scalar field. The narrative field is checked for a
// minimum text length; a short narrative yields a warning, not an error.
func (s *Session) SetField(name, value string) (*Warning, error) {
	if !models.IsField(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	err := s.mutate(func(doc *models.VoyageDocument) error {
		return doc.SetField(name, value)
	})
	if err != nil {
		return nil, err
	}
	if name == models.FieldProgramNarrative {
		return CheckNarrative(value), nil
	}
	return nil, nil
}

// State is the serialisable view of a session.
type State struct {
	Mode            Mode                    `json:"mode"`
	DocumentID      string                  `json:"documentId"`
	Document        *models.VoyageDocument  `json:"document"`
	ExtractedHotels []models.ExtractedHotel `json:"extractedHotels"`
	HiddenSections  []string                `json:"hiddenSections"`
	DeletedSections []string                `json:"deletedSections"`
	CanUndo         bool                    `json:"canUndo"`
	CanRedo         bool                    `json:"canRedo"`
	Busy            bool                    `json:"busy"`
	SavedAt         *time.Time              `json:"savedAt,omitempty"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.current.Clone()
	st := State{
		Mode:            s.mode,
		DocumentID:      s.docID,
		Document:        doc,
		ExtractedHotels: models.ExtractHotels(doc),
		HiddenSections:  s.hiddenLocked(),
		DeletedSections: s.trash.Tags(),
		CanUndo:         s.hist.CanUndo(),
		CanRedo:         s.hist.CanRedo(),
		Busy:            s.busy.Load(),
	}
	if !s.savedAt.IsZero() {
		at := s.savedAt
		st.SavedAt = &at
	}
	if st.ExtractedHotels == nil {
		st.ExtractedHotels = []models.ExtractedHotel{}
	}
	return st
}
