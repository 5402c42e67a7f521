// Package proposal serves the proposal editor over HTTP. Every user gets one
// edit session, opened from the document attached to their profile.
package proposal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"voyage/design"
	"voyage/editor"
	"voyage/export"
	"voyage/mq"
	"voyage/rdx"
	"voyage/store"
	"voyage/utils"
)

var ioTimeout = 10 * time.Second

// Deps wires the handler to its collaborators.
type Deps struct {
	Documents store.Gateway
	Profiles  store.ProfileStore
	Overlays  *design.Registry
	Cache     rdx.Cache
	Events    mq.Publisher
	// PDF is nil when no remote renderer is configured.
	PDF           *export.PDFClient
	PublicBaseURL string
	CacheTTL      time.Duration
}

type Handler struct {
	Deps

	mu       sync.Mutex
	sessions map[string]*editor.Session
	loads    singleflight.Group
}

func NewHandler(d Deps) *Handler {
	return &Handler{Deps: d, sessions: make(map[string]*editor.Session)}
}

// open resolves the user's document and loads it. A profile without a
// document still gets a session so the caller sees the configuration error
// on save instead of a dead page.
func (h *Handler) open(ctx context.Context, userID string) (*editor.Session, error) {
	docID, err := h.Profiles.ResolveDocumentID(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNoDocumentID), errors.Is(err, store.ErrNotFound):
		log.Warn().Str("userId", userID).Msg("profile has no proposal attached")
		return editor.New(h.Documents, "", nil), nil
	case err != nil:
		return nil, err
	}

	s, err := editor.Open(ctx, h.Documents, docID)
	if errors.Is(err, store.ErrNotFound) {
		return editor.New(h.Documents, docID, nil), nil
	}
	return s, err
}

// session returns the caller's session, writing an error response when it
// cannot be obtained.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}

	s, err := h.lookup(userID)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("open proposal")
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to load proposal")
		return nil, false
	}
	return s, true
}

// lookup returns the cached session or opens one. Loads run outside h.mu
// and concurrent first requests of one user share a single load.
func (h *Handler) lookup(userID string) (*editor.Session, error) {
	h.mu.Lock()
	s, ok := h.sessions[userID]
	h.mu.Unlock()
	if ok {
		return s, nil
	}
	v, err, _ := h.loads.Do(userID, func() (any, error) {
		h.mu.Lock()
		s, ok := h.sessions[userID]
		h.mu.Unlock()
		if ok {
			return s, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		s, err := h.open(ctx, userID)
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.sessions[userID] = s
		h.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*editor.Session), nil
}

// Forget drops the cached session of userID, forcing a reload on next use.
func (h *Handler) Forget(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, userID)
}

// StatusFor maps editor, store and export errors to HTTP statuses.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, editor.ErrMissingDocumentID),
		errors.Is(err, editor.ErrSaveInProgress),
		errors.Is(err, editor.ErrNotEditing):
		return http.StatusConflict
	case errors.Is(err, editor.ErrEmptyItinerary),
		errors.Is(err, editor.ErrIndexOutOfRange),
		errors.Is(err, editor.ErrUnknownList),
		errors.Is(err, editor.ErrUnknownField):
		return http.StatusUnprocessableEntity
	case errors.Is(err, editor.ErrNothingToRestore):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// response is the body of every successful editor call.
type response struct {
	editor.State
	Warning *editor.Warning `json:"warning,omitempty"`
}

func respond(w http.ResponseWriter, s *editor.Session, warn *editor.Warning, err error) {
	if err != nil {
		utils.RespondWithError(w, StatusFor(err), err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, response{State: s.State(), Warning: warn})
}

// GET /api/proposal
func (h *Handler) GetProposal(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, s, nil, nil)
}

// POST /api/proposal/reload drops unsaved changes and reloads from the store.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.Forget(utils.GetUserIDFromRequest(r))
	h.GetProposal(w, r, nil)
}

// POST /api/proposal/edit
func (h *Handler) EnterEdit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.EnterEdit()
	respond(w, s, nil, nil)
}

// POST /api/proposal/cancel
func (h *Handler) CancelEdit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.CancelEdit()
	respond(w, s, nil, nil)
}

// POST /api/proposal/save
func (h *Handler) Save(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), ioTimeout)
	defer cancel()

	at, err := s.Save(ctx)
	if err != nil {
		respond(w, s, nil, err)
		return
	}
	if h.Events != nil {
		ev := mq.SavedEvent{DocumentID: s.DocumentID(), UserID: utils.GetUserIDFromRequest(r), SavedAt: at}
		if err := h.Events.PublishSaved(ctx, ev); err != nil {
			log.Warn().Err(err).Str("documentId", ev.DocumentID).Msg("publish saved event")
		}
	}
	respond(w, s, nil, nil)
}

// POST /api/proposal/undo
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	_, err := s.Undo()
	respond(w, s, nil, err)
}

// POST /api/proposal/redo
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	_, err := s.Redo()
	respond(w, s, nil, err)
}
