package design

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"voyage/models"
	"voyage/store"
	"voyage/utils"
)

// Registry keeps one overlay session per user.
type Registry struct {
	mu       sync.Mutex
	profiles store.ProfileStore
	sessions map[string]*Session
	loads    singleflight.Group
}

const loadTimeout = 10 * time.Second

func NewRegistry(profiles store.ProfileStore) *Registry {
	return &Registry{profiles: profiles, sessions: make(map[string]*Session)}
}

// Session returns the user's session, loading it on first use. The load
// runs outside r.mu; concurrent first calls for one user share it.
func (r *Registry) Session(ctx context.Context, userID string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	r.mu.Unlock()
	if ok {
		return s, nil
	}
	ch := r.loads.DoChan(userID, func() (any, error) {
		r.mu.Lock()
		s, ok := r.sessions[userID]
		r.mu.Unlock()
		if ok {
			return s, nil
		}
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		s, err := Load(lctx, r.profiles, userID)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.sessions[userID] = s
		r.mu.Unlock()
		return s, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reply is sent for every REST call and websocket message.
type Reply struct {
	Overlay models.DesignOverlay `json:"overlay"`
	CSS     string               `json:"css"`
	CanUndo bool                 `json:"canUndo"`
	CanRedo bool                 `json:"canRedo"`
	Error   string               `json:"error,omitempty"`
}

func reply(s *Session, o models.DesignOverlay, err error) Reply {
	r := Reply{Overlay: o, CSS: o.CSSVariables(), CanUndo: s.CanUndo(), CanRedo: s.CanRedo()}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// StatusFor maps a design error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnknownOp), errors.Is(err, ErrInvalidOp):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoHistory):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// FontRecorder remembers the web fonts a user's overlay relies on.
type FontRecorder interface {
	AddFont(ctx context.Context, userID, font string) error
}

// Handler serves /api/design.
type Handler struct {
	Registry *Registry
	// Fonts is optional.
	Fonts FontRecorder
	hub   *hub
}

func NewHandler(reg *Registry) *Handler {
	return &Handler{Registry: reg, hub: newHub()}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	s, err := h.Registry.Session(ctx, userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, err.Error())
		return nil, false
	}
	return s, true
}

func (h *Handler) recordFont(ctx context.Context, userID string, op Op) {
	if h.Fonts == nil || op.Type != OpSetFont || op.Value == "" {
		return
	}
	if err := h.Fonts.AddFont(ctx, userID, op.Value); err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("record overlay font")
	}
}

func (h *Handler) GetOverlay(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, reply(s, s.Overlay(), nil))
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, op Op) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	o, err := s.Apply(ctx, op)
	res := reply(s, o, err)
	if err == nil {
		userID := utils.GetUserIDFromRequest(r)
		h.recordFont(ctx, userID, op)
		h.hub.broadcast(userID, nil, res)
	}
	utils.RespondWithJSON(w, StatusFor(err), res)
}

func (h *Handler) ApplyOp(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var op Op
	if err := utils.DecodeJSON(w, r, &op); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	h.run(w, r, op)
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.run(w, r, Op{Type: OpUndo})
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.run(w, r, Op{Type: OpRedo})
}
