package settings

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"voyage/utils"
)

// Handler serves /api/settings against an injected Store.
type Handler struct {
	Store Store
	now   func() time.Time
}

func NewHandler(s Store) *Handler {
	return &Handler{Store: s, now: time.Now}
}

// asArray converts settings to the list format the settings page renders.
func asArray(us UserSettings) []utils.M {
	values := map[string]any{
		"theme":          us.Theme,
		"language":       us.Language,
		"time_zone":      us.TimeZone,
		"default_export": us.DefaultExport,
	}
	out := make([]utils.M, 0, len(descriptions))
	for _, d := range descriptions {
		out = append(out, utils.M{"type": d.Type, "value": values[d.Type], "description": d.Description})
	}
	return out
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := utils.GetUserIDFromRequest(r)
	if id == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return id, true
}

// GetUserSettings returns the editable settings as an array plus the
// derived font and notice state.
func (h *Handler) GetUserSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	us, err := h.Store.Get(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("userId", id).Msg("load settings")
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"settings":    asArray(us),
		"fonts":       us.Fonts,
		"noticesSeen": us.NoticesSeen,
	})
}

// UpdateUserSetting changes one setting named by the :type parameter.
func (h *Handler) UpdateUserSetting(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	settingType := ps.ByName("type")

	var update struct {
		Value any `json:"value"`
	}
	if err := utils.DecodeJSON(w, r, &update); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	us, err := h.Store.Update(ctx, id, settingType, update.Value)
	switch {
	case errors.Is(err, ErrInvalidSetting):
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid setting type")
		return
	case errors.Is(err, ErrInvalidValue):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Str("userId", id).Str("setting", settingType).Msg("update setting")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update setting")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"status":   "success",
		"message":  "Setting updated successfully",
		"type":     settingType,
		"settings": asArray(us),
	})
}

// MarkNoticeSeen records that the :notice banner was dismissed.
func (h *Handler) MarkNoticeSeen(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	err := h.Store.MarkSeen(ctx, id, ps.ByName("notice"), h.now())
	if errors.Is(err, ErrInvalidValue) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid notice")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("userId", id).Msg("mark notice seen")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update setting")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
