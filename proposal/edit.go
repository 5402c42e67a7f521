package proposal

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"voyage/editor"
	"voyage/models"
	"voyage/utils"
)

type valueBody struct {
	Value string `json:"value"`
}

type rowFieldBody struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type reorderBody struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type deleteSectionBody struct {
	Fields []string `json:"fields,omitempty"`
	List   string   `json:"list,omitempty"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := utils.DecodeJSON(w, r, v); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func index(w http.ResponseWriter, ps httprouter.Params, name string) (int, bool) {
	i, err := strconv.Atoi(ps.ByName(name))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return i, true
}

// PUT /api/proposal/fields/:name
func (h *Handler) SetField(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var body valueBody
	if !decode(w, r, &body) {
		return
	}
	warn, err := s.SetField(ps.ByName("name"), body.Value)
	respond(w, s, warn, err)
}

// POST /api/proposal/lists/:kind
func (h *Handler) AddListItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, s, nil, s.AddListItem(models.ListKind(ps.ByName("kind"))))
}

// PUT /api/proposal/lists/:kind/:index
func (h *Handler) SetListItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	i, ok := index(w, ps, "index")
	if !ok {
		return
	}
	var body valueBody
	if !decode(w, r, &body) {
		return
	}
	respond(w, s, nil, s.SetListItem(models.ListKind(ps.ByName("kind")), i, body.Value))
}

// DELETE /api/proposal/lists/:kind/:index
func (h *Handler) RemoveListItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	i, ok := index(w, ps, "index")
	if !ok {
		return
	}
	respond(w, s, nil, s.RemoveListItem(models.ListKind(ps.ByName("kind")), i))
}

// POST /api/proposal/reorder/:kind
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var body reorderBody
	if !decode(w, r, &body) {
		return
	}
	respond(w, s, nil, s.Reorder(models.ListKind(ps.ByName("kind")), body.From, body.To))
}

// POST /api/proposal/itinerary
func (h *Handler) AddItineraryRow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	_, err := s.AddItineraryRow()
	respond(w, s, nil, err)
}

func rowNotFound(w http.ResponseWriter, what, id string) {
	utils.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", what, id))
}

// PUT /api/proposal/itinerary/:id
func (h *Handler) SetItineraryField(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	i := s.ItineraryIndex(ps.ByName("id"))
	if i < 0 {
		rowNotFound(w, "itinerary row", ps.ByName("id"))
		return
	}
	var body rowFieldBody
	if !decode(w, r, &body) {
		return
	}
	respond(w, s, nil, s.SetItineraryField(i, body.Field, body.Value))
}

// DELETE /api/proposal/itinerary/:id
func (h *Handler) RemoveItineraryRow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	i := s.ItineraryIndex(ps.ByName("id"))
	if i < 0 {
		rowNotFound(w, "itinerary row", ps.ByName("id"))
		return
	}
	respond(w, s, nil, s.RemoveItineraryRow(i))
}

// POST /api/proposal/hotels
func (h *Handler) AddHotel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	_, err := s.AddHotel()
	respond(w, s, nil, err)
}

func (h *Handler) hotel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (*editor.Session, int, bool) {
	s, ok := h.session(w, r)
	if !ok {
		return nil, 0, false
	}
	i := s.HotelIndex(ps.ByName("id"))
	if i < 0 {
		rowNotFound(w, "hotel", ps.ByName("id"))
		return nil, 0, false
	}
	return s, i, true
}

// PUT /api/proposal/hotels/:id
func (h *Handler) SetHotelField(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, i, ok := h.hotel(w, r, ps)
	if !ok {
		return
	}
	var body rowFieldBody
	if !decode(w, r, &body) {
		return
	}
	respond(w, s, nil, s.SetHotelField(i, body.Field, body.Value))
}

// DELETE /api/proposal/hotels/:id
func (h *Handler) RemoveHotel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, i, ok := h.hotel(w, r, ps)
	if !ok {
		return
	}
	respond(w, s, nil, s.RemoveHotel(i))
}

// POST /api/proposal/hotels/:id/images
func (h *Handler) AddHotelImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, i, ok := h.hotel(w, r, ps)
	if !ok {
		return
	}
	var body struct {
		URL string `json:"url"`
	}
	if !decode(w, r, &body) {
		return
	}
	warn, err := s.AddHotelImage(i, body.URL)
	respond(w, s, warn, err)
}

// DELETE /api/proposal/hotels/:id/images/:index
func (h *Handler) RemoveHotelImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, i, ok := h.hotel(w, r, ps)
	if !ok {
		return
	}
	img, ok := index(w, ps, "index")
	if !ok {
		return
	}
	respond(w, s, nil, s.RemoveHotelImage(i, img))
}

// POST /api/proposal/sections/:id/hide
func (h *Handler) HideSection(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.HideSection(ps.ByName("id"))
	respond(w, s, nil, nil)
}

// POST /api/proposal/sections/:id/show
func (h *Handler) ShowSection(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.RestoreSection(ps.ByName("id"))
	respond(w, s, nil, nil)
}

// POST /api/proposal/sections/:id/delete takes either the scalar fields
// making up the section or the name of the list it shows.
func (h *Handler) DeleteSection(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var body deleteSectionBody
	if !decode(w, r, &body) {
		return
	}
	id := ps.ByName("id")
	switch {
	case body.List != "":
		respond(w, s, nil, s.DeleteListSection(id, models.ListKind(body.List)))
	case len(body.Fields) > 0:
		doc := s.Snapshot()
		snapshot := make(map[string]string, len(body.Fields))
		for _, name := range body.Fields {
			v, err := doc.Field(name)
			if err != nil {
				respond(w, s, nil, fmt.Errorf("%w: %s", editor.ErrUnknownField, name))
				return
			}
			snapshot[name] = v
		}
		respond(w, s, nil, s.DeleteSection(id, snapshot))
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "fields or list required")
	}
}

// POST /api/proposal/sections/:id/restore
func (h *Handler) RestoreDeletedSection(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, s, nil, s.RestoreDeletedSection(ps.ByName("id")))
}
