package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage/design"
	"voyage/editor"
	"voyage/export"
	"voyage/globals"
	"voyage/models"
	"voyage/mq"
	"voyage/rdx"
	"voyage/store"
)

type recordingEvents struct {
	events []mq.SavedEvent
}

func (r *recordingEvents) PublishSaved(_ context.Context, ev mq.SavedEvent) error {
	r.events = append(r.events, ev)
	return nil
}

type fixture struct {
	router *httprouter.Router
	mem    *store.Memory
	cache  *rdx.Memory
	events *recordingEvents
	h      *Handler
}

func withUser(userID string, h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		h(w, r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, userID)), ps)
	}
}

func newFixture(t *testing.T, pdf *export.PDFClient) *fixture {
	t.Helper()
	mem := store.NewMemory()
	doc, err := models.FromMap(map[string]any{
		"title": "Escapade",
		"itinerary": []any{
			map[string]any{"day": "J1", "date": "10/05", "program": "Arrivée", "nightAt": "Paris", "hotel": "Hotel A"},
		},
		"inclus": []any{"Petit-déjeuner"},
		"exclus": []any{"Vols"},
		"price":  "1000€",
	})
	require.NoError(t, err)
	mem.Put("user-1", "doc-1", doc)

	f := &fixture{mem: mem, cache: rdx.NewMemory(), events: &recordingEvents{}}
	f.h = NewHandler(Deps{
		Documents:     mem,
		Profiles:      mem,
		Overlays:      design.NewRegistry(mem),
		Cache:         f.cache,
		Events:        f.events,
		PDF:           pdf,
		PublicBaseURL: "https://voyage.example",
	})

	u := func(h httprouter.Handle) httprouter.Handle { return withUser("user-1", h) }
	r := httprouter.New()
	r.GET("/api/proposal", u(f.h.GetProposal))
	r.POST("/api/proposal/reload", u(f.h.Reload))
	r.POST("/api/proposal/edit", u(f.h.EnterEdit))
	r.POST("/api/proposal/cancel", u(f.h.CancelEdit))
	r.POST("/api/proposal/save", u(f.h.Save))
	r.POST("/api/proposal/undo", u(f.h.Undo))
	r.POST("/api/proposal/redo", u(f.h.Redo))
	r.PUT("/api/proposal/fields/:name", u(f.h.SetField))
	r.POST("/api/proposal/lists/:kind", u(f.h.AddListItem))
	r.PUT("/api/proposal/lists/:kind/:index", u(f.h.SetListItem))
	r.DELETE("/api/proposal/lists/:kind/:index", u(f.h.RemoveListItem))
	r.POST("/api/proposal/reorder/:kind", u(f.h.Reorder))
	r.POST("/api/proposal/itinerary", u(f.h.AddItineraryRow))
	r.PUT("/api/proposal/itinerary/:id", u(f.h.SetItineraryField))
	r.DELETE("/api/proposal/itinerary/:id", u(f.h.RemoveItineraryRow))
	r.POST("/api/proposal/hotels", u(f.h.AddHotel))
	r.PUT("/api/proposal/hotels/:id", u(f.h.SetHotelField))
	r.DELETE("/api/proposal/hotels/:id", u(f.h.RemoveHotel))
	r.POST("/api/proposal/hotels/:id/images", u(f.h.AddHotelImage))
	r.DELETE("/api/proposal/hotels/:id/images/:index", u(f.h.RemoveHotelImage))
	r.POST("/api/proposal/sections/:id/hide", u(f.h.HideSection))
	r.POST("/api/proposal/sections/:id/show", u(f.h.ShowSection))
	r.POST("/api/proposal/sections/:id/delete", u(f.h.DeleteSection))
	r.POST("/api/proposal/sections/:id/restore", u(f.h.RestoreDeletedSection))
	r.GET("/api/proposal/export/html", u(f.h.ExportHTML))
	r.GET("/api/proposal/export/pdf", u(f.h.ExportPDF))
	r.GET("/proposal/:id", f.h.SharedHTML)
	f.router = r
	return f
}

type stateBody struct {
	Mode            editor.Mode           `json:"mode"`
	DocumentID      string                `json:"documentId"`
	Document        models.VoyageDocument `json:"document"`
	HiddenSections  []string              `json:"hiddenSections"`
	DeletedSections []string              `json:"deletedSections"`
	CanUndo         bool                  `json:"canUndo"`
	Warning         *editor.Warning       `json:"warning"`
	Error           string                `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, stateBody) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, path, rd))
	var st stateBody
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st), rec.Body.String())
	}
	return rec.Code, st
}

func TestOpenAndEditFlow(t *testing.T) {
	f := newFixture(t, nil)

	code, st := f.do(t, http.MethodGet, "/api/proposal", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, editor.ModeView, st.Mode)
	assert.Equal(t, "doc-1", st.DocumentID)

	code, st = f.do(t, http.MethodPut, "/api/proposal/fields/price", `{"value":"1200€"}`)
	assert.Equal(t, http.StatusConflict, code, "view mode rejects edits")
	assert.NotEmpty(t, st.Error)

	code, _ = f.do(t, http.MethodPost, "/api/proposal/edit", "")
	require.Equal(t, http.StatusOK, code)
	code, st = f.do(t, http.MethodPut, "/api/proposal/fields/price", `{"value":"1200€"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1200€", st.Document.Price)
	assert.True(t, st.CanUndo)

	code, st = f.do(t, http.MethodPost, "/api/proposal/cancel", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1000€", st.Document.Price)
	assert.Equal(t, editor.ModeView, st.Mode)
}

func TestNarrativeWarning(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/proposal/edit", "")

	code, st := f.do(t, http.MethodPut, "/api/proposal/fields/programmeDetaille", `{"value":"<p>Trop court</p>"}`)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, st.Warning)
	assert.Equal(t, "<p>Trop court</p>", st.Document.ProgramNarrative)

	code, _ = f.do(t, http.MethodPut, "/api/proposal/fields/nope", `{"value":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestListsAndReorder(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/proposal/edit", "")

	_, st := f.do(t, http.MethodPost, "/api/proposal/lists/inclus", "")
	assert.Equal(t, []string{"Petit-déjeuner", ""}, st.Document.Included)
	_, st = f.do(t, http.MethodPut, "/api/proposal/lists/inclus/1", `{"value":"Transferts"}`)
	assert.Equal(t, []string{"Petit-déjeuner", "Transferts"}, st.Document.Included)
	_, st = f.do(t, http.MethodPost, "/api/proposal/reorder/inclus", `{"from":1,"to":0}`)
	assert.Equal(t, []string{"Transferts", "Petit-déjeuner"}, st.Document.Included)
	_, st = f.do(t, http.MethodDelete, "/api/proposal/lists/inclus/0", "")
	assert.Equal(t, []string{"Petit-déjeuner"}, st.Document.Included)

	code, _ := f.do(t, http.MethodDelete, "/api/proposal/lists/inclus/7", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	code, _ = f.do(t, http.MethodPost, "/api/proposal/lists/bogus", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	code, _ = f.do(t, http.MethodDelete, "/api/proposal/lists/inclus/x", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRowsAndHotelsByID(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/proposal/edit", "")

	_, st := f.do(t, http.MethodPost, "/api/proposal/itinerary", "")
	require.Len(t, st.Document.Itinerary, 2)
	rowID := st.Document.Itinerary[1].ID
	require.NotEmpty(t, rowID)

	_, st = f.do(t, http.MethodPut, "/api/proposal/itinerary/"+rowID, `{"field":"day","value":"J2"}`)
	assert.Equal(t, "J2", st.Document.Itinerary[1].Day)
	code, _ := f.do(t, http.MethodPut, "/api/proposal/itinerary/"+rowID, `{"field":"weather","value":"sun"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	code, _ = f.do(t, http.MethodPut, "/api/proposal/itinerary/missing", `{"field":"day","value":"J9"}`)
	assert.Equal(t, http.StatusNotFound, code)

	_, st = f.do(t, http.MethodPost, "/api/proposal/hotels", "")
	require.Len(t, st.Document.CustomHotels, 1)
	hotelID := st.Document.CustomHotels[0].ID

	_, st = f.do(t, http.MethodPut, "/api/proposal/hotels/"+hotelID, `{"field":"name","value":"Riad Dar Anika"}`)
	assert.Equal(t, "Riad Dar Anika", st.Document.CustomHotels[0].Name)

	code, st = f.do(t, http.MethodPost, "/api/proposal/hotels/"+hotelID+"/images", `{"url":"https://example.com/page"}`)
	require.Equal(t, http.StatusOK, code)
	assert.NotNil(t, st.Warning, "unrenderable url warns but is kept")
	assert.Equal(t, []string{"https://example.com/page"}, st.Document.CustomHotels[0].Images)

	_, st = f.do(t, http.MethodDelete, "/api/proposal/hotels/"+hotelID+"/images/0", "")
	assert.Empty(t, st.Document.CustomHotels[0].Images)

	_, st = f.do(t, http.MethodDelete, "/api/proposal/itinerary/"+rowID, "")
	assert.Len(t, st.Document.Itinerary, 1)
	_, st = f.do(t, http.MethodDelete, "/api/proposal/hotels/"+hotelID, "")
	assert.Empty(t, st.Document.CustomHotels)
}

func TestSectionsDeleteRestore(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/proposal/edit", "")

	code, st := f.do(t, http.MethodPost, "/api/proposal/sections/pricing/delete", `{"fields":["price","priceDetails"]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, st.Document.Price)
	assert.Equal(t, []string{"pricing"}, st.DeletedSections)

	_, st = f.do(t, http.MethodPost, "/api/proposal/sections/services/delete", `{"list":"exclus"}`)
	assert.Empty(t, st.Document.Excluded)

	_, st = f.do(t, http.MethodPost, "/api/proposal/sections/pricing/restore", "")
	assert.Equal(t, "1000€", st.Document.Price)
	_, st = f.do(t, http.MethodPost, "/api/proposal/sections/services/restore", "")
	assert.Equal(t, []string{"Vols"}, st.Document.Excluded)

	code, _ = f.do(t, http.MethodPost, "/api/proposal/sections/pricing/restore", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = f.do(t, http.MethodPost, "/api/proposal/sections/x/delete", `{"fields":["nope"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	code, _ = f.do(t, http.MethodPost, "/api/proposal/sections/x/delete", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	_, st = f.do(t, http.MethodPost, "/api/proposal/sections/notes/hide", "")
	assert.Equal(t, []string{"notes"}, st.HiddenSections)
	_, st = f.do(t, http.MethodPost, "/api/proposal/sections/notes/show", "")
	assert.Empty(t, st.HiddenSections)
}

func TestUndoRedoEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	code, _ := f.do(t, http.MethodPost, "/api/proposal/undo", "")
	assert.Equal(t, http.StatusConflict, code)

	f.do(t, http.MethodPost, "/api/proposal/edit", "")
	f.do(t, http.MethodPut, "/api/proposal/fields/title", `{"value":"Nouveau"}`)
	_, st := f.do(t, http.MethodPost, "/api/proposal/undo", "")
	assert.Equal(t, "Escapade", st.Document.Title)
	_, st = f.do(t, http.MethodPost, "/api/proposal/redo", "")
	assert.Equal(t, "Nouveau", st.Document.Title)
}

func TestSavePublishesAndInvalidates(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/proposal/edit", "")
	f.do(t, http.MethodPut, "/api/proposal/fields/price", `{"value":"1500€"}`)

	code, st := f.do(t, http.MethodPost, "/api/proposal/save", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, editor.ModeView, st.Mode)
	assert.Equal(t, 1, f.mem.Saves)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, "doc-1", f.events.events[0].DocumentID)
	assert.Equal(t, "user-1", f.events.events[0].UserID)

	stored, err := f.mem.Load(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "1500€", stored.Price)

	// a reload picks up the stored copy
	_, st = f.do(t, http.MethodPost, "/api/proposal/reload", "")
	assert.Equal(t, "1500€", st.Document.Price)
}

func TestSaveErrors(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/proposal/edit", "")
	_, st := f.do(t, http.MethodGet, "/api/proposal", "")
	rowID := st.Document.Itinerary[0].ID
	f.do(t, http.MethodDelete, "/api/proposal/itinerary/"+rowID, "")

	code, st := f.do(t, http.MethodPost, "/api/proposal/save", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, st.Error, "itinerary is empty")
	assert.Equal(t, 0, f.mem.Saves)

	f.do(t, http.MethodPost, "/api/proposal/cancel", "")
	f.do(t, http.MethodPost, "/api/proposal/edit", "")
	f.mem.FailSave = errors.New("connection refused")
	code, st = f.do(t, http.MethodPost, "/api/proposal/save", "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, st.Error, "connection refused")
	assert.Empty(t, f.events.events)

	_, st = f.do(t, http.MethodGet, "/api/proposal", "")
	assert.Equal(t, editor.ModeEdit, st.Mode, "failed save stays in edit")
}

func TestMissingDocumentID(t *testing.T) {
	f := newFixture(t, nil)
	h := f.h
	r := httprouter.New()
	r.GET("/api/proposal", withUser("orphan", h.GetProposal))
	r.POST("/api/proposal/edit", withUser("orphan", h.EnterEdit))
	r.POST("/api/proposal/itinerary", withUser("orphan", h.AddItineraryRow))
	r.POST("/api/proposal/save", withUser("orphan", h.Save))
	f.router = r

	code, st := f.do(t, http.MethodGet, "/api/proposal", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, st.DocumentID)

	f.do(t, http.MethodPost, "/api/proposal/edit", "")
	f.do(t, http.MethodPost, "/api/proposal/itinerary", "")
	code, st = f.do(t, http.MethodPost, "/api/proposal/save", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, st.Error, "document identifier")
}

func TestExportHTMLCached(t *testing.T) {
	f := newFixture(t, nil)

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proposal/export/html", nil))
		return rec
	}
	rec := get()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), export.HTMLFilename)
	assert.Contains(t, rec.Body.String(), "J1 • 10/05")
	assert.Contains(t, rec.Body.String(), "1000€")

	rec = get()
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	// an edit changes the content hash
	f.do(t, http.MethodPost, "/api/proposal/edit", "")
	f.do(t, http.MethodPut, "/api/proposal/fields/price", `{"value":"990€"}`)
	rec = get()
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), "990€")

	// hidden sections are honoured
	f.do(t, http.MethodPost, "/api/proposal/sections/pricing/hide", "")
	rec = get()
	assert.NotContains(t, rec.Body.String(), "990€")
}

func TestExportPDFLocal(t *testing.T) {
	f := newFixture(t, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proposal/export/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), export.PDFFilename)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
}

func TestExportPDFRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var doc models.VoyageDocument
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil || doc.Price != "1000€" {
			http.Error(w, "bad document", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-remote"))
	}))
	defer srv.Close()

	f := newFixture(t, export.NewPDFClient(srv.URL))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proposal/export/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-remote", rec.Body.String())

	srv.Close()
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proposal/export/pdf", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"PDF export failed"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), srv.URL)
}

func TestExportPDFRemoteIgnoresIOTimeout(t *testing.T) {
	saved := ioTimeout
	ioTimeout = 20 * time.Millisecond
	t.Cleanup(func() { ioTimeout = saved })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-slow"))
	}))
	defer srv.Close()

	f := newFixture(t, export.NewPDFClient(srv.URL))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proposal/export/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "%PDF-slow", rec.Body.String())
}

func TestSharedHTMLServesSavedVersion(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, "https://voyage.example/proposal/doc-1", ShareURL("https://voyage.example", "doc-1"))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/proposal/doc-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Escapade</h1>")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", get("/proposal/doc-1").Header().Get("X-Cache"))

	f.do(t, http.MethodPost, "/api/proposal/edit", "")
	f.do(t, http.MethodPut, "/api/proposal/fields/title", `{"value":"Escapade d'été"}`)
	rec = get("/proposal/doc-1")
	assert.Contains(t, rec.Body.String(), "<h1>Escapade</h1>", "unsaved edits are not shared")

	code, _ := f.do(t, http.MethodPost, "/api/proposal/save", "")
	require.Equal(t, http.StatusOK, code)
	rec = get("/proposal/doc-1")
	assert.Contains(t, rec.Body.String(), "<h1>Escapade d'été</h1>")

	assert.Equal(t, http.StatusNotFound, get("/proposal/missing").Code)
	assert.Equal(t, http.StatusNotFound, get("/proposal/a:b").Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, http.StatusOK},
		{editor.ErrMissingDocumentID, http.StatusConflict},
		{editor.ErrSaveInProgress, http.StatusConflict},
		{editor.ErrEmptyItinerary, http.StatusUnprocessableEntity},
		{editor.ErrNothingToRestore, http.StatusNotFound},
		{export.ErrPDFService, http.StatusBadGateway},
		{errors.New("mongo: timeout"), http.StatusBadGateway},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, StatusFor(c.err), "%v", c.err)
	}
}

type slowResolver struct {
	*store.Memory
	slowUser string
	entered  chan struct{}
	release  chan struct{}
}

func (p *slowResolver) ResolveDocumentID(ctx context.Context, userID string) (string, error) {
	if userID == p.slowUser {
		close(p.entered)
		<-p.release
	}
	return p.Memory.ResolveDocumentID(ctx, userID)
}

func TestSessionLoadDoesNotBlockOtherUsers(t *testing.T) {
	mem := store.NewMemory()
	doc, err := models.FromMap(map[string]any{"title": "Escapade"})
	require.NoError(t, err)
	mem.Put("slow", "doc-slow", doc)
	mem.Put("fast", "doc-fast", doc)
	profiles := &slowResolver{Memory: mem, slowUser: "slow", entered: make(chan struct{}), release: make(chan struct{})}
	h := NewHandler(Deps{Documents: mem, Profiles: profiles})

	slow := make(chan error, 1)
	go func() {
		_, err := h.lookup("slow")
		slow <- err
	}()
	<-profiles.entered

	fast := make(chan error, 1)
	go func() {
		s, err := h.lookup("fast")
		if err == nil && s.DocumentID() != "doc-fast" {
			err = errors.New("wrong session")
		}
		fast <- err
	}()
	select {
	case err := <-fast:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("another user's load blocked the handler")
	}

	close(profiles.release)
	require.NoError(t, <-slow)
}
