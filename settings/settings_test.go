package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"voyage/globals"
)

func TestMemoryDefaultsAndUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	us, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Defaults("u1"), us)

	us, err = m.Update(ctx, "u1", "theme", "dark")
	require.NoError(t, err)
	assert.Equal(t, "dark", us.Theme)
	assert.False(t, us.UpdatedAt.IsZero())

	_, err = m.Update(ctx, "u1", "theme", "sepia")
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = m.Update(ctx, "u1", "time_zone", "Mars/Olympus")
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = m.Update(ctx, "u1", "default_export", 3)
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = m.Update(ctx, "u1", "privacy_mode", "on")
	assert.ErrorIs(t, err, ErrInvalidSetting)

	other, err := m.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "light", other.Theme)
}

func TestMemoryFontsAreDeduplicated(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.AddFont(ctx, "u1", `"Playfair Display", serif`))
	require.NoError(t, m.AddFont(ctx, "u1", "Playfair Display"))
	require.NoError(t, m.AddFont(ctx, "u1", "Lato, sans-serif"))
	require.NoError(t, m.AddFont(ctx, "u1", "  "))

	us, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Playfair Display", "Lato"}, us.Fonts)

	// returned settings are copies
	us.Fonts[0] = "changed"
	again, _ := m.Get(ctx, "u1")
	assert.Equal(t, "Playfair Display", again.Fonts[0])
}

func TestMemoryMarkSeen(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	at := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, m.MarkSeen(ctx, "u1", "pdf-service-down", at))
	assert.ErrorIs(t, m.MarkSeen(ctx, "u1", "a.b", at), ErrInvalidValue)

	us, _ := m.Get(ctx, "u1")
	assert.Equal(t, at, us.NoticesSeen["pdf-service-down"])
}

func newRouter(h *Handler, userID string) *httprouter.Router {
	with := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			if userID != "" {
				r = r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, userID))
			}
			next(w, r, ps)
		}
	}
	router := httprouter.New()
	router.GET("/api/settings", with(h.GetUserSettings))
	router.PUT("/api/settings/:type", with(h.UpdateUserSetting))
	router.POST("/api/settings/notices/:notice", with(h.MarkNoticeSeen))
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlers(t *testing.T) {
	store := NewMemory()
	h := NewHandler(store)
	h.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	router := newRouter(h, "u1")

	rec := do(router, http.MethodPut, "/api/settings/default_export", `{"value":"html"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Settings []struct {
			Type  string `json:"type"`
			Value any    `json:"value"`
		} `json:"settings"`
		Fonts []string `json:"fonts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Settings, len(descriptions))
	assert.Equal(t, "theme", got.Settings[0].Type)
	var export any
	for _, s := range got.Settings {
		if s.Type == "default_export" {
			export = s.Value
		}
	}
	assert.Equal(t, "html", export)
	assert.Empty(t, got.Fonts)

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPut, "/api/settings/nope", `{"value":"x"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(router, http.MethodPut, "/api/settings/theme", `{"value":"pink"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPut, "/api/settings/theme", `not json`).Code)

	assert.Equal(t, http.StatusNoContent, do(router, http.MethodPost, "/api/settings/notices/welcome", "").Code)
	us, _ := store.Get(context.Background(), "u1")
	assert.Equal(t, h.now(), us.NoticesSeen["welcome"])
}

func TestHandlersRequireUser(t *testing.T) {
	router := newRouter(NewHandler(NewMemory()), "")
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/settings", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodPut, "/api/settings/theme", `{"value":"dark"}`).Code)
}

// Runs against a live MongoDB only when MONGO_URI is set.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	db := client.Database("voyage_test_" + uuid.NewString()[:8])
	defer func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	}()
	m := &Mongo{Collection: db.Collection("settings")}

	us, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "light", us.Theme)

	require.NoError(t, m.AddFont(ctx, "u1", "Lato, sans-serif"))
	require.NoError(t, m.AddFont(ctx, "u1", "Lato"))
	us, err = m.Update(ctx, "u1", "theme", "dark")
	require.NoError(t, err)
	assert.Equal(t, "dark", us.Theme)
	assert.Equal(t, "fr", us.Language)
	assert.Equal(t, []string{"Lato"}, us.Fonts)
}
