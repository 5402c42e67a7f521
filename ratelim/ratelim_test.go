package ratelim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"

	"voyage/globals"
)

func TestAllowPerKey(t *testing.T) {
	rl := NewRateLimiter(2)
	fixed := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u2"))

	fixed = fixed.Add(30 * time.Second)
	assert.True(t, rl.Allow("u1"))
}

func TestSweep(t *testing.T) {
	rl := NewRateLimiter(5)
	fixed := time.Now()
	rl.now = func() time.Time { return fixed }
	rl.Allow("a")
	fixed = fixed.Add(11 * time.Minute)
	rl.Allow("b")

	assert.Equal(t, 1, rl.Sweep())
	assert.Len(t, rl.visitors, 1)
}

func TestLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1)
	h := rl.Limit(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/proposal/export/pdf", nil)
		r = r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, "user-1"))
		rec := httptest.NewRecorder()
		h(rec, r, nil)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, req().Code)
	rec := req()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
}
