package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage/utils"
)

func echoUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"userId": utils.GetUserIDFromRequest(r)})
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuth("test-secret")
	token, err := auth.Sign("user-42", jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	require.NoError(t, err)

	h := auth.Authenticate(echoUser)

	r := httptest.NewRequest(http.MethodGet, "/api/proposal", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h(rec, r, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":"user-42"}`, rec.Body.String())
}

func TestAuthenticateRejects(t *testing.T) {
	auth := NewAuth("test-secret")
	other, err := NewAuth("other").Sign("user-42", jwt.RegisteredClaims{})
	require.NoError(t, err)
	expired, err := auth.Sign("user-42", jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))})
	require.NoError(t, err)

	cases := map[string]string{
		"missing":      "",
		"wrong scheme": "Token abc",
		"bad secret":   "Bearer " + other,
		"expired":      "Bearer " + expired,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/proposal", nil)
			if header != "" {
				r.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			auth.Authenticate(echoUser)(rec, r, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestWebsocketQueryToken(t *testing.T) {
	auth := NewAuth("test-secret")
	token, err := auth.Sign("user-7", jwt.RegisteredClaims{})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/design/ws?token="+token, nil)
	r.Header.Set("Connection", "Upgrade")
	r.Header.Set("Upgrade", "websocket")
	assert.Equal(t, token, bearer(r))

	plain := httptest.NewRequest(http.MethodGet, "/api/proposal?token="+token, nil)
	assert.Empty(t, bearer(plain))
}
