package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(f.service)
	r := gin.New()
	r.POST("/users", h.CreateUser)
	me := r.Group("/users/me", auth.RequireUser(f.tokens))
	me.GET("", h.GetMe)
	me.DELETE("", h.DeleteMe)
	return r
}

func request(r http.Handler, method, target, bearer, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_SignupAndSelf(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)

	w := request(r, http.MethodPost, "/users", "", `{"email":"fan@example.com","nickname":"giants-fan","profileImage":"https://img/fan.png"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created createUserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.AccessToken)
	assert.Equal(t, "giants-fan", created.User.Nickname)

	w = request(r, http.MethodGet, "/users/me", created.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	var me User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, created.User.ID, me.ID)

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/users/me", "", "").Code)

	assert.Equal(t, http.StatusNoContent, request(r, http.MethodDelete, "/users/me", created.AccessToken, "").Code)
	assert.Equal(t, http.StatusNotFound, request(r, http.MethodGet, "/users/me", created.AccessToken, "").Code)
}

func TestHandler_CreateUserValidation(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "bad email", body: `{"email":"not-an-email","nickname":"x"}`, code: http.StatusBadRequest},
		{name: "missing nickname", body: `{"email":"a@example.com"}`, code: http.StatusBadRequest},
		{name: "long nickname", body: `{"email":"a@example.com","nickname":"0123456789012345678901234567890"}`, code: http.StatusBadRequest},
		{name: "bad image url", body: `{"email":"a@example.com","nickname":"x","profileImage":"nope"}`, code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, request(r, http.MethodPost, "/users", "", tt.body).Code)
		})
	}

	require.Equal(t, http.StatusCreated, request(r, http.MethodPost, "/users", "", `{"email":"a@example.com","nickname":"x"}`).Code)
	assert.Equal(t, http.StatusConflict, request(r, http.MethodPost, "/users", "", `{"email":"a@example.com","nickname":"y"}`).Code)
}
