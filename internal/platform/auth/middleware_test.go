package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(issuer *token.Issuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireUser(issuer), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	return r
}

func TestRequireUser(t *testing.T) {
	issuer := token.NewIssuer("secret", time.Hour)
	valid, err := issuer.Issue(9)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid", header: "Bearer " + valid, status: http.StatusOK, body: `{"id":9}`},
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newRouter(issuer).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestRequireOperator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := token.NewIssuer("secret", time.Hour)
	r := gin.New()
	r.PUT("/games/1/result", RequireUser(issuer), RequireOperator([]int64{1}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	closed := gin.New()
	closed.PUT("/games/1/result", RequireUser(issuer), RequireOperator(nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	operator, err := issuer.Issue(1)
	require.NoError(t, err)
	fan, err := issuer.Issue(2)
	require.NoError(t, err)

	tests := []struct {
		name   string
		router *gin.Engine
		token  string
		status int
	}{
		{name: "operator", router: r, token: operator, status: http.StatusOK},
		{name: "fan", router: r, token: fan, status: http.StatusForbidden},
		{name: "anonymous", router: r, status: http.StatusUnauthorized},
		{name: "no operators configured", router: closed, token: operator, status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/games/1/result", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			tt.router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
