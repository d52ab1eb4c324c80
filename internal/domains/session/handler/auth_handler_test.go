package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog-backend/internal/domains/session"
	"autoblog-backend/internal/infrastructure/identity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubProvider issues a distinct token per email so responses can be traced
// back to the account they were minted for.
type stubProvider struct{}

func (stubProvider) Authenticate(ctx context.Context, email, password string) (identity.User, string, error) {
	return identity.User{ID: uuid.New(), Email: email}, "token-for-" + email, nil
}

func (stubProvider) Register(ctx context.Context, email, password, name string) (identity.User, string, error) {
	return identity.User{ID: uuid.New(), Email: email, Name: name}, "token-for-" + email, nil
}

func (stubProvider) SignOut(ctx context.Context, token string) error { return nil }

func (stubProvider) FetchClaims(ctx context.Context, token string) (identity.Claims, error) {
	return identity.Claims{}, nil
}

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()

	svc := session.NewService(stubProvider{}, func(string) bool { return false })
	svc.Start()

	h := NewAuthHandler(svc)
	router := gin.New()
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	return router
}

func login(t *testing.T, router *gin.Engine, email string) session.LoginResponse {
	t.Helper()

	body, err := json.Marshal(session.LoginRequest{Email: email, Password: "secret"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data session.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestLogin_ResponseCarriesOwnToken(t *testing.T) {
	router := newAuthRouter(t)

	alice := login(t, router, "alice@example.com")
	bob := login(t, router, "bob@example.com")

	// each response carries the token minted for that login, not whatever
	// the shared session holds by the time the response is written
	assert.Equal(t, "token-for-alice@example.com", alice.Token)
	assert.Equal(t, "token-for-bob@example.com", bob.Token)
}

func TestRegister_ResponseCarriesOwnToken(t *testing.T) {
	router := newAuthRouter(t)

	body, err := json.Marshal(session.RegisterRequest{
		Email:    "carol@example.com",
		Password: "secret",
		Name:     "Carol",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data session.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "token-for-carol@example.com", envelope.Data.Token)
}
