package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-analyzer/backend/internal/config"
)

// NoOpLogger for testing
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, args ...any) {}
func (l *NoOpLogger) Info(msg string, args ...any)  {}
func (l *NoOpLogger) Error(msg string, args ...any) {}

// MockKeySet satisfies oidc.KeySet to bypass signature verification
type MockKeySet struct{}

func (m *MockKeySet) VerifySignature(ctx context.Context, jwtToken string) ([]byte, error) {
	parts := strings.Split(jwtToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed jwt")
	}
	return base64.RawURLEncoding.DecodeString(parts[1])
}

const (
	testIssuer   = "https://test-issuer.com"
	testClientID = "test-client"
)

func fakeToken(t *testing.T, email string) string {
	t.Helper()
	claims := map[string]interface{}{
		"iss":   testIssuer,
		"aud":   testClientID,
		"sub":   "test-user",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Add(-1 * time.Minute).Unix(),
		"email": email,
	}
	headerBytes, err := json.Marshal(map[string]interface{}{"alg": "RS256", "typ": "JWT", "kid": "test-key"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(headerBytes) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString([]byte("fakesignature"))
}

func testVerifier() *oidc.IDTokenVerifier {
	return oidc.NewVerifier(testIssuer, &MockKeySet{}, &oidc.Config{
		ClientID:          testClientID,
		SkipClientIDCheck: true,
	})
}

func ownerRecorder(t *testing.T, want string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok := OwnerFrom(r.Context())
		assert.True(t, ok, "owner should be in context")
		assert.Equal(t, want, owner)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_BearerToken_SetsOwner(t *testing.T) {
	a := &Auth{apiVerifier: testVerifier(), logger: &NoOpLogger{}}

	req := httptest.NewRequest("GET", "/api/v1/analyses", nil)
	req.Header.Set("Authorization", "Bearer "+fakeToken(t, "Investor@Example.com"))
	rec := httptest.NewRecorder()

	a.RequireAuth(ownerRecorder(t, "investor@example.com")).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Logf("Response Body: %s", rec.Body.String())
	}
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_CookieToken(t *testing.T) {
	a := &Auth{verifier: testVerifier()}

	req := httptest.NewRequest("GET", "/api/v1/analyses", nil)
	req.AddCookie(&http.Cookie{Name: "id_token", Value: fakeToken(t, "kim@example.com")})
	rec := httptest.NewRecorder()

	a.RequireAuth(ownerRecorder(t, "kim@example.com")).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_Rejections(t *testing.T) {
	a := &Auth{apiVerifier: testVerifier(), verifier: testVerifier()}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	t.Run("no credentials redirects to login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.RequireAuth(next).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/analyses", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("malformed bearer", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/analyses", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		a.RequireAuth(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token without email", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/analyses", nil)
		req.Header.Set("Authorization", "Bearer "+fakeToken(t, ""))
		rec := httptest.NewRecorder()
		a.RequireAuth(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAuth_BypassMode(t *testing.T) {
	cfg := &config.Config{
		Environment:   "DEV",
		DevModeBypass: true,
	}
	a, err := New(context.Background(), cfg, &NoOpLogger{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.RequireAuth(ownerRecorder(t, DevOwner)).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/analyses", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_IncompleteConfig(t *testing.T) {
	cfg := &config.Config{Environment: "prod", DevModeBypass: true}
	_, err := New(context.Background(), cfg, nil)
	assert.EqualError(t, err, "auth configuration is incomplete")
}

func TestLogoutHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	(&Auth{}).LogoutHandler(rec, httptest.NewRequest("GET", "/logout", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestOwnerFrom_Empty(t *testing.T) {
	_, ok := OwnerFrom(context.Background())
	assert.False(t, ok)
	_, ok = OwnerFrom(WithOwner(context.Background(), ""))
	assert.False(t, ok)
}
