package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func signToken(t *testing.T, secret string, claims supabaseClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func validClaims(sub string) supabaseClaims {
	return supabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newAuthRouter(cfg JWTConfig, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuth(cfg)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "role": c.GetString("role")})
	})
	r.GET("/me", handlers...)
	return r
}

func TestJWTAuth(t *testing.T) {
	t.Parallel()

	r := newAuthRouter(JWTConfig{Secret: testSecret})
	good := signToken(t, testSecret, validClaims("user-1"))
	forged := signToken(t, "other", validClaims("user-1"))

	cases := []struct {
		name   string
		header string
		query  string
		ws     bool
		want   int
	}{
		{"bearer", "Bearer " + good, "", false, http.StatusOK},
		{"missing", "", "", false, http.StatusUnauthorized},
		{"forged", "Bearer " + forged, "", false, http.StatusUnauthorized},
		{"query token on upgrade", "", good, true, http.StatusOK},
		{"query token on plain request", "", good, false, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		target := "/me"
		if tc.query != "" {
			target += "?token=" + tc.query
		}
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if tc.ws {
			req.Header.Set("Upgrade", "websocket")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestJWTAuthMissingSecret(t *testing.T) {
	t.Parallel()

	r := newAuthRouter(JWTConfig{})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	r := newAuthRouter(JWTConfig{Secret: testSecret}, RequireAdmin())

	user := signToken(t, testSecret, validClaims("user-1"))
	adminClaims := validClaims("admin-1")
	adminClaims.AppMetadata = map[string]any{"role": "admin"}
	admin := signToken(t, testSecret, adminClaims)

	for tok, want := range map[string]int{user: http.StatusForbidden, admin: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("expected %d, got %d", want, w.Code)
		}
	}
}
