package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func newRouter(t *testing.T, capture func(c *gin.Context)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", JWTMiddleware(testSecret, ""), func(c *gin.Context) {
		capture(c)
		c.Status(http.StatusOK)
	})
	return router
}

func TestMiddlewareRejectsMissingAuthorization(t *testing.T) {
	router := newRouter(t, func(*gin.Context) {})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestMiddlewareRejectsGarbageToken(t *testing.T) {
	router := newRouter(t, func(*gin.Context) {})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestMiddlewareInjectsIdentityAndCredential(t *testing.T) {
	var userID, credential string
	var userOK, credentialOK bool

	router := newRouter(t, func(c *gin.Context) {
		userID, userOK = GetUserID(c.Request.Context())
		credential, credentialOK = ProviderToken(c.Request.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-42"))
	req.Header.Set(ProviderTokenHeader, "ga-token-abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !userOK || userID != "user-42" {
		t.Errorf("user id = %q (ok=%v), want user-42", userID, userOK)
	}
	if !credentialOK || credential != "ga-token-abc" {
		t.Errorf("credential = %q (ok=%v), want ga-token-abc", credential, credentialOK)
	}
}

func TestProviderTokenAbsentWhenHeaderMissing(t *testing.T) {
	var credentialOK bool
	router := newRouter(t, func(c *gin.Context) {
		_, credentialOK = ProviderToken(c.Request.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-42"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if credentialOK {
		t.Fatal("expected no provider credential without the header")
	}
}
