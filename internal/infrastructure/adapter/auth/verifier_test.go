package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/config"
	mockcore "github.com/nerbixa/payment-reconciler/mocks/port/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("verify-balance-secret")

func signHS256(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestVerifier_Verify(t *testing.T) {
	v, err := NewVerifier(context.Background(), config.AuthConfig{JWTSecret: string(testSecret), Issuer: "https://id.nerbixa.com/"})
	require.NoError(t, err)

	valid := jwt.MapClaims{
		"sub":   "user_abc",
		"email": "abc@example.com",
		"iss":   "https://id.nerbixa.com/",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}

	testCases := []struct {
		name    string
		token   func() string
		subject string
		wantErr bool
	}{
		{"Valid", func() string { return signHS256(t, testSecret, valid) }, "user_abc", false},
		{"Wrong secret", func() string { return signHS256(t, []byte("other"), valid) }, "", true},
		{"Expired", func() string {
			return signHS256(t, testSecret, jwt.MapClaims{"sub": "user_abc", "iss": "https://id.nerbixa.com/", "exp": time.Now().Add(-time.Hour).Unix()})
		}, "", true},
		{"Wrong issuer", func() string {
			return signHS256(t, testSecret, jwt.MapClaims{"sub": "user_abc", "iss": "https://evil/", "exp": time.Now().Add(time.Hour).Unix()})
		}, "", true},
		{"Missing sub", func() string {
			return signHS256(t, testSecret, jwt.MapClaims{"iss": "https://id.nerbixa.com/", "exp": time.Now().Add(time.Hour).Unix()})
		}, "", true},
		{"Garbage", func() string { return "not-a-jwt" }, "", true},
		{"Empty", func() string { return "" }, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := v.Verify(tc.token())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.subject, claims.Subject)
			assert.Equal(t, "abc@example.com", claims.Email)
		})
	}
}

func TestNewVerifier_RequiresKeyMaterial(t *testing.T) {
	_, err := NewVerifier(context.Background(), config.AuthConfig{})
	assert.ErrorIs(t, err, ErrNoVerifierConfigured)
}

func TestRequireBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := mockcore.NewMockLogger(t).AllowAll()
	v := NewHMACVerifier(testSecret)

	router := gin.New()
	router.GET("/me", RequireBearer(v, log), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserIDFrom(c)})
	})

	token := signHS256(t, testSecret, jwt.MapClaims{"sub": "user_abc", "exp": time.Now().Add(time.Hour).Unix()})

	testCases := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{"Valid bearer", "Bearer " + token, http.StatusOK, `{"user":"user_abc"}`},
		{"Lowercase scheme", "bearer " + token, http.StatusOK, `{"user":"user_abc"}`},
		{"Missing header", "", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"Basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"Bad token", "Bearer nope", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.expectedStatus, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}
