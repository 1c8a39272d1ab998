package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/usecase"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/api/handler"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/auth"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/logger"
	timeadapter "github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/time"
	"github.com/stretchr/testify/assert"
)

type fakeProcessor struct{ name string }

func (f fakeProcessor) ProviderName() string { return f.name }

func (f fakeProcessor) Handle(context.Context, usecase.WebhookRequest) (*usecase.WebhookResult, error) {
	return &usecase.WebhookResult{Outcome: usecase.OutcomeIgnored}, nil
}

type fakeBalance struct{}

func (fakeBalance) VerifyBalance(_ context.Context, q usecase.BalanceQuery) (*entity.BalanceVerification, error) {
	return &entity.BalanceVerification{UserID: q.UserID, CurrentBalance: 20}, nil
}

type fakeProbe struct{}

func (fakeProbe) HealthCheck(context.Context) error { return nil }

type denyAll struct{}

func (denyAll) Verify(string) (*auth.Claims, error) { return nil, errors.New("denied") }

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewNoopLogger()
	tp := timeadapter.NewRealTimeProvider()

	router := gin.New()
	SetupMiddlewares(router, log, tp, []string{"https://nerbixa.com"})
	SetupRoutes(router, Handlers{
		Networx:         handler.NewWebhookHandler(fakeProcessor{name: "Networx"}, 0, tp, log),
		SecureProcessor: handler.NewWebhookHandler(fakeProcessor{name: "Secure-processor"}, 0, tp, log),
		Balance:         handler.NewBalanceHandler(fakeBalance{}, log),
		Health:          handler.NewHealthHandler(fakeProbe{}, nil, tp),
		RequireAuth:     auth.RequireBearer(denyAll{}, log),
	})
	return router
}

func TestSetupRoutes(t *testing.T) {
	router := newRouter()

	testCases := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"Health", http.MethodGet, "/health", http.StatusOK},
		{"NetworxProbe", http.MethodGet, "/api/webhooks/networx", http.StatusOK},
		{"SecureProcessorProbe", http.MethodGet, "/api/webhooks/secure-processor", http.StatusOK},
		{"NetworxDelivery", http.MethodPost, "/api/webhooks/networx", http.StatusOK},
		{"VerifyBalanceRequiresAuth", http.MethodGet, "/api/payment/verify-balance", http.StatusUnauthorized},
		{"UnknownRoute", http.MethodGet, "/api/user/1/balance", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestSetupMiddlewares_RequestIDPassthrough(t *testing.T) {
	router := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestSetupMiddlewares_CORS(t *testing.T) {
	router := newRouter()
	req := httptest.NewRequest(http.MethodOptions, "/api/payment/verify-balance", nil)
	req.Header.Set("Origin", "https://nerbixa.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://nerbixa.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "43200", rec.Header().Get("Access-Control-Max-Age"))
}

func TestSetupMiddlewares_RecoversPanics(t *testing.T) {
	router := newRouter()
	router.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
