package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSagaStep(t *testing.T) {
	RecordSagaStep("ValidateStep", "SUCCEEDED", 10*time.Millisecond)
	if got := testutil.ToFloat64(SagaStepsTotal.WithLabelValues("ValidateStep", "SUCCEEDED")); got < 1 {
		t.Fatalf("expected counter to be incremented, got %v", got)
	}
}

func TestSetAdapterCircuitState(t *testing.T) {
	SetAdapterCircuitState("bankserv-primary", "open")
	if got := testutil.ToFloat64(ClearingAdapterCircuitState.WithLabelValues("bankserv-primary")); got != 2 {
		t.Fatalf("expected open state to encode as 2, got %v", got)
	}
	SetAdapterCircuitState("bankserv-primary", "closed")
	if got := testutil.ToFloat64(ClearingAdapterCircuitState.WithLabelValues("bankserv-primary")); got != 0 {
		t.Fatalf("expected closed state to encode as 0, got %v", got)
	}
}

func TestSetOutboxBacklog(t *testing.T) {
	SetOutboxBacklog(42)
	if got := testutil.ToFloat64(OutboxBacklog); got != 42 {
		t.Fatalf("expected backlog gauge 42, got %v", got)
	}
}

func TestRecordTenantPayment(t *testing.T) {
	RecordTenantPayment("tenant-a", "INITIATED")
	if got := testutil.ToFloat64(TenantPaymentsTotal.WithLabelValues("tenant-a", "INITIATED")); got < 1 {
		t.Fatalf("expected per-tenant counter to be incremented, got %v", got)
	}
}

func TestGinMiddlewareRecordsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/payments/:id", func(c *gin.Context) { c.Status(200) })

	req := httptest.NewRequest("GET", "/payments/abc", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/payments/:id", "2xx")); got < 1 {
		t.Fatalf("expected http request counter to be incremented, got %v", got)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected non-empty exposition body")
	}
}
