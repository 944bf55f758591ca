package rails

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"payorch.backend/internal/domain/entities"
	"payorch.backend/pkg/secretbox"
)

const httpBaseTestKeyHex = "abababababababababababababababababababababababababababababababab"

func TestApplyAuth_APIKey_UnsealsBeforeSending(t *testing.T) {
	s, err := secretbox.NewSealer(httpBaseTestKeyHex)
	require.NoError(t, err)
	SetSealer(s)
	defer SetSealer(nil)

	sealed, err := s.Seal("super-secret-key")
	require.NoError(t, err)

	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Api-Key")
		w.Write([]byte(`<Ack><Accepted>true</Accepted></Ack>`))
	}))
	defer srv.Close()

	cfg := &entities.ClearingAdapterConfig{
		BaseURLOverride: srv.URL,
		EndpointPath:    "/submit",
		Auth: entities.AuthConfig{
			Type:               entities.AuthTypeAPIKey,
			APIKeySecretSealed: sealed,
		},
	}

	err = postXML(context.Background(), cfg, struct{}{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "super-secret-key", gotHeader)
	assert.NotEqual(t, sealed, gotHeader)
}

func TestApplyAuth_Bearer_UnsealsBeforeSending(t *testing.T) {
	s, err := secretbox.NewSealer(httpBaseTestKeyHex)
	require.NoError(t, err)
	SetSealer(s)
	defer SetSealer(nil)

	sealed, err := s.Seal("super-secret-token")
	require.NoError(t, err)

	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := &entities.ClearingAdapterConfig{
		BaseURLOverride: srv.URL,
		EndpointPath:    "/submit",
		Auth: entities.AuthConfig{
			Type:              entities.AuthTypeBearer,
			BearerTokenSealed: sealed,
		},
	}

	err = postJSON(context.Background(), cfg, struct{}{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer super-secret-token", gotHeader)
}

func TestApplyAuth_NoSealerConfigured_ReturnsConfigError(t *testing.T) {
	SetSealer(nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not reach the server when sealer is unconfigured")
	}))
	defer srv.Close()

	cfg := &entities.ClearingAdapterConfig{
		BaseURLOverride: srv.URL,
		EndpointPath:    "/submit",
		Auth: entities.AuthConfig{
			Type:               entities.AuthTypeAPIKey,
			APIKeySecretSealed: "deadbeef",
		},
	}

	err := postXML(context.Background(), cfg, struct{}{}, nil)
	require.Error(t, err)
}

func TestPostXML_SetsDownstreamRouteHeaders(t *testing.T) {
	SetSealer(nil)

	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.Write([]byte(`<Ack><Accepted>true</Accepted></Ack>`))
	}))
	defer srv.Close()

	tenantID := uuid.New()
	cfg := &entities.ClearingAdapterConfig{
		TenantID:        tenantID,
		BaseURLOverride: srv.URL,
		EndpointPath:    "/submit",
	}

	err := postXML(context.Background(), cfg, struct{}{}, nil)
	require.NoError(t, err)

	assert.Equal(t, tenantID.String(), gotHeaders.Get("X-Tenant-ID"))
	assert.Equal(t, "clearing", gotHeaders.Get("X-Service-Type"))
	assert.Equal(t, tenantID.String()+"-clearing", gotHeaders.Get("X-Route-Context"))
	assert.Equal(t, "clearing-system", gotHeaders.Get("X-Downstream-Route"))
}

func TestPostJSON_SetsDownstreamRouteHeaders(t *testing.T) {
	SetSealer(nil)

	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tenantID := uuid.New()
	cfg := &entities.ClearingAdapterConfig{
		TenantID:        tenantID,
		BaseURLOverride: srv.URL,
		EndpointPath:    "/submit",
	}

	err := postJSON(context.Background(), cfg, struct{}{}, nil)
	require.NoError(t, err)

	assert.Equal(t, tenantID.String(), gotHeaders.Get("X-Tenant-ID"))
	assert.Equal(t, "clearing", gotHeaders.Get("X-Service-Type"))
	assert.Equal(t, tenantID.String()+"-clearing", gotHeaders.Get("X-Route-Context"))
	assert.Equal(t, "clearing-system", gotHeaders.Get("X-Downstream-Route"))
}

func TestApplyAuth_NoneType_NeverNeedsSealer(t *testing.T) {
	SetSealer(nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<Ack><Accepted>true</Accepted></Ack>`))
	}))
	defer srv.Close()

	cfg := &entities.ClearingAdapterConfig{
		BaseURLOverride: srv.URL,
		EndpointPath:    "/submit",
	}

	err := postXML(context.Background(), cfg, struct{}{}, nil)
	require.NoError(t, err)
}
