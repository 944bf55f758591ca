// Package rails implements the concrete clearing.RailClient for each
// supported clearing rail.
package rails

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"

	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/pkg/secretbox"
)

// httpClient is the shared dependency every XML-over-HTTP rail client needs;
// the clearing.Framework already applies timeout/retry/circuit-breaking, so
// rail clients use the plain http.DefaultClient-style transport and only add
// auth headers and body encoding specific to their rail.
var httpClient = &http.Client{}

// sealer unseals AuthConfig's encrypted-at-rest secret fields immediately
// before they go out on the wire. Set once at process startup via SetSealer;
// nil in tests that never exercise auth, where applyAuth is a no-op for
// AuthTypeNone configs.
var sealer *secretbox.Sealer

// SetSealer wires the process-wide secret sealer used to decrypt outbound
// rail credentials. Called once at startup by cmd/server and cmd/worker.
func SetSealer(s *secretbox.Sealer) { sealer = s }

// postXML posts an XML-encoded body to cfg's endpoint and decodes an
// XML response into out. 5xx maps to AdapterUnavailable (retryable by the
// framework's in-call retry and, if exhausted, by the saga itself); 4xx
// maps to AdapterReject.
func postXML(ctx context.Context, cfg *entities.ClearingAdapterConfig, body any, out any) error {
	payload, err := xml.Marshal(body)
	if err != nil {
		return domainerrors.System(err)
	}

	url := cfg.BaseURLOverride + cfg.EndpointPath
	method := cfg.HTTPMethod
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return domainerrors.System(err)
	}
	req.Header.Set("Content-Type", "application/xml")
	setDownstreamRouteHeaders(req, cfg)
	if err := applyAuth(req, cfg); err != nil {
		return err
	}
	for k, v := range cfg.RequestHeaders {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return domainerrors.AdapterUnavailable(fmt.Sprintf("%s request failed", cfg.Rail), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return domainerrors.AdapterUnavailable(fmt.Sprintf("%s returned %d", cfg.Rail, resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return domainerrors.AdapterReject(fmt.Sprintf("%s rejected request: %d", cfg.Rail, resp.StatusCode), nil)
	}

	if out != nil {
		if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
			return domainerrors.System(err)
		}
	}
	return nil
}

// postJSON is postXML's JSON-bodied counterpart, used by rails (PayShap)
// whose public API is REST/JSON rather than ISO 20022 XML over SOAP-style
// transport.
func postJSON(ctx context.Context, cfg *entities.ClearingAdapterConfig, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return domainerrors.System(err)
	}

	url := cfg.BaseURLOverride + cfg.EndpointPath
	method := cfg.HTTPMethod
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return domainerrors.System(err)
	}
	req.Header.Set("Content-Type", "application/json")
	setDownstreamRouteHeaders(req, cfg)
	if err := applyAuth(req, cfg); err != nil {
		return err
	}
	for k, v := range cfg.RequestHeaders {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return domainerrors.AdapterUnavailable(fmt.Sprintf("%s request failed", cfg.Rail), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return domainerrors.AdapterUnavailable(fmt.Sprintf("%s returned %d", cfg.Rail, resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return domainerrors.AdapterReject(fmt.Sprintf("%s rejected request: %d", cfg.Rail, resp.StatusCode), nil)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domainerrors.System(err)
		}
	}
	return nil
}

// downstreamServiceType identifies this package's calls to the shared
// downstream gateway per spec.md §4.4/§8: fraud and ledger adapters use
// their own service types, clearing adapters are always "clearing".
const downstreamServiceType = "clearing"

// setDownstreamRouteHeaders injects the tenant/service context headers a
// shared downstream gateway uses to demultiplex without a dedicated
// host:port per adapter, per spec.md §4.4: X-Tenant-ID, X-Service-Type,
// X-Route-Context ("{tenantId}-{serviceType}"), X-Downstream-Route
// ("{serviceType}-system") and X-Bank-Route ("/{serviceType}/{tenantId}").
func setDownstreamRouteHeaders(req *http.Request, cfg *entities.ClearingAdapterConfig) {
	tenantID := cfg.TenantID.String()
	req.Header.Set("X-Tenant-ID", tenantID)
	req.Header.Set("X-Service-Type", downstreamServiceType)
	req.Header.Set("X-Route-Context", tenantID+"-"+downstreamServiceType)
	req.Header.Set("X-Downstream-Route", downstreamServiceType+"-system")
	req.Header.Set("X-Bank-Route", "/"+downstreamServiceType+"/"+tenantID)
}

// applyAuth unseals the adapter's configured secret and attaches it to the
// outbound request. The sealed value never appears on the wire or in a log
// line; only the unsealed plaintext, held for the duration of this call, does.
func applyAuth(req *http.Request, cfg *entities.ClearingAdapterConfig) error {
	switch cfg.Auth.Type {
	case entities.AuthTypeAPIKey:
		secret, err := unseal(cfg.Auth.APIKeySecretSealed)
		if err != nil {
			return err
		}
		header := cfg.Auth.APIKeyHeader
		if header == "" {
			header = "X-Api-Key"
		}
		req.Header.Set(header, secret)
	case entities.AuthTypeBearer, entities.AuthTypeOAuth2:
		secret, err := unseal(cfg.Auth.BearerTokenSealed)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	return nil
}

func unseal(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	if sealer == nil {
		return "", domainerrors.Config("clearing rail secret sealer not configured", nil)
	}
	plaintext, err := sealer.Unseal(sealed)
	if err != nil {
		return "", domainerrors.System(fmt.Errorf("unseal rail credential: %w", err))
	}
	return plaintext, nil
}
