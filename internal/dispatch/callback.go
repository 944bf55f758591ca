package dispatch

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"payorch.backend/internal/domain/entities"
	"payorch.backend/internal/iso20022"
	"payorch.backend/internal/saga"
)

// CallbackDispatcher POSTs a pain.002 to a tenant payment-type's configured
// callback URL, retrying transport failures and any non-2xx response (4xx
// included) with the same full-jitter
// backoff the saga engine uses internally. Grounded on the ledger/fraud
// adapters' outbound HTTP shape.
type CallbackDispatcher struct {
	client *http.Client
	log    *zap.Logger
}

func NewCallbackDispatcher(timeout time.Duration, log *zap.Logger) *CallbackDispatcher {
	return &CallbackDispatcher{client: &http.Client{Timeout: timeout}, log: log}
}

const (
	defaultCallbackMaxRetries  = 3
	defaultCallbackRetryBaseMs = 200
	callbackBackoffCap         = 5 * time.Second
)

func (d *CallbackDispatcher) Deliver(ctx context.Context, cfg *entities.AsyncResponseConfig, p *entities.Payment) error {
	if cfg == nil || cfg.CallbackURL == "" {
		return fmt.Errorf("dispatch: async response mode configured with no callback URL")
	}
	doc := iso20022.NewPain002(generateMsgID(), p)
	body, err := xml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("dispatch: marshal pain.002: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultCallbackMaxRetries
	}
	base := time.Duration(cfg.RetryBaseMs) * time.Millisecond
	if base <= 0 {
		base = defaultCallbackRetryBaseMs * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = d.deliverOnce(ctx, cfg, body)
		if lastErr == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(saga.Backoff(base, callbackBackoffCap, attempt)):
		}
	}
	return fmt.Errorf("dispatch: callback delivery to %s failed after %d attempts: %w", cfg.CallbackURL, maxRetries, lastErr)
}

func (d *CallbackDispatcher) deliverOnce(ctx context.Context, cfg *entities.AsyncResponseConfig, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.CallbackURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/xml")
	if cfg.AuthHeader != "" {
		req.Header.Set("Authorization", cfg.AuthHeader)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("callback %s returned status %d", cfg.CallbackURL, resp.StatusCode)
	}
	return nil
}
