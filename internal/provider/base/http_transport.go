package base

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"billbridge/internal/provider"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// HTTPTransport is the default provider.Transport: signed JSON POSTs to a
// vendor gateway, with bounded retries on transient failures. Providers
// only hand it a logical action name and a payload; endpoint, signing and
// retry mechanics all live here.
type HTTPTransport struct {
	client     *http.Client
	baseURL    string
	name       string // provider name for logging
	secret     []byte // HMAC key, may be empty for unsigned gateways
	maxRetries uint64
}

// NewHTTPTransport creates a transport for one vendor gateway.
func NewHTTPTransport(providerName, baseURL, secret string, timeoutSec int) *HTTPTransport {
	if timeoutSec == 0 {
		timeoutSec = 30
	}

	return &HTTPTransport{
		client: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		baseURL:    baseURL,
		name:       providerName,
		secret:     []byte(secret),
		maxRetries: 3,
	}
}

// Do implements provider.Transport. Network errors and 5xx responses are
// retried with exponential backoff; anything else goes straight back to
// the caller.
func (t *HTTPTransport) Do(ctx context.Context, action string, payload any) (*provider.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := t.baseURL + "/" + action

	var resp *provider.Response
	operation := func() error {
		r, retryable, err := t.post(ctx, url, body)
		if err != nil {
			if retryable {
				return err
			}
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), t.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		log.Error().
			Str("provider", t.name).
			Str("action", action).
			Err(err).
			Msg("transport request failed")
		return nil, err
	}
	return resp, nil
}

// post issues one attempt. The bool reports whether the failure is worth
// retrying.
func (t *HTTPTransport) post(ctx context.Context, url string, body []byte) (*provider.Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("BillBridge/%s", t.name))
	if len(t.secret) > 0 {
		req.Header.Set("X-Signature", t.sign(body))
	}

	log.Debug().
		Str("provider", t.name).
		Str("url", url).
		Msg("making HTTP request")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out provider.Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, false, fmt.Errorf("failed to parse gateway response: %w", err)
	}

	log.Debug().
		Str("provider", t.name).
		Int("status_code", resp.StatusCode).
		Bool("success", out.Success).
		Msg("received gateway response")

	return &out, false, nil
}

func (t *HTTPTransport) sign(body []byte) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
