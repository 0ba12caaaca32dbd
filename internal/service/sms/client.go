package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/algobasket/hissabbook-api-system/internal/service/phone"
	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

// Client delivers OTP codes through the SMS provider's bulk API. It never
// retries; a failed send is reported to the caller with the raw provider
// response and nothing is persisted for it.
type Client struct {
	apiURL     string
	apiKey     string
	route      string
	senderID   string
	normalizer *phone.Normalizer
	prefix     string
	client     *http.Client
}

func NewClient(apiURL, apiKey, route, senderID, countryPrefix string, normalizer *phone.Normalizer) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		route:      route,
		senderID:   senderID,
		normalizer: normalizer,
		prefix:     countryPrefix,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type providerResponse struct {
	Return    bool            `json:"return"`
	RequestID string          `json:"request_id"`
	Message   json.RawMessage `json:"message"`
}

// Send normalizes the destination and posts the provider payload. On
// success it returns the provider's message id.
func (c *Client) Send(ctx context.Context, destination, code string, ttl time.Duration) (string, error) {
	start := time.Now()

	canonical, err := c.normalizer.Normalize(destination)
	if err != nil {
		return "", err
	}

	// The provider expects local numbers without the country prefix.
	local := canonical
	if len(local) == 12 && strings.HasPrefix(local, c.prefix) {
		local = strings.TrimPrefix(local, c.prefix)
	}

	log.Printf("[SMS] Preparing to send | Recipient=%s | Route=%s | APIKeySet=%t",
		local, c.route, c.apiKey != "")

	payload := map[string]interface{}{
		"route":            c.route,
		"variables_values": code,
		"numbers":          local,
	}
	if c.senderID != "" {
		payload["sender_id"] = c.senderID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal sms payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("authorization", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		log.Printf("[SMS] HTTP error sending to %s: %v", local, err)
		return "", fmt.Errorf("%w: %v", xerrors.ErrChannelSend, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	duration := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		log.Printf("[SMS] Failed sending | Recipient=%s | Status=%d | Duration=%v | Response=%s",
			local, resp.StatusCode, duration, string(respBody))
		return "", fmt.Errorf("%w: %s", xerrors.ErrChannelSend, string(respBody))
	}

	var parsed providerResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		log.Printf("[SMS] Unparseable response | Recipient=%s | Duration=%v | Response=%s",
			local, duration, string(respBody))
		return "", fmt.Errorf("%w: %s", xerrors.ErrChannelSend, string(respBody))
	}
	if !parsed.Return {
		log.Printf("[SMS] Provider rejected | Recipient=%s | Duration=%v | Response=%s",
			local, duration, string(respBody))
		return "", fmt.Errorf("%w: %s", xerrors.ErrChannelSend, string(respBody))
	}

	log.Printf("[SMS] Successfully sent | Recipient=%s | RequestID=%s | Duration=%v",
		local, parsed.RequestID, duration)

	return parsed.RequestID, nil
}
