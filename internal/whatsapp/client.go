// Package whatsapp sends messages through a gowa-compatible WhatsApp
// gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"prospect_backend/platform/config"
	"prospect_backend/platform/logger"
	"prospect_backend/platform/phone"
)

// Gateways throttle aggressively; one message per second per device keeps
// the account out of the provider's spam heuristics.
const sendsPerSecond = 1

type Client struct {
	baseURL  string
	apiKey   string
	deviceID string
	http     *http.Client
	limiter  *rate.Limiter
	log      *logger.Logger
}

func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppURL() == "" {
		return nil
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.GetWhatsAppURL(), "/"),
		apiKey:   cfg.GetWhatsAppKey(),
		deviceID: cfg.GetWhatsAppDeviceID(),
		http:     &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(sendsPerSecond), 1),
		log:      log,
	}
}

// Send delivers one message to a phone number. Satisfies the dispatch
// transport contract. The gateway wants bare digits, no leading plus.
func (c *Client) Send(ctx context.Context, destination string, message string) error {
	if c == nil {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	normalized := strings.TrimPrefix(phone.NormalizeE164(destination), "+")
	err := c.post(ctx, "/send/message", map[string]string{
		"phone":   normalized,
		"message": message,
	})
	if err != nil {
		return err
	}

	c.log.Info("whatsapp sent via gowa", "phone", normalized)
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", basicAuth(c.apiKey))
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

// basicAuth accepts either a ready "Basic ..." header value or a raw
// user:pass credential to encode.
func basicAuth(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey))
}
