// Package linkedin sends direct messages through a LinkedIn messaging
// gateway. The channel policy never selects linkedin on its own; this
// transport exists for manually triggered outreach to contacts whose only
// identifier is a profile URL.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"prospect_backend/platform/config"
	"prospect_backend/platform/logger"
)

// LinkedIn tolerates far less volume than WhatsApp.
const sendsPerMinute = 10

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

type sendRequest struct {
	ProfileURL string `json:"profileUrl"`
	Message    string `json:"message"`
}

func NewClient(cfg config.LinkedInConfig, log *logger.Logger) *Client {
	if cfg.GetLinkedInURL() == "" {
		return nil
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetLinkedInURL(), "/"),
		apiKey:  cfg.GetLinkedInKey(),
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Minute/sendsPerMinute), 1),
		log:     log,
	}
}

// Send delivers one message to a profile URL. Satisfies the dispatch
// transport contract.
func (c *Client) Send(ctx context.Context, destination string, message string) error {
	if c == nil {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(sendRequest{
		ProfileURL: destination,
		Message:    message,
	})
	if err != nil {
		return fmt.Errorf("marshal linkedin payload: %w", err)
	}

	url := fmt.Sprintf("%s/messages", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("linkedin request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("linkedin service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("linkedin message sent", "profile", destination)
	return nil
}
