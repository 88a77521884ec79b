// Package generator calls the external message-generation service that
// writes personalized prospecting copy.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"prospect_backend/internal/contacts"
	"prospect_backend/internal/dispatch"
	"prospect_backend/platform/apperr"
	"prospect_backend/platform/config"
	"prospect_backend/platform/logger"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

type generateRequest struct {
	Name        string `json:"name"`
	Company     string `json:"company"`
	Position    string `json:"position,omitempty"`
	Segment     string `json:"segment,omitempty"`
	MessageType string `json:"messageType"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func NewClient(cfg config.GeneratorConfig, log *logger.Logger) *Client {
	if cfg.GetGeneratorURL() == "" {
		return nil
	}

	timeout := cfg.GetGeneratorTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetGeneratorURL(), "/"),
		apiKey:  cfg.GetGeneratorKey(),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Generate requests message copy for a contact. An unconfigured client
// returns an unavailable error; the orchestrator owns the fallback.
func (c *Client) Generate(ctx context.Context, contact contacts.Contact, messageType contacts.MessageType) (dispatch.GeneratedMessage, error) {
	if c == nil {
		return dispatch.GeneratedMessage{}, apperr.Unavailable("message generator not configured")
	}

	payload := generateRequest{
		Name:        contact.Name,
		Company:     contact.Company,
		MessageType: string(messageType),
	}
	if contact.Position != nil {
		payload.Position = *contact.Position
	}
	if contact.Segment != nil {
		payload.Segment = *contact.Segment
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return dispatch.GeneratedMessage{}, fmt.Errorf("marshal generate payload: %w", err)
	}

	url := fmt.Sprintf("%s/generate", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return dispatch.GeneratedMessage{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return dispatch.GeneratedMessage{}, apperr.Wrap(apperr.KindTransient, "generator request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return dispatch.GeneratedMessage{}, apperr.Transient(
			fmt.Sprintf("generator returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return dispatch.GeneratedMessage{}, apperr.Wrap(apperr.KindTransient, "decode generator response", err)
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return dispatch.GeneratedMessage{}, apperr.Transient("generator returned empty text")
	}

	return dispatch.GeneratedMessage{Text: parsed.Text}, nil
}
