package replies

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
	"prospect_backend/platform/config"
	"prospect_backend/platform/logger"
)

// Classifier is the boundary to the external reply-classification service.
// Analyze never fails: any transport or protocol problem degrades to the
// fallback analysis with a warning, because a missing classification must
// not stop reply processing.
type Classifier struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

type classifyRequest struct {
	Text    string `json:"text"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Segment string `json:"segment,omitempty"`
}

func NewClassifier(cfg config.ClassifierConfig, log *logger.Logger) *Classifier {
	timeout := cfg.GetClassifierTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Classifier{
		baseURL: strings.TrimRight(cfg.GetClassifierURL(), "/"),
		apiKey:  cfg.GetClassifierKey(),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Analyze classifies reply text in the context of the contact it came from.
func (c *Classifier) Analyze(ctx context.Context, text string, contact contacts.Contact) Analysis {
	if c == nil || c.baseURL == "" {
		if c != nil && c.log != nil {
			c.log.Warn("classifier not configured, using fallback analysis")
		}
		return FallbackAnalysis()
	}

	analysis, err := c.classify(ctx, text, contact)
	if err != nil {
		c.log.CollaboratorDegraded("reply_classifier", err)
		return FallbackAnalysis()
	}
	return sanitizeAnalysis(analysis)
}

func (c *Classifier) classify(ctx context.Context, text string, contact contacts.Contact) (Analysis, error) {
	payload := classifyRequest{
		Text:    text,
		Name:    contact.Name,
		Company: contact.Company,
	}
	if contact.Segment != nil {
		payload.Segment = *contact.Segment
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Analysis{}, fmt.Errorf("marshal classify payload: %w", err)
	}

	url := fmt.Sprintf("%s/classify", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return Analysis{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Analysis{}, fmt.Errorf("classifier request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return Analysis{}, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var analysis Analysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return Analysis{}, fmt.Errorf("decode classifier response: %w", err)
	}
	return analysis, nil
}
