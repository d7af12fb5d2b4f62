// Package deeppunct implements restore.Provider against a punctuation
// restoration HTTP sidecar.
package deeppunct

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/skillsenselab/scribeflow/provider"
	"github.com/skillsenselab/scribeflow/restore"
)

const (
	// ProviderName is the registered name for the deeppunct provider.
	ProviderName = "deeppunct"

	defaultURL     = "http://localhost:8389"
	defaultTimeout = 60 * time.Second
)

// Config holds configuration for the deeppunct provider.
type Config struct {
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Provider implements restore.Provider using a punctuation HTTP sidecar.
type Provider struct {
	cfg    Config
	client *http.Client
}

// NewProvider creates a new deeppunct restoration provider.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Factory returns a provider.Factory that creates deeppunct Provider
// instances from a generic config map.
func Factory() provider.Factory[restore.Provider] {
	return func(cfg map[string]any) (restore.Provider, error) {
		pc := Config{}
		if v, ok := cfg["base_url"].(string); ok {
			pc.BaseURL = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			pc.Timeout = v
		}
		return NewProvider(pc), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the sidecar is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Restore sends text to the sidecar and returns the punctuated result.
func (p *Provider) Restore(ctx context.Context, req restore.Request) (*restore.Response, error) {
	body, err := json.Marshal(punctRequest{Text: req.Text, Language: req.Language})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/restore", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("restoration request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("restoration error (status %d): %s", resp.StatusCode, string(b))
	}

	var result punctResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode restoration response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("restoration error: %s", result.Error)
	}

	return &restore.Response{Text: result.Text}, nil
}

// --- internal sidecar API types ---

type punctRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type punctResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}
