package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/loadscribe/loadscribe/internal/models"
)

// GoogleProvider generates text through the Gemini REST API.
type GoogleProvider struct {
	apiKey   string
	endpoint string
	model    string
	client   *http.Client
}

type googleRequest struct {
	Contents []googleContent `json:"contents"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGoogleProvider creates a Gemini-backed provider.
func NewGoogleProvider(apiKey, endpoint, model string) *GoogleProvider {
	return &GoogleProvider{
		apiKey:   apiKey,
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GoogleProvider) Name() string { return "google" }

func (g *GoogleProvider) Available() bool { return g.apiKey != "" }

func (g *GoogleProvider) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(googleRequest{
		Contents: []googleContent{{Parts: []googlePart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.endpoint, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &models.ProviderError{Provider: g.Name(), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.ProviderError{Provider: g.Name(), Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &models.ProviderError{
			Provider:   g.Name(),
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("%s", truncate(string(body), 200)),
		}
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &models.ProviderError{Provider: g.Name(), Cause: fmt.Errorf("parse response: %w", err)}
	}
	if parsed.Error != nil {
		return "", &models.ProviderError{
			Provider:   g.Name(),
			StatusCode: parsed.Error.Code,
			Cause:      fmt.Errorf("%s", parsed.Error.Message),
		}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &models.ProviderError{Provider: g.Name(), Cause: fmt.Errorf("empty response")}
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
