package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loadscribe/loadscribe/internal/models"
)

// AzureProvider generates text through an Azure OpenAI chat-completions
// deployment.
type AzureProvider struct {
	apiKey     string
	endpoint   string
	deployment string
	apiVersion string
	client     *http.Client
}

type azureRequest struct {
	Messages    []azureMessage `json:"messages"`
	Temperature float64        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens"`
}

type azureMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type azureResponse struct {
	Choices []struct {
		Message azureMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAzureProvider creates an Azure OpenAI-backed provider.
func NewAzureProvider(apiKey, endpoint, deployment, apiVersion string) *AzureProvider {
	return &AzureProvider{
		apiKey:     apiKey,
		endpoint:   strings.TrimRight(endpoint, "/"),
		deployment: deployment,
		apiVersion: apiVersion,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (a *AzureProvider) Name() string { return "azure" }

func (a *AzureProvider) Available() bool { return a.apiKey != "" && a.endpoint != "" }

func (a *AzureProvider) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(azureRequest{
		Messages:    []azureMessage{{Role: "user", Content: prompt}},
		Temperature: 0.1, // precise JSON beats creativity here
		MaxTokens:   4000,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		a.endpoint, a.deployment, a.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &models.ProviderError{Provider: a.Name(), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.ProviderError{Provider: a.Name(), Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &models.ProviderError{
			Provider:   a.Name(),
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("%s", truncate(string(body), 200)),
		}
	}

	var parsed azureResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &models.ProviderError{Provider: a.Name(), Cause: fmt.Errorf("parse response: %w", err)}
	}
	if parsed.Error != nil {
		return "", &models.ProviderError{Provider: a.Name(), Cause: fmt.Errorf("%s: %s", parsed.Error.Code, parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return "", &models.ProviderError{Provider: a.Name(), Cause: fmt.Errorf("empty response")}
	}
	return parsed.Choices[0].Message.Content, nil
}
