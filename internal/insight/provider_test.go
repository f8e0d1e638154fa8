package insight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loadscribe/loadscribe/internal/config"
	"github.com/loadscribe/loadscribe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name      string
	available bool
	text      string
	err       error
	calls     int
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return s.available }
func (s *stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.text, s.err
}

var analysisOps = []models.Operation{
	{Name: "listUsers", Method: "GET", Path: "/users"},
	{Name: "createOrder", Method: "POST", Path: "/orders",
		RequestBody: &models.RequestBody{Literal: "{}"}},
}

func TestManagerAnalyzePrimarySuccess(t *testing.T) {
	primary := &stubProvider{name: "primary", available: true,
		text: `{"groups": [{"name": "All", "pattern": "/"}]}`}
	secondary := &stubProvider{name: "secondary", available: true}

	got := NewManagerWithProviders(primary, secondary, nil).Analyze(context.Background(), analysisOps)

	assert.Equal(t, "primary", got.Source)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, secondary.calls, "secondary must not be called when primary succeeds")
}

func TestManagerAnalyzeSecondaryAfterPrimaryFailure(t *testing.T) {
	primary := &stubProvider{name: "primary", available: true, err: errors.New("quota exceeded")}
	secondary := &stubProvider{name: "secondary", available: true,
		text: `{"correlations": [{"name": "token", "expression": "$.token"}]}`}

	got := NewManagerWithProviders(primary, secondary, nil).Analyze(context.Background(), analysisOps)

	assert.Equal(t, "secondary", got.Source)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestManagerAnalyzeFallback(t *testing.T) {
	t.Run("both providers fail", func(t *testing.T) {
		primary := &stubProvider{name: "primary", available: true, err: errors.New("down")}
		secondary := &stubProvider{name: "secondary", available: true, err: errors.New("also down")}

		got := NewManagerWithProviders(primary, secondary, nil).Analyze(context.Background(), analysisOps)
		assert.Equal(t, models.InsightSourceFallback, got.Source)
		assert.NotEmpty(t, got.Groups)
	})

	t.Run("no provider configured", func(t *testing.T) {
		got := NewManagerWithProviders(nil, nil, nil).Analyze(context.Background(), analysisOps)
		assert.Equal(t, models.InsightSourceFallback, got.Source)
	})

	t.Run("unavailable providers skipped", func(t *testing.T) {
		primary := &stubProvider{name: "primary", available: false, text: "{}"}
		got := NewManagerWithProviders(primary, nil, nil).Analyze(context.Background(), analysisOps)
		assert.Equal(t, models.InsightSourceFallback, got.Source)
		assert.Zero(t, primary.calls)
	})

	t.Run("unparsable response", func(t *testing.T) {
		primary := &stubProvider{name: "primary", available: true, text: "sorry, no JSON today"}
		got := NewManagerWithProviders(primary, nil, nil).Analyze(context.Background(), analysisOps)
		assert.Equal(t, models.InsightSourceFallback, got.Source)
	})
}

func TestProviderByName(t *testing.T) {
	cfg := &config.Config{
		GoogleAPIKey:    "g-key",
		AzureAPIKey:     "a-key",
		AzureEndpoint:   "https://example.openai.azure.com",
		AzureDeployment: "gpt-4o",
	}

	t.Run("google", func(t *testing.T) {
		p := ProviderByName("google", cfg)
		require.NotNil(t, p)
		assert.IsType(t, &GoogleProvider{}, p)
	})

	t.Run("azure", func(t *testing.T) {
		p := ProviderByName("azure", cfg)
		require.NotNil(t, p)
		assert.IsType(t, &AzureProvider{}, p)
	})

	t.Run("unknown resolves to nil", func(t *testing.T) {
		assert.Nil(t, ProviderByName("openai", cfg))
		assert.Nil(t, ProviderByName("", cfg))
	})
}

func TestFirstAvailableProvider(t *testing.T) {
	t.Run("primary wins when configured", func(t *testing.T) {
		cfg := &config.Config{
			PrimaryProvider:   "google",
			SecondaryProvider: "azure",
			GoogleAPIKey:      "g-key",
			AzureAPIKey:       "a-key",
			AzureEndpoint:     "https://example.openai.azure.com",
			AzureDeployment:   "gpt-4o",
		}
		p := FirstAvailableProvider(cfg)
		require.NotNil(t, p)
		assert.Equal(t, "google", p.Name())
	})

	t.Run("falls through to the secondary", func(t *testing.T) {
		cfg := &config.Config{
			PrimaryProvider:   "google",
			SecondaryProvider: "azure",
			AzureAPIKey:       "a-key",
			AzureEndpoint:     "https://example.openai.azure.com",
			AzureDeployment:   "gpt-4o",
		}
		p := FirstAvailableProvider(cfg)
		require.NotNil(t, p)
		assert.Equal(t, "azure", p.Name())
	})

	t.Run("azure-only primary", func(t *testing.T) {
		cfg := &config.Config{
			PrimaryProvider: "azure",
			AzureAPIKey:     "a-key",
			AzureEndpoint:   "https://example.openai.azure.com",
			AzureDeployment: "gpt-4o",
		}
		p := FirstAvailableProvider(cfg)
		require.NotNil(t, p)
		assert.Equal(t, "azure", p.Name())
	})

	t.Run("nothing configured", func(t *testing.T) {
		assert.Nil(t, FirstAvailableProvider(&config.Config{PrimaryProvider: "google"}))
	})
}

func TestBuildAnalysisPrompt(t *testing.T) {
	prompt := BuildAnalysisPrompt(analysisOps)
	assert.Contains(t, prompt, "2 HTTP operations")
	assert.Contains(t, prompt, "GET /users")
	assert.Contains(t, prompt, "POST /orders")
	assert.Contains(t, prompt, `"correlations"`)
}

func TestBuildAnalysisPromptTruncatesLongWorkloads(t *testing.T) {
	ops := make([]models.Operation, maxPromptOperations+10)
	for i := range ops {
		ops[i] = models.Operation{Method: "GET", Path: "/x"}
	}
	prompt := BuildAnalysisPrompt(ops)
	assert.Contains(t, prompt, "... and 10 more")
}

func TestGoogleProviderGenerate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Contains(t, r.URL.Path, "/models/test-model:generateContent")
			assert.Equal(t, "secret", r.URL.Query().Get("key"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "analysis text"}]}}]}`))
		}))
		defer srv.Close()

		p := NewGoogleProvider("secret", srv.URL, "test-model")
		require.True(t, p.Available())

		text, err := p.Generate(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, "analysis text", text)
	})

	t.Run("http error carries the status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		p := NewGoogleProvider("secret", srv.URL, "test-model")
		_, err := p.Generate(context.Background(), "prompt")

		var perr *models.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "google", perr.Provider)
		assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	})

	t.Run("api error in a 200 body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "key revoked"}}`))
		}))
		defer srv.Close()

		p := NewGoogleProvider("secret", srv.URL, "test-model")
		_, err := p.Generate(context.Background(), "prompt")

		var perr *models.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, 403, perr.StatusCode)
	})

	t.Run("empty candidates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates": []}`))
		}))
		defer srv.Close()

		p := NewGoogleProvider("secret", srv.URL, "test-model")
		_, err := p.Generate(context.Background(), "prompt")

		var perr *models.ProviderError
		require.True(t, errors.As(err, &perr))
	})

	t.Run("unavailable without a key", func(t *testing.T) {
		assert.False(t, NewGoogleProvider("", "http://x", "m").Available())
	})
}

func TestAzureProviderGenerate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "secret", r.Header.Get("api-key"))
			assert.Contains(t, r.URL.Path, "/openai/deployments/gpt-test/chat/completions")
			assert.Equal(t, "2024-02-15-preview", r.URL.Query().Get("api-version"))
			_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "done"}}]}`))
		}))
		defer srv.Close()

		p := NewAzureProvider("secret", srv.URL, "gpt-test", "2024-02-15-preview")
		require.True(t, p.Available())

		text, err := p.Generate(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, "done", text)
	})

	t.Run("unavailable without endpoint", func(t *testing.T) {
		assert.False(t, NewAzureProvider("secret", "", "d", "v").Available())
	})
}
