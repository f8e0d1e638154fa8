// Package insight calls an external text-generation provider to produce
// advisory analysis (grouping, parameterization, correlation, assertions) for
// a set of operations, and degrades to a deterministic default whenever the
// provider is unavailable or its output is unusable.
package insight

import (
	"context"
	"errors"
	"time"

	"github.com/loadscribe/loadscribe/internal/config"
	"github.com/loadscribe/loadscribe/internal/models"
	"go.uber.org/zap"
)

// Provider is one interchangeable text-generation backend.
type Provider interface {
	Name() string
	Available() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

const defaultCallTimeout = 60 * time.Second

// Manager runs the analysis flow: build prompt, call the primary provider,
// retry once against the secondary when the primary's call itself fails, and
// fall back to the fixed default on any parse failure. It holds no state
// between calls; concurrent use is safe.
type Manager struct {
	primary   Provider
	secondary Provider
	logger    *zap.Logger
}

// NewManager wires providers from configuration. Unknown or unconfigured
// provider names resolve to nil, which the analysis flow treats as absent.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		primary:   ProviderByName(cfg.PrimaryProvider, cfg),
		secondary: ProviderByName(cfg.SecondaryProvider, cfg),
		logger:    logger,
	}
}

// NewManagerWithProviders exists for tests and callers that construct
// providers themselves.
func NewManagerWithProviders(primary, secondary Provider, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{primary: primary, secondary: secondary, logger: logger}
}

// ProviderByName builds the named provider from configuration. Unknown or
// empty names resolve to nil.
func ProviderByName(name string, cfg *config.Config) Provider {
	switch name {
	case "google":
		return NewGoogleProvider(cfg.GoogleAPIKey, cfg.GoogleEndpoint, cfg.GoogleModel)
	case "azure":
		return NewAzureProvider(cfg.AzureAPIKey, cfg.AzureEndpoint, cfg.AzureDeployment, cfg.AzureAPIVersion)
	}
	return nil
}

// FirstAvailableProvider resolves the primary, then the secondary, configured
// provider that is ready to serve calls. Nil when neither is usable.
func FirstAvailableProvider(cfg *config.Config) Provider {
	for _, name := range []string{cfg.PrimaryProvider, cfg.SecondaryProvider} {
		if p := ProviderByName(name, cfg); p != nil && p.Available() {
			return p
		}
	}
	return nil
}

// Analyze returns advisory insight for the operations. It never fails: when
// both provider attempts are exhausted or the response is unparsable, the
// fixed fallback insight is returned with Source set to "fallback".
func (m *Manager) Analyze(ctx context.Context, ops []models.Operation) models.AIInsight {
	prompt := BuildAnalysisPrompt(ops)

	text, providerName, err := m.generate(ctx, prompt)
	if err != nil {
		m.logger.Warn("insight provider chain failed, using fixed fallback", zap.Error(err))
		return DefaultInsight()
	}

	parsed := ParseInsight(text)
	if parsed == nil {
		m.logger.Warn("insight response was unparsable, using fixed fallback",
			zap.String("provider", providerName))
		return DefaultInsight()
	}
	parsed.Source = providerName
	return *parsed
}

// generate tries the primary provider, then the secondary once when the
// primary's call itself failed.
func (m *Manager) generate(ctx context.Context, prompt string) (string, string, error) {
	var errs []error
	for _, p := range []Provider{m.primary, m.secondary} {
		if p == nil || !p.Available() {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
		text, err := p.Generate(callCtx, prompt)
		cancel()
		if err == nil {
			return text, p.Name(), nil
		}
		m.logger.Warn("insight provider call failed",
			zap.String("provider", p.Name()), zap.Error(err))
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no insight provider configured"))
	}
	return "", "", errors.Join(errs...)
}
