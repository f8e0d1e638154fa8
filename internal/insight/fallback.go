package insight

import "github.com/loadscribe/loadscribe/internal/models"

// DefaultInsight is the fixed fallback analysis used whenever AI output is
// absent, malformed, or both provider attempts fail: one default group over
// all operations, generic session/token correlations, one generic scenario,
// and a common-success-codes assertion. Callers can always proceed on it.
// The group carries no load parameters; the caller's LoadProfile always
// applies unchanged under the fallback.
func DefaultInsight() models.AIInsight {
	return models.AIInsight{
		Source: models.InsightSourceFallback,
		Groups: []models.RecommendedGroup{
			{Name: "Default", Pattern: "/"},
		},
		Correlations: []models.CorrelationField{
			{Name: "sessionId", Expression: "$.sessionId", Source: models.CorrelationFromBody},
			{Name: "authToken", Expression: "$.token", Source: models.CorrelationFromBody},
		},
		Parameterizations: []models.ParameterizationField{
			{
				Name:        "userId",
				Description: "Vary the acting user across virtual users",
				Samples:     []string{"user1", "user2", "user3"},
				Strategy:    models.StrategyExternalFile,
			},
		},
		Assertions: []models.AssertionRule{
			{Type: models.AssertionStatusCodes, StatusCodes: []int{200, 201, 202, 204}},
		},
		Scenarios: []models.LoadScenario{
			{Name: "Baseline load", ThreadCount: 10, RampUpSeconds: 30, DurationSeconds: 300},
		},
	}
}
