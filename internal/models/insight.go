package models

import "strings"

// Source recorded on an AIInsight so callers can tell live analysis from the
// deterministic fallback.
const InsightSourceFallback = "fallback"

// Correlation sources.
const (
	CorrelationFromBody   = "body"
	CorrelationFromHeader = "header"
)

// Parameterization strategies.
const (
	StrategyExternalFile = "externalized-file"
	StrategyRandom       = "random"
	StrategySequential   = "sequential"
)

// Assertion types.
const (
	AssertionStatusCodes = "status-code-set"
	AssertionMaxDuration = "max-duration-ms"
)

// RecommendedGroup is an AI-proposed grouping of operations, matched either by
// a URL substring/pattern or by an explicit path list.
type RecommendedGroup struct {
	Name          string   `json:"name"`
	Pattern       string   `json:"pattern,omitempty"`
	Paths         []string `json:"paths,omitempty"`
	ThreadCount   int      `json:"threadCount,omitempty"`
	RampUpSeconds int      `json:"rampUpSeconds,omitempty"`
}

// CorrelationField names a value captured from one response for reuse as a
// variable in later requests.
type CorrelationField struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Source     string `json:"source"` // body or header
}

// ParameterizationField describes a value worth externalizing into test data.
type ParameterizationField struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Samples     []string `json:"samples,omitempty"`
	Strategy    string   `json:"strategy,omitempty"`
}

// AssertionRule is a recommended response check.
type AssertionRule struct {
	Type          string `json:"type"`
	StatusCodes   []int  `json:"statusCodes,omitempty"`
	MaxDurationMS int    `json:"maxDurationMs,omitempty"`
}

// LoadScenario is a recommended execution shape.
type LoadScenario struct {
	Name            string `json:"name"`
	ThreadCount     int    `json:"threadCount"`
	RampUpSeconds   int    `json:"rampUpSeconds"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

// AIInsight is the advisory analysis produced by the insight adapter. Every
// field is optional; the generator must work with a zero value.
type AIInsight struct {
	Source            string                  `json:"source"`
	Groups            []RecommendedGroup      `json:"groups,omitempty"`
	Correlations      []CorrelationField      `json:"correlations,omitempty"`
	Parameterizations []ParameterizationField `json:"parameterizations,omitempty"`
	Assertions        []AssertionRule         `json:"assertions,omitempty"`
	Scenarios         []LoadScenario          `json:"scenarios,omitempty"`
}

// GroupOverride returns the recommended group whose name matches (case folded)
// the given group name, or nil.
func (ai *AIInsight) GroupOverride(name string) *RecommendedGroup {
	if ai == nil {
		return nil
	}
	for i := range ai.Groups {
		if strings.EqualFold(ai.Groups[i].Name, name) {
			return &ai.Groups[i]
		}
	}
	return nil
}

// MaxDurationMS returns the first recommended duration threshold, or def.
func (ai *AIInsight) MaxDurationMS(def int) int {
	if ai == nil {
		return def
	}
	for _, a := range ai.Assertions {
		if a.Type == AssertionMaxDuration && a.MaxDurationMS > 0 {
			return a.MaxDurationMS
		}
	}
	return def
}
