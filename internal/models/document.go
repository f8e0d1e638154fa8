package models

// DocumentSummary aggregates what the parser observed across all operations.
type DocumentSummary struct {
	OperationCount int      `json:"operationCount"`
	Domains        []string `json:"domains"`
	Methods        []string `json:"methods"`
	AvgLatencyMS   float64  `json:"avgLatencyMs,omitempty"`
}

// GeneratedDocument is the finished test plan plus the analysis that produced
// it. Immutable once returned.
type GeneratedDocument struct {
	XML     string          `json:"xml"`
	Summary DocumentSummary `json:"summary"`
	Insight AIInsight       `json:"insight"`
}
