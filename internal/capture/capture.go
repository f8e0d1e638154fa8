// Package capture normalizes HTTP traffic captures (HAR) and API contracts
// (OpenAPI/Swagger) into a flat ordered operation list.
package capture

import (
	"github.com/loadscribe/loadscribe/internal/models"
	"gopkg.in/yaml.v3"
)

// Kind identifies which input shape a document matched.
type Kind string

const (
	KindHAR     Kind = "har"
	KindOpenAPI Kind = "openapi"
)

// Options controls contract parsing.
type Options struct {
	// IncludeHeadOptions also extracts HEAD and OPTIONS operations from
	// contract documents. Captures always keep every recorded method.
	IncludeHeadOptions bool
}

// Result is the uniform output of both parsers.
type Result struct {
	Kind         Kind
	Operations   []models.Operation
	BaseURL      string
	AvgLatencyMS float64
}

// Parse sniffs the document shape and dispatches to the matching parser.
// A document with neither log.entries nor paths is malformed.
func Parse(data []byte, opts Options) (*Result, error) {
	var probe struct {
		Log *struct {
			Entries []yaml.Node `yaml:"entries"`
		} `yaml:"log"`
		Paths yaml.Node `yaml:"paths"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, &models.MalformedInputError{Source: "unknown", Reason: "document is neither valid JSON nor YAML", Cause: err}
	}
	switch {
	case probe.Log != nil && probe.Log.Entries != nil:
		return ParseHAR(data)
	case probe.Paths.Kind != 0:
		return ParseOpenAPI(data, opts)
	}
	return nil, &models.MalformedInputError{Source: "unknown", Reason: "document has neither log.entries nor paths"}
}

// Summarize aggregates distinct domains and methods (first-seen order) and the
// average observed latency across the parsed operations.
func Summarize(r *Result) models.DocumentSummary {
	summary := models.DocumentSummary{
		OperationCount: len(r.Operations),
		AvgLatencyMS:   r.AvgLatencyMS,
	}
	seenDomain := map[string]bool{}
	seenMethod := map[string]bool{}
	for _, op := range r.Operations {
		if op.Host != "" && !seenDomain[op.Host] {
			seenDomain[op.Host] = true
			summary.Domains = append(summary.Domains, op.Host)
		}
		if !seenMethod[op.Method] {
			seenMethod[op.Method] = true
			summary.Methods = append(summary.Methods, op.Method)
		}
	}
	return summary
}
