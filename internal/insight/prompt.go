package insight

import (
	"fmt"
	"strings"

	"github.com/loadscribe/loadscribe/internal/models"
)

// maxPromptOperations caps how many operations are listed verbatim; beyond
// that the counts speak for themselves.
const maxPromptOperations = 40

// BuildAnalysisPrompt describes the operations and the exact JSON response
// shape the parser expects.
func BuildAnalysisPrompt(ops []models.Operation) string {
	var b strings.Builder

	methods := map[string]int{}
	bodies := 0
	for _, op := range ops {
		methods[op.Method]++
		if op.RequestBody != nil {
			bodies++
		}
	}

	b.WriteString("You are a performance test engineer analyzing an API workload for load testing.\n\n")
	fmt.Fprintf(&b, "The workload has %d HTTP operations (%d with request bodies). Method counts: ", len(ops), bodies)
	for _, m := range models.SupportedMethods {
		if methods[m] > 0 {
			fmt.Fprintf(&b, "%s=%d ", m, methods[m])
		}
	}
	b.WriteString("\n\nOperations:\n")
	for i, op := range ops {
		if i >= maxPromptOperations {
			fmt.Fprintf(&b, "... and %d more\n", len(ops)-maxPromptOperations)
			break
		}
		fmt.Fprintf(&b, "- %s %s", op.Method, op.Path)
		if len(op.Tags) > 0 {
			fmt.Fprintf(&b, " (tags: %s)", strings.Join(op.Tags, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString(`
Respond with ONLY a JSON object, no prose and no markdown fences, shaped as:
{
  "groups": [{"name": "...", "pattern": "URL substring", "threadCount": 10, "rampUpSeconds": 30}],
  "correlations": [{"name": "variableName", "expression": "$.json.path", "source": "body|header"}],
  "parameterizations": [{"name": "...", "description": "...", "samples": ["..."], "strategy": "externalized-file|random|sequential"}],
  "assertions": [{"type": "status-code-set", "statusCodes": [200, 201]}, {"type": "max-duration-ms", "maxDurationMs": 3000}],
  "scenarios": [{"name": "...", "threadCount": 10, "rampUpSeconds": 30, "durationSeconds": 300}]
}

Group related operations by business flow, identify values that must be
correlated between responses and later requests (session tokens, entity ids),
and suggest realistic load parameters.`)

	return b.String()
}

// BuildReportPrompt turns performance-run CSV content and a QA test-case list
// into a narrative-report prompt. Prompt construction only; the caller sends
// it through a Provider.
func BuildReportPrompt(reportName, csvContent, testCases string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a narrative performance test report named %q.\n\n", reportName)
	b.WriteString("Summarize throughput, latency percentiles, error rates, and notable trends.\n")
	b.WriteString("Structure: executive summary, methodology, results, observations, recommendations.\n\n")
	if csvContent != "" {
		b.WriteString("Performance run data (CSV):\n")
		b.WriteString(csvContent)
		b.WriteString("\n\n")
	}
	if testCases != "" {
		b.WriteString("QA test cases executed:\n")
		b.WriteString(testCases)
		b.WriteString("\n")
	}
	return b.String()
}
