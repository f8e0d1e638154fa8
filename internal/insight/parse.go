package insight

import (
	"strings"

	"github.com/loadscribe/loadscribe/internal/models"
	"github.com/tidwall/gjson"
)

// ParseInsight tolerantly extracts an AIInsight from free-form provider
// output: the first {...} span is tried before the full text, so surrounding
// prose and fenced code blocks do not matter. Returns nil when no usable
// structure is found; the caller decides the fallback policy.
func ParseInsight(text string) *models.AIInsight {
	for _, candidate := range jsonCandidates(text) {
		if insight := parseInsightJSON(candidate); insight != nil {
			return insight
		}
	}
	return nil
}

func jsonCandidates(text string) []string {
	var candidates []string
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}
	candidates = append(candidates, text)
	return candidates
}

func parseInsightJSON(text string) *models.AIInsight {
	if !gjson.Valid(text) {
		return nil
	}
	root := gjson.Parse(text)

	insight := &models.AIInsight{}
	found := false

	if groups := first(root, "groups", "recommendedGroups"); groups.IsArray() {
		for _, g := range groups.Array() {
			rec := models.RecommendedGroup{
				Name:          g.Get("name").String(),
				Pattern:       g.Get("pattern").String(),
				ThreadCount:   int(first(g, "threadCount", "threads").Int()),
				RampUpSeconds: int(first(g, "rampUpSeconds", "rampUp").Int()),
			}
			for _, p := range g.Get("paths").Array() {
				rec.Paths = append(rec.Paths, p.String())
			}
			if rec.Name != "" {
				insight.Groups = append(insight.Groups, rec)
				found = true
			}
		}
	}

	if fields := first(root, "correlations", "correlationFields"); fields.IsArray() {
		for _, f := range fields.Array() {
			field := models.CorrelationField{
				Name:       f.Get("name").String(),
				Expression: first(f, "expression", "jsonPath", "path").String(),
				Source:     f.Get("source").String(),
			}
			if field.Source != models.CorrelationFromHeader {
				field.Source = models.CorrelationFromBody
			}
			if field.Name != "" && field.Expression != "" {
				insight.Correlations = append(insight.Correlations, field)
				found = true
			}
		}
	}

	if fields := first(root, "parameterizations", "parameterizationFields"); fields.IsArray() {
		for _, f := range fields.Array() {
			field := models.ParameterizationField{
				Name:        f.Get("name").String(),
				Description: f.Get("description").String(),
				Strategy:    f.Get("strategy").String(),
			}
			for _, s := range first(f, "samples", "sampleValues").Array() {
				field.Samples = append(field.Samples, s.String())
			}
			if field.Name != "" {
				insight.Parameterizations = append(insight.Parameterizations, field)
				found = true
			}
		}
	}

	if rules := root.Get("assertions"); rules.IsArray() {
		for _, r := range rules.Array() {
			rule := models.AssertionRule{
				Type:          r.Get("type").String(),
				MaxDurationMS: int(first(r, "maxDurationMs", "maxDuration").Int()),
			}
			for _, c := range r.Get("statusCodes").Array() {
				rule.StatusCodes = append(rule.StatusCodes, int(c.Int()))
			}
			if rule.Type != "" {
				insight.Assertions = append(insight.Assertions, rule)
				found = true
			}
		}
	}

	if scenarios := first(root, "scenarios", "loadScenarios"); scenarios.IsArray() {
		for _, s := range scenarios.Array() {
			scenario := models.LoadScenario{
				Name:            s.Get("name").String(),
				ThreadCount:     int(first(s, "threadCount", "threads").Int()),
				RampUpSeconds:   int(first(s, "rampUpSeconds", "rampUp").Int()),
				DurationSeconds: int(first(s, "durationSeconds", "duration").Int()),
			}
			if scenario.Name != "" {
				insight.Scenarios = append(insight.Scenarios, scenario)
				found = true
			}
		}
	}

	if !found {
		return nil
	}
	return insight
}

func first(v gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if r := v.Get(key); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}
