// Package generator ties the pipeline together: parse a capture or contract,
// group the operations, synthesize bodies, and serialize the test plan,
// optionally informed by AI analysis.
package generator

import (
	"context"
	"net/url"

	"github.com/loadscribe/loadscribe/internal/capture"
	"github.com/loadscribe/loadscribe/internal/grouping"
	"github.com/loadscribe/loadscribe/internal/insight"
	"github.com/loadscribe/loadscribe/internal/jmx"
	"github.com/loadscribe/loadscribe/internal/models"
	"go.uber.org/zap"
)

// Request is one generation job. Jobs share no state; callers may run them
// concurrently.
type Request struct {
	Content  []byte
	Title    string
	Comment  string
	Strategy grouping.Strategy
	Profile  models.LoadProfile
	Flags    jmx.Flags

	// UseAI enables the provider call; when false the fixed default insight
	// is used and the job never touches the network.
	UseAI bool

	// BaseURL overrides the base URL detected from the input document.
	BaseURL string

	ParseOptions capture.Options
}

// Generator runs generation jobs. Safe for concurrent use.
type Generator struct {
	insights *insight.Manager
	logger   *zap.Logger
}

// New creates a generator. The insight manager may be nil when AI analysis is
// never requested.
func New(insights *insight.Manager, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{insights: insights, logger: logger}
}

// Generate runs the full pipeline and returns the finished document together
// with its summary and the insight used to produce it.
func (g *Generator) Generate(ctx context.Context, req Request) (*models.GeneratedDocument, error) {
	parsed, err := capture.Parse(req.Content, req.ParseOptions)
	if err != nil {
		return nil, err
	}
	g.logger.Info("parsed input document",
		zap.String("kind", string(parsed.Kind)),
		zap.Int("operations", len(parsed.Operations)))

	ai := g.analyze(ctx, req, parsed.Operations)
	groups := grouping.Group(parsed.Operations, req.Strategy, &ai)

	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = parsed.BaseURL
	}
	protocol, host, port := SplitBaseURL(baseURL)

	xml, err := jmx.Serialize(groups, req.Profile, jmx.Options{
		Title:    req.Title,
		Comment:  req.Comment,
		Protocol: protocol,
		Host:     host,
		Port:     port,
		Flags:    req.Flags,
	}, &ai)
	if err != nil {
		return nil, err
	}

	return &models.GeneratedDocument{
		XML:     xml,
		Summary: capture.Summarize(parsed),
		Insight: ai,
	}, nil
}

func (g *Generator) analyze(ctx context.Context, req Request, ops []models.Operation) models.AIInsight {
	if req.UseAI {
		return g.Analyze(ctx, ops)
	}
	return insight.DefaultInsight()
}

// Analyze runs AI analysis over already-parsed operations, degrading to the
// fixed default when no insight manager is configured.
func (g *Generator) Analyze(ctx context.Context, ops []models.Operation) models.AIInsight {
	if g.insights == nil {
		return insight.DefaultInsight()
	}
	return g.insights.Analyze(ctx, ops)
}

// Repair post-processes an externally generated document, re-deriving the
// operation list from the original input so dropped bodies can be
// re-injected. A parse failure repairs structure only.
func (g *Generator) Repair(doc string, input []byte, flags jmx.Flags, opts capture.Options) string {
	var ops []models.Operation
	if len(input) > 0 {
		if parsed, err := capture.Parse(input, opts); err == nil {
			ops = parsed.Operations
		} else {
			g.logger.Warn("repair input did not parse, repairing structure only", zap.Error(err))
		}
	}
	return jmx.Repair(doc, flags, ops, g.logger)
}

// SplitBaseURL breaks a base URL into the protocol/host/port triple the plan
// variables carry. Missing pieces fall back to https on the scheme default
// port.
func SplitBaseURL(baseURL string) (protocol, host, port string) {
	protocol, host, port = "https", "localhost", "443"
	if baseURL == "" {
		return
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return
	}
	if u.Scheme != "" {
		protocol = u.Scheme
	}
	host = u.Hostname()
	switch {
	case u.Port() != "":
		port = u.Port()
	case protocol == "http":
		port = "80"
	default:
		port = "443"
	}
	return
}
