package report

import (
	"context"
	"fmt"

	"github.com/loadscribe/loadscribe/internal/insight"
	"go.uber.org/zap"
)

// Storage is what the service needs from a report store.
type Storage interface {
	Create(ctx context.Context, r *Report) error
	Get(ctx context.Context, userID, id string) (*Report, error)
	List(ctx context.Context, userID string) ([]*Report, error)
	Delete(ctx context.Context, userID, id string) error
}

// TextGenerator is the narrow slice of the insight provider the service uses.
type TextGenerator interface {
	Name() string
	Available() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service writes narrative reports from performance-run data and persists
// them scoped to the requesting user.
type Service struct {
	store     Storage
	generator TextGenerator
	logger    *zap.Logger
}

// NewService creates a report service. The generator may be nil; creation
// then stores the raw input with a pending status.
func NewService(store Storage, generator TextGenerator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, generator: generator, logger: logger}
}

// CreateRequest is one narrative-report job.
type CreateRequest struct {
	UserID    string
	ProjectID string
	Name      string
	CSVData   string
	TestCases string
	Files     []FileMeta
}

// Create builds the narrative via the configured provider and stores the
// result. Provider failure stores the report in failed status rather than
// losing the submission.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Report, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("report name is required")
	}

	r := &Report{
		UserID:    req.UserID,
		ProjectID: req.ProjectID,
		Name:      req.Name,
		Files:     req.Files,
		Status:    "completed",
	}

	if s.generator != nil && s.generator.Available() {
		prompt := insight.BuildReportPrompt(req.Name, req.CSVData, req.TestCases)
		content, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			s.logger.Warn("narrative generation failed, storing submission as failed",
				zap.String("report", req.Name), zap.Error(err))
			r.Status = "failed"
			r.Content = req.CSVData
		} else {
			r.Content = content
			r.Provider = s.generator.Name()
		}
	} else {
		r.Status = "pending"
		r.Content = req.CSVData
	}

	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns one of the user's reports.
func (s *Service) Get(ctx context.Context, userID, id string) (*Report, error) {
	return s.store.Get(ctx, userID, id)
}

// List returns the user's reports.
func (s *Service) List(ctx context.Context, userID string) ([]*Report, error) {
	return s.store.List(ctx, userID)
}

// Delete removes one of the user's reports.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.store.Delete(ctx, userID, id)
}
