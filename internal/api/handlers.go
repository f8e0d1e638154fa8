package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/loadscribe/loadscribe/internal/capture"
	"github.com/loadscribe/loadscribe/internal/generator"
	"github.com/loadscribe/loadscribe/internal/grouping"
	"github.com/loadscribe/loadscribe/internal/jmx"
	"github.com/loadscribe/loadscribe/internal/models"
	"github.com/loadscribe/loadscribe/internal/report"
	"go.uber.org/zap"
)

// maxRequestBody bounds uploaded captures and contracts.
const maxRequestBody = 32 << 20

type generateRequest struct {
	Content  string             `json:"content"`
	Title    string             `json:"title"`
	Comment  string             `json:"comment,omitempty"`
	Strategy string             `json:"strategy,omitempty"`
	BaseURL  string             `json:"baseUrl,omitempty"`
	UseAI    bool               `json:"useAi,omitempty"`
	Profile  models.LoadProfile `json:"profile"`
	Flags    struct {
		Assertions            bool `json:"assertions"`
		CorrelationExtractors bool `json:"correlationExtractors"`
		ExternalDataSource    bool `json:"externalDataSource"`
	} `json:"flags"`
}

func (s *Server) handleGenerateJMeter(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	strategy, err := grouping.ParseStrategy(req.Strategy)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error(), 0)
		return
	}
	profile := req.Profile
	if profile.ThreadCount == 0 {
		profile = models.DefaultLoadProfile()
	}

	doc, err := s.generator.Generate(r.Context(), generator.Request{
		Content:  []byte(req.Content),
		Title:    req.Title,
		Comment:  req.Comment,
		Strategy: strategy,
		Profile:  profile,
		Flags: jmx.Flags{
			IncludeAssertions:            req.Flags.Assertions,
			IncludeCorrelationExtractors: req.Flags.CorrelationExtractors,
			IncludeExternalDataSource:    req.Flags.ExternalDataSource,
		},
		UseAI:        req.UseAI,
		BaseURL:      req.BaseURL,
		ParseOptions: capture.Options{IncludeHeadOptions: s.config.IncludeHeadOptions},
	})
	if err != nil {
		s.respondGenerateError(w, err)
		return
	}
	s.respond(w, http.StatusOK, doc)
}

type repairRequest struct {
	Document string `json:"document"`
	Content  string `json:"content,omitempty"`
	Flags    struct {
		ExternalDataSource bool `json:"externalDataSource"`
	} `json:"flags"`
}

func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	var req repairRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Document == "" {
		s.respondError(w, http.StatusBadRequest, "document is required", 0)
		return
	}
	repaired := s.generator.Repair(req.Document, []byte(req.Content),
		jmx.Flags{IncludeExternalDataSource: req.Flags.ExternalDataSource},
		capture.Options{IncludeHeadOptions: s.config.IncludeHeadOptions})
	s.respond(w, http.StatusOK, map[string]string{"document": repaired})
}

type insightRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	var req insightRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	parsed, err := capture.Parse([]byte(req.Content), capture.Options{IncludeHeadOptions: s.config.IncludeHeadOptions})
	if err != nil {
		s.respondGenerateError(w, err)
		return
	}
	ai := s.generator.Analyze(r.Context(), parsed.Operations)
	s.respond(w, http.StatusOK, map[string]interface{}{
		"insight": ai,
		"summary": capture.Summarize(parsed),
	})
}

type createReportRequest struct {
	ProjectID string            `json:"projectId"`
	Name      string            `json:"name"`
	CSVData   string            `json:"csvData,omitempty"`
	TestCases string            `json:"testCases,omitempty"`
	Files     []report.FileMeta `json:"files,omitempty"`
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		s.respondError(w, http.StatusServiceUnavailable, "report storage is not configured", 0)
		return
	}
	var req createReportRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	created, err := s.reports.Create(r.Context(), report.CreateRequest{
		UserID:    userIDFrom(r),
		ProjectID: req.ProjectID,
		Name:      req.Name,
		CSVData:   req.CSVData,
		TestCases: req.TestCases,
		Files:     req.Files,
	})
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error(), 0)
		return
	}
	s.respond(w, http.StatusCreated, created)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		s.respondError(w, http.StatusServiceUnavailable, "report storage is not configured", 0)
		return
	}
	reports, err := s.reports.List(r.Context(), userIDFrom(r))
	if err != nil {
		s.logger.Error("list reports", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "could not list reports", 0)
		return
	}
	s.respond(w, http.StatusOK, reports)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		s.respondError(w, http.StatusServiceUnavailable, "report storage is not configured", 0)
		return
	}
	got, err := s.reports.Get(r.Context(), userIDFrom(r), mux.Vars(r)["id"])
	if errors.Is(err, report.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "report not found", 0)
		return
	}
	if err != nil {
		s.logger.Error("get report", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "could not load report", 0)
		return
	}
	s.respond(w, http.StatusOK, got)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		s.respondError(w, http.StatusServiceUnavailable, "report storage is not configured", 0)
		return
	}
	err := s.reports.Delete(r.Context(), userIDFrom(r), mux.Vars(r)["id"])
	if errors.Is(err, report.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "report not found", 0)
		return
	}
	if err != nil {
		s.logger.Error("delete report", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "could not delete report", 0)
		return
	}
	s.respond(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "could not read request body", 0)
		return false
	}
	if err := json.Unmarshal(body, into); err != nil {
		s.respondError(w, http.StatusBadRequest, "request body is not valid JSON", 0)
		return false
	}
	return true
}

// respondGenerateError maps the error taxonomy onto HTTP statuses: malformed
// input and invalid profiles are client errors; provider failures carry the
// provider-reported status when known.
func (s *Server) respondGenerateError(w http.ResponseWriter, err error) {
	var malformed *models.MalformedInputError
	var serialization *models.SerializationError
	var provider *models.ProviderError

	switch {
	case errors.As(err, &malformed):
		s.respondError(w, http.StatusUnprocessableEntity, malformed.Error(), 0)
	case errors.As(err, &serialization):
		s.respondError(w, http.StatusBadRequest, serialization.Error(), 0)
	case errors.As(err, &provider):
		s.respondError(w, http.StatusBadGateway, provider.Error(), provider.StatusCode)
	default:
		s.logger.Error("generation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "generation failed", 0)
	}
}
