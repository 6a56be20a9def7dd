// Package chi serves the docqa HTTP API on a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	domusage "github.com/kailas-cloud/docqa/internal/domain/usage"
	"github.com/kailas-cloud/docqa/internal/extract"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	"github.com/kailas-cloud/docqa/internal/usecase/session"
	usageuc "github.com/kailas-cloud/docqa/internal/usecase/usage"
)

const (
	maxQueryBytes         = 64 << 10
	embeddingTokensHeader = "X-Embedding-Tokens"
)

// Server holds the HTTP handlers.
type Server struct {
	sessions  *session.Registry
	extractor *extract.Extractor
	usage     *usageuc.Service
	health    *healthuc.Service
	maxUpload int64
}

// NewServer creates an HTTP API server. maxUpload bounds document request bodies.
func NewServer(
	sessions *session.Registry,
	extractor *extract.Extractor,
	usage *usageuc.Service,
	health *healthuc.Service,
	maxUpload int64,
) *Server {
	if maxUpload <= 0 {
		maxUpload = extract.DefaultMaxBytes
	}
	return &Server{
		sessions:  sessions,
		extractor: extractor,
		usage:     usage,
		health:    health,
		maxUpload: maxUpload,
	}
}

// CreateSession handles POST /v1/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, sessionToResponse(sess))
}

// GetSession handles GET /v1/sessions/{session}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "session"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// DeleteSession handles DELETE /v1/sessions/{session}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "session")); err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutDocument handles PUT /v1/sessions/{session}/document.
// The body is either the raw text or a multipart form with a "file" part.
// Processing is synchronous; the response carries the resulting status.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	sess, r, err := s.session(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	name, text, err := s.readDocument(r)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, codeValidationFailed,
				fmt.Sprintf("document exceeds %d bytes", mbe.Limit))
			return
		}
		handleDomainError(w, r, err)
		return
	}

	doc, err := domain.NewDocument(uuid.NewString(), name, text)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	logpkg.FromContext(r.Context()).Debug("Document received",
		zap.String("document_id", doc.ID()),
		zap.String("name", name),
		zap.Int("runes", doc.Len()),
	)

	ctx, usage := domain.NewContextWithUsage(r.Context())
	err = sess.Controller.ProcessDocument(ctx, doc)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// QuerySession handles POST /v1/sessions/{session}/query.
func (s *Server) QuerySession(w http.ResponseWriter, r *http.Request) {
	sess, r, err := s.session(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxQueryBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}
	topK := 0
	if req.TopK != nil {
		if *req.TopK <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must be positive")
			return
		}
		topK = *req.TopK
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := sess.Controller.AnswerQuery(ctx, req.Query, topK)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, queryToResponse(resp, usage.TotalTokens()))
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "period must be \"day\" or \"month\"")
		return
	}
	writeJSON(w, http.StatusOK, usageToResponse(s.usage.GetReport(r.Context(), period)))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// session resolves the session in the path and tags the request logger with its ID.
func (s *Server) session(r *http.Request) (*session.Session, *http.Request, error) {
	sess, err := s.sessions.Get(chi.URLParam(r, "session"))
	if err != nil {
		return nil, r, err
	}
	ctx := logpkg.With(r.Context(), zap.String("session_id", sess.ID))
	return sess, r.WithContext(ctx), nil
}

// readDocument returns the file name and extracted text of an upload.
func (s *Server) readDocument(r *http.Request) (string, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		name := r.URL.Query().Get("name")
		text, err := s.extractor.Extract(r.Body, name)
		return name, text, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return "", "", err
		}
		return "", "", fmt.Errorf("multipart upload needs a \"file\" part: %w", domain.ErrInvalidInput)
	}
	defer func() { _ = file.Close() }()

	text, err := s.extractor.Extract(file, header.Filename)
	return header.Filename, text, err
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set(embeddingTokensHeader, strconv.Itoa(usage.TotalTokens()))
	}
}
