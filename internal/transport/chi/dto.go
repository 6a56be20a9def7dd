package chi

import (
	"time"

	"github.com/kailas-cloud/docqa/internal/domain/search/result"
	domusage "github.com/kailas-cloud/docqa/internal/domain/usage"
	"github.com/kailas-cloud/docqa/internal/usecase/pipeline"
	"github.com/kailas-cloud/docqa/internal/usecase/session"
)

type errorCode string

const (
	codeBadRequest           errorCode = "bad_request"
	codeUnauthorized         errorCode = "unauthorized"
	codeNotFound             errorCode = "not_found"
	codeSessionNotFound      errorCode = "session_not_found"
	codeMethodNotAllowed     errorCode = "method_not_allowed"
	codeValidationFailed     errorCode = "validation_failed"
	codeExtractionFailed     errorCode = "extraction_failed"
	codeNotReady             errorCode = "not_ready"
	codeQuotaExceeded        errorCode = "embedding_quota_exceeded"
	codeEmbeddingUnavailable errorCode = "embedding_unavailable"
	codeProviderError        errorCode = "embedding_provider_error"
	codeGenerationFailed     errorCode = "generation_failed"
	codeProcessingFailed     errorCode = "processing_failed"
	codeInternalError        errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type sessionResponse struct {
	ID         string     `json:"id"`
	State      string     `json:"state"`
	Reason     string     `json:"reason,omitempty"`
	DocumentID string     `json:"document_id,omitempty"`
	Segments   int        `json:"segments"`
	IndexedAt  *time.Time `json:"indexed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

type sourceItem struct {
	SegmentID string  `json:"segment_id"`
	Seq       int     `json:"seq"`
	Offset    int     `json:"offset"`
	Length    int     `json:"length"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"`
}

type tokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	EmbeddingTokens  int `json:"embedding_tokens"`
}

type queryResponse struct {
	Answer  string       `json:"answer"`
	Model   string       `json:"model,omitempty"`
	Sources []sourceItem `json:"sources"`
	Usage   tokenUsage   `json:"usage"`
}

type budgetUsageResponse struct {
	Period          string    `json:"period"`
	PeriodStartAt   time.Time `json:"period_start_at"`
	PeriodEndAt     time.Time `json:"period_end_at"`
	TokensUsed      int64     `json:"tokens_used"`
	TokensLimit     int64     `json:"tokens_limit"`
	TokensRemaining int64     `json:"tokens_remaining"`
	IsExhausted     bool      `json:"is_exhausted"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func sessionToResponse(s *session.Session) sessionResponse {
	st := s.Controller.Status()
	resp := sessionResponse{
		ID:         s.ID,
		State:      st.State.String(),
		Reason:     st.Reason,
		DocumentID: st.DocumentID,
		Segments:   st.Segments,
		CreatedAt:  s.CreatedAt.UTC(),
	}
	if !st.IndexedAt.IsZero() {
		t := st.IndexedAt.UTC()
		resp.IndexedAt = &t
	}
	return resp
}

func queryToResponse(resp pipeline.Response, embeddingTokens int) queryResponse {
	sources := make([]sourceItem, len(resp.Hits))
	for i := range resp.Hits {
		sources[i] = sourceToItem(&resp.Hits[i])
	}
	return queryResponse{
		Answer:  resp.Answer.Text,
		Model:   resp.Answer.Model,
		Sources: sources,
		Usage: tokenUsage{
			PromptTokens:     resp.Answer.PromptTokens,
			CompletionTokens: resp.Answer.CompletionTokens,
			EmbeddingTokens:  embeddingTokens,
		},
	}
}

func sourceToItem(r *result.Result) sourceItem {
	seg := r.Segment()
	return sourceItem{
		SegmentID: seg.ID(),
		Seq:       seg.Seq(),
		Offset:    seg.Offset(),
		Length:    seg.Length(),
		Text:      seg.Text(),
		Score:     r.Score(),
		Rank:      r.Rank(),
	}
}

func usageToResponse(r domusage.Report) budgetUsageResponse {
	return budgetUsageResponse{
		Period:          string(r.Period()),
		PeriodStartAt:   r.Start(),
		PeriodEndAt:     r.End(),
		TokensUsed:      r.TokensUsed(),
		TokensLimit:     r.TokensLimit(),
		TokensRemaining: r.TokensRemaining(),
		IsExhausted:     r.Exhausted(),
	}
}
