package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// errorHandlers are matched in order; the first match writes the response.
// Provider failures come before ErrProcessingFailed so a failed document
// reports its cause.
var errorHandlers = []errorHandler{
	sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, codeSessionNotFound),
	sentinelHandler(domain.ErrNotReady, http.StatusConflict, codeNotReady),
	sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, codeQuotaExceeded),
	sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, codeEmbeddingUnavailable),
	sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
	sentinelHandler(domain.ErrGeneration, http.StatusBadGateway, codeGenerationFailed),
	sentinelHandler(domain.ErrExtraction, http.StatusUnprocessableEntity, codeExtractionFailed),
	sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadGateway, codeProviderError),
	sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
	sentinelHandler(domain.ErrProcessingFailed, http.StatusUnprocessableEntity, codeProcessingFailed),
}

// safeSentinels are the errors whose text may be shown to clients, most specific first.
var safeSentinels = []error{
	domain.ErrSessionNotFound,
	domain.ErrNotReady,
	domain.ErrEmbeddingQuotaExceeded,
	domain.ErrEmbeddingUnavailable,
	domain.ErrEmbeddingProviderError,
	domain.ErrGeneration,
	domain.ErrExtraction,
	domain.ErrDimensionMismatch,
	domain.ErrEmptyIndex,
	domain.ErrEmptyInput,
	domain.ErrInvalidInput,
	domain.ErrProcessingFailed,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	for _, s := range safeSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := safeDomainMessage(err)
		var ferr *domain.FailedError
		if errors.As(err, &ferr) {
			msg = ferr.Stage + ": " + msg
		}
		writeError(w, status, code, msg)
		return true
	}
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
