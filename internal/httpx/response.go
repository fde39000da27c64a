package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
)

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteMessage(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	WriteJSON(w, logger, status, map[string]string{"error": message})
}

type errorBody struct {
	Error   string             `json:"error"`
	Details []domain.CropIssue `json:"details,omitempty"`
}

// StatusFor maps an error's kind to the HTTP status class callers see.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindEmptyCart, domain.KindConflict:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err with its mapped status. Store failures are logged
// with the supplied attributes and answered with a generic message.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, attrs ...any) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", append([]any{"error", err}, attrs...)...)
	} else {
		logger.Info("request rejected", append([]any{"reason", err.Error(), "status", status}, attrs...)...)
	}

	body := errorBody{Error: domain.PublicMessage(err)}
	var cv *domain.CropValidationError
	if errors.As(err, &cv) {
		body.Details = cv.Issues
	}
	WriteJSON(w, logger, status, body)
}
