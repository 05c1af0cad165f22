package httpadapter

import (
	"errors"
	"net/http"

	"github.com/propertyiq/taxbill-ocr/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrDecode):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure renders a pipeline error as the {stage, reason} descriptor.
func writeFailure(w http.ResponseWriter, err error) {
	stage := ""
	reason := err.Error()

	var se *domain.StageError
	if errors.As(err, &se) {
		stage = string(se.Stage)
		reason = se.Err.Error()
	}
	writeJSON(w, mapErrorToHTTPStatus(err), failureResponse{Stage: stage, Reason: reason})
}
