package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/wefixit/internal/convert"
	"github.com/and161185/wefixit/internal/errs"
)

// Response messages kept compatible with existing clients.
const (
	msgInternal         = "Internal server error"
	msgBadLogin         = "Incorrect username or password"
	msgNotAuthenticated = "Not authenticated"
	msgBadCredentials   = "Could not validate credentials"
	msgAdminNotFound    = "Admin not found"
	msgValidation       = "Validation error"
	msgReviewNotFound   = "Review not found"
	msgItemNotFound     = "Item not found"
)

type detailBody struct {
	Detail string `json:"detail"`
}

type validationBody struct {
	Detail string            `json:"detail"`
	Errors []errs.FieldError `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, detailBody{Detail: detail})
}

// writeError maps service errors to HTTP responses. notFound is the resource
// specific 404 message; table renames stored field names in validation errors.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, notFound string, table convert.FieldTable) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		fields := make([]errs.FieldError, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			if wire, ok := table.WireName(f.Field); ok {
				f.Field = wire
			}
			fields = append(fields, f)
		}
		writeJSON(w, http.StatusUnprocessableEntity, validationBody{Detail: msgValidation, Errors: fields})
	case errors.Is(err, errs.ErrNotFound):
		writeDetail(w, http.StatusNotFound, notFound)
	case errors.Is(err, errs.ErrAdminNotFound):
		writeDetail(w, http.StatusUnauthorized, msgAdminNotFound)
	case errors.Is(err, errs.ErrUnauthorized):
		writeDetail(w, http.StatusUnauthorized, msgBadCredentials)
	default:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeDetail(w, http.StatusInternalServerError, msgInternal)
	}
}
