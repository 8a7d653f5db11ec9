package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

func respondWithError(w http.ResponseWriter, code int, message, details string) {
	respondWithJSON(w, code, GenericErrorResponse{Error: message, Details: details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// validationDetails flattens validator errors into field:rule pairs.
func validationDetails(err error) []domain.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]domain.FieldError, len(verrs))
	for i, fe := range verrs {
		out[i] = domain.FieldError{Field: fe.Field(), Rule: fe.Tag()}
	}
	return out
}

// respondWithDomainError maps pipeline errors to status codes.
func respondWithDomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusUnprocessableEntity, GenericErrorResponse{
			Error:  "Validation failed",
			Fields: verr.Fields,
		})
	case errors.Is(err, domain.ErrUnknownForm):
		respondWithError(w, http.StatusNotFound, "Unknown form", err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		respondWithError(w, http.StatusNotFound, "Form session not found", "")
	case errors.Is(err, domain.ErrSessionClosed):
		respondWithError(w, http.StatusGone, "Form session closed", "")
	case errors.Is(err, domain.ErrUnknownField):
		respondWithError(w, http.StatusBadRequest, "Unknown field", err.Error())
	case errors.Is(err, domain.ErrSubmitInFlight):
		respondWithError(w, http.StatusConflict, "Submission already in progress", "")
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}
