package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"riddleme-service/internal/domain"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// writeError maps domain errors onto the stable {error, message} body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	ev := log.Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).
		Str("requestId", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("request failed")
	writeJSON(w, status, body)
}

func classify(err error) (int, errorBody) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, errorBody{Error: "validation_error", Message: err.Error()}
	case errors.Is(err, domain.ErrRiddleNotFound):
		return http.StatusNotFound, errorBody{Error: "riddle_not_found", Message: "Riddle not found"}
	case errors.Is(err, domain.ErrPlayerNotFound):
		return http.StatusNotFound, errorBody{Error: "player_not_found", Message: "Player not found"}
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable, errorBody{
			Error:   "generation_unavailable",
			Message: "Riddle generation is temporarily unavailable, please try again shortly",
		}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "Unauthorized"}
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError, errorBody{Error: "persistence_error", Message: "Something went wrong, please try again"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal_error", Message: "Something went wrong, please try again"}
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrValidation)
	}
	return validationError(s.validate.Struct(dst))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return fmt.Errorf("%w: %s is required", domain.ErrValidation, fe.Field())
		}
		return fmt.Errorf("%w: %s failed %s=%s", domain.ErrValidation, fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}
