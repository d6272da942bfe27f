package kit

import (
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message   string       `json:"message"`
	Errors    []FieldError `json:"errors,omitempty"`
	Details   any          `json:"details,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string, details any) {
	WriteJSON(w, status, ErrorResponse{
		Message:   msg,
		Details:   details,
		RequestID: chimw.GetReqID(r.Context()),
	})
}

func WriteValidation(w http.ResponseWriter, r *http.Request, fields []FieldError) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Message:   "validation failed",
		Errors:    fields,
		RequestID: chimw.GetReqID(r.Context()),
	})
}

type Message struct {
	Message string `json:"message"`
}
