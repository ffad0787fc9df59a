package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"hush/cmd/internal/apperr"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: msg}})
}

// writeAppError maps err through the apperr taxonomy. Anything unclassified is
// logged and reported as a generic 500.
func writeAppError(w http.ResponseWriter, log *slog.Logger, event string, err error) {
	status, code := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error(event, "err", err)
	}
	writeError(w, status, code, apperr.PublicMessage(err))
}

// decodeJSON reads exactly one JSON object from the request body. An empty body
// yields io.EOF so callers with optional bodies can accept it.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return io.EOF
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
