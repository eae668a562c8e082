package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

func writeJSON(log *slog.Logger, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn("Failed to encode response", "status", status, "err", err)
	}
}

func writeOK(log *slog.Logger, w http.ResponseWriter) {
	writeJSON(log, w, http.StatusOK, StatusResponse{Status: "ok"})
}

// WriteError maps err onto its status code and error body.
func WriteError(log *slog.Logger, w http.ResponseWriter, req *http.Request, err error) {
	c := Classify(err)
	if c.Status >= http.StatusInternalServerError {
		log.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
	} else {
		log.Debug("request rejected", "method", req.Method, "path", req.URL.Path, "code", c.Code, "err", err)
	}
	writeJSON(log, w, c.Status, ErrorResponse{Error: ErrorDetail{
		Code:      c.Code,
		Message:   err.Error(),
		Retryable: c.Retryable,
	}})
}
