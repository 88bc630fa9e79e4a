package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the uniform response body.
type Envelope struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries the status code and optional details of a failure.
type ErrorDetail struct {
	Code    int `json:"code"`
	Details any `json:"details,omitempty"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// RespondSuccess 发送成功响应
func RespondSuccess(w http.ResponseWriter, status int, message string, data any) {
	RespondJSON(w, status, Envelope{Status: "success", Message: message, Data: data})
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	RespondJSON(w, status, Envelope{
		Status:  "error",
		Message: message,
		Error:   &ErrorDetail{Code: status, Details: details},
	})
}

// RespondNotFound 发送404响应
func RespondNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondError(w, http.StatusNotFound, message, nil)
}
