package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIResponse is the envelope every endpoint responds with. RequestID mirrors
// the X-Request-ID response header so API payloads and log lines correlate.
type APIResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

func respond(c echo.Context, status int, payload APIResponse) error {
	payload.RequestID = c.Response().Header().Get("X-Request-ID")
	return c.JSON(status, payload)
}

// Success sends data under the shared envelope.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	return respond(c, status, APIResponse{Status: "success", Message: message, Data: data})
}

// Error sends a failure message under the shared envelope.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return respond(c, status, APIResponse{Status: "error", Message: message})
}
