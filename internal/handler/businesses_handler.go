package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plaatsgids/discovery/internal/dto"
	"github.com/plaatsgids/discovery/internal/service"
)

// BusinessesHandler exposes the candidate catalogue endpoints.
type BusinessesHandler struct {
	service *service.BusinessesService
}

// NewBusinessesHandler creates a new handler instance.
func NewBusinessesHandler(svc *service.BusinessesService) *BusinessesHandler {
	return &BusinessesHandler{service: svc}
}

// List handles GET /businesses requests.
func (h *BusinessesHandler) List(c echo.Context) error {
	filter := dto.ListFilter{
		Q:        strings.TrimSpace(c.QueryParam("q")),
		Category: strings.TrimSpace(c.QueryParam("category")),
		City:     strings.TrimSpace(c.QueryParam("city")),
		Status:   strings.TrimSpace(c.QueryParam("status")),
		Source:   strings.TrimSpace(c.QueryParam("source")),
		Page:     parseIntDefault(c.QueryParam("page"), 1),
		PerPage:  parseIntDefault(c.QueryParam("per_page"), 20),
	}

	if updatedSinceStr := strings.TrimSpace(c.QueryParam("updated_since")); updatedSinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, updatedSinceStr)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid updated_since (use RFC3339)")
		}
		filter.UpdatedSince = &parsed
	}

	businesses, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list businesses")
	}

	return Success(c, http.StatusOK, "businesses retrieved", businesses)
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}
