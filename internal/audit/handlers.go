package audit

import (
	"strconv"
	"strings"

	"quota-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles audit log handlers.
type Handlers struct {
	Service *Service
}

// GetLogs GET /api/v1/audit/get-logs
// Filters via query params: serial, plus CSV holders/sources/resources.
func (h *Handlers) GetLogs(c *fiber.Ctx) error {
	var serial int64
	if raw := c.Query("serial"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return response.Error(c, "Invalid serial (must be an integer)", fiber.StatusBadRequest, nil)
		}
		serial = parsed
	}

	rows, err := h.Service.GetLogs(c.Context(), serial,
		csvParam(c.Query("holders")),
		csvParam(c.Query("sources")),
		csvParam(c.Query("resources")),
	)
	if err != nil {
		return err
	}
	return response.Success(c, "Provision logs fetched successfully", rows, nil)
}

func csvParam(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
