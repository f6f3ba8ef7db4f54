package holdings

import (
	"strings"

	"quota-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles quota administration handlers.
type Handlers struct {
	Service *Service
}

type setQuotaRequest struct {
	Entries []QuotaEntry `json:"entries"`
}

// SetQuota POST /api/v1/quota/set-quota
func (h *Handlers) SetQuota(c *fiber.Ctx) error {
	var req setQuotaRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	for _, e := range req.Entries {
		if e.Holder == "" || e.Source == "" || e.Resource == "" {
			return response.Error(c, "holder, source and resource are required", fiber.StatusBadRequest, nil)
		}
		if e.Limit < 0 {
			return response.Error(c, "limit must be non-negative", fiber.StatusBadRequest, nil)
		}
	}

	if err := h.Service.SetQuota(c.Context(), req.Entries); err != nil {
		return err
	}
	return response.Success(c, "Quota set successfully", fiber.Map{"count": len(req.Entries)}, nil)
}

// GetQuota GET /api/v1/quota/get-quota
// Filters via CSV query params: holders, sources, resources.
func (h *Handlers) GetQuota(c *fiber.Ctx) error {
	rows, err := h.Service.GetQuota(c.Context(),
		csvParam(c.Query("holders")),
		csvParam(c.Query("sources")),
		csvParam(c.Query("resources")),
	)
	if err != nil {
		return err
	}
	return response.Success(c, "Quota fetched successfully", rows, nil)
}

type addLimitRequest struct {
	Holders   []string `json:"holders"`
	Sources   []string `json:"sources"`
	Resources []string `json:"resources"`
	Diff      *int64   `json:"diff"`
}

// AddResourceLimit POST /api/v1/quota/add-resource-limit
func (h *Handlers) AddResourceLimit(c *fiber.Ctx) error {
	var req addLimitRequest
	if err := c.BodyParser(&req); err != nil || req.Diff == nil {
		return response.Error(c, "Invalid request body (diff required)", fiber.StatusBadRequest, nil)
	}

	if err := h.Service.AddResourceLimit(c.Context(), req.Holders, req.Sources, req.Resources, *req.Diff); err != nil {
		return err
	}
	return response.Success(c, "Resource limit adjusted", nil, nil)
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
