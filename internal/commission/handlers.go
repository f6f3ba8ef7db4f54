package commission

import (
	"encoding/json"
	"strconv"

	"quota-backend/internal/middleware"
	"quota-backend/internal/models"
	"quota-backend/internal/pkg/response"
	"quota-backend/internal/quota"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// Handlers bundles commission lifecycle handlers.
type Handlers struct {
	Service *Service
}

type provisionRequest struct {
	Holder   string      `json:"holder"`
	Source   string      `json:"source"`
	Resource string      `json:"resource"`
	Quantity json.Number `json:"quantity"`
}

type issueRequest struct {
	Name       string             `json:"name"`
	Force      bool               `json:"force"`
	Metadata   datatypes.JSON     `json:"metadata"`
	Provisions []provisionRequest `json:"provisions"`
}

// IssueCommission POST /api/v1/commissions/issue-commission
func (h *Handlers) IssueCommission(c *fiber.Ctx) error {
	clientkey := middleware.GetClientKey(c)
	if clientkey == "" {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req issueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	in := IssueInput{
		ClientKey:  clientkey,
		Name:       req.Name,
		Force:      req.Force,
		Metadata:   req.Metadata,
		Provisions: make([]ProvisionInput, len(req.Provisions)),
	}
	for i, p := range req.Provisions {
		qty, err := p.Quantity.Int64()
		if err != nil {
			// Fractional or non-numeric quantity: reject before touching
			// the engine.
			return &quota.InvalidDataError{Value: p.Quantity.String()}
		}
		in.Provisions[i] = ProvisionInput{
			HoldingKey: models.HoldingKey{Holder: p.Holder, Source: p.Source, Resource: p.Resource},
			Quantity:   qty,
		}
	}

	serial, err := h.Service.Issue(c.Context(), in)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Commission issued successfully", fiber.Map{"serial": serial}, nil)
}

// GetCommission GET /api/v1/commissions/get-commission/:serial
func (h *Handlers) GetCommission(c *fiber.Ctx) error {
	clientkey := middleware.GetClientKey(c)
	if clientkey == "" {
		return response.Unauthorized(c, "Unauthorized")
	}
	serial, err := strconv.ParseInt(c.Params("serial"), 10, 64)
	if err != nil {
		return response.Error(c, "Invalid serial (must be an integer)", fiber.StatusBadRequest, nil)
	}

	view, err := h.Service.Get(c.Context(), clientkey, serial)
	if err != nil {
		return err
	}
	return response.Success(c, "Commission fetched successfully", view, nil)
}

// GetPendingCommissions GET /api/v1/commissions/get-pending-commissions
func (h *Handlers) GetPendingCommissions(c *fiber.Ctx) error {
	clientkey := middleware.GetClientKey(c)
	if clientkey == "" {
		return response.Unauthorized(c, "Unauthorized")
	}

	serials, err := h.Service.GetPending(c.Context(), clientkey)
	if err != nil {
		return err
	}
	return response.Success(c, "Pending commissions fetched successfully", serials, nil)
}

type resolveOneRequest struct {
	Serial int64 `json:"serial"`
	Accept *bool `json:"accept"`
}

// ResolvePendingCommission POST /api/v1/commissions/resolve-pending-commission
func (h *Handlers) ResolvePendingCommission(c *fiber.Ctx) error {
	clientkey := middleware.GetClientKey(c)
	if clientkey == "" {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req resolveOneRequest
	if err := c.BodyParser(&req); err != nil || req.Serial == 0 {
		return response.Error(c, "Invalid request body (serial required)", fiber.StatusBadRequest, nil)
	}
	accept := true
	if req.Accept != nil {
		accept = *req.Accept
	}

	resolved, err := h.Service.ResolveOne(c.Context(), clientkey, req.Serial, accept)
	if err != nil {
		return err
	}
	return response.Success(c, "Commission resolution processed", fiber.Map{"resolved": resolved}, nil)
}

type resolveRequest struct {
	Accept []int64 `json:"accept"`
	Reject []int64 `json:"reject"`
	Reason string  `json:"reason"`
}

// ResolvePendingCommissions POST /api/v1/commissions/resolve-pending-commissions
func (h *Handlers) ResolvePendingCommissions(c *fiber.Ctx) error {
	clientkey := middleware.GetClientKey(c)
	if clientkey == "" {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	res, err := h.Service.Resolve(c.Context(), clientkey, req.Accept, req.Reject, req.Reason)
	if err != nil {
		return err
	}
	return response.Success(c, "Commissions resolved", res, nil)
}
