package middleware

import (
	"errors"

	"quota-backend/internal/pkg/response"
	"quota-backend/internal/quota"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the global error handler. Engine errors are a closed set
// of typed values; each maps to a status code and a structured details
// payload so callers can handle them programmatically.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return response.Error(c, e.Message, e.Code, nil)
	}

	var (
		noHolding    *quota.NoHoldingError
		noCapacity   *quota.NoCapacityError
		noQuantity   *quota.NoQuantityError
		duplicate    *quota.DuplicateError
		invalidData  *quota.InvalidDataError
		noCommission *quota.NoCommissionError
		corrupted    *quota.CorruptedError
	)

	switch {
	case errors.As(err, &noHolding):
		return response.Error(c, err.Error(), fiber.StatusNotFound, fiber.Map{
			"error":     "NoHoldingError",
			"provision": noHolding.Provision,
		})
	case errors.As(err, &noCapacity):
		return response.Error(c, err.Error(), fiber.StatusConflict, fiber.Map{
			"error":     "NoCapacityError",
			"provision": noCapacity.Provision,
			"usage":     noCapacity.Usage,
			"limit":     noCapacity.Limit,
		})
	case errors.As(err, &noQuantity):
		return response.Error(c, err.Error(), fiber.StatusConflict, fiber.Map{
			"error":     "NoQuantityError",
			"provision": noQuantity.Provision,
			"available": noQuantity.Available,
		})
	case errors.As(err, &duplicate):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, fiber.Map{
			"error":     "DuplicateError",
			"provision": duplicate.Provision,
		})
	case errors.As(err, &invalidData):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, fiber.Map{
			"error": "InvalidDataError",
			"value": invalidData.Value,
		})
	case errors.As(err, &noCommission):
		return response.Error(c, err.Error(), fiber.StatusNotFound, fiber.Map{
			"error":  "NoCommissionError",
			"serial": noCommission.Serial,
		})
	case errors.As(err, &corrupted):
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, fiber.Map{
			"error":     "CorruptedError",
			"serial":    corrupted.Serial,
			"provision": corrupted.Provision,
		})
	}

	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
