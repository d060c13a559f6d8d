package payment

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduadmit/services"
	"github.com/sahilchouksey/eduadmit/utils/middleware"
	"github.com/sahilchouksey/eduadmit/utils/response"
	"gorm.io/gorm"
)

// PaymentHandler handles admission payment endpoints against the mock
// gateway.
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Pay handles POST /admissions/:id/pay
func (h *PaymentHandler) Pay(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid admission ID")
	}

	receipt, err := h.paymentService.Pay(c.Context(), uint(id), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyPaid):
			return response.Conflict(c, "This admission is already paid")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Admission not found")
		default:
			return response.InternalServerError(c, "Failed to process payment")
		}
	}

	return response.SuccessWithMessage(c, "Payment successful", receipt)
}

// Status handles GET /admissions/:id/payment
func (h *PaymentHandler) Status(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid admission ID")
	}

	admission, err := h.paymentService.Status(c.Context(), uint(id), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Admission not found")
		}
		return response.InternalServerError(c, "Failed to load payment status")
	}

	return response.Success(c, fiber.Map{
		"admission_id": admission.ID,
		"is_paid":      admission.IsPaid,
		"payment_pid":  admission.PaymentPID,
		"payment_ref":  admission.PaymentRef,
		"amount":       admission.Amount,
	})
}
