package handlers

import (
	"net/http"

	"example.com/backstage/services/distribution/internal/service"

	"github.com/gin-gonic/gin"
)

// CreditHandler handles customer credit ledger HTTP requests
type CreditHandler struct {
	creditService *service.CreditService
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(creditService *service.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// GetStatement returns a customer's credit balance and ledger history
func (h *CreditHandler) GetStatement(c *gin.Context) {
	customerID, ok := paramID(c, "customerId")
	if !ok {
		return
	}

	statement, err := h.creditService.GetStatement(c.Request.Context(), customerID)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, statement)
}

// RecordPayment posts a payment against a customer's outstanding credit
func (h *CreditHandler) RecordPayment(c *gin.Context) {
	var req service.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	txn, err := h.creditService.RecordPayment(c.Request.Context(), &req)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     1,
		"message":     "Payment recorded",
		"transaction": txn,
	})
}
