package handlers

import (
	"net/http"
	"strconv"

	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/service"

	"github.com/gin-gonic/gin"
)

// MappingHandler handles customer cylinder mapping HTTP requests
type MappingHandler struct {
	mappingService *service.MappingService
}

// NewMappingHandler creates a new mapping handler
func NewMappingHandler(mappingService *service.MappingService) *MappingHandler {
	return &MappingHandler{mappingService: mappingService}
}

// GetCommercialItems lists a delivery's commercial product lines with mapped
// and remaining quantities
func (h *MappingHandler) GetCommercialItems(c *gin.Context) {
	deliveryID, ok := paramID(c, "deliveryId")
	if !ok {
		return
	}

	items, err := h.mappingService.GetCommercialItems(c.Request.Context(), deliveryID)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

// GetDeliveryMappings lists all mappings recorded against a delivery
func (h *MappingHandler) GetDeliveryMappings(c *gin.Context) {
	deliveryID, ok := paramID(c, "deliveryId")
	if !ok {
		return
	}

	mappings, err := h.mappingService.GetMappings(c.Request.Context(), deliveryID)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, mappings)
}

// CreateMappingRequest represents a customer allocation submission
type CreateMappingRequest struct {
	DeliveryID    uint    `json:"deliveryId" binding:"required"`
	ProductID     uint    `json:"productId" binding:"required"`
	CustomerID    uint    `json:"customerId" binding:"required"`
	Quantity      int     `json:"quantity" binding:"required"`
	SellingPrice  float64 `json:"sellingPrice"`
	IsCreditSale  bool    `json:"isCreditSale"`
	PaymentMode   string  `json:"paymentMode"`
	InvoiceNumber string  `json:"invoiceNumber"`
	Remarks       string  `json:"remarks"`
}

// CreateMapping allocates delivered stock to a customer sale
func (h *MappingHandler) CreateMapping(c *gin.Context) {
	var req CreateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	mapping := &models.CustomerCylinderMapping{
		DeliveryID:    req.DeliveryID,
		ProductID:     req.ProductID,
		CustomerID:    req.CustomerID,
		Quantity:      req.Quantity,
		SellingPrice:  req.SellingPrice,
		IsCreditSale:  req.IsCreditSale,
		PaymentMode:   req.PaymentMode,
		InvoiceNumber: req.InvoiceNumber,
		Remarks:       req.Remarks,
	}

	if err := h.mappingService.CreateMapping(c.Request.Context(), mapping); err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   1,
		"message":   "Customer mapping created",
		"mappingId": mapping.ID,
	})
}

// DeleteMapping removes a mapping, freeing its quantity for reallocation
func (h *MappingHandler) DeleteMapping(c *gin.Context) {
	mappingID, ok := paramID(c, "mappingId")
	if !ok {
		return
	}

	removed, err := h.mappingService.DeleteMapping(c.Request.Context(), mappingID)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": 1,
		"message": "Customer mapping deleted",
		"mapping": removed,
	})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid " + name, Code: "VALIDATION_ERROR"})
		return 0, false
	}
	return uint(id), true
}
