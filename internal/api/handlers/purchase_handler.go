package handlers

import (
	"net/http"
	"time"

	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/service"

	"github.com/gin-gonic/gin"
)

// PurchaseHandler handles purchase entry HTTP requests
type PurchaseHandler struct {
	purchaseService *service.PurchaseService
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(purchaseService *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// SavePurchaseRequest represents a purchase entry submission. A zero
// purchaseId creates a new entry; a non-zero one updates it in place.
type SavePurchaseRequest struct {
	PurchaseID   uint                  `json:"purchaseId"`
	VendorID     uint                  `json:"vendorId" binding:"required"`
	InvoiceNo    string                `json:"invoiceNo" binding:"required"`
	PurchaseDate string                `json:"purchaseDate" binding:"required"`
	Remarks      string                `json:"remarks"`
	IsActive     *bool                 `json:"isActive"`
	Items        []PurchaseItemRequest `json:"items" binding:"required"`
}

// PurchaseItemRequest is one product line on a purchase invoice
type PurchaseItemRequest struct {
	ProductID uint    `json:"productId" binding:"required"`
	Quantity  int     `json:"qty" binding:"required"`
	UnitPrice float64 `json:"unitPrice"`
}

// ToggleActiveRequest flips an entity active or inactive
type ToggleActiveRequest struct {
	IsActive bool `json:"isActive"`
}

// ListPurchases lists purchase entry headers
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	entries, err := h.purchaseService.ListPurchases(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// GetPurchase gets a purchase entry with its item lines
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchaseID, ok := paramID(c, "purchaseId")
	if !ok {
		return
	}

	entry, err := h.purchaseService.GetPurchase(c.Request.Context(), purchaseID)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// SavePurchase creates or updates a purchase entry
func (h *PurchaseHandler) SavePurchase(c *gin.Context) {
	var req SavePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	purchaseDate, err := time.Parse("2006-01-02", req.PurchaseDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "purchaseDate must be YYYY-MM-DD", Code: "VALIDATION_ERROR"})
		return
	}

	entry := &models.PurchaseEntry{
		ID:           req.PurchaseID,
		VendorID:     req.VendorID,
		InvoiceNo:    req.InvoiceNo,
		PurchaseDate: purchaseDate,
		Remarks:      req.Remarks,
		IsActive:     true,
	}
	if req.IsActive != nil {
		entry.IsActive = *req.IsActive
	}
	for _, item := range req.Items {
		entry.Items = append(entry.Items, models.PurchaseEntryItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	if err := h.purchaseService.SavePurchase(c.Request.Context(), entry); err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    1,
		"message":    "Purchase entry saved",
		"purchaseId": entry.ID,
	})
}

// TogglePurchase flips a purchase entry active or inactive
func (h *PurchaseHandler) TogglePurchase(c *gin.Context) {
	purchaseID, ok := paramID(c, "purchaseId")
	if !ok {
		return
	}

	var req ToggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	if err := h.purchaseService.SetPurchaseActive(c.Request.Context(), purchaseID, req.IsActive); err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": 1,
		"message": "Purchase entry updated",
	})
}
