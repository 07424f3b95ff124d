package handlers

import (
	"net/http"
	"strconv"
	"time"

	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/repository"
	"example.com/backstage/services/distribution/internal/service"
	"example.com/backstage/services/distribution/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// DeliveryHandler handles daily delivery HTTP requests
type DeliveryHandler struct {
	deliveryService *service.DeliveryService
	tracer          tracing.Tracer
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(deliveryService *service.DeliveryService, tracer tracing.Tracer) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryService: deliveryService,
		tracer:          tracer,
	}
}

// CreateDeliveryRequest represents a new delivery submission
type CreateDeliveryRequest struct {
	DeliveryDate   string                `json:"deliveryDate" binding:"required"`
	VehicleID      uint                  `json:"vehicleId" binding:"required"`
	DriverID       uint                  `json:"driverId" binding:"required"`
	HelperDriverID *uint                 `json:"helperDriverId"`
	StartTime      string                `json:"startTime" binding:"required"`
	Remarks        string                `json:"remarks"`
	Items          []DeliveryItemRequest `json:"items" binding:"required"`
}

// DeliveryItemRequest is one planned product line
type DeliveryItemRequest struct {
	ProductID      uint `json:"productId" binding:"required"`
	NoOfCylinders  int  `json:"noOfCylinders" binding:"required"`
	NoOfInvoices   int  `json:"noOfInvoices"`
	NoOfDeliveries int  `json:"noOfDeliveries"`
}

// CreateDelivery opens a new delivery run with its planned items
func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-delivery")
	defer h.tracer.EndTransaction(txn)

	var req CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	deliveryDate, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "deliveryDate must be YYYY-MM-DD", Code: "VALIDATION_ERROR"})
		return
	}

	h.tracer.AddAttribute(txn, "vehicle_id", req.VehicleID)
	h.tracer.AddAttribute(txn, "delivery_date", req.DeliveryDate)

	delivery := &models.DailyDelivery{
		DeliveryDate:   deliveryDate,
		VehicleID:      req.VehicleID,
		DriverID:       req.DriverID,
		HelperDriverID: req.HelperDriverID,
		StartTime:      req.StartTime,
		Remarks:        req.Remarks,
	}
	for _, item := range req.Items {
		delivery.Items = append(delivery.Items, models.DeliveryItem{
			ProductID:      item.ProductID,
			NoOfCylinders:  item.NoOfCylinders,
			NoOfInvoices:   item.NoOfInvoices,
			NoOfDeliveries: item.NoOfDeliveries,
		})
	}

	if err := h.deliveryService.CreateDelivery(c.Request.Context(), delivery); err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"deliveryId": delivery.ID})
}

// ListDeliveries lists deliveries with optional filters
func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	var filter repository.DeliveryFilter

	if from := c.Query("fromDate"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "fromDate must be YYYY-MM-DD", Code: "VALIDATION_ERROR"})
			return
		}
		filter.FromDate = &t
	}
	if to := c.Query("toDate"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "toDate must be YYYY-MM-DD", Code: "VALIDATION_ERROR"})
			return
		}
		filter.ToDate = &t
	}
	if vehicle := c.Query("vehicleId"); vehicle != "" {
		id, err := strconv.ParseUint(vehicle, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid vehicle id", Code: "VALIDATION_ERROR"})
			return
		}
		vehicleID := uint(id)
		filter.VehicleID = &vehicleID
	}
	if status := c.Query("status"); status != "" {
		s := models.DeliveryStatus(status)
		if s != models.DeliveryStatusOpen && s != models.DeliveryStatusClosed {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "status must be Open or Closed", Code: "VALIDATION_ERROR"})
			return
		}
		filter.Status = &s
	}

	deliveries, err := h.deliveryService.ListDeliveries(c.Request.Context(), filter)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, deliveries)
}

// GetDeliveryWithItems returns a delivery header with its planned items and
// item actuals
func (h *DeliveryHandler) GetDeliveryWithItems(c *gin.Context) {
	deliveryID, ok := h.deliveryID(c)
	if !ok {
		return
	}

	delivery, err := h.deliveryService.GetDelivery(c.Request.Context(), deliveryID)
	if err != nil {
		WriteError(c, err)
		return
	}

	actuals, err := h.deliveryService.GetItemActuals(c.Request.Context(), deliveryID)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"delivery":    delivery,
		"itemActuals": actuals,
	})
}

// InitializeItemActuals seeds the actual-tracking rows of a delivery
func (h *DeliveryHandler) InitializeItemActuals(c *gin.Context) {
	deliveryID, ok := h.deliveryID(c)
	if !ok {
		return
	}

	seeded, err := h.deliveryService.InitializeItemActuals(c.Request.Context(), deliveryID)
	if err != nil {
		WriteError(c, err)
		return
	}

	message := "Item actuals initialized"
	if seeded == 0 {
		message = "Item actuals already initialized"
	}
	c.JSON(http.StatusOK, gin.H{"success": 1, "message": message, "seeded": seeded})
}

// GetItemActuals returns the actual-tracking rows of a delivery
func (h *DeliveryHandler) GetItemActuals(c *gin.Context) {
	deliveryID, ok := h.deliveryID(c)
	if !ok {
		return
	}

	actuals, err := h.deliveryService.GetItemActuals(c.Request.Context(), deliveryID)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, actuals)
}

// UpdateItemActualsRequest wraps the submitted item progress rows
type UpdateItemActualsRequest struct {
	Items []service.ActualUpdate `json:"items" binding:"required"`
}

// UpdateItemActuals records delivered quantities and recomputes pending
// quantities and statuses
func (h *DeliveryHandler) UpdateItemActuals(c *gin.Context) {
	deliveryID, ok := h.deliveryID(c)
	if !ok {
		return
	}

	var req UpdateItemActualsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	actuals, err := h.deliveryService.UpdateItemActuals(c.Request.Context(), deliveryID, req.Items)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": 1,
		"message": "Item actuals updated",
		"items":   actuals,
	})
}

// CloseDelivery records final item figures and closes the delivery
func (h *DeliveryHandler) CloseDelivery(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-close-delivery")
	defer h.tracer.EndTransaction(txn)

	deliveryID, ok := h.deliveryID(c)
	if !ok {
		return
	}

	var req service.CloseDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	delivery, err := h.deliveryService.CloseDelivery(c.Request.Context(), deliveryID, &req)
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}

	log.Info().Uint("delivery_id", deliveryID).Msg("delivery closed via API")
	c.JSON(http.StatusOK, gin.H{
		"success":  1,
		"message":  "Delivery closed",
		"delivery": delivery,
	})
}

func (h *DeliveryHandler) deliveryID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid delivery id", Code: "VALIDATION_ERROR"})
		return 0, false
	}
	return uint(id), true
}
