package handlers

import (
	"net/http"
	"strconv"
	"time"

	"example.com/backstage/services/distribution/internal/repository"
	"example.com/backstage/services/distribution/internal/service"

	"github.com/gin-gonic/gin"
)

// StockHandler handles stock register HTTP requests
type StockHandler struct {
	stockService *service.StockService
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stockService *service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// GetRegister lists the stock register, optionally filtered to one product
func (h *StockHandler) GetRegister(c *gin.Context) {
	var productID *uint
	if product := c.Query("productId"); product != "" {
		id, err := strconv.ParseUint(product, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid product id", Code: "VALIDATION_ERROR"})
			return
		}
		pid := uint(id)
		productID = &pid
	}

	rows, err := h.stockService.GetRegister(c.Request.Context(), productID)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// GetSummary returns plant-wide stock totals
func (h *StockHandler) GetSummary(c *gin.Context) {
	summary, err := h.stockService.GetSummary(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetTransactions lists stock movements with optional filters
func (h *StockHandler) GetTransactions(c *gin.Context) {
	var filter repository.StockTransactionFilter

	if product := c.Query("productId"); product != "" {
		id, err := strconv.ParseUint(product, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid product id", Code: "VALIDATION_ERROR"})
			return
		}
		pid := uint(id)
		filter.ProductID = &pid
	}
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
	if txnType := c.Query("transactionType"); txnType != "" {
		filter.TransactionType = &txnType
	}

	txns, err := h.stockService.GetTransactions(c.Request.Context(), filter)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, txns)
}

// AdjustStock applies a manual stock correction
func (h *StockHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	txn, err := h.stockService.AdjustStock(c.Request.Context(), req)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     1,
		"message":     "Stock adjusted",
		"transaction": txn,
	})
}
