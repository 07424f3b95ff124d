package handlers

import (
	"net/http"
	"time"

	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/service"

	"github.com/gin-gonic/gin"
)

// AssignmentHandler handles vehicle assignment HTTP requests
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// SaveAssignmentRequest represents a vehicle assignment submission. A zero
// assignmentId creates a new assignment; a non-zero one updates it.
type SaveAssignmentRequest struct {
	AssignmentID uint   `json:"assignmentId"`
	VehicleID    uint   `json:"vehicleId" binding:"required"`
	DriverID     uint   `json:"driverId" binding:"required"`
	AssignedDate string `json:"assignedDate" binding:"required"`
	RouteName    string `json:"routeName"`
	Shift        string `json:"shift"`
	IsActive     *bool  `json:"isActive"`
}

// ListAssignments lists all vehicle assignments
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.assignmentService.ListAssignments(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignments)
}

// GetAssignment gets a vehicle assignment by ID
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	assignmentID, ok := paramID(c, "assignmentId")
	if !ok {
		return
	}

	assignment, err := h.assignmentService.GetAssignment(c.Request.Context(), assignmentID)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// SaveAssignment creates or updates a vehicle assignment
func (h *AssignmentHandler) SaveAssignment(c *gin.Context) {
	var req SaveAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	assignedDate, err := time.Parse("2006-01-02", req.AssignedDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "assignedDate must be YYYY-MM-DD", Code: "VALIDATION_ERROR"})
		return
	}

	assignment := &models.VehicleAssignment{
		ID:           req.AssignmentID,
		VehicleID:    req.VehicleID,
		DriverID:     req.DriverID,
		AssignedDate: assignedDate,
		RouteName:    req.RouteName,
		Shift:        req.Shift,
		IsActive:     true,
	}
	if req.IsActive != nil {
		assignment.IsActive = *req.IsActive
	}

	if err := h.assignmentService.SaveAssignment(c.Request.Context(), assignment); err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      1,
		"message":      "Vehicle assignment saved",
		"assignmentId": assignment.ID,
	})
}

// ToggleAssignment flips an assignment active or inactive; sending
// isActive=false is the soft delete
func (h *AssignmentHandler) ToggleAssignment(c *gin.Context) {
	assignmentID, ok := paramID(c, "assignmentId")
	if !ok {
		return
	}

	var req ToggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	if req.IsActive {
		assignment, err := h.assignmentService.GetAssignment(c.Request.Context(), assignmentID)
		if err != nil {
			WriteError(c, err)
			return
		}
		assignment.IsActive = true
		if err := h.assignmentService.SaveAssignment(c.Request.Context(), assignment); err != nil {
			WriteError(c, err)
			return
		}
	} else {
		if err := h.assignmentService.DeactivateAssignment(c.Request.Context(), assignmentID); err != nil {
			WriteError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": 1,
		"message": "Vehicle assignment updated",
	})
}
