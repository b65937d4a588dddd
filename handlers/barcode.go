package handlers

import (
	"fmt"
	"net/http"
	"time"

	"rivaaz-backend/models"
	"rivaaz-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BarcodeHandler struct {
	DB *gorm.DB
}

var scanActions = map[string]models.AssignmentStatus{
	"delivery_out": models.AssignmentStatusDelivered,
	"return_in":    models.AssignmentStatusReturned,
	"complete":     models.AssignmentStatusCompleted,
}

// Scan is the single entry point for handheld scanners: it assigns a unit
// to a booking or walks an existing assignment through its lifecycle.
func (h *BarcodeHandler) Scan(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	var req struct {
		Barcode   string `json:"barcode" binding:"required"`
		Action    string `json:"action" binding:"required"`
		BookingID string `json:"booking_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	query := h.DB.Where("barcode_number = ?", req.Barcode)
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var barcode models.ProductBarcode
	if err := query.First(&barcode).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Barcode not found"})
		return
	}

	if req.Action == "assign" {
		h.assign(c, &barcode, req.BookingID)
		return
	}

	target, ok := scanActions[req.Action]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action. Use assign, delivery_out, return_in or complete"})
		return
	}

	// Resolve the booking: explicit in the request, or remembered on the
	// barcode from assignment time.
	var bookingID uuid.UUID
	if req.BookingID != "" {
		id, err := uuid.Parse(req.BookingID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking_id"})
			return
		}
		bookingID = id
	} else if barcode.BookingID != nil {
		bookingID = *barcode.BookingID
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Barcode is not assigned to any booking"})
		return
	}

	var assignment models.BookingBarcodeAssignment
	if err := h.DB.Where("barcode_id = ? AND booking_id = ?", barcode.ID, bookingID).First(&assignment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No assignment found for this barcode and booking"})
		return
	}

	if !models.IsValidAssignmentTransition(assignment.Status, target) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid status transition from '%s' to '%s'", assignment.Status, target),
		})
		return
	}

	now := time.Now()
	userID := currentUserID(c)
	assignment.Status = target
	switch target {
	case models.AssignmentStatusDelivered:
		assignment.DeliveredAt = &now
		assignment.DeliveredBy = userID
	case models.AssignmentStatusReturned:
		assignment.ReturnedAt = &now
		assignment.ReturnedBy = userID
	case models.AssignmentStatusCompleted:
		assignment.CompletedAt = &now
	}

	if err := h.DB.Save(&assignment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update assignment"})
		return
	}

	barcode.Status = string(target)
	barcode.LastUsedAt = &now
	if target == models.AssignmentStatusCompleted {
		// Completed units go back into the assignable pool.
		barcode.Status = "available"
		barcode.BookingID = nil
	}
	h.DB.Save(&barcode)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"status":     assignment.Status,
		"assignment": assignment,
	})
}

func (h *BarcodeHandler) assign(c *gin.Context, barcode *models.ProductBarcode, rawBookingID string) {
	if rawBookingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking_id is required for assign"})
		return
	}

	bookingID, err := uuid.Parse(rawBookingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking_id"})
		return
	}

	var booking models.Booking
	if err := h.DB.Where("id = ?", bookingID).First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	var existing models.BookingBarcodeAssignment
	if err := h.DB.Where("barcode_id = ? AND booking_id = ?", barcode.ID, bookingID).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":    false,
			"message":    "Barcode already assigned to this booking",
			"assignment": existing,
		})
		return
	}

	if barcode.Status != "available" {
		c.JSON(http.StatusConflict, gin.H{"error": "Barcode is not available for assignment"})
		return
	}

	assignment := models.BookingBarcodeAssignment{
		BarcodeID:   barcode.ID,
		BookingID:   bookingID,
		BookingType: booking.BookingType,
		ProductID:   barcode.ProductID,
		Status:      models.AssignmentStatusAssigned,
		AssignedBy:  currentUserID(c),
		FranchiseID: barcode.FranchiseID,
	}

	// The unique index on (barcode_id, booking_id) makes a concurrent
	// duplicate assign lose here instead of both succeeding.
	if err := h.DB.Create(&assignment).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Barcode already assigned to this booking",
		})
		return
	}

	now := time.Now()
	barcode.Status = "assigned"
	barcode.BookingID = &bookingID
	barcode.LastUsedAt = &now
	h.DB.Save(barcode)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"status":     assignment.Status,
		"assignment": assignment,
	})
}

// Lookup returns one barcode with its product and active assignment.
func (h *BarcodeHandler) Lookup(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Preload("Product").Where("barcode_number = ?", c.Param("number"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var barcode models.ProductBarcode
	if err := query.First(&barcode).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Barcode not found"})
		return
	}

	response := gin.H{"barcode": barcode}

	if barcode.BookingID != nil {
		var assignment models.BookingBarcodeAssignment
		if err := h.DB.Where("barcode_id = ? AND booking_id = ?", barcode.ID, barcode.BookingID).First(&assignment).Error; err == nil {
			response["assignment"] = assignment
		}
	}

	c.JSON(http.StatusOK, response)
}
