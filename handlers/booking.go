package handlers

import (
	"net/http"
	"time"

	"rivaaz-backend/inventory"
	"rivaaz-backend/models"
	"rivaaz-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingHandler struct {
	DB *gorm.DB
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)
	if !scoped {
		c.JSON(http.StatusForbidden, gin.H{"error": "Franchise access required"})
		return
	}

	var req struct {
		CustomerID    string     `json:"customer_id" binding:"required"`
		BookingType   string     `json:"booking_type"`
		EventDate     *time.Time `json:"event_date"`
		DepositAmount float64    `json:"deposit_amount"`
		Notes         string     `json:"notes"`
		Items         []struct {
			ProductID string `json:"product_id" binding:"required"`
			Quantity  int    `json:"quantity" binding:"required,min=1"`
		} `json:"items" binding:"required,min=1,dive"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer_id"})
		return
	}

	var customer models.Customer
	if err := h.DB.Where("id = ? AND franchise_id = ?", customerID, franchiseID).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	bookingType := req.BookingType
	if bookingType == "" {
		bookingType = "package"
	}
	if bookingType != "package" && bookingType != "product" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking_type must be 'package' or 'product'"})
		return
	}

	tx := h.DB.Begin()

	var totalAmount float64
	var bookingItems []models.BookingItem

	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			tx.Rollback()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_id"})
			return
		}

		var product models.Product
		if err := tx.Where("id = ? AND franchise_id = ? AND is_active = ?", productID, franchiseID, true).First(&product).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}

		if product.StockAvailable < item.Quantity {
			tx.Rollback()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock for " + product.Name})
			return
		}

		if _, err := inventory.ApplyDelta(tx, product.ID, inventory.Delta{Available: -item.Quantity, Booked: item.Quantity}); err != nil {
			tx.Rollback()
			if err == inventory.ErrStockConflict {
				c.JSON(http.StatusConflict, gin.H{"error": "Stock was modified concurrently, please retry"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reserve stock"})
			return
		}

		totalAmount += product.RentalPrice * float64(item.Quantity)
		bookingItems = append(bookingItems, models.BookingItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			ProductCode: product.ProductCode,
			Quantity:    item.Quantity,
			Price:       product.RentalPrice,
		})
	}

	booking := models.Booking{
		ID:            uuid.New(),
		BookingType:   bookingType,
		CustomerID:    customerID,
		FranchiseID:   franchiseID,
		Status:        models.BookingStatusPending,
		EventDate:     req.EventDate,
		TotalAmount:   totalAmount,
		DepositAmount: req.DepositAmount,
		Notes:         req.Notes,
	}

	if err := tx.Create(&booking).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		return
	}

	for i := range bookingItems {
		bookingItems[i].BookingID = booking.ID
	}
	if err := tx.Omit("Product", "Booking").CreateInBatches(&bookingItems, 100).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking items"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete booking"})
		return
	}

	h.DB.Preload("Items").Preload("Customer").First(&booking, booking.ID)

	// WhatsApp confirmation is non-blocking
	if customer.Phone != "" {
		utils.SendBookingConfirmation(customer.Phone, customer.Name, booking.BookingNumber, booking.TotalAmount)
	}

	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) GetBookings(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Model(&models.Booking{}).Preload("Customer")
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}

	var bookings []models.Booking
	if err := query.Order("created_at DESC").Find(&bookings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Preload("Items").Preload("Customer").Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var booking models.Booking
	if err := query.First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var booking models.Booking
	if err := query.First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	if booking.Status != models.BookingStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only pending bookings can be confirmed"})
		return
	}

	booking.Status = models.BookingStatusConfirmed
	if err := h.DB.Save(&booking).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm booking"})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// CancelBooking releases reserved stock and frees any assigned barcodes.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Preload("Items").Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var booking models.Booking
	if err := query.First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	if booking.Status != models.BookingStatusPending && booking.Status != models.BookingStatusConfirmed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only pending or confirmed bookings can be cancelled"})
		return
	}

	tx := h.DB.Begin()

	for _, item := range booking.Items {
		if _, err := inventory.ApplyDelta(tx, item.ProductID, inventory.Delta{Available: item.Quantity, Booked: -item.Quantity}); err != nil {
			tx.Rollback()
			if err == inventory.ErrStockConflict {
				c.JSON(http.StatusConflict, gin.H{"error": "Stock was modified concurrently, please retry"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to release stock"})
			return
		}
	}

	booking.Status = models.BookingStatusCancelled
	if err := tx.Save(&booking).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel booking"})
		return
	}

	// Free any barcodes still bound to this booking.
	tx.Model(&models.ProductBarcode{}).
		Where("booking_id = ?", booking.ID).
		Updates(map[string]interface{}{"status": "available", "booking_id": nil})

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel booking"})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// AssignBarcodes binds a batch of barcode numbers to a booking. The batch is
// all-or-nothing: any unavailable barcode fails the whole request with the
// offending numbers listed.
func (h *BookingHandler) AssignBarcodes(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)
	if !scoped {
		c.JSON(http.StatusForbidden, gin.H{"error": "Franchise access required"})
		return
	}

	var booking models.Booking
	if err := h.DB.Where("id = ? AND franchise_id = ?", c.Param("id"), franchiseID).First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	var req struct {
		ProductID      string   `json:"product_id" binding:"required"`
		BarcodeNumbers []string `json:"barcode_numbers" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_id"})
		return
	}

	var barcodes []models.ProductBarcode
	h.DB.Where("barcode_number IN ? AND product_id = ? AND franchise_id = ?", req.BarcodeNumbers, productID, franchiseID).Find(&barcodes)

	found := make(map[string]*models.ProductBarcode, len(barcodes))
	for i := range barcodes {
		found[barcodes[i].BarcodeNumber] = &barcodes[i]
	}

	var unavailable []string
	for _, number := range req.BarcodeNumbers {
		bc, ok := found[number]
		if !ok {
			unavailable = append(unavailable, number)
			continue
		}
		if bc.BookingID != nil && *bc.BookingID != booking.ID {
			unavailable = append(unavailable, number)
			continue
		}
		if bc.Status != "available" {
			unavailable = append(unavailable, number)
		}
	}

	if len(unavailable) > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":       "Some barcodes are unavailable",
			"unavailable": unavailable,
		})
		return
	}

	userID := currentUserID(c)
	assignments := make([]models.BookingBarcodeAssignment, 0, len(barcodes))
	for _, bc := range barcodes {
		assignments = append(assignments, models.BookingBarcodeAssignment{
			BarcodeID:   bc.ID,
			BookingID:   booking.ID,
			BookingType: booking.BookingType,
			ProductID:   bc.ProductID,
			Status:      models.AssignmentStatusAssigned,
			AssignedBy:  userID,
			FranchiseID: franchiseID,
		})
	}

	tx := h.DB.Begin()

	// Single batch insert: either every assignment lands or none does. A
	// concurrent request that grabbed one of these barcodes trips the
	// unique index and fails the whole batch.
	if err := tx.Omit("Barcode").Create(&assignments).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusConflict, gin.H{"error": "One or more barcodes were assigned concurrently, please retry"})
		return
	}

	now := time.Now()
	barcodeIDs := make([]uuid.UUID, len(barcodes))
	for i, bc := range barcodes {
		barcodeIDs[i] = bc.ID
	}
	if err := tx.Model(&models.ProductBarcode{}).
		Where("id IN ?", barcodeIDs).
		Updates(map[string]interface{}{"status": "assigned", "booking_id": booking.ID, "last_used_at": now}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update barcodes"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign barcodes"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"assigned":    len(assignments),
		"assignments": assignments,
	})
}

func (h *BookingHandler) GetBookingBarcodes(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var booking models.Booking
	if err := query.First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	var assignments []models.BookingBarcodeAssignment
	if err := h.DB.Preload("Barcode").Where("booking_id = ?", booking.ID).Order("assigned_at ASC").Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assignments"})
		return
	}

	stats := gin.H{}
	var counts []struct {
		Status string
		Count  int64
	}
	h.DB.Model(&models.BookingBarcodeAssignment{}).
		Select("status, COUNT(*) as count").
		Where("booking_id = ?", booking.ID).
		Group("status").
		Scan(&counts)
	for _, row := range counts {
		stats[row.Status] = row.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"assignments": assignments,
		"stats":       stats,
	})
}

// UnassignBarcode removes a not-yet-delivered assignment and returns the
// barcode to the pool.
func (h *BookingHandler) UnassignBarcode(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var booking models.Booking
	if err := query.First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	var assignment models.BookingBarcodeAssignment
	if err := h.DB.Where("id = ? AND booking_id = ?", c.Param("assignmentId"), booking.ID).First(&assignment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found"})
		return
	}

	if assignment.Status != models.AssignmentStatusAssigned {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only assignments that have not been delivered can be removed"})
		return
	}

	tx := h.DB.Begin()
	if err := tx.Delete(&assignment).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove assignment"})
		return
	}
	tx.Model(&models.ProductBarcode{}).
		Where("id = ?", assignment.BarcodeID).
		Updates(map[string]interface{}{"status": "available", "booking_id": nil})
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove assignment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Assignment removed"})
}
