package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"rivaaz-backend/firebase"
	"rivaaz-backend/inventory"
	"rivaaz-backend/models"
	"rivaaz-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryHandler struct {
	DB      *gorm.DB
	Storage firebase.StorageClient
}

func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)
	if !scoped {
		c.JSON(http.StatusForbidden, gin.H{"error": "Franchise access required"})
		return
	}

	var req struct {
		BookingID      string     `json:"booking_id" binding:"required"`
		ScheduledDate  *time.Time `json:"scheduled_date"`
		Address        string     `json:"address"`
		RecipientName  string     `json:"recipient_name"`
		RecipientPhone string     `json:"recipient_phone"`
		Notes          string     `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking_id"})
		return
	}

	var booking models.Booking
	if err := h.DB.Where("id = ? AND franchise_id = ?", bookingID, franchiseID).First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	if booking.Status == models.BookingStatusCancelled || booking.Status == models.BookingStatusSettled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot schedule a delivery for this booking"})
		return
	}

	delivery := models.Delivery{
		BookingID:      booking.ID,
		BookingType:    booking.BookingType,
		CustomerID:     booking.CustomerID,
		FranchiseID:    franchiseID,
		Status:         models.DeliveryStatusPending,
		ScheduledDate:  req.ScheduledDate,
		Address:        req.Address,
		RecipientName:  req.RecipientName,
		RecipientPhone: req.RecipientPhone,
		Notes:          req.Notes,
	}

	if err := h.DB.Create(&delivery).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create delivery"})
		return
	}

	c.JSON(http.StatusCreated, delivery)
}

func (h *DeliveryHandler) GetDeliveries(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Model(&models.Delivery{})
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if bookingID := c.Query("booking_id"); bookingID != "" {
		query = query.Where("booking_id = ?", bookingID)
	}

	var deliveries []models.Delivery
	if err := query.Order("created_at DESC").Find(&deliveries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch deliveries"})
		return
	}

	c.JSON(http.StatusOK, deliveries)
}

func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Preload("Booking").Preload("Booking.Items").Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var delivery models.Delivery
	if err := query.First(&delivery).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}

	var handoverItems []models.DeliveryHandoverItem
	h.DB.Where("delivery_id = ?", delivery.ID).Find(&handoverItems)

	c.JSON(http.StatusOK, gin.H{
		"delivery":       delivery,
		"handover_items": handoverItems,
	})
}

// UpdateDeliveryStatus walks the delivery state machine. Marking a delivery
// delivered also flips the booking's assigned barcodes to delivered and
// opens the pending Return that will later close this delivery out.
func (h *DeliveryHandler) UpdateDeliveryStatus(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	var req struct {
		Status models.DeliveryStatus `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var delivery models.Delivery
	if err := query.First(&delivery).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}

	if !models.IsValidDeliveryTransition(delivery.Status, req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid status transition from '%s' to '%s'", delivery.Status, req.Status),
		})
		return
	}

	delivery.Status = req.Status
	if err := h.DB.Save(&delivery).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update delivery status"})
		return
	}

	if req.Status == models.DeliveryStatusDelivered {
		h.markDelivered(c, &delivery)
	}

	c.JSON(http.StatusOK, delivery)
}

func (h *DeliveryHandler) markDelivered(c *gin.Context, delivery *models.Delivery) {
	now := time.Now()
	userID := currentUserID(c)

	// Flip assigned barcodes to delivered.
	h.DB.Model(&models.BookingBarcodeAssignment{}).
		Where("booking_id = ? AND status = ?", delivery.BookingID, models.AssignmentStatusAssigned).
		Updates(map[string]interface{}{
			"status":       models.AssignmentStatusDelivered,
			"delivered_at": now,
			"delivered_by": userID,
		})
	h.DB.Model(&models.ProductBarcode{}).
		Where("booking_id = ? AND status = ?", delivery.BookingID, "assigned").
		Updates(map[string]interface{}{"status": "delivered", "last_used_at": now})

	h.DB.Model(&models.Booking{}).
		Where("id = ?", delivery.BookingID).
		Update("status", models.BookingStatusDelivered)

	// Open the pending Return for this delivery. The unique index on
	// delivery_id keeps a second delivered transition from duplicating it.
	var booking models.Booking
	if err := h.DB.Preload("Items").Where("id = ?", delivery.BookingID).First(&booking).Error; err != nil {
		log.Printf("Failed to load booking %s for return creation: %v", delivery.BookingID, err)
		return
	}

	ret := models.Return{
		DeliveryID:  &delivery.ID,
		BookingID:   booking.ID,
		BookingType: booking.BookingType,
		CustomerID:  booking.CustomerID,
		FranchiseID: delivery.FranchiseID,
		Status:      models.ReturnStatusPending,
		TotalItems:  len(booking.Items),
	}
	if err := h.DB.Create(&ret).Error; err != nil {
		log.Printf("Failed to create return for delivery %s: %v", delivery.ID, err)
		return
	}

	for _, item := range booking.Items {
		returnItem := models.ReturnItem{
			ReturnID:     ret.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductCode:  item.ProductCode,
			QtyDelivered: item.Quantity,
		}
		if err := h.DB.Create(&returnItem).Error; err != nil {
			log.Printf("Failed to create return item for %s: %v", item.ProductCode, err)
		}
	}

	if delivery.RecipientPhone != "" {
		utils.SendDeliveryNotification(delivery.RecipientPhone, delivery.RecipientName, delivery.DeliveryNumber, string(delivery.Status))
	}
}

var errHandoverConflict = errors.New("handover item was updated concurrently")

// advanceHandoverCounter moves stock and bumps one handover tracking column
// together. The claim is conditional on the column's current value, so two
// requests reading the same baseline apply the delta at most once; the loser
// gets errHandoverConflict and the whole transaction rolls back.
func (h *DeliveryHandler) advanceHandoverCounter(handover *models.DeliveryHandoverItem, column string, current, delta int, stock inventory.Delta, extra map[string]interface{}) ([]string, error) {
	var warnings []string
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			column: gorm.Expr(column+" + ?", delta),
		}
		for k, v := range extra {
			updates[k] = v
		}
		claim := tx.Model(&models.DeliveryHandoverItem{}).
			Where("id = ? AND "+column+" = ?", handover.ID, current).
			Updates(updates)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return errHandoverConflict
		}

		w, err := inventory.ApplyDelta(tx, handover.ProductID, stock)
		if err != nil {
			return err
		}
		warnings = w
		return nil
	})
	return warnings, err
}

// SaveHandover records per-product quantities observed while items change
// custody mid-rental, optionally releasing not-tied stock immediately.
// restock_now uses delta accumulation over restocked_qty so repeated calls
// with the same declared quantity are no-ops. returned_now advances the
// matching tracking column by the increase above its current value; the
// columns never decrease, so a lower resubmission moves nothing and a later
// repeat of an already-applied value cannot apply it twice.
func (h *DeliveryHandler) SaveHandover(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var delivery models.Delivery
	if err := query.First(&delivery).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}

	var req struct {
		RestockNow bool `json:"restock_now"`
		Items      []struct {
			ProductID          string `json:"product_id" binding:"required"`
			QtyNotTied         int    `json:"qty_not_tied"`
			Notes              string `json:"notes"`
			ReturnedNowQty     int    `json:"returned_now_qty"`
			ReturnedNowProcess string `json:"returned_now_process"`
		} `json:"items" binding:"required,min=1,dive"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	for _, item := range req.Items {
		if item.QtyNotTied < 0 || item.ReturnedNowQty < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantities cannot be negative"})
			return
		}
		if item.ReturnedNowQty > 0 && item.ReturnedNowProcess != "restock" && item.ReturnedNowProcess != "laundry" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "returned_now_process must be 'restock' or 'laundry'"})
			return
		}
	}

	saved := 0
	restocked := false
	var warnings []string
	now := time.Now()

	// Each item is applied independently: one product failing is logged
	// and reported, the rest still go through.
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid product id %s", item.ProductID))
			continue
		}

		var handover models.DeliveryHandoverItem
		err = h.DB.Where("delivery_id = ? AND product_id = ?", delivery.ID, productID).First(&handover).Error
		if err != nil {
			handover = models.DeliveryHandoverItem{
				DeliveryID:  delivery.ID,
				ProductID:   productID,
				FranchiseID: delivery.FranchiseID,
			}
			if err := h.DB.Create(&handover).Error; err != nil {
				// Lost a concurrent create; the unique (delivery, product)
				// index guarantees the re-read finds the winner's row.
				if err := h.DB.Where("delivery_id = ? AND product_id = ?", delivery.ID, productID).First(&handover).Error; err != nil {
					log.Printf("Failed to create handover item for product %s: %v", productID, err)
					warnings = append(warnings, fmt.Sprintf("failed to save handover for product %s", productID))
					continue
				}
			}
		}

		if req.RestockNow {
			delta := item.QtyNotTied - handover.RestockedQty
			if delta > 0 {
				w, err := h.advanceHandoverCounter(&handover, "restocked_qty", handover.RestockedQty, delta,
					inventory.Delta{Available: delta, Booked: -delta},
					map[string]interface{}{"restocked_at": now})
				if err != nil {
					log.Printf("Handover restock failed for product %s: %v", productID, err)
					warnings = append(warnings, fmt.Sprintf("failed to restock product %s", productID))
					continue
				}
				warnings = append(warnings, w...)
				handover.RestockedQty += delta
				restocked = true
			}
		}

		if item.ReturnedNowQty > 0 {
			switch item.ReturnedNowProcess {
			case "restock":
				// Tracking columns never decrease: a lower resubmission is
				// a no-op, a repeat of an applied value moves nothing.
				delta := item.ReturnedNowQty - handover.ReturnedRestockedQty
				if delta > 0 {
					w, err := h.advanceHandoverCounter(&handover, "returned_restocked_qty", handover.ReturnedRestockedQty, delta,
						inventory.Delta{Available: delta, Booked: -delta}, nil)
					if err != nil {
						log.Printf("Handover returned-now restock failed for product %s: %v", productID, err)
						warnings = append(warnings, fmt.Sprintf("failed to restock product %s", productID))
						continue
					}
					warnings = append(warnings, w...)
					handover.ReturnedRestockedQty += delta
				}
			case "laundry":
				delta := item.ReturnedNowQty - handover.ReturnedLaundryQty
				if delta > 0 {
					w, err := h.advanceHandoverCounter(&handover, "returned_laundry_qty", handover.ReturnedLaundryQty, delta,
						inventory.Delta{InLaundry: delta, Booked: -delta}, nil)
					if err != nil {
						log.Printf("Handover laundry routing failed for product %s: %v", productID, err)
						warnings = append(warnings, fmt.Sprintf("failed to route product %s to laundry", productID))
						continue
					}
					warnings = append(warnings, w...)
					handover.ReturnedLaundryQty += delta
				}
			}
		}

		// Only the declared fields are written here; the counter columns
		// are owned by the conditional updates above.
		updates := map[string]interface{}{"qty_not_tied": item.QtyNotTied}
		if item.Notes != "" {
			updates["notes"] = item.Notes
		}
		if err := h.DB.Model(&models.DeliveryHandoverItem{}).Where("id = ?", handover.ID).Updates(updates).Error; err != nil {
			log.Printf("Failed to save handover item for product %s: %v", productID, err)
			warnings = append(warnings, fmt.Sprintf("failed to save handover for product %s", productID))
			continue
		}
		saved++
	}

	response := gin.H{
		"saved":     saved,
		"restocked": restocked,
	}
	if len(warnings) > 0 {
		response["warnings"] = warnings
	}

	c.JSON(http.StatusOK, response)
}

// UploadHandoverPhoto attaches an evidence photo or customer signature to a
// delivery.
func (h *DeliveryHandler) UploadHandoverPhoto(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var delivery models.Delivery
	if err := query.First(&delivery).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}

	kind := c.DefaultPostForm("kind", "photo")
	if kind != "photo" && kind != "signature" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be 'photo' or 'signature'"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	if err := utils.ValidateFileUpload(fileHeader); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	url, err := h.Storage.UploadHandoverPhoto(file, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	if kind == "signature" {
		delivery.HandoverSignatureURL = url
	} else {
		delivery.HandoverPhotoURL = url
	}
	if err := h.DB.Save(&delivery).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
