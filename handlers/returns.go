package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"rivaaz-backend/inventory"
	"rivaaz-backend/models"
	"rivaaz-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReturnHandler struct {
	DB *gorm.DB
}

type returnItemRequest struct {
	ProductID    string `json:"product_id" binding:"required"`
	QtyReturned  int    `json:"qty_returned"`
	QtyNotUsed   int    `json:"qty_not_used"`
	QtyDamaged   int    `json:"qty_damaged"`
	QtyLost      int    `json:"qty_lost"`
	QtyToLaundry int    `json:"qty_to_laundry"`
	Notes        string `json:"notes"`
}

type returnRequest struct {
	Items []returnItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes string              `json:"notes"`
}

// returnLine couples everything preview and commit need for one product:
// the declared quantities, the handover baseline, the current product row
// and the projection derived from all three.
type returnLine struct {
	Product    models.Product
	Quantities inventory.ReturnQuantities
	Baseline   inventory.HandoverBaseline
	Projection inventory.Projection
	Notes      string
}

func (h *ReturnHandler) GetReturns(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Model(&models.Return{})
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if bookingID := c.Query("booking_id"); bookingID != "" {
		query = query.Where("booking_id = ?", bookingID)
	}

	var returns []models.Return
	if err := query.Order("created_at DESC").Find(&returns).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch returns"})
		return
	}

	c.JSON(http.StatusOK, returns)
}

func (h *ReturnHandler) GetReturn(c *gin.Context) {
	ret, ok := h.loadReturn(c)
	if !ok {
		return
	}

	var items []models.ReturnItem
	h.DB.Where("return_id = ?", ret.ID).Find(&items)

	c.JSON(http.StatusOK, gin.H{
		"return": ret,
		"items":  items,
	})
}

// PreviewReturn computes the stock outcome of the declared quantities
// without writing anything. The response carries per-product current and
// projected counters plus warnings; calling it any number of times changes
// nothing.
func (h *ReturnHandler) PreviewReturn(c *gin.Context) {
	ret, ok := h.loadReturn(c)
	if !ok {
		return
	}

	if ret.Status == models.ReturnStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "Return has already been processed"})
		return
	}

	var req returnRequest
	if raw := c.Query("items"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Items); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid items parameter"})
			return
		}
	} else if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
			return
		}
	}

	// With no declared quantities every product previews at zero, which
	// still surfaces the handover baseline and booked release.
	if len(req.Items) == 0 {
		var recorded []models.ReturnItem
		h.DB.Where("return_id = ?", ret.ID).Find(&recorded)
		for _, item := range recorded {
			req.Items = append(req.Items, returnItemRequest{ProductID: item.ProductID.String()})
		}
	}

	lines, errMsg := h.buildLines(ret, req)
	if errMsg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"return_id": ret.ID,
		"items":     previewPayload(lines),
	})
}

// ProcessReturn commits the declared quantities: stock deltas via the
// ledger, archive rows for damaged and lost units, the return marked
// completed and the booking moved to returned. The arithmetic is the same
// projection the preview showed.
func (h *ReturnHandler) ProcessReturn(c *gin.Context) {
	ret, ok := h.loadReturn(c)
	if !ok {
		return
	}

	if ret.Status == models.ReturnStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "Return has already been processed"})
		return
	}

	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	lines, errMsg := h.buildLines(ret, req)
	if errMsg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMsg})
		return
	}

	// Every delivered unit must be accounted for before the commit releases
	// booked stock. Preview has no such constraint, a draft can be partial.
	for _, line := range lines {
		q := line.Quantities
		if q.QtyReturned+q.QtyNotUsed+q.QtyDamaged+q.QtyLost != q.QtyDelivered {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Quantities for %s must account for all %d delivered units", line.Product.Name, q.QtyDelivered),
			})
			return
		}
	}

	userID := currentUserID(c)
	now := time.Now()

	tx := h.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	totalReturned, totalDamaged, totalLost := 0, 0, 0
	var warnings []string

	for _, line := range lines {
		w, err := inventory.ApplyDelta(tx, line.Product.ID, line.Projection.Delta)
		if err != nil {
			tx.Rollback()
			if err == inventory.ErrStockConflict {
				c.JSON(http.StatusConflict, gin.H{"error": "Stock was modified concurrently, please retry"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock"})
			return
		}
		warnings = append(warnings, w...)

		q := line.Quantities
		item := models.ReturnItem{
			ReturnID:      ret.ID,
			ProductID:     line.Product.ID,
			ProductName:   line.Product.Name,
			ProductCode:   line.Product.ProductCode,
			QtyDelivered:  q.QtyDelivered,
			QtyReturned:   q.QtyReturned,
			QtyNotUsed:    q.QtyNotUsed,
			QtyDamaged:    q.QtyDamaged,
			QtyLost:       q.QtyLost,
			QtyToLaundry:  q.QtyToLaundry,
			Archived:      q.QtyDamaged > 0 || q.QtyLost > 0,
			SentToLaundry: q.QtyToLaundry > 0,
			Notes:         line.Notes,
		}
		if err := tx.Where("return_id = ? AND product_id = ?", ret.ID, line.Product.ID).
			Assign(map[string]interface{}{
				"qty_delivered":   item.QtyDelivered,
				"qty_returned":    item.QtyReturned,
				"qty_not_used":    item.QtyNotUsed,
				"qty_damaged":     item.QtyDamaged,
				"qty_lost":        item.QtyLost,
				"qty_to_laundry":  item.QtyToLaundry,
				"archived":        item.Archived,
				"sent_to_laundry": item.SentToLaundry,
				"notes":           item.Notes,
				"product_name":    item.ProductName,
				"product_code":    item.ProductCode,
			}).
			FirstOrCreate(&models.ReturnItem{}, models.ReturnItem{ReturnID: ret.ID, ProductID: line.Product.ID}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save return items"})
			return
		}

		if q.QtyDamaged > 0 {
			archive := models.ProductArchive{
				ProductID:   line.Product.ID,
				ProductName: line.Product.Name,
				ProductCode: line.Product.ProductCode,
				Reason:      "damaged",
				Quantity:    q.QtyDamaged,
				ReturnID:    &ret.ID,
				DeliveryID:  ret.DeliveryID,
				FranchiseID: ret.FranchiseID,
				ArchivedBy:  userID,
			}
			if err := tx.Create(&archive).Error; err != nil {
				tx.Rollback()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive damaged items"})
				return
			}
		}
		if q.QtyLost > 0 {
			archive := models.ProductArchive{
				ProductID:   line.Product.ID,
				ProductName: line.Product.Name,
				ProductCode: line.Product.ProductCode,
				Reason:      "lost",
				Quantity:    q.QtyLost,
				ReturnID:    &ret.ID,
				DeliveryID:  ret.DeliveryID,
				FranchiseID: ret.FranchiseID,
				ArchivedBy:  userID,
			}
			if err := tx.Create(&archive).Error; err != nil {
				tx.Rollback()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive lost items"})
				return
			}
		}

		totalReturned += q.QtyReturned
		totalDamaged += q.QtyDamaged
		totalLost += q.QtyLost
	}

	updates := map[string]interface{}{
		"status":         models.ReturnStatusCompleted,
		"total_returned": totalReturned,
		"total_damaged":  totalDamaged,
		"total_lost":     totalLost,
		"processed_at":   now,
		"processed_by":   userID,
		"return_date":    now,
	}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	if err := tx.Model(&models.Return{}).Where("id = ?", ret.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete return"})
		return
	}

	if err := tx.Model(&models.Booking{}).Where("id = ?", ret.BookingID).
		Update("status", models.BookingStatusReturned).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update booking"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process return"})
		return
	}

	utils.Audit("returns", ret.ID.String(), "update",
		gin.H{"status": models.ReturnStatusPending},
		gin.H{"status": models.ReturnStatusCompleted, "total_returned": totalReturned, "total_damaged": totalDamaged, "total_lost": totalLost},
		userID, currentUserEmail(c))

	response := gin.H{
		"message":        "Return processed",
		"return_id":      ret.ID,
		"total_returned": totalReturned,
		"total_damaged":  totalDamaged,
		"total_lost":     totalLost,
		"items":          previewPayload(lines),
	}
	if len(warnings) > 0 {
		response["warnings"] = warnings
	}

	c.JSON(http.StatusOK, response)
}

func (h *ReturnHandler) loadReturn(c *gin.Context) (*models.Return, bool) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var ret models.Return
	if err := query.First(&ret).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Return not found"})
		return nil, false
	}
	return &ret, true
}

// buildLines resolves every requested item against the return's recorded
// delivery quantities, the product's current counters and the handover
// baseline, and runs the shared projection on each.
func (h *ReturnHandler) buildLines(ret *models.Return, req returnRequest) ([]returnLine, string) {
	var recorded []models.ReturnItem
	if err := h.DB.Where("return_id = ?", ret.ID).Find(&recorded).Error; err != nil {
		return nil, "Failed to load return items"
	}
	deliveredByProduct := make(map[uuid.UUID]int, len(recorded))
	for _, item := range recorded {
		deliveredByProduct[item.ProductID] = item.QtyDelivered
	}

	lines := make([]returnLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, "Invalid product_id: " + item.ProductID
		}
		if item.QtyReturned < 0 || item.QtyNotUsed < 0 || item.QtyDamaged < 0 || item.QtyLost < 0 || item.QtyToLaundry < 0 {
			return nil, "Quantities cannot be negative"
		}
		if item.QtyToLaundry > item.QtyReturned {
			return nil, "qty_to_laundry cannot exceed qty_returned"
		}

		delivered, known := deliveredByProduct[productID]
		if !known {
			return nil, "Product is not part of this return"
		}

		var product models.Product
		if err := h.DB.Where("id = ?", productID).First(&product).Error; err != nil {
			return nil, "Product not found"
		}

		baseline := inventory.HandoverBaseline{}
		if ret.DeliveryID != nil {
			var handover models.DeliveryHandoverItem
			if err := h.DB.Where("delivery_id = ? AND product_id = ?", *ret.DeliveryID, productID).
				First(&handover).Error; err == nil {
				baseline.RestockedQty = handover.RestockedQty
				baseline.ReturnedLaundryQty = handover.ReturnedLaundryQty
			} else if err != gorm.ErrRecordNotFound {
				log.Printf("Failed to load handover baseline for product %s: %v", productID, err)
			}
		}

		q := inventory.ReturnQuantities{
			QtyDelivered: delivered,
			QtyReturned:  item.QtyReturned,
			QtyNotUsed:   item.QtyNotUsed,
			QtyDamaged:   item.QtyDamaged,
			QtyLost:      item.QtyLost,
			QtyToLaundry: item.QtyToLaundry,
		}

		lines = append(lines, returnLine{
			Product:    product,
			Quantities: q,
			Baseline:   baseline,
			Projection: inventory.ProjectReturn(product.Name, inventory.SnapshotOf(&product), q, baseline),
			Notes:      item.Notes,
		})
	}

	return lines, ""
}

func previewPayload(lines []returnLine) []gin.H {
	payload := make([]gin.H, 0, len(lines))
	for _, line := range lines {
		entry := gin.H{
			"product_id":      line.Product.ID,
			"product_name":    line.Product.Name,
			"product_code":    line.Product.ProductCode,
			"current_stock":   line.Projection.Current,
			"projected_stock": line.Projection.Projected,
		}
		if len(line.Projection.Warnings) > 0 {
			entry["warnings"] = line.Projection.Warnings
		}
		payload = append(payload, entry)
	}
	return payload
}
