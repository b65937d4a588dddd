package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"rivaaz-backend/firebase"
	"rivaaz-backend/models"
	"rivaaz-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SettlementHandler struct {
	DB      *gorm.DB
	Storage firebase.StorageClient
}

type feeOverride struct {
	DamageFee *float64 `json:"damage_fee"`
	LostFee   *float64 `json:"lost_fee"`
}

var errSettlementLocked = errors.New("settlement already locked")

// FinalizeSettlement closes out a booking's deposit. The lock, money math,
// invoice, booking update and ledger entry run in one transaction. The lock is
// a conditional update, so two concurrent calls for the same booking cannot
// both produce an invoice, and a failure anywhere rolls the lock back instead
// of leaving the booking locked without an invoice.
func (h *SettlementHandler) FinalizeSettlement(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	var req struct {
		FeeOverrides map[string]feeOverride `json:"fee_overrides"`
		Payment      struct {
			Method string `json:"method"`
		} `json:"payment"`
		Notes string `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var booking models.Booking
	if err := query.First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	if booking.SettlementLocked {
		c.JSON(http.StatusConflict, gin.H{"error": "Settlement already completed for this booking"})
		return
	}

	userID := currentUserID(c)
	now := time.Now()

	var (
		invoice         models.Invoice
		lines           []utils.SettlementLine
		totalDeductions float64
		refundDue       float64
		extraPayable    float64
	)

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		// Take the lock first. Zero rows affected means another request won.
		lock := tx.Model(&models.Booking{}).
			Where("id = ? AND settlement_locked = ?", booking.ID, false).
			Update("settlement_locked", true)
		if lock.Error != nil {
			return lock.Error
		}
		if lock.RowsAffected == 0 {
			return errSettlementLocked
		}

		// Aggregate damage and loss across every return of this booking.
		var returnItems []models.ReturnItem
		if err := tx.Joins("JOIN returns ON returns.id = return_items.return_id").
			Where("returns.booking_id = ?", booking.ID).
			Find(&returnItems).Error; err != nil {
			return err
		}

		type productTally struct {
			Name       string
			Code       string
			QtyDamaged int
			QtyLost    int
		}
		tallies := make(map[uuid.UUID]*productTally)
		order := make([]uuid.UUID, 0)
		for _, item := range returnItems {
			t, ok := tallies[item.ProductID]
			if !ok {
				t = &productTally{Name: item.ProductName, Code: item.ProductCode}
				tallies[item.ProductID] = t
				order = append(order, item.ProductID)
			}
			t.QtyDamaged += item.QtyDamaged
			t.QtyLost += item.QtyLost
		}

		for _, productID := range order {
			t := tallies[productID]
			if t.QtyDamaged == 0 && t.QtyLost == 0 {
				continue
			}

			var product models.Product
			if err := tx.Where("id = ?", productID).First(&product).Error; err != nil {
				log.Printf("Settlement: product %s not found, using zero fees: %v", productID, err)
			}

			damageFee := product.DamageFee
			lostFee := product.LostFee
			// An override wins even when it is zero.
			if override, ok := req.FeeOverrides[productID.String()]; ok {
				if override.DamageFee != nil {
					damageFee = *override.DamageFee
				}
				if override.LostFee != nil {
					lostFee = *override.LostFee
				}
			}

			amount := float64(t.QtyDamaged)*damageFee + float64(t.QtyLost)*lostFee
			totalDeductions += amount
			lines = append(lines, utils.SettlementLine{
				ProductName: t.Name,
				ProductCode: t.Code,
				QtyDamaged:  t.QtyDamaged,
				QtyLost:     t.QtyLost,
				DamageFee:   damageFee,
				LostFee:     lostFee,
				Amount:      amount,
			})
		}

		refundDue = booking.DepositAmount - totalDeductions
		if refundDue < 0 {
			refundDue = 0
		}
		extraPayable = totalDeductions - booking.DepositAmount
		if extraPayable < 0 {
			extraPayable = 0
		}

		invoiceNumber, err := nextInvoiceNumber(tx, now)
		if err != nil {
			return err
		}

		invoice = models.Invoice{
			InvoiceNumber: invoiceNumber,
			BookingID:     booking.ID,
			CustomerID:    booking.CustomerID,
			FranchiseID:   booking.FranchiseID,
			IssueDate:     now,
			DueDate:       now,
			Subtotal:      totalDeductions,
			TotalAmount:   totalDeductions,
			Status:        "sent",
			Notes:         req.Notes,
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}

		// Stamp the booking's returns with the invoice that settled them.
		if err := tx.Model(&models.Return{}).Where("booking_id = ?", booking.ID).
			Update("invoice_id", invoice.ID).Error; err != nil {
			return err
		}

		details, _ := json.Marshal(gin.H{
			"lines":         lines,
			"deposit":       booking.DepositAmount,
			"deductions":    totalDeductions,
			"refund_due":    refundDue,
			"extra_payable": extraPayable,
			"invoice":       invoiceNumber,
		})

		updates := map[string]interface{}{
			"deductions_total":   totalDeductions,
			"refund_amount":      refundDue,
			"extra_charge":       extraPayable,
			"settled_by":         userID,
			"settled_at":         now,
			"settlement_details": string(details),
			"status":             models.BookingStatusSettled,
		}
		if err := tx.Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
			return err
		}

		return recordTransaction(tx, &booking, &invoice, refundDue, extraPayable, req.Payment.Method, userID, now)
	})
	if err != nil {
		if errors.Is(err, errSettlementLocked) {
			c.JSON(http.StatusConflict, gin.H{"error": "Settlement already completed for this booking"})
			return
		}
		log.Printf("Settlement failed for booking %s: %v", booking.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to settle booking"})
		return
	}

	// Documentation and notification are best effort; the settlement above
	// already stands.
	go h.emitSettlementDocument(booking, invoice, lines)

	utils.Audit("bookings", booking.ID.String(), "update",
		gin.H{"settlement_locked": false},
		gin.H{"settlement_locked": true, "deductions_total": totalDeductions, "refund_amount": refundDue, "extra_charge": extraPayable},
		userID, currentUserEmail(c))
	utils.Audit("invoices", invoice.ID.String(), "create", nil,
		gin.H{"invoice_number": invoice.InvoiceNumber, "total_amount": totalDeductions},
		userID, currentUserEmail(c))

	var customer models.Customer
	if err := h.DB.Where("id = ?", booking.CustomerID).First(&customer).Error; err == nil && customer.Phone != "" {
		utils.SendSettlementNotification(customer.Phone, customer.Name, invoice.InvoiceNumber, refundDue, extraPayable)
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice_id":     invoice.ID,
		"invoice_number": invoice.InvoiceNumber,
		"totals": gin.H{
			"deductions":    totalDeductions,
			"refund_due":    refundDue,
			"extra_payable": extraPayable,
		},
	})
}

func (h *SettlementHandler) GetSettlement(c *gin.Context) {
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

	if !booking.SettlementLocked {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking has not been settled"})
		return
	}

	var invoice models.Invoice
	hasInvoice := h.DB.Where("booking_id = ?", booking.ID).Order("created_at DESC").First(&invoice).Error == nil

	var details interface{}
	if booking.SettlementDetails != "" {
		if err := json.Unmarshal([]byte(booking.SettlementDetails), &details); err != nil {
			details = booking.SettlementDetails
		}
	}

	response := gin.H{
		"booking_id":       booking.ID,
		"deposit_amount":   booking.DepositAmount,
		"deductions_total": booking.DeductionsTotal,
		"refund_amount":    booking.RefundAmount,
		"extra_charge":     booking.ExtraCharge,
		"settled_at":       booking.SettledAt,
		"details":          details,
	}
	if hasInvoice {
		response["invoice"] = invoice
	}

	c.JSON(http.StatusOK, response)
}

func nextInvoiceNumber(db *gorm.DB, now time.Time) (string, error) {
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	var count int64
	if err := db.Model(&models.Invoice{}).Where("created_at >= ?", yearStart).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("SETTLE-%d-%04d", now.Year(), count+1), nil
}

func recordTransaction(db *gorm.DB, booking *models.Booking, invoice *models.Invoice, refundDue, extraPayable float64, methodName string, userID *uuid.UUID, now time.Time) error {
	if refundDue == 0 && extraPayable == 0 {
		return nil
	}

	var methodID *uuid.UUID
	if methodName != "" {
		var method models.PaymentMethod
		if err := db.Where("name = ? AND is_active = ?", methodName, true).First(&method).Error; err == nil {
			methodID = &method.ID
		}
	}

	transaction := models.FinancialTransaction{
		TransactionDate:     now,
		ReferenceNumber:     invoice.InvoiceNumber,
		BookingID:           &booking.ID,
		InvoiceID:           &invoice.ID,
		SettlementReference: invoice.InvoiceNumber,
		PaymentMethodID:     methodID,
		FranchiseID:         booking.FranchiseID,
		CreatedBy:           userID,
	}
	if refundDue > 0 {
		transaction.Amount = refundDue
		transaction.Type = "expense"
		transaction.Subtype = "deposit_refund"
		transaction.Description = fmt.Sprintf("Deposit refund for booking %s", booking.BookingNumber)
	} else {
		transaction.Amount = extraPayable
		transaction.Type = "income"
		transaction.Subtype = "settlement_charge"
		transaction.Description = fmt.Sprintf("Settlement charge for booking %s", booking.BookingNumber)
	}

	return db.Create(&transaction).Error
}

func (h *SettlementHandler) emitSettlementDocument(booking models.Booking, invoice models.Invoice, lines []utils.SettlementLine) {
	if h.Storage == nil {
		return
	}

	var customer models.Customer
	h.DB.Where("id = ?", booking.CustomerID).First(&customer)

	pdf, err := utils.GenerateSettlementPDF(&booking, &invoice, customer.Name, lines)
	if err != nil {
		log.Printf("Failed to generate settlement PDF for invoice %s: %v", invoice.InvoiceNumber, err)
		return
	}

	url, err := h.Storage.UploadDocument(pdf, invoice.InvoiceNumber+".pdf", "application/pdf")
	if err != nil {
		log.Printf("Failed to upload settlement PDF for invoice %s: %v", invoice.InvoiceNumber, err)
		return
	}

	if err := h.DB.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{"pdf_url": url, "pdf_generated": true}).Error; err != nil {
		log.Printf("Failed to save settlement PDF URL for invoice %s: %v", invoice.InvoiceNumber, err)
	}
}
