package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rivaaz-backend/models"
)

// maxApplyAttempts bounds optimistic retries before surfacing a conflict.
const maxApplyAttempts = 3

var ErrStockConflict = errors.New("stock was modified concurrently, please retry")

// Delta is a set of signed adjustments to one product's stock counters.
// Zero fields leave their counter untouched.
type Delta struct {
	Total     int
	Available int
	Booked    int
	Damaged   int
	InLaundry int
}

func (d Delta) IsZero() bool {
	return d.Total == 0 && d.Available == 0 && d.Booked == 0 && d.Damaged == 0 && d.InLaundry == 0
}

// ApplyDelta applies a signed delta to one product's stock counters as a
// single read-modify-write guarded by a version check on stock_version.
// Counters never go below zero; a delta that would drive one negative is
// truncated at zero and the truncation reported as a warning. Returns
// ErrStockConflict when another writer keeps winning the version race.
func ApplyDelta(db *gorm.DB, productID uuid.UUID, d Delta) ([]string, error) {
	if d.IsZero() {
		return nil, nil
	}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		var product models.Product
		if err := db.First(&product, "id = ?", productID).Error; err != nil {
			return nil, err
		}

		var warnings []string
		total := clamp(&warnings, product.ProductCode, "stock_total", product.StockTotal+d.Total)
		available := clamp(&warnings, product.ProductCode, "stock_available", product.StockAvailable+d.Available)
		booked := clamp(&warnings, product.ProductCode, "stock_booked", product.StockBooked+d.Booked)
		damaged := clamp(&warnings, product.ProductCode, "stock_damaged", product.StockDamaged+d.Damaged)
		inLaundry := clamp(&warnings, product.ProductCode, "stock_in_laundry", product.StockInLaundry+d.InLaundry)

		result := db.Model(&models.Product{}).
			Where("id = ? AND stock_version = ?", product.ID, product.StockVersion).
			Updates(map[string]interface{}{
				"stock_total":      total,
				"stock_available":  available,
				"stock_booked":     booked,
				"stock_damaged":    damaged,
				"stock_in_laundry": inLaundry,
				"stock_version":    product.StockVersion + 1,
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 1 {
			return warnings, nil
		}
	}

	return nil, ErrStockConflict
}

func clamp(warnings *[]string, productCode, counter string, value int) int {
	if value < 0 {
		*warnings = append(*warnings, fmt.Sprintf("%s for %s would drop to %d, clamped to 0", counter, productCode, value))
		return 0
	}
	return value
}
