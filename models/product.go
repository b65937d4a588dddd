package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a SKU-level catalog entry. The five stock counters hold the
// aggregate view of where its units currently are; at rest
// StockTotal == StockAvailable + StockBooked + StockDamaged + StockInLaundry.
// Counters are mutated only through inventory.Ledger, which uses StockVersion
// as an optimistic concurrency check.
type Product struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	ProductCode string     `gorm:"uniqueIndex;not null" json:"product_code"`
	Category    string     `gorm:"index" json:"category"`
	Description string     `json:"description"`
	FranchiseID uuid.UUID  `gorm:"type:uuid;not null;index" json:"franchise_id"`
	Franchise   *Franchise `gorm:"foreignKey:FranchiseID" json:"franchise,omitempty"`

	RentalPrice float64 `gorm:"default:0" json:"rental_price"`
	SalePrice   float64 `gorm:"default:0" json:"sale_price"`
	DamageFee   float64 `gorm:"default:0" json:"damage_fee"`
	LostFee     float64 `gorm:"default:0" json:"lost_fee"`

	StockTotal     int `gorm:"default:0" json:"stock_total"`
	StockAvailable int `gorm:"default:0" json:"stock_available"`
	StockBooked    int `gorm:"default:0" json:"stock_booked"`
	StockDamaged   int `gorm:"default:0" json:"stock_damaged"`
	StockInLaundry int `gorm:"default:0" json:"stock_in_laundry"`
	StockVersion   int `gorm:"default:0" json:"-"`

	ImageURL  string         `json:"image_url"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
