package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "pending"
	ReturnStatusCompleted ReturnStatus = "completed"
)

// Return is the terminal stock reconciliation for a booking, usually linked to
// the delivery it closes out. One Return exists per delivery; a booking with
// several partial deliveries accumulates several Returns, and settlement
// aggregates across all of them.
type Return struct {
	ID           uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReturnNumber string       `gorm:"uniqueIndex;not null" json:"return_number"`
	DeliveryID   *uuid.UUID   `gorm:"type:uuid;uniqueIndex" json:"delivery_id,omitempty"`
	BookingID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"booking_id"`
	BookingType  string       `gorm:"default:package" json:"booking_type"`
	CustomerID   uuid.UUID    `gorm:"type:uuid;index" json:"customer_id"`
	FranchiseID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"franchise_id"`
	Status       ReturnStatus `gorm:"default:pending" json:"status"`
	ReturnDate   *time.Time   `json:"return_date,omitempty"`
	InvoiceID    *uuid.UUID   `gorm:"type:uuid" json:"invoice_id,omitempty"`

	TotalItems    int `gorm:"default:0" json:"total_items"`
	TotalReturned int `gorm:"default:0" json:"total_returned"`
	TotalDamaged  int `gorm:"default:0" json:"total_damaged"`
	TotalLost     int `gorm:"default:0" json:"total_lost"`

	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
	ProcessedBy *uuid.UUID     `gorm:"type:uuid" json:"processed_by,omitempty"`
	Notes       string         `json:"notes"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Return) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.ReturnNumber == "" {
		r.ReturnNumber = "RET" + time.Now().Format("20060102150405") + r.ID.String()[:8]
	}
	return nil
}

// ReturnItem holds the authoritative per-product counts for a return; they
// feed both the stock-delta computation and the settlement damage/loss
// aggregation.
type ReturnItem struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReturnID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_return_item_return_product" json:"return_id"`
	Return   Return    `gorm:"foreignKey:ReturnID" json:"-"`

	ProductID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_return_item_return_product" json:"product_id"`
	ProductName string    `json:"product_name"`
	ProductCode string    `json:"product_code"`

	QtyDelivered int `gorm:"default:0" json:"qty_delivered"`
	QtyReturned  int `gorm:"default:0" json:"qty_returned"`
	QtyNotUsed   int `gorm:"default:0" json:"qty_not_used"`
	QtyDamaged   int `gorm:"default:0" json:"qty_damaged"`
	QtyLost      int `gorm:"default:0" json:"qty_lost"`
	QtyToLaundry int `gorm:"default:0" json:"qty_to_laundry"`

	Archived      bool      `gorm:"default:false" json:"archived"`
	SentToLaundry bool      `gorm:"default:false" json:"sent_to_laundry"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (ri *ReturnItem) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}

// ProductArchive permanently records units removed from circulation; there is
// no matching stock increment anywhere.
type ProductArchive struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string     `json:"product_name"`
	ProductCode string     `json:"product_code"`
	Reason      string     `gorm:"not null" json:"reason"` // damaged, lost
	Quantity    int        `gorm:"not null" json:"quantity"`
	ReturnID    *uuid.UUID `gorm:"type:uuid;index" json:"return_id,omitempty"`
	DeliveryID  *uuid.UUID `gorm:"type:uuid;index" json:"delivery_id,omitempty"`
	FranchiseID uuid.UUID  `gorm:"type:uuid;not null;index" json:"franchise_id"`
	ArchivedBy  *uuid.UUID `gorm:"type:uuid" json:"archived_by,omitempty"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (pa *ProductArchive) BeforeCreate(tx *gorm.DB) error {
	if pa.ID == uuid.Nil {
		pa.ID = uuid.New()
	}
	return nil
}
