package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusDelivered BookingStatus = "delivered"
	BookingStatusReturned  BookingStatus = "returned"
	BookingStatusSettled   BookingStatus = "Settled"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a rental reservation (package or flat product order). The
// settlement fields are written exactly once: SettlementLocked is terminal and
// nothing may flip it back to false.
type Booking struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingNumber string        `gorm:"uniqueIndex;not null" json:"booking_number"`
	BookingType   string        `gorm:"default:package" json:"booking_type"` // package, product
	CustomerID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer      *Customer     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	FranchiseID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"franchise_id"`
	Status        BookingStatus `gorm:"default:pending" json:"status"`
	EventDate     *time.Time    `json:"event_date,omitempty"`
	TotalAmount   float64       `gorm:"default:0" json:"total_amount"`
	Items         []BookingItem `gorm:"foreignKey:BookingID" json:"items"`

	DepositAmount     float64    `gorm:"default:0" json:"deposit_amount"`
	DeductionsTotal   float64    `gorm:"default:0" json:"deductions_total"`
	RefundAmount      float64    `gorm:"default:0" json:"refund_amount"`
	ExtraCharge       float64    `gorm:"default:0" json:"extra_charge"`
	SettlementLocked  bool       `gorm:"default:false" json:"settlement_locked"`
	SettledBy         *uuid.UUID `gorm:"type:uuid" json:"settled_by,omitempty"`
	SettledAt         *time.Time `json:"settled_at,omitempty"`
	SettlementDetails string     `json:"settlement_details"` // JSON breakdown, written at settlement time

	Notes     string         `json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type BookingItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;index" json:"booking_id"`
	Booking   Booking   `gorm:"foreignKey:BookingID" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product"`
	// Snapshots of the product at booking time.
	ProductName string    `json:"product_name"`
	ProductCode string    `json:"product_code"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Price       float64   `gorm:"not null" json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.BookingNumber == "" {
		b.BookingNumber = "BKG" + time.Now().Format("20060102150405") + b.ID.String()[:8]
	}
	return nil
}

func (bi *BookingItem) BeforeCreate(tx *gorm.DB) error {
	if bi.ID == uuid.Nil {
		bi.ID = uuid.New()
	}
	return nil
}
