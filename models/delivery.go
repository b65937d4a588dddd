package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusCancelled DeliveryStatus = "cancelled"
)

// Delivery is a scheduled or completed handoff event for a booking.
type Delivery struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DeliveryNumber string         `gorm:"uniqueIndex;not null" json:"delivery_number"`
	BookingID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"booking_id"`
	Booking        *Booking       `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	BookingType    string         `gorm:"default:package" json:"booking_type"`
	CustomerID     uuid.UUID      `gorm:"type:uuid;index" json:"customer_id"`
	FranchiseID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"franchise_id"`
	Status         DeliveryStatus `gorm:"default:pending" json:"status"`
	ScheduledDate  *time.Time     `json:"scheduled_date,omitempty"`
	Address        string         `json:"address"`

	RecipientName        string     `json:"recipient_name"`
	RecipientPhone       string     `json:"recipient_phone"`
	HandoverPhotoURL     string     `json:"handover_photo_url"`
	HandoverSignatureURL string     `json:"handover_signature_url"`
	ReturnedAt           *time.Time `json:"returned_at,omitempty"`

	Notes     string         `json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *Delivery) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.DeliveryNumber == "" {
		d.DeliveryNumber = "DEL" + time.Now().Format("20060102150405") + d.ID.String()[:8]
	}
	return nil
}

// AllowedDeliveryTransitions defines the valid delivery status state machine.
var AllowedDeliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusPending:   {DeliveryStatusInTransit, DeliveryStatusDelivered, DeliveryStatusCancelled},
	DeliveryStatusInTransit: {DeliveryStatusDelivered, DeliveryStatusCancelled},
	DeliveryStatusDelivered: {},
	DeliveryStatusCancelled: {},
}

// IsValidDeliveryTransition checks if a status transition is allowed.
func IsValidDeliveryTransition(from, to DeliveryStatus) bool {
	allowed, exists := AllowedDeliveryTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// DeliveryHandoverItem is the per (delivery, product) running tally recorded
// while items change custody during a delivery. RestockedQty,
// ReturnedRestockedQty and ReturnedLaundryQty track the portion already
// reflected in the stock counters; they never decrease, and the return engine
// applies only the delta above them.
type DeliveryHandoverItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DeliveryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_handover_delivery_product" json:"delivery_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_handover_delivery_product" json:"product_id"`

	QtyNotTied int    `gorm:"default:0" json:"qty_not_tied"`
	QtyUsed    int    `gorm:"default:0" json:"qty_used"`
	QtyNotUsed int    `gorm:"default:0" json:"qty_not_used"`
	QtyDamaged int    `gorm:"default:0" json:"qty_damaged"`
	QtyLost    int    `gorm:"default:0" json:"qty_lost"`
	Notes      string `json:"notes"`

	RestockedQty         int        `gorm:"default:0" json:"restocked_qty"`
	ReturnedRestockedQty int        `gorm:"default:0" json:"returned_restocked_qty"`
	ReturnedLaundryQty   int        `gorm:"default:0" json:"returned_laundry_qty"`
	RestockedAt          *time.Time `json:"restocked_at,omitempty"`

	FranchiseID uuid.UUID `gorm:"type:uuid;not null;index" json:"franchise_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (hi *DeliveryHandoverItem) BeforeCreate(tx *gorm.DB) error {
	if hi.ID == uuid.Nil {
		hi.ID = uuid.New()
	}
	return nil
}
