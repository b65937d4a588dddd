package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductBarcode is one serialized physical unit of a product, as opposed to
// the aggregate stock counters on Product.
type ProductBarcode struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BarcodeNumber  string         `gorm:"uniqueIndex;not null" json:"barcode_number"`
	SequenceNumber int            `gorm:"default:0" json:"sequence_number"`
	ProductID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	Product        *Product       `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Status         string         `gorm:"default:available;index" json:"status"` // available, assigned, delivered, returned, completed
	BookingID      *uuid.UUID     `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	FranchiseID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"franchise_id"`
	LastUsedAt     *time.Time     `json:"last_used_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *ProductBarcode) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusDelivered AssignmentStatus = "delivered"
	AssignmentStatusReturned  AssignmentStatus = "returned"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

// BookingBarcodeAssignment binds a barcode to a booking for the duration of a
// rental. At most one row exists per (barcode, booking) pair.
type BookingBarcodeAssignment struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BarcodeID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_barcode_booking" json:"barcode_id"`
	Barcode     *ProductBarcode  `gorm:"foreignKey:BarcodeID" json:"barcode,omitempty"`
	BookingID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_barcode_booking;index" json:"booking_id"`
	BookingType string           `gorm:"default:package" json:"booking_type"` // package, product
	ProductID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id"`
	Status      AssignmentStatus `gorm:"default:assigned" json:"status"`
	AssignedBy  *uuid.UUID       `gorm:"type:uuid" json:"assigned_by,omitempty"`
	DeliveredBy *uuid.UUID       `gorm:"type:uuid" json:"delivered_by,omitempty"`
	ReturnedBy  *uuid.UUID       `gorm:"type:uuid" json:"returned_by,omitempty"`
	FranchiseID uuid.UUID        `gorm:"type:uuid;not null;index" json:"franchise_id"`
	Notes       string           `json:"notes"`
	AssignedAt  time.Time        `json:"assigned_at"`
	DeliveredAt *time.Time       `json:"delivered_at,omitempty"`
	ReturnedAt  *time.Time       `json:"returned_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (a *BookingBarcodeAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now()
	}
	return nil
}

// AllowedAssignmentTransitions defines the forward-only assignment state machine.
var AllowedAssignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentStatusAssigned:  {AssignmentStatusDelivered},
	AssignmentStatusDelivered: {AssignmentStatusReturned, AssignmentStatusCompleted},
	AssignmentStatusReturned:  {AssignmentStatusCompleted},
	AssignmentStatusCompleted: {},
}

// IsValidAssignmentTransition checks if a status transition is allowed.
func IsValidAssignmentTransition(from, to AssignmentStatus) bool {
	allowed, exists := AllowedAssignmentTransitions[from]
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
