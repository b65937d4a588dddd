package inventory

import (
	"fmt"

	"rivaaz-backend/models"
)

// ReturnQuantities are the declared final counts for one product on a return.
type ReturnQuantities struct {
	QtyDelivered int
	QtyReturned  int
	QtyNotUsed   int
	QtyDamaged   int
	QtyLost      int
	QtyToLaundry int
}

// HandoverBaseline holds the quantities already released to stock at
// handover time for the same delivery and product. Subtracting it is what
// keeps the final return from double-counting handover restocks.
type HandoverBaseline struct {
	RestockedQty       int
	ReturnedLaundryQty int
}

// Snapshot is a point-in-time copy of one product's stock counters.
type Snapshot struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Booked    int `json:"booked"`
	Damaged   int `json:"damaged"`
	InLaundry int `json:"in_laundry"`
}

func SnapshotOf(p *models.Product) Snapshot {
	return Snapshot{
		Total:     p.StockTotal,
		Available: p.StockAvailable,
		Booked:    p.StockBooked,
		Damaged:   p.StockDamaged,
		InLaundry: p.StockInLaundry,
	}
}

// Projection is the per-product outcome of reconciling a return against
// its handover baseline. Projected values are not clamped (except booked)
// so callers can surface negative projections as warnings before commit.
type Projection struct {
	Current   Snapshot `json:"current_stock"`
	Projected Snapshot `json:"projected_stock"`
	Delta     Delta    `json:"-"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ReturnDelta computes the net stock delta for one product, crediting back
// only what the handover has not already released.
func ReturnDelta(q ReturnQuantities, base HandoverBaseline) Delta {
	alreadyRestocked := q.QtyNotUsed
	if base.RestockedQty < alreadyRestocked {
		alreadyRestocked = base.RestockedQty
	}
	alreadyToLaundry := base.ReturnedLaundryQty

	directToAvailable := (q.QtyNotUsed - alreadyRestocked) + (q.QtyReturned - q.QtyToLaundry)
	bookedRelease := q.QtyDelivered - (base.RestockedQty + alreadyToLaundry)
	if bookedRelease < 0 {
		bookedRelease = 0
	}

	return Delta{
		Available: directToAvailable,
		Booked:    -bookedRelease,
		Damaged:   q.QtyDamaged,
		Total:     -q.QtyLost,
		InLaundry: q.QtyToLaundry,
	}
}

// ProjectReturn runs the same arithmetic the commit path applies, without
// touching any state. Both the return preview and the commit go through
// here so the two can never diverge.
func ProjectReturn(productName string, current Snapshot, q ReturnQuantities, base HandoverBaseline) Projection {
	d := ReturnDelta(q, base)

	projected := Snapshot{
		Total:     current.Total + d.Total,
		Available: current.Available + d.Available,
		Booked:    current.Booked + d.Booked,
		Damaged:   current.Damaged + d.Damaged,
		InLaundry: current.InLaundry + d.InLaundry,
	}
	if projected.Booked < 0 {
		projected.Booked = 0
	}

	var warnings []string
	if projected.Available < 0 {
		warnings = append(warnings, fmt.Sprintf("projected available stock for %s is negative (%d)", productName, projected.Available))
	}
	if projected.Total < 0 {
		warnings = append(warnings, fmt.Sprintf("projected total stock for %s is negative (%d)", productName, projected.Total))
	}
	if q.QtyLost > 0 {
		warnings = append(warnings, fmt.Sprintf("%d unit(s) of %s permanently removed from stock as lost", q.QtyLost, productName))
	}
	if q.QtyDamaged > 0 {
		warnings = append(warnings, fmt.Sprintf("%d unit(s) of %s will be archived as damaged", q.QtyDamaged, productName))
	}
	if q.QtyToLaundry > 0 {
		warnings = append(warnings, fmt.Sprintf("%d unit(s) of %s will be sent to laundry", q.QtyToLaundry, productName))
	}
	if base.RestockedQty > 0 || base.ReturnedLaundryQty > 0 {
		warnings = append(warnings, fmt.Sprintf("%d unit(s) of %s already handled at handover", base.RestockedQty+base.ReturnedLaundryQty, productName))
	}

	return Projection{Current: current, Projected: projected, Delta: d, Warnings: warnings}
}
