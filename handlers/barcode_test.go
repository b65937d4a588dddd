package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"rivaaz-backend/models"
)

func TestScanAssign(t *testing.T) {
	db := freshDB()
	router := setupBarcodeRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	customer := seedCustomer(db, franchise.ID, "Asha", "9876543210")
	product := seedProduct(db, franchise.ID, "Sherwani", 5)
	barcode := seedBarcode(db, product, 1)
	booking := seedBooking(db, franchise.ID, customer.ID, product, 1, 0)
	_, token := seedStaffWithToken(db, franchise)

	body := map[string]string{
		"barcode":    barcode.BarcodeNumber,
		"action":     "assign",
		"booking_id": booking.ID.String(),
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/barcodes/scan", body, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["success"] != true {
		t.Fatalf("expected success, got %v", resp)
	}
	if resp["status"] != "assigned" {
		t.Errorf("expected status assigned, got %v", resp["status"])
	}

	var bc models.ProductBarcode
	db.Where("id = ?", barcode.ID).First(&bc)
	if bc.Status != "assigned" || bc.BookingID == nil || *bc.BookingID != booking.ID {
		t.Errorf("barcode should remember its booking, got status=%s", bc.Status)
	}
}

func TestScanAssignTwiceIsInformationalNoOp(t *testing.T) {
	db := freshDB()
	router := setupBarcodeRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	customer := seedCustomer(db, franchise.ID, "Asha", "9876543210")
	product := seedProduct(db, franchise.ID, "Sherwani", 5)
	barcode := seedBarcode(db, product, 1)
	booking := seedBooking(db, franchise.ID, customer.ID, product, 1, 0)
	_, token := seedStaffWithToken(db, franchise)

	body := map[string]string{
		"barcode":    barcode.BarcodeNumber,
		"action":     "assign",
		"booking_id": booking.ID.String(),
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/barcodes/scan", body, token))
	if w.Code != http.StatusOK {
		t.Fatalf("first assign failed: %d %s", w.Code, w.Body.String())
	}

	// Re-scanning the same barcode against the same booking is a non-error
	// informational result, not a failure.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/barcodes/scan", body, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["success"] != false {
		t.Errorf("duplicate assign should report success=false, got %v", resp["success"])
	}
	if resp["message"] != "Barcode already assigned to this booking" {
		t.Errorf("unexpected message: %v", resp["message"])
	}

	var count int64
	db.Model(&models.BookingBarcodeAssignment{}).
		Where("barcode_id = ? AND booking_id = ?", barcode.ID, booking.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 assignment, got %d", count)
	}
}

func TestScanAssignToSecondBookingRejected(t *testing.T) {
	db := freshDB()
	router := setupBarcodeRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	customer := seedCustomer(db, franchise.ID, "Asha", "9876543210")
	product := seedProduct(db, franchise.ID, "Sherwani", 5)
	barcode := seedBarcode(db, product, 1)
	first := seedBooking(db, franchise.ID, customer.ID, product, 1, 0)
	second := seedBooking(db, franchise.ID, customer.ID, product, 1, 0)
	_, token := seedStaffWithToken(db, franchise)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/barcodes/scan", map[string]string{
		"barcode": barcode.BarcodeNumber, "action": "assign", "booking_id": first.ID.String(),
	}, token))
	if w.Code != http.StatusOK {
		t.Fatalf("first assign failed: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/barcodes/scan", map[string]string{
		"barcode": barcode.BarcodeNumber, "action": "assign", "booking_id": second.ID.String(),
	}, token))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409 for a barcode held by another booking, got %d: %s", w.Code, w.Body.String())
	}
}

func TestScanLifecycle(t *testing.T) {
	db := freshDB()
	router := setupBarcodeRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	customer := seedCustomer(db, franchise.ID, "Asha", "9876543210")
	product := seedProduct(db, franchise.ID, "Sherwani", 5)
	barcode := seedBarcode(db, product, 1)
	booking := seedBooking(db, franchise.ID, customer.ID, product, 1, 0)
	_, token := seedStaffWithToken(db, franchise)

	scan := func(action string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authRequest("POST", "/api/barcodes/scan", map[string]string{
			"barcode":    barcode.BarcodeNumber,
			"action":     action,
			"booking_id": booking.ID.String(),
		}, token))
		return w
	}

	if w := scan("assign"); w.Code != http.StatusOK {
		t.Fatalf("assign failed: %d %s", w.Code, w.Body.String())
	}
	if w := scan("delivery_out"); w.Code != http.StatusOK {
		t.Fatalf("delivery_out failed: %d %s", w.Code, w.Body.String())
	}
	if w := scan("return_in"); w.Code != http.StatusOK {
		t.Fatalf("return_in failed: %d %s", w.Code, w.Body.String())
	}
	if w := scan("complete"); w.Code != http.StatusOK {
		t.Fatalf("complete failed: %d %s", w.Code, w.Body.String())
	}

	var assignment models.BookingBarcodeAssignment
	db.Where("barcode_id = ? AND booking_id = ?", barcode.ID, booking.ID).First(&assignment)
	if assignment.Status != models.AssignmentStatusCompleted {
		t.Errorf("expected completed assignment, got %s", assignment.Status)
	}
	if assignment.DeliveredAt == nil || assignment.ReturnedAt == nil || assignment.CompletedAt == nil {
		t.Error("every transition should stamp its timestamp")
	}

	// A completed unit goes back into the assignable pool.
	var bc models.ProductBarcode
	db.Where("id = ?", barcode.ID).First(&bc)
	if bc.Status != "available" {
		t.Errorf("completed barcode should be available again, got %s", bc.Status)
	}
	if bc.BookingID != nil {
		t.Error("completed barcode should be unbound from the booking")
	}
}

func TestScanRejectsBackwardTransition(t *testing.T) {
	db := freshDB()
	router := setupBarcodeRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	customer := seedCustomer(db, franchise.ID, "Asha", "9876543210")
	product := seedProduct(db, franchise.ID, "Sherwani", 5)
	barcode := seedBarcode(db, product, 1)
	booking := seedBooking(db, franchise.ID, customer.ID, product, 1, 0)
	_, token := seedStaffWithToken(db, franchise)

	scan := func(action string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authRequest("POST", "/api/barcodes/scan", map[string]string{
			"barcode":    barcode.BarcodeNumber,
			"action":     action,
			"booking_id": booking.ID.String(),
		}, token))
		return w
	}

	scan("assign")
	scan("delivery_out")
	scan("return_in")

	// return_in again would regress nothing but is not a valid transition
	// from returned.
	if w := scan("return_in"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for repeated return_in, got %d: %s", w.Code, w.Body.String())
	}
	// delivery_out after return is a regression.
	if w := scan("delivery_out"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for backward transition, got %d: %s", w.Code, w.Body.String())
	}
}

func TestScanUnknownBarcode(t *testing.T) {
	db := freshDB()
	router := setupBarcodeRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	_, token := seedStaffWithToken(db, franchise)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/barcodes/scan", map[string]string{
		"barcode": "NO-SUCH-001", "action": "assign", "booking_id": "ignored",
	}, token))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestScanTransitionWithoutBooking(t *testing.T) {
	db := freshDB()
	router := setupBarcodeRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	product := seedProduct(db, franchise.ID, "Sherwani", 5)
	barcode := seedBarcode(db, product, 1)
	_, token := seedStaffWithToken(db, franchise)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/barcodes/scan", map[string]string{
		"barcode": barcode.BarcodeNumber, "action": "delivery_out",
	}, token))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 when no booking is resolvable, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLookupBarcode(t *testing.T) {
	db := freshDB()
	router := setupBarcodeRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	product := seedProduct(db, franchise.ID, "Sherwani", 5)
	barcode := seedBarcode(db, product, 1)
	_, token := seedStaffWithToken(db, franchise)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/barcodes/"+barcode.BarcodeNumber, nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	bc := resp["barcode"].(map[string]interface{})
	prod := bc["product"].(map[string]interface{})
	if prod["name"] != "Sherwani" {
		t.Errorf("expected product preloaded in lookup, got %v", prod["name"])
	}
}
