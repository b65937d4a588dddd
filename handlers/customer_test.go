package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateCustomer(t *testing.T) {
	db := freshDB()
	router := setupCustomerRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	_, token := seedStaffWithToken(db, franchise)

	body := map[string]string{
		"name":  "Priya Sharma",
		"phone": "9876543210",
		"city":  "Jaipur",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/customers", body, token))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["name"] != "Priya Sharma" {
		t.Errorf("expected name Priya Sharma, got %v", resp["name"])
	}
	if resp["franchise_id"] != franchise.ID.String() {
		t.Errorf("customer should be bound to the caller's franchise")
	}
}

func TestCreateCustomerDuplicatePhone(t *testing.T) {
	db := freshDB()
	router := setupCustomerRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	_, token := seedStaffWithToken(db, franchise)
	seedCustomer(db, franchise.ID, "Existing", "9876543210")

	body := map[string]string{
		"name":  "Another Person",
		"phone": "9876543210",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/customers", body, token))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateCustomerSamePhoneDifferentFranchise(t *testing.T) {
	db := freshDB()
	router := setupCustomerRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchiseA := seedFranchise(db, "Store A", owner.ID)
	franchiseB := seedFranchise(db, "Store B", owner.ID)
	seedCustomer(db, franchiseA.ID, "Existing", "9876543210")
	_, token := seedStaffWithToken(db, franchiseB)

	body := map[string]string{
		"name":  "Same Phone Elsewhere",
		"phone": "9876543210",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/customers", body, token))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetCustomersScopedToFranchise(t *testing.T) {
	db := freshDB()
	router := setupCustomerRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchiseA := seedFranchise(db, "Store A", owner.ID)
	franchiseB := seedFranchise(db, "Store B", owner.ID)
	seedCustomer(db, franchiseA.ID, "Mine", "1111111111")
	seedCustomer(db, franchiseB.ID, "Theirs", "2222222222")
	_, token := seedStaffWithToken(db, franchiseA)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/customers", nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	customers := parseResponseArray(w)
	if len(customers) != 1 {
		t.Fatalf("expected 1 customer, got %d", len(customers))
	}
	first := customers[0].(map[string]interface{})
	if first["name"] != "Mine" {
		t.Errorf("expected only the caller's franchise customers, got %v", first["name"])
	}
}

func TestGetCustomersAdminSeesAll(t *testing.T) {
	db := freshDB()
	router := setupCustomerRouter(db)

	owner, token := seedTestUser(db, "admin@test.com", "admin", nil)
	franchiseA := seedFranchise(db, "Store A", owner.ID)
	franchiseB := seedFranchise(db, "Store B", owner.ID)
	seedCustomer(db, franchiseA.ID, "One", "1111111111")
	seedCustomer(db, franchiseB.ID, "Two", "2222222222")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/customers", nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	customers := parseResponseArray(w)
	if len(customers) != 2 {
		t.Fatalf("expected 2 customers for admin, got %d", len(customers))
	}
}

func TestSearchCustomersByPhone(t *testing.T) {
	db := freshDB()
	router := setupCustomerRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	seedCustomer(db, franchise.ID, "Asha", "9876543210")
	seedCustomer(db, franchise.ID, "Meera", "5550001111")
	_, token := seedStaffWithToken(db, franchise)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/customers?search=98765", nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	customers := parseResponseArray(w)
	if len(customers) != 1 {
		t.Fatalf("expected 1 match, got %d", len(customers))
	}
}

func TestUpdateCustomer(t *testing.T) {
	db := freshDB()
	router := setupCustomerRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	customer := seedCustomer(db, franchise.ID, "Before", "9876543210")
	_, token := seedStaffWithToken(db, franchise)

	body := map[string]string{"name": "After"}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("PUT", "/api/customers/"+customer.ID.String(), body, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["name"] != "After" {
		t.Errorf("expected updated name, got %v", resp["name"])
	}
	if resp["phone"] != "9876543210" {
		t.Errorf("phone should be untouched, got %v", resp["phone"])
	}
}

func TestUpdateCustomerPhoneConflict(t *testing.T) {
	db := freshDB()
	router := setupCustomerRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	seedCustomer(db, franchise.ID, "Holder", "1112223333")
	customer := seedCustomer(db, franchise.ID, "Mover", "4445556666")
	_, token := seedStaffWithToken(db, franchise)

	body := map[string]string{"phone": "1112223333"}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("PUT", "/api/customers/"+customer.ID.String(), body, token))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetCustomerCrossFranchiseHidden(t *testing.T) {
	db := freshDB()
	router := setupCustomerRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchiseA := seedFranchise(db, "Store A", owner.ID)
	franchiseB := seedFranchise(db, "Store B", owner.ID)
	customer := seedCustomer(db, franchiseA.ID, "Hidden", "9876543210")
	_, token := seedStaffWithToken(db, franchiseB)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/customers/"+customer.ID.String(), nil, token))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for cross-franchise access, got %d", w.Code)
	}
}
