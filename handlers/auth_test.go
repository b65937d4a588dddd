package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRegisterSuccess(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	body := map[string]string{
		"email":    "newuser@test.com",
		"password": "password123",
		"name":     "New User",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["token"] == nil || resp["token"] == "" {
		t.Error("expected token in response")
	}
	user := resp["user"].(map[string]interface{})
	if user["email"] != "newuser@test.com" {
		t.Errorf("expected email newuser@test.com, got %v", user["email"])
	}
	if user["role"] != "franchise_staff" {
		t.Errorf("expected role franchise_staff, got %v", user["role"])
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	seedTestUser(db, "existing@test.com", "franchise_staff", nil)

	body := map[string]string{
		"email":    "existing@test.com",
		"password": "password123",
		"name":     "Duplicate User",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register", body))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["error"] != "Email already registered" {
		t.Errorf("expected 'Email already registered', got %v", resp["error"])
	}
}

func TestRegisterWithFranchise(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)

	body := map[string]string{
		"email":        "staff@test.com",
		"password":     "password123",
		"name":         "Staff Member",
		"franchise_id": franchise.ID.String(),
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	user := resp["user"].(map[string]interface{})
	if user["franchise_id"] != franchise.ID.String() {
		t.Errorf("expected franchise_id %s, got %v", franchise.ID, user["franchise_id"])
	}
}

func TestRegisterUnknownFranchiseRejected(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	body := map[string]string{
		"email":        "staff@test.com",
		"password":     "password123",
		"franchise_id": uuid.New().String(),
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register", body))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginSuccess(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	seedTestUser(db, "login@test.com", "franchise_staff", nil)

	body := map[string]string{
		"email":    "login@test.com",
		"password": "password123",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/login", body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["token"] == nil || resp["token"] == "" {
		t.Error("expected token in response")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	seedTestUser(db, "login@test.com", "franchise_staff", nil)

	body := map[string]string{
		"email":    "login@test.com",
		"password": "wrongpassword",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/login", body))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginBlockedUser(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	user, _ := seedTestUser(db, "blocked@test.com", "franchise_staff", nil)
	db.Model(&user).Update("is_blocked", true)

	body := map[string]string{
		"email":    "blocked@test.com",
		"password": "password123",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/login", body))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginIncludesFranchiseInfo(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "admin", nil)
	franchise := seedFranchise(db, "Rivaaz Test Store", owner.ID)
	seedStaffWithToken(db, franchise)

	var staffEmail string
	db.Raw("SELECT email FROM users WHERE franchise_id = ?", franchise.ID).Scan(&staffEmail)

	body := map[string]string{
		"email":    staffEmail,
		"password": "password123",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/login", body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	fr, ok := resp["franchise"].(map[string]interface{})
	if !ok {
		t.Fatal("expected franchise block in login response")
	}
	if fr["name"] != "Rivaaz Test Store" {
		t.Errorf("expected franchise name in response, got %v", fr["name"])
	}
}

func TestGetProfile(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	_, token := seedTestUser(db, "profile@test.com", "franchise_staff", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/auth/profile", nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["email"] != "profile@test.com" {
		t.Errorf("expected email profile@test.com, got %v", resp["email"])
	}
}

func TestGetProfileRequiresAuth(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("GET", "/api/auth/profile", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestChangePassword(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	_, token := seedTestUser(db, "changepw@test.com", "franchise_staff", nil)

	body := map[string]string{
		"current_password": "password123",
		"new_password":     "newpassword456",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("PUT", "/api/auth/password", body, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// The old password no longer works.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/login", map[string]string{
		"email":    "changepw@test.com",
		"password": "password123",
	}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected old password to be rejected, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/login", map[string]string{
		"email":    "changepw@test.com",
		"password": "newpassword456",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected new password to work, got %d: %s", w.Code, w.Body.String())
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	_, token := seedTestUser(db, "wrongpw@test.com", "franchise_staff", nil)

	body := map[string]string{
		"current_password": "not-the-password",
		"new_password":     "newpassword456",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("PUT", "/api/auth/password", body, token))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}
