package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockbook/models"
)

func freezeClock(t *testing.T, value string) {
	t.Helper()
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		t.Fatalf("bad clock value %q: %v", value, err)
	}
	original := nowFunc
	nowFunc = func() time.Time { return parsed }
	t.Cleanup(func() { nowFunc = original })
}

func TestCreateLogDerivesStartQuantity(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t)
	defer restoreDB()
	freezeClock(t, "2026-03-02")

	business, _, staff := seedBusiness(t, db)
	rice := seedItem(t, db, business.ID, "Rice", "kg", 25, 5)

	yesterday := models.InventoryLog{
		BusinessID: business.ID,
		UserID:     staff.ID,
		ItemID:     rice.ID,
		Date:       "2026-03-01",
		StartQty:   20,
		UsedQty:    5,
	}
	if err := db.Create(&yesterday).Error; err != nil {
		t.Fatalf("failed to seed previous log: %v", err)
	}

	body, _ := json.Marshal(map[string]any{"item_id": rice.ID, "used_qty": 3})
	req := httptest.NewRequest(http.MethodPost, "/api/logs", bytes.NewReader(body))
	req = signedInRequest(t, sm, req, staff.ID, business.ID, models.RoleStaff)
	recorder := httptest.NewRecorder()

	InventoryLogResource(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response logResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Date != "2026-03-02" {
		t.Errorf("expected date to default to today, got %q", response.Date)
	}
	if response.StartQty != 15 {
		t.Errorf("expected start_qty 15 carried over, got %v", response.StartQty)
	}
	if response.Approved {
		t.Error("expected new log to be pending")
	}

	var stored models.InventoryItem
	if err := db.First(&stored, rice.ID).Error; err != nil {
		t.Fatalf("failed to reload item: %v", err)
	}
	if stored.Quantity != 25 {
		t.Errorf("expected logging to leave stock untouched, got %v", stored.Quantity)
	}
}

func TestStartQuantityEndpoint(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t)
	defer restoreDB()

	business, _, staff := seedBusiness(t, db)
	rice := seedItem(t, db, business.ID, "Rice", "kg", 25, 5)

	seedLog := func(date string, start, used float64) {
		entry := models.InventoryLog{BusinessID: business.ID, UserID: staff.ID, ItemID: rice.ID, Date: date, StartQty: start, UsedQty: used}
		if err := db.Create(&entry).Error; err != nil {
			t.Fatalf("failed to seed log: %v", err)
		}
	}
	seedLog("2026-03-01", 20, 5)
	seedLog("2026-03-03", 4, 9)

	cases := []struct {
		name string
		date string
		want float64
	}{
		{name: "carries previous day balance", date: "2026-03-02", want: 15},
		{name: "no previous day log", date: "2026-03-10", want: 0},
		{name: "negative balance floors at zero", date: "2026-03-04", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url := fmt.Sprintf("/api/logs/start-quantity?item_id=%d&date=%s", rice.ID, tc.date)
			req := httptest.NewRequest(http.MethodGet, url, nil)
			req = signedInRequest(t, sm, req, staff.ID, business.ID, models.RoleStaff)
			recorder := httptest.NewRecorder()

			InventoryLogResource(recorder, req)

			if recorder.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
			}
			var response struct {
				StartQty float64 `json:"start_qty"`
			}
			if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.StartQty != tc.want {
				t.Errorf("expected start_qty %v, got %v", tc.want, response.StartQty)
			}
		})
	}
}

func TestCreateLogValidation(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t)
	defer restoreDB()

	business, _, staff := seedBusiness(t, db)
	rice := seedItem(t, db, business.ID, "Rice", "kg", 25, 5)

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{name: "missing item", payload: map[string]any{"used_qty": 2}},
		{name: "negative usage", payload: map[string]any{"item_id": rice.ID, "used_qty": -1}},
		{name: "bad date", payload: map[string]any{"item_id": rice.ID, "used_qty": 1, "date": "03/02/2026"}},
		{name: "unknown item", payload: map[string]any{"item_id": 999, "used_qty": 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.payload)
			req := httptest.NewRequest(http.MethodPost, "/api/logs", bytes.NewReader(body))
			req = signedInRequest(t, sm, req, staff.ID, business.ID, models.RoleStaff)
			recorder := httptest.NewRecorder()

			InventoryLogResource(recorder, req)

			if recorder.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", recorder.Code)
			}
		})
	}
}

func TestApproveLogStampsReviewer(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t)
	defer restoreDB()

	business, admin, staff := seedBusiness(t, db)
	rice := seedItem(t, db, business.ID, "Rice", "kg", 25, 5)

	entry := models.InventoryLog{BusinessID: business.ID, UserID: staff.ID, ItemID: rice.ID, Date: "2026-03-02", StartQty: 15, UsedQty: 3}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("failed to seed log: %v", err)
	}

	approve := func(userID uint, role string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/logs/%d/approve", entry.ID), nil)
		req = signedInRequest(t, sm, req, userID, business.ID, role)
		recorder := httptest.NewRecorder()
		InventoryLogResource(recorder, req)
		return recorder
	}

	if recorder := approve(staff.ID, models.RoleStaff); recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for staff, got %d", recorder.Code)
	}

	recorder := approve(admin.ID, models.RoleAdmin)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response logResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Approved {
		t.Error("expected log to be approved")
	}
	if response.ReviewedBy == nil || *response.ReviewedBy != admin.ID {
		t.Errorf("expected reviewed_by %d, got %v", admin.ID, response.ReviewedBy)
	}

	if second := approve(admin.ID, models.RoleAdmin); second.Code != http.StatusConflict {
		t.Fatalf("expected status 409 on repeat approval, got %d", second.Code)
	}
}
