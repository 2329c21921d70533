package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stockbook/models"
)

func TestValidateItemPayload(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload itemRequest
		wantErr bool
	}{
		{name: "valid", payload: itemRequest{Name: "Sugar", Unit: "kg", Quantity: 10, Threshold: 2}},
		{name: "zero threshold allowed", payload: itemRequest{Name: "Salt", Unit: "kg", Quantity: 1}},
		{name: "missing name", payload: itemRequest{Unit: "kg", Quantity: 10}, wantErr: true},
		{name: "missing unit", payload: itemRequest{Name: "Sugar", Quantity: 10}, wantErr: true},
		{name: "zero quantity", payload: itemRequest{Name: "Sugar", Unit: "kg", Quantity: 0}, wantErr: true},
		{name: "negative threshold", payload: itemRequest{Name: "Sugar", Unit: "kg", Quantity: 10, Threshold: -1}, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := validateItemPayload(tc.payload)
			if tc.wantErr && err == nil {
				t.Error("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestItemCRUD(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t)
	defer restoreDB()

	business, admin, _ := seedBusiness(t, db)

	do := func(method, target string, payload map[string]any) *httptest.ResponseRecorder {
		var body *bytes.Reader
		if payload != nil {
			raw, _ := json.Marshal(payload)
			body = bytes.NewReader(raw)
		} else {
			body = bytes.NewReader(nil)
		}
		req := httptest.NewRequest(method, target, body)
		req = signedInRequest(t, sm, req, admin.ID, business.ID, models.RoleAdmin)
		recorder := httptest.NewRecorder()
		ItemResource(recorder, req)
		return recorder
	}

	created := do(http.MethodPost, "/api/items", map[string]any{"name": "Sugar", "unit": "kg", "quantity": 10, "threshold": 2})
	if created.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", created.Code, created.Body.String())
	}
	var item itemResponse
	if err := json.NewDecoder(created.Body).Decode(&item); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if item.LowStock {
		t.Error("expected fresh item above threshold")
	}

	updated := do(http.MethodPut, fmt.Sprintf("/api/items/%d", item.ID), map[string]any{"name": "Sugar", "unit": "kg", "quantity": 2, "threshold": 2})
	if updated.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", updated.Code, updated.Body.String())
	}
	if err := json.NewDecoder(updated.Body).Decode(&item); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !item.LowStock {
		t.Error("expected item at threshold to be flagged low")
	}

	shown := do(http.MethodGet, fmt.Sprintf("/api/items/%d", item.ID), nil)
	if shown.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", shown.Code)
	}

	deleted := do(http.MethodDelete, fmt.Sprintf("/api/items/%d", item.ID), nil)
	if deleted.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", deleted.Code)
	}

	gone := do(http.MethodGet, fmt.Sprintf("/api/items/%d", item.ID), nil)
	if gone.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", gone.Code)
	}
}

func TestUpdateItemAllowsDepletedStock(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t)
	defer restoreDB()

	business, admin, _ := seedBusiness(t, db)
	item := seedItem(t, db, business.ID, "Vegetable Oil", "l", -3, 1)

	payload := map[string]any{"name": "Palm Oil", "unit": "l", "quantity": -3, "threshold": 2}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/items/%d", item.ID), bytes.NewReader(body))
	req = signedInRequest(t, sm, req, admin.ID, business.ID, models.RoleAdmin)
	recorder := httptest.NewRecorder()

	ItemResource(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var updated itemResponse
	if err := json.NewDecoder(recorder.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.Name != "Palm Oil" || updated.Threshold != 2 {
		t.Errorf("expected rename and threshold change to apply, got %+v", updated)
	}
	if updated.Quantity != -3 {
		t.Errorf("expected negative stock preserved, got %v", updated.Quantity)
	}
	if !updated.LowStock {
		t.Error("expected depleted item flagged low")
	}
}

func TestListItemsLowStockFilter(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t)
	defer restoreDB()

	business, _, staff := seedBusiness(t, db)
	seedItem(t, db, business.ID, "Sugar", "kg", 10, 2)
	seedItem(t, db, business.ID, "Rice", "kg", 3, 5)
	seedItem(t, db, business.ID, "Vegetable Oil", "l", 0, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/items?low_stock=true", nil)
	req = signedInRequest(t, sm, req, staff.ID, business.ID, models.RoleStaff)
	recorder := httptest.NewRecorder()
	ItemResource(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var listed []itemResponse
	if err := json.NewDecoder(recorder.Body).Decode(&listed); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 low-stock items, got %d", len(listed))
	}
	for _, item := range listed {
		if !item.LowStock {
			t.Errorf("expected %q to be flagged low", item.Name)
		}
	}
}

func TestItemsScopedToBusiness(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t)
	defer restoreDB()

	business, _, staff := seedBusiness(t, db)
	other := models.Business{Name: "Other Shop", OwnerID: 99, ManagerPasscode: "654321"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("failed to create second business: %v", err)
	}
	seedItem(t, db, business.ID, "Sugar", "kg", 10, 2)
	foreign := seedItem(t, db, other.ID, "Relaxer", "tub", 4, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req = signedInRequest(t, sm, req, staff.ID, business.ID, models.RoleStaff)
	recorder := httptest.NewRecorder()
	ItemResource(recorder, req)

	var listed []itemResponse
	if err := json.NewDecoder(recorder.Body).Decode(&listed); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Sugar" {
		t.Fatalf("expected only own business items, got %v", listed)
	}

	shown := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/items/%d", foreign.ID), nil)
	shown = signedInRequest(t, sm, shown, staff.ID, business.ID, models.RoleStaff)
	recorder = httptest.NewRecorder()
	ItemResource(recorder, shown)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for foreign item, got %d", recorder.Code)
	}
}
