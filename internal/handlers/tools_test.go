package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"stockbook/internal/stocksheet"
	"stockbook/models"
)

func TestImportStockSheetFromText(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t)
	defer restoreDB()

	business, admin, _ := seedBusiness(t, db)
	seedItem(t, db, business.ID, "Sugar", "kg", 5, 2)

	form := url.Values{}
	form.Set("text", "Sugar, kg, 25, 4\nPalm Oil, l, 12, 2")
	req := httptest.NewRequest(http.MethodPost, "/api/tools/import-items", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = signedInRequest(t, sm, req, admin.ID, business.ID, models.RoleAdmin)
	recorder := httptest.NewRecorder()

	ImportStockSheet(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var summary stocksheet.Summary
	if err := json.NewDecoder(recorder.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.Created != 1 || summary.Updated != 1 {
		t.Errorf("expected 1 created and 1 updated, got %+v", summary)
	}

	var sugar models.InventoryItem
	if err := db.Where("business_id = ? AND name = ?", business.ID, "Sugar").First(&sugar).Error; err != nil {
		t.Fatalf("failed to reload sugar: %v", err)
	}
	if sugar.Quantity != 25 {
		t.Errorf("expected sugar quantity updated to 25, got %v", sugar.Quantity)
	}

	var count int64
	if err := db.Model(&models.InventoryItem{}).Where("business_id = ?", business.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count items: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 items after import, got %d", count)
	}
}

func TestImportStockSheetFromCSVUpload(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t)
	defer restoreDB()

	business, admin, _ := seedBusiness(t, db)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("sheet", "stock.csv")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write([]byte("name,unit,quantity,threshold\nRice,kg,40,8\nCurry Powder,pack,15,3\n"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/tools/import-items", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req = signedInRequest(t, sm, req, admin.ID, business.ID, models.RoleAdmin)
	recorder := httptest.NewRecorder()

	ImportStockSheet(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var summary stocksheet.Summary
	if err := json.NewDecoder(recorder.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.Created != 2 {
		t.Errorf("expected 2 created items, got %+v", summary)
	}
}

func TestImportStockSheetRequiresAdmin(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t)
	defer restoreDB()

	business, _, staff := seedBusiness(t, db)

	form := url.Values{}
	form.Set("text", "Sugar, kg, 25, 4")
	req := httptest.NewRequest(http.MethodPost, "/api/tools/import-items", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = signedInRequest(t, sm, req, staff.ID, business.ID, models.RoleStaff)
	recorder := httptest.NewRecorder()

	ImportStockSheet(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", recorder.Code)
	}
}

func TestImportStockSheetRejectsEmptySubmission(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t)
	defer restoreDB()

	business, admin, _ := seedBusiness(t, db)

	req := httptest.NewRequest(http.MethodPost, "/api/tools/import-items", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = signedInRequest(t, sm, req, admin.ID, business.ID, models.RoleAdmin)
	recorder := httptest.NewRecorder()

	ImportStockSheet(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
}
