package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/alexedwards/scs/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stockbook/models"
)

func withTestSessionManager(t *testing.T) (*scs.SessionManager, func()) {
	t.Helper()
	original := sessionManager
	sm := scs.New()
	sessionManager = sm
	return sm, func() {
		sessionManager = original
	}
}

func withTestDatabase(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	original := database
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Business{},
		&models.InventoryItem{},
		&models.InventoryLog{},
		&models.PredefinedOrder{},
		&models.TemplateLine{},
		&models.Order{},
		&models.DailyReport{},
		&models.ShoppingListEntry{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	database = db
	return db, func() {
		database = original
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

// signedInRequest loads a session context onto the request and populates it
// the way establishSession does after login.
func signedInRequest(t *testing.T, sm *scs.SessionManager, req *http.Request, userID uint, businessID uint, role string) *http.Request {
	t.Helper()
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)
	sm.Put(ctx, sessionAuthenticatedKey, true)
	sm.Put(ctx, sessionUserIDKey, int(userID))
	sm.Put(ctx, sessionUserRoleKey, role)
	if businessID > 0 {
		sm.Put(ctx, sessionBusinessIDKey, int(businessID))
	}
	return req
}

// seedBusiness creates a business with an admin and a staff member and
// returns all three.
func seedBusiness(t *testing.T, db *gorm.DB) (models.Business, models.User, models.User) {
	t.Helper()

	admin := models.User{Email: "owner@example.com", PasswordHash: "hash", Name: "Owner", Role: models.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	business := models.Business{Name: "Test Kitchen", OwnerID: admin.ID, ManagerPasscode: "123456"}
	if err := db.Create(&business).Error; err != nil {
		t.Fatalf("failed to create business: %v", err)
	}

	if err := db.Model(&admin).Update("business_id", business.ID).Error; err != nil {
		t.Fatalf("failed to link admin: %v", err)
	}

	staff := models.User{Email: "staff@example.com", PasswordHash: "hash", Name: "Staff", Role: models.RoleStaff, BusinessID: &business.ID}
	if err := db.Create(&staff).Error; err != nil {
		t.Fatalf("failed to create staff: %v", err)
	}

	return business, admin, staff
}

func seedItem(t *testing.T, db *gorm.DB, businessID uint, name, unit string, quantity, threshold float64) models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{BusinessID: businessID, Name: name, Unit: unit, Quantity: quantity, Threshold: threshold}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("failed to create item %q: %v", name, err)
	}
	return item
}
