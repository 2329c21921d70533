package seed

import (
	"context"
	"testing"

	"stockbook/models"
)

func TestNewSeedsDemoBusiness(t *testing.T) {
	database, err := New(context.Background())
	if err != nil {
		t.Fatalf("seed database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})

	var business models.Business
	if err := database.First(&business).Error; err != nil {
		t.Fatalf("load seeded business: %v", err)
	}
	if len(business.ManagerPasscode) != 6 {
		t.Fatalf("passcode length = %d, want 6", len(business.ManagerPasscode))
	}

	var admin models.User
	if err := database.Where("role = ?", models.RoleAdmin).First(&admin).Error; err != nil {
		t.Fatalf("load seeded admin: %v", err)
	}
	if admin.BusinessID == nil || *admin.BusinessID != business.ID {
		t.Fatal("admin should be linked to the seeded business")
	}

	var itemCount int64
	if err := database.Model(&models.InventoryItem{}).Where("business_id = ?", business.ID).Count(&itemCount).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	if itemCount == 0 {
		t.Fatal("expected seeded inventory items")
	}

	var lines []models.TemplateLine
	if err := database.Find(&lines).Error; err != nil {
		t.Fatalf("load seeded template lines: %v", err)
	}
	if len(lines) == 0 {
		t.Fatal("expected seeded template lines")
	}
	for _, line := range lines {
		if line.QuantityPerOrder < 1 {
			t.Fatalf("template line %d has quantity_per_order %v, want >= 1", line.ID, line.QuantityPerOrder)
		}
	}

	var pendingOrders int64
	if err := database.Model(&models.Order{}).Where("approved = ?", false).Count(&pendingOrders).Error; err != nil {
		t.Fatalf("count pending orders: %v", err)
	}
	if pendingOrders == 0 {
		t.Fatal("expected a seeded pending order")
	}
}
