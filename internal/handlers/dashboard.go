package handlers

import (
	"context"
	"net/http"

	applog "stockbook/internal/log"
	"stockbook/models"
)

type dashboardStats struct {
	TotalItems      int64 `json:"total_items"`
	LowStock        int64 `json:"low_stock"`
	PendingLogs     int64 `json:"pending_logs"`
	PendingOrders   int64 `json:"pending_orders"`
	PendingReports  int64 `json:"pending_reports"`
	PendingShopping int64 `json:"pending_shopping"`
}

// DashboardStats aggregates the business's headline counts in one response.
func DashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	businessID, ok := requireBusiness(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	stats := dashboardStats{}

	counts := []struct {
		dest  *int64
		count func(ctx context.Context, businessID uint) (int64, error)
	}{
		{&stats.TotalItems, countTotalItems},
		{&stats.LowStock, countLowStockItems},
		{&stats.PendingLogs, countPendingLogs},
		{&stats.PendingOrders, countPendingOrders},
		{&stats.PendingReports, countPendingReports},
		{&stats.PendingShopping, countPendingShopping},
	}

	for _, c := range counts {
		value, err := c.count(ctx, businessID)
		if err != nil {
			applog.Error(ctx, "failed to compute dashboard stats", "error", err, "businessID", businessID)
			writeJSONError(w, http.StatusInternalServerError, "unable to load dashboard stats")
			return
		}
		*c.dest = value
	}

	writeJSON(w, http.StatusOK, stats)
}

func countTotalItems(ctx context.Context, businessID uint) (int64, error) {
	var count int64
	err := database.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("business_id = ?", businessID).
		Count(&count).Error
	return count, err
}

func countLowStockItems(ctx context.Context, businessID uint) (int64, error) {
	var count int64
	err := database.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("business_id = ? AND quantity <= threshold", businessID).
		Count(&count).Error
	return count, err
}

func countPendingLogs(ctx context.Context, businessID uint) (int64, error) {
	var count int64
	err := database.WithContext(ctx).Model(&models.InventoryLog{}).
		Where("business_id = ? AND approved = ?", businessID, false).
		Count(&count).Error
	return count, err
}

func countPendingOrders(ctx context.Context, businessID uint) (int64, error) {
	var count int64
	err := database.WithContext(ctx).Model(&models.Order{}).
		Where("business_id = ? AND approved = ?", businessID, false).
		Count(&count).Error
	return count, err
}

func countPendingReports(ctx context.Context, businessID uint) (int64, error) {
	var count int64
	err := database.WithContext(ctx).Model(&models.DailyReport{}).
		Where("business_id = ? AND approved = ?", businessID, false).
		Count(&count).Error
	return count, err
}

func countPendingShopping(ctx context.Context, businessID uint) (int64, error) {
	var count int64
	err := database.WithContext(ctx).Model(&models.ShoppingListEntry{}).
		Where("business_id = ? AND suggested_quantity > 0", businessID).
		Count(&count).Error
	return count, err
}
