package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "stockbook/internal/log"
	"stockbook/models"
)

type itemRequest struct {
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity"`
	Threshold float64 `json:"threshold"`
}

type itemResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Quantity  float64   `json:"quantity"`
	Threshold float64   `json:"threshold"`
	LowStock  bool      `json:"low_stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemResource handles CRUD interactions for inventory items.
func ItemResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "item request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	businessID, ok := requireBusiness(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/items")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listItems(w, r, businessID)
		case http.MethodPost:
			createItem(w, r, businessID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid item identifier", "identifier", path, "error", err)
		http.NotFound(w, r)
		return
	}
	itemID := uint(idValue)

	switch r.Method {
	case http.MethodGet:
		showItem(w, r, businessID, itemID)
	case http.MethodPut:
		updateItem(w, r, businessID, itemID)
	case http.MethodDelete:
		deleteItem(w, r, businessID, itemID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listItems(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	var items []models.InventoryItem

	query := database.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("name asc")

	if strings.EqualFold(r.URL.Query().Get("low_stock"), "true") {
		query = query.Where("quantity <= threshold")
	}

	if err := query.Find(&items).Error; err != nil {
		applog.Error(ctx, "failed to list inventory items", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory items")
		return
	}

	responses := make([]itemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, projectItem(item))
	}

	writeJSON(w, http.StatusOK, responses)
}

func showItem(w http.ResponseWriter, r *http.Request, businessID, itemID uint) {
	ctx := r.Context()
	var item models.InventoryItem
	if err := database.WithContext(ctx).
		Where("business_id = ?", businessID).
		First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load inventory item", "error", err, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory item")
		return
	}

	writeJSON(w, http.StatusOK, projectItem(item))
}

func createItem(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	var payload itemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid item create payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateItemPayload(payload); err != nil {
		applog.Debug(ctx, "item validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	item := models.InventoryItem{
		BusinessID: businessID,
		Name:       strings.TrimSpace(payload.Name),
		Unit:       strings.TrimSpace(payload.Unit),
		Quantity:   payload.Quantity,
		Threshold:  payload.Threshold,
	}

	if err := database.WithContext(ctx).Create(&item).Error; err != nil {
		applog.Error(ctx, "failed to create inventory item", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create inventory item")
		return
	}

	writeJSON(w, http.StatusCreated, projectItem(item))
}

func updateItem(w http.ResponseWriter, r *http.Request, businessID, itemID uint) {
	ctx := r.Context()
	var existing models.InventoryItem
	if err := database.WithContext(ctx).
		Where("business_id = ?", businessID).
		First(&existing, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load inventory item for update", "error", err, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory item")
		return
	}

	var payload itemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid item update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateItemUpdatePayload(payload); err != nil {
		applog.Debug(ctx, "item update validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	updates := map[string]any{
		"name":      strings.TrimSpace(payload.Name),
		"unit":      strings.TrimSpace(payload.Unit),
		"quantity":  payload.Quantity,
		"threshold": payload.Threshold,
	}

	if err := database.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update inventory item", "error", err, "id", itemID)
		writeJSONError(w, http.StatusBadRequest, "unable to update inventory item")
		return
	}

	if err := database.WithContext(ctx).First(&existing, itemID).Error; err != nil {
		applog.Error(ctx, "failed to reload updated inventory item", "error", err, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory item")
		return
	}

	writeJSON(w, http.StatusOK, projectItem(existing))
}

func deleteItem(w http.ResponseWriter, r *http.Request, businessID, itemID uint) {
	ctx := r.Context()
	result := database.WithContext(ctx).
		Where("business_id = ?", businessID).
		Delete(&models.InventoryItem{}, itemID)
	if result.Error != nil {
		applog.Error(ctx, "failed to delete inventory item", "error", result.Error, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete inventory item")
		return
	}
	if result.RowsAffected == 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func projectItem(item models.InventoryItem) itemResponse {
	return itemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Unit:      item.Unit,
		Quantity:  item.Quantity,
		Threshold: item.Threshold,
		LowStock:  item.Quantity <= item.Threshold,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func validateItemPayload(payload itemRequest) error {
	if err := validateItemUpdatePayload(payload); err != nil {
		return err
	}
	if payload.Quantity < 1 {
		return errors.New("quantity must be at least 1")
	}
	return nil
}

// validateItemUpdatePayload skips the quantity floor: approvals can push
// stock to zero or below, and editing such an item must not force it back up.
func validateItemUpdatePayload(payload itemRequest) error {
	if strings.TrimSpace(payload.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(payload.Unit) == "" {
		return errors.New("unit is required")
	}
	if payload.Threshold < 0 {
		return errors.New("threshold must not be negative")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
