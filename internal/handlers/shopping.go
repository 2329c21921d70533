package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	applog "stockbook/internal/log"
	"stockbook/models"
)

type shoppingCreateRequest struct {
	ItemID            uint    `json:"item_id"`
	SuggestedQuantity float64 `json:"suggested_quantity"`
}

type shoppingUpdateRequest struct {
	SuggestedQuantity float64 `json:"suggested_quantity"`
}

type shoppingResponse struct {
	ID                uint    `json:"id"`
	ItemID            uint    `json:"item_id"`
	ItemName          string  `json:"item_name,omitempty"`
	Unit              string  `json:"unit,omitempty"`
	SuggestedQuantity float64 `json:"suggested_quantity"`
}

// ShoppingResource handles the manually maintained shopping list.
func ShoppingResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "shopping request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	businessID, ok := requireBusiness(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/shopping")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listShopping(w, r, businessID)
		case http.MethodPost:
			createShoppingEntry(w, r, businessID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		updateShoppingEntry(w, r, businessID, uint(idValue))
	case http.MethodDelete:
		deleteShoppingEntry(w, r, businessID, uint(idValue))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listShopping(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	var entries []models.ShoppingListEntry

	if err := database.WithContext(ctx).
		Preload("Item").
		Where("business_id = ?", businessID).
		Order("id asc").
		Find(&entries).Error; err != nil {
		applog.Error(ctx, "failed to list shopping entries", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load shopping list")
		return
	}

	responses := make([]shoppingResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, projectShoppingEntry(entry))
	}

	writeJSON(w, http.StatusOK, responses)
}

func createShoppingEntry(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	var payload shoppingCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if payload.ItemID == 0 {
		writeJSONError(w, http.StatusBadRequest, "item_id is required")
		return
	}
	if payload.SuggestedQuantity < 0 {
		writeJSONError(w, http.StatusBadRequest, "suggested_quantity must be 0 or greater")
		return
	}

	var item models.InventoryItem
	if err := database.WithContext(ctx).
		Where("business_id = ?", businessID).
		First(&item, payload.ItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusBadRequest, "unknown inventory item")
			return
		}
		applog.Error(ctx, "failed to load item for shopping entry", "error", err, "itemID", payload.ItemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to add entry")
		return
	}

	entry := models.ShoppingListEntry{
		BusinessID:        businessID,
		ItemID:            item.ID,
		SuggestedQuantity: payload.SuggestedQuantity,
	}

	if err := database.WithContext(ctx).Create(&entry).Error; err != nil {
		applog.Error(ctx, "failed to create shopping entry", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to add entry")
		return
	}

	entry.Item = &item
	writeJSON(w, http.StatusCreated, projectShoppingEntry(entry))
}

func updateShoppingEntry(w http.ResponseWriter, r *http.Request, businessID, entryID uint) {
	ctx := r.Context()
	var payload shoppingUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if payload.SuggestedQuantity < 0 {
		writeJSONError(w, http.StatusBadRequest, "suggested_quantity must be 0 or greater")
		return
	}

	result := database.WithContext(ctx).Model(&models.ShoppingListEntry{}).
		Where("id = ? AND business_id = ?", entryID, businessID).
		Update("suggested_quantity", payload.SuggestedQuantity)
	if result.Error != nil {
		applog.Error(ctx, "failed to update shopping entry", "error", result.Error, "id", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update entry")
		return
	}
	if result.RowsAffected == 0 {
		http.NotFound(w, r)
		return
	}

	var entry models.ShoppingListEntry
	if err := database.WithContext(ctx).Preload("Item").First(&entry, entryID).Error; err != nil {
		applog.Error(ctx, "failed to reload shopping entry", "error", err, "id", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load entry")
		return
	}

	writeJSON(w, http.StatusOK, projectShoppingEntry(entry))
}

func deleteShoppingEntry(w http.ResponseWriter, r *http.Request, businessID, entryID uint) {
	ctx := r.Context()
	result := database.WithContext(ctx).
		Where("business_id = ?", businessID).
		Delete(&models.ShoppingListEntry{}, entryID)
	if result.Error != nil {
		applog.Error(ctx, "failed to delete shopping entry", "error", result.Error, "id", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete entry")
		return
	}
	if result.RowsAffected == 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func projectShoppingEntry(entry models.ShoppingListEntry) shoppingResponse {
	response := shoppingResponse{
		ID:                entry.ID,
		ItemID:            entry.ItemID,
		SuggestedQuantity: entry.SuggestedQuantity,
	}
	if entry.Item != nil {
		response.ItemName = entry.Item.Name
		response.Unit = entry.Item.Unit
	}
	return response
}
