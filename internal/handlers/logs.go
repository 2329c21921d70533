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

const dateLayout = "2006-01-02"

var nowFunc = time.Now

func today() string {
	return nowFunc().UTC().Format(dateLayout)
}

type logRequest struct {
	ItemID  uint     `json:"item_id"`
	Date    string   `json:"date"`
	UsedQty float64  `json:"used_qty"`
	Price   *float64 `json:"price,omitempty"`
	Note    *string  `json:"note,omitempty"`
}

type logResponse struct {
	ID         uint     `json:"id"`
	ItemID     uint     `json:"item_id"`
	ItemName   string   `json:"item_name,omitempty"`
	UserID     uint     `json:"user_id"`
	Date       string   `json:"date"`
	StartQty   float64  `json:"start_qty"`
	UsedQty    float64  `json:"used_qty"`
	Price      *float64 `json:"price,omitempty"`
	Note       *string  `json:"note,omitempty"`
	Approved   bool     `json:"approved"`
	ReviewedBy *uint    `json:"reviewed_by,omitempty"`
}

// InventoryLogResource handles usage-log submission, review and the derived
// start-quantity lookup.
func InventoryLogResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "log request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	businessID, ok := requireBusiness(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/logs")
	path = strings.Trim(path, "/")

	switch {
	case path == "":
		switch r.Method {
		case http.MethodGet:
			listLogs(w, r, businessID)
		case http.MethodPost:
			createLog(w, r, businessID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case path == "start-quantity":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		startQuantity(w, r, businessID)
	case strings.HasSuffix(path, "/approve"):
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		idValue, err := strconv.ParseUint(strings.TrimSuffix(path, "/approve"), 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		approveLog(w, r, businessID, uint(idValue))
	default:
		http.NotFound(w, r)
	}
}

func listLogs(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	var logs []models.InventoryLog

	query := database.WithContext(ctx).
		Preload("Item").
		Where("business_id = ?", businessID).
		Order("date desc, id desc")

	if strings.EqualFold(r.URL.Query().Get("pending"), "true") {
		query = query.Where("approved = ?", false)
	}

	if err := query.Find(&logs).Error; err != nil {
		applog.Error(ctx, "failed to list inventory logs", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory logs")
		return
	}

	responses := make([]logResponse, 0, len(logs))
	for _, entry := range logs {
		responses = append(responses, projectLog(entry))
	}

	writeJSON(w, http.StatusOK, responses)
}

func createLog(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload logRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid log create payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if payload.ItemID == 0 {
		writeJSONError(w, http.StatusBadRequest, "item_id is required")
		return
	}
	if payload.UsedQty < 0 {
		writeJSONError(w, http.StatusBadRequest, "used_qty must be 0 or greater")
		return
	}

	date := strings.TrimSpace(payload.Date)
	if date == "" {
		date = today()
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		writeJSONError(w, http.StatusBadRequest, "date must use YYYY-MM-DD")
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
		applog.Error(ctx, "failed to load item for log", "error", err, "itemID", payload.ItemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to save log")
		return
	}

	startQty, err := deriveStartQuantity(ctx, businessID, item.ID, date)
	if err != nil {
		applog.Error(ctx, "failed to derive start quantity", "error", err, "itemID", item.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to save log")
		return
	}

	entry := models.InventoryLog{
		BusinessID: businessID,
		UserID:     userID,
		ItemID:     item.ID,
		Date:       date,
		StartQty:   startQty,
		UsedQty:    payload.UsedQty,
		Price:      payload.Price,
		Note:       normalizedNote(payload.Note),
	}

	if err := database.WithContext(ctx).Create(&entry).Error; err != nil {
		applog.Error(ctx, "failed to create inventory log", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to save log")
		return
	}

	entry.Item = &item
	writeJSON(w, http.StatusCreated, projectLog(entry))
}

func startQuantity(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	itemValue := strings.TrimSpace(r.URL.Query().Get("item_id"))
	itemID, err := strconv.ParseUint(itemValue, 10, 64)
	if err != nil || itemID == 0 {
		writeJSONError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = today()
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		writeJSONError(w, http.StatusBadRequest, "date must use YYYY-MM-DD")
		return
	}

	startQty, err := deriveStartQuantity(ctx, businessID, uint(itemID), date)
	if err != nil {
		applog.Error(ctx, "failed to derive start quantity", "error", err, "itemID", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to derive start quantity")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"item_id":   itemID,
		"date":      date,
		"start_qty": startQty,
	})
}

// deriveStartQuantity implements the one-day lookback: yesterday's closing
// level (start_qty - used_qty) becomes today's opening level, floored at 0,
// and 0 when no log exists for the previous day.
func deriveStartQuantity(ctx context.Context, businessID, itemID uint, date string) (float64, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return 0, err
	}
	previousDay := day.AddDate(0, 0, -1).Format(dateLayout)

	var previous models.InventoryLog
	err = database.WithContext(ctx).
		Where("business_id = ? AND item_id = ? AND date = ?", businessID, itemID, previousDay).
		Order("id desc").
		First(&previous).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	previousEnd := previous.StartQty - previous.UsedQty
	if previousEnd < 0 {
		return 0, nil
	}
	return previousEnd, nil
}

func approveLog(w http.ResponseWriter, r *http.Request, businessID, logID uint) {
	if !requireAdmin(w, r) {
		return
	}

	ctx := r.Context()
	reviewerID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	result := database.WithContext(ctx).Model(&models.InventoryLog{}).
		Where("id = ? AND business_id = ? AND approved = ?", logID, businessID, false).
		Updates(map[string]any{"approved": true, "reviewed_by": reviewerID})
	if result.Error != nil {
		applog.Error(ctx, "failed to approve inventory log", "error", result.Error, "id", logID)
		writeJSONError(w, http.StatusInternalServerError, "unable to approve log")
		return
	}
	if result.RowsAffected == 0 {
		writeJSONError(w, http.StatusConflict, "log not found or already reviewed")
		return
	}

	var entry models.InventoryLog
	if err := database.WithContext(ctx).Preload("Item").First(&entry, logID).Error; err != nil {
		applog.Error(ctx, "failed to reload approved log", "error", err, "id", logID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load log")
		return
	}

	applog.Info(ctx, "inventory log approved", "logID", logID, "reviewerID", reviewerID)
	writeJSON(w, http.StatusOK, projectLog(entry))
}

func projectLog(entry models.InventoryLog) logResponse {
	response := logResponse{
		ID:         entry.ID,
		ItemID:     entry.ItemID,
		UserID:     entry.UserID,
		Date:       entry.Date,
		StartQty:   entry.StartQty,
		UsedQty:    entry.UsedQty,
		Price:      entry.Price,
		Note:       entry.Note,
		Approved:   entry.Approved,
		ReviewedBy: entry.ReviewedBy,
	}
	if entry.Item != nil {
		response.ItemName = entry.Item.Name
	}
	return response
}

func normalizedNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
