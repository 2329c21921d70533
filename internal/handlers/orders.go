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

var (
	errOrderAlreadyApproved = errors.New("orders: already approved")
	errOrderMissingItem     = errors.New("orders: template references missing item")
)

type orderRequest struct {
	OrderTemplateID uint `json:"order_template_id"`
	Quantity        int  `json:"quantity"`
}

type orderResponse struct {
	ID           uint   `json:"id"`
	TemplateID   uint   `json:"order_template_id"`
	TemplateName string `json:"template_name,omitempty"`
	UserID       uint   `json:"user_id"`
	Quantity     int    `json:"quantity"`
	Approved     bool   `json:"approved"`
}

type deductionResponse struct {
	ItemID   uint    `json:"item_id"`
	ItemName string  `json:"item_name"`
	Unit     string  `json:"unit"`
	Deducted float64 `json:"deducted"`
	Quantity float64 `json:"quantity"`
}

type approvalResponse struct {
	Order      orderResponse       `json:"order"`
	Deductions []deductionResponse `json:"deductions"`
}

// OrderResource handles order submission, pending review, approval and
// decline.
func OrderResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "order request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	businessID, ok := requireBusiness(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/orders")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listOrders(w, r, businessID)
		case http.MethodPost:
			createOrder(w, r, businessID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if strings.HasSuffix(path, "/approve") {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		idValue, err := strconv.ParseUint(strings.TrimSuffix(path, "/approve"), 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		approveOrder(w, r, businessID, uint(idValue))
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		declineOrder(w, r, businessID, uint(idValue))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listOrders(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	var orders []models.Order

	query := database.WithContext(ctx).
		Preload("Template").
		Where("business_id = ?", businessID).
		Order("id desc")

	if strings.EqualFold(r.URL.Query().Get("pending"), "true") {
		query = query.Where("approved = ?", false)
	}

	if err := query.Find(&orders).Error; err != nil {
		applog.Error(ctx, "failed to list orders", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load orders")
		return
	}

	responses := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, projectOrder(order))
	}

	writeJSON(w, http.StatusOK, responses)
}

func createOrder(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload orderRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid order payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if payload.OrderTemplateID == 0 {
		writeJSONError(w, http.StatusBadRequest, "order_template_id is required")
		return
	}
	quantity := payload.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		writeJSONError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	var template models.PredefinedOrder
	if err := database.WithContext(ctx).
		Where("business_id = ?", businessID).
		First(&template, payload.OrderTemplateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusBadRequest, "unknown template")
			return
		}
		applog.Error(ctx, "failed to load template for order", "error", err, "templateID", payload.OrderTemplateID)
		writeJSONError(w, http.StatusInternalServerError, "unable to place order")
		return
	}

	order := models.Order{
		BusinessID:      businessID,
		UserID:          userID,
		OrderTemplateID: template.ID,
		Quantity:        quantity,
	}

	if err := database.WithContext(ctx).Create(&order).Error; err != nil {
		applog.Error(ctx, "failed to create order", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to place order")
		return
	}

	order.Template = &template
	applog.Info(ctx, "order submitted", "orderID", order.ID, "templateID", template.ID, "quantity", quantity)
	writeJSON(w, http.StatusCreated, projectOrder(order))
}

// approveOrder runs the approval and its inventory effect as one
// transaction. The approved flag flips with a compare-and-set so the
// deduction can apply at most once; any failure rolls back both the flag and
// every decrement.
func approveOrder(w http.ResponseWriter, r *http.Request, businessID, orderID uint) {
	if !requireAdmin(w, r) {
		return
	}

	ctx := r.Context()
	var order models.Order
	var deductions []deductionResponse

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Template").
			Where("business_id = ?", businessID).
			First(&order, orderID).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Order{}).
			Where("id = ? AND approved = ?", order.ID, false).
			Update("approved", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errOrderAlreadyApproved
		}
		order.Approved = true

		var lines []models.TemplateLine
		if err := tx.Where("order_id = ?", order.OrderTemplateID).Find(&lines).Error; err != nil {
			return err
		}

		deductions = make([]deductionResponse, 0, len(lines))
		for _, line := range lines {
			total := line.QuantityPerOrder * float64(order.Quantity)

			result := tx.Model(&models.InventoryItem{}).
				Where("id = ? AND business_id = ?", line.ItemID, businessID).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", total))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errOrderMissingItem
			}

			var item models.InventoryItem
			if err := tx.First(&item, line.ItemID).Error; err != nil {
				return err
			}
			deductions = append(deductions, deductionResponse{
				ItemID:   item.ID,
				ItemName: item.Name,
				Unit:     item.Unit,
				Deducted: total,
				Quantity: item.Quantity,
			})
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			http.NotFound(w, r)
		case errors.Is(err, errOrderAlreadyApproved):
			writeJSONError(w, http.StatusConflict, "order is already approved")
		case errors.Is(err, errOrderMissingItem):
			writeJSONError(w, http.StatusConflict, "template references an item that no longer exists")
		default:
			applog.Error(ctx, "failed to approve order", "error", err, "orderID", orderID)
			writeJSONError(w, http.StatusInternalServerError, "unable to approve order")
		}
		return
	}

	for _, deduction := range deductions {
		if deduction.Quantity < 0 {
			applog.Warn(ctx, "stock went negative after approval",
				"orderID", order.ID, "itemID", deduction.ItemID, "quantity", deduction.Quantity)
		}
	}

	applog.Info(ctx, "order approved", "orderID", order.ID, "lines", len(deductions))
	writeJSON(w, http.StatusOK, approvalResponse{
		Order:      projectOrder(order),
		Deductions: deductions,
	})
}

func declineOrder(w http.ResponseWriter, r *http.Request, businessID, orderID uint) {
	if !requireAdmin(w, r) {
		return
	}

	ctx := r.Context()
	result := database.WithContext(ctx).
		Where("business_id = ? AND approved = ?", businessID, false).
		Delete(&models.Order{}, orderID)
	if result.Error != nil {
		applog.Error(ctx, "failed to decline order", "error", result.Error, "orderID", orderID)
		writeJSONError(w, http.StatusInternalServerError, "unable to decline order")
		return
	}
	if result.RowsAffected == 0 {
		writeJSONError(w, http.StatusConflict, "order not found or already approved")
		return
	}

	applog.Info(ctx, "order declined", "orderID", orderID)
	w.WriteHeader(http.StatusNoContent)
}

func projectOrder(order models.Order) orderResponse {
	response := orderResponse{
		ID:         order.ID,
		TemplateID: order.OrderTemplateID,
		UserID:     order.UserID,
		Quantity:   order.Quantity,
		Approved:   order.Approved,
	}
	if order.Template != nil {
		response.TemplateName = order.Template.Name
	}
	return response
}
