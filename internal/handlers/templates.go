package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "stockbook/internal/log"
	"stockbook/models"
)

type templateLineRequest struct {
	ItemID           uint    `json:"item_id"`
	QuantityPerOrder float64 `json:"quantity_per_order"`
}

type templateRequest struct {
	Name  string                `json:"name"`
	Type  string                `json:"type"`
	Lines []templateLineRequest `json:"lines"`
}

type templateLineResponse struct {
	ItemID           uint    `json:"item_id"`
	ItemName         string  `json:"item_name,omitempty"`
	Unit             string  `json:"unit,omitempty"`
	QuantityPerOrder float64 `json:"quantity_per_order"`
}

type templateResponse struct {
	ID    uint                   `json:"id"`
	Name  string                 `json:"name"`
	Type  string                 `json:"type"`
	Lines []templateLineResponse `json:"lines"`
}

// TemplateResource lists and creates order templates. Templates are immutable
// after creation: the header and its ingredient lines land in one transaction
// or not at all.
func TemplateResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "template request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	businessID, ok := requireBusiness(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		listTemplates(w, r, businessID)
	case http.MethodPost:
		createTemplate(w, r, businessID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listTemplates(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	var templates []models.PredefinedOrder

	if err := database.WithContext(ctx).
		Preload("Lines.Item").
		Where("business_id = ?", businessID).
		Order("name asc").
		Find(&templates).Error; err != nil {
		applog.Error(ctx, "failed to list templates", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load templates")
		return
	}

	responses := make([]templateResponse, 0, len(templates))
	for _, template := range templates {
		responses = append(responses, projectTemplate(template))
	}

	writeJSON(w, http.StatusOK, responses)
}

func createTemplate(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	var payload templateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid template payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateTemplatePayload(payload); err != nil {
		applog.Debug(ctx, "template validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	template := models.PredefinedOrder{
		BusinessID: businessID,
		Name:       strings.TrimSpace(payload.Name),
		Type:       payload.Type,
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&template).Error; err != nil {
			return err
		}
		for _, line := range payload.Lines {
			var count int64
			if err := tx.Model(&models.InventoryItem{}).
				Where("id = ? AND business_id = ?", line.ItemID, businessID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return errUnknownTemplateItem
			}
			record := models.TemplateLine{
				OrderID:          template.ID,
				ItemID:           line.ItemID,
				QuantityPerOrder: line.QuantityPerOrder,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errUnknownTemplateItem) {
			writeJSONError(w, http.StatusBadRequest, "every line must reference an item in this business")
			return
		}
		applog.Error(ctx, "failed to create template", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create template")
		return
	}

	var created models.PredefinedOrder
	if err := database.WithContext(ctx).Preload("Lines.Item").First(&created, template.ID).Error; err != nil {
		applog.Error(ctx, "failed to reload created template", "error", err, "id", template.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load template")
		return
	}

	applog.Info(ctx, "template created", "templateID", created.ID, "lines", len(created.Lines))
	writeJSON(w, http.StatusCreated, projectTemplate(created))
}

var errUnknownTemplateItem = errors.New("templates: unknown inventory item")

func validateTemplatePayload(payload templateRequest) error {
	if strings.TrimSpace(payload.Name) == "" {
		return errors.New("name is required")
	}
	if payload.Type != models.TemplateTypeDish && payload.Type != models.TemplateTypeHairstyle {
		return errors.New("type must be dish or hairstyle")
	}
	if len(payload.Lines) == 0 {
		return errors.New("at least one ingredient line is required")
	}

	seen := make(map[uint]bool, len(payload.Lines))
	for _, line := range payload.Lines {
		if line.ItemID == 0 {
			return errors.New("every line needs an item_id")
		}
		if line.QuantityPerOrder < 1 {
			return errors.New("quantity_per_order must be at least 1")
		}
		if seen[line.ItemID] {
			return errors.New("duplicate items are not allowed")
		}
		seen[line.ItemID] = true
	}
	return nil
}

func projectTemplate(template models.PredefinedOrder) templateResponse {
	response := templateResponse{
		ID:    template.ID,
		Name:  template.Name,
		Type:  template.Type,
		Lines: make([]templateLineResponse, 0, len(template.Lines)),
	}
	for _, line := range template.Lines {
		projected := templateLineResponse{
			ItemID:           line.ItemID,
			QuantityPerOrder: line.QuantityPerOrder,
		}
		if line.Item != nil {
			projected.ItemName = line.Item.Name
			projected.Unit = line.Item.Unit
		}
		response.Lines = append(response.Lines, projected)
	}
	return response
}
