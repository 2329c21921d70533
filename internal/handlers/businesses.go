package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"gorm.io/gorm"

	applog "stockbook/internal/log"
	"stockbook/models"
)

var passcodePattern = regexp.MustCompile(`^\d{6}$`)

type businessCreateRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Passcode string `json:"passcode"`
}

type businessResponse struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	OwnerID uint   `json:"owner_id"`
}

// CreateBusiness registers a new business and links the creating account as
// its owner. The passcode is what staff later use to join.
func CreateBusiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if _, linked := currentBusinessID(r); linked {
		writeJSONError(w, http.StatusConflict, "account is already linked to a business")
		return
	}

	var payload businessCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "business name is required")
		return
	}
	if !passcodePattern.MatchString(strings.TrimSpace(payload.Passcode)) {
		writeJSONError(w, http.StatusBadRequest, "passcode must be exactly 6 digits")
		return
	}

	business := models.Business{
		Name:            name,
		Address:         strings.TrimSpace(payload.Address),
		OwnerID:         userID,
		ManagerPasscode: strings.TrimSpace(payload.Passcode),
	}

	err := database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&business).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Updates(map[string]any{"business_id": business.ID, "role": models.RoleAdmin}).Error
	})
	if err != nil {
		applog.Error(r.Context(), "failed to create business", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "unable to create business")
		return
	}

	sessionManager.Put(r.Context(), sessionBusinessIDKey, int(business.ID))
	sessionManager.Put(r.Context(), sessionUserRoleKey, models.RoleAdmin)

	applog.Info(r.Context(), "business created", "businessID", business.ID, "ownerID", userID)
	writeJSON(w, http.StatusCreated, businessResponse{
		ID:      business.ID,
		Name:    business.Name,
		Address: business.Address,
		OwnerID: business.OwnerID,
	})
}

type businessJoinRequest struct {
	Passcode string `json:"passcode"`
}

// JoinBusiness links the authenticated account to an existing business as
// staff, keyed by the business passcode.
func JoinBusiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if _, linked := currentBusinessID(r); linked {
		writeJSONError(w, http.StatusConflict, "account is already linked to a business")
		return
	}

	var payload businessJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	passcode := strings.TrimSpace(payload.Passcode)
	if !passcodePattern.MatchString(passcode) {
		writeJSONError(w, http.StatusBadRequest, "passcode must be exactly 6 digits")
		return
	}

	var business models.Business
	if err := database.WithContext(r.Context()).Where("manager_passcode = ?", passcode).First(&business).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusNotFound, "no business matches that passcode")
			return
		}
		applog.Error(r.Context(), "failed to look up business by passcode", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to join business")
		return
	}

	if err := database.WithContext(r.Context()).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]any{"business_id": business.ID, "role": models.RoleStaff}).Error; err != nil {
		applog.Error(r.Context(), "failed to link user to business", "error", err, "userID", userID, "businessID", business.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to join business")
		return
	}

	sessionManager.Put(r.Context(), sessionBusinessIDKey, int(business.ID))
	sessionManager.Put(r.Context(), sessionUserRoleKey, models.RoleStaff)

	applog.Info(r.Context(), "user joined business", "userID", userID, "businessID", business.ID)
	writeJSON(w, http.StatusOK, businessResponse{
		ID:      business.ID,
		Name:    business.Name,
		Address: business.Address,
		OwnerID: business.OwnerID,
	})
}
