package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	applog "stockbook/internal/log"
	"stockbook/models"
)

// sessionResponse is the explicit replacement for the browser-side
// user/business/role globals the legacy client kept in localStorage.
type sessionResponse struct {
	UserID     uint   `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	BusinessID *uint  `json:"business_id,omitempty"`
}

func projectSession(user *models.User) sessionResponse {
	return sessionResponse{
		UserID:     user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		BusinessID: user.BusinessID,
	}
}

// Session returns the authenticated caller's session snapshot.
func Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	resp := sessionResponse{
		UserID: userID,
		Email:  sessionManager.GetString(r.Context(), sessionUserEmailKey),
		Name:   sessionManager.GetString(r.Context(), sessionUserNameKey),
		Role:   currentRole(r),
	}
	if businessID, ok := currentBusinessID(r); ok {
		resp.BusinessID = &businessID
	}

	writeJSON(w, http.StatusOK, resp)
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword updates the authenticated user's password after verifying
// the current one.
func ChangePassword(w http.ResponseWriter, r *http.Request) {
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

	var payload passwordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if len(payload.NewPassword) < 8 {
		writeJSONError(w, http.StatusBadRequest, "password must be at least 8 characters long")
		return
	}

	var user models.User
	if err := database.WithContext(r.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		applog.Error(r.Context(), "failed to load user for password change", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "unable to change password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.CurrentPassword)); err != nil {
		writeJSONError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		applog.Error(r.Context(), "failed to hash new password", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to change password")
		return
	}

	if err := database.WithContext(r.Context()).Model(&user).Update("password_hash", string(hashed)).Error; err != nil {
		applog.Error(r.Context(), "failed to store new password", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "unable to change password")
		return
	}

	applog.Info(r.Context(), "password changed", "userID", userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
