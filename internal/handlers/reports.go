package handlers

import (
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

var errReportAlreadySubmitted = errors.New("reports: already submitted today")

type reportRequest struct {
	Reason string `json:"reason"`
	Date   string `json:"date"`
}

type reportResponse struct {
	ID          uint   `json:"id"`
	SubmittedBy uint   `json:"submitted_by"`
	UserName    string `json:"user_name,omitempty"`
	Date        string `json:"date"`
	Reason      string `json:"reason"`
	Approved    bool   `json:"approved"`
}

// ReportResource handles daily report submission, listing and approval.
func ReportResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "report request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	businessID, ok := requireBusiness(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/reports")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listReports(w, r, businessID)
		case http.MethodPost:
			createReport(w, r, businessID)
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
		approveReport(w, r, businessID, uint(idValue))
		return
	}

	http.NotFound(w, r)
}

func listReports(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	var reports []models.DailyReport

	if err := database.WithContext(ctx).
		Preload("User").
		Where("business_id = ?", businessID).
		Order("date desc, id desc").
		Find(&reports).Error; err != nil {
		applog.Error(ctx, "failed to list daily reports", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load reports")
		return
	}

	responses := make([]reportResponse, 0, len(reports))
	for _, report := range reports {
		responses = append(responses, projectReport(report))
	}

	writeJSON(w, http.StatusOK, responses)
}

// createReport applies the one-report-per-user-per-day rule. The pre-check
// gives a friendly error; the unique index on (submitted_by, date) catches
// the race the pre-check alone cannot.
func createReport(w http.ResponseWriter, r *http.Request, businessID uint) {
	ctx := r.Context()
	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload reportRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid report payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		writeJSONError(w, http.StatusBadRequest, "reason is required")
		return
	}

	date := strings.TrimSpace(payload.Date)
	if date == "" {
		date = today()
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		writeJSONError(w, http.StatusBadRequest, "date must use YYYY-MM-DD")
		return
	}

	report := models.DailyReport{
		BusinessID:  businessID,
		SubmittedBy: userID,
		Date:        date,
		Reason:      reason,
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.DailyReport{}).
			Where("submitted_by = ? AND date = ?", userID, date).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errReportAlreadySubmitted
		}
		return tx.Create(&report).Error
	})
	if err != nil {
		if errors.Is(err, errReportAlreadySubmitted) || errors.Is(err, gorm.ErrDuplicatedKey) {
			writeJSONError(w, http.StatusConflict, "you already submitted a report today")
			return
		}
		applog.Error(ctx, "failed to create daily report", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to submit report")
		return
	}

	applog.Info(ctx, "daily report submitted", "reportID", report.ID, "userID", userID, "date", date)
	writeJSON(w, http.StatusCreated, projectReport(report))
}

func approveReport(w http.ResponseWriter, r *http.Request, businessID, reportID uint) {
	if !requireAdmin(w, r) {
		return
	}

	ctx := r.Context()
	result := database.WithContext(ctx).Model(&models.DailyReport{}).
		Where("id = ? AND business_id = ? AND approved = ?", reportID, businessID, false).
		Update("approved", true)
	if result.Error != nil {
		applog.Error(ctx, "failed to approve report", "error", result.Error, "reportID", reportID)
		writeJSONError(w, http.StatusInternalServerError, "unable to approve report")
		return
	}
	if result.RowsAffected == 0 {
		writeJSONError(w, http.StatusConflict, "report not found or already approved")
		return
	}

	var report models.DailyReport
	if err := database.WithContext(ctx).Preload("User").First(&report, reportID).Error; err != nil {
		applog.Error(ctx, "failed to reload approved report", "error", err, "reportID", reportID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load report")
		return
	}

	applog.Info(ctx, "daily report approved", "reportID", reportID)
	writeJSON(w, http.StatusOK, projectReport(report))
}

func projectReport(report models.DailyReport) reportResponse {
	response := reportResponse{
		ID:          report.ID,
		SubmittedBy: report.SubmittedBy,
		Date:        report.Date,
		Reason:      report.Reason,
		Approved:    report.Approved,
	}
	if report.User != nil {
		response.UserName = report.User.Name
	}
	return response
}
