package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	applog "stockbook/internal/log"
	"stockbook/internal/stocksheet"
)

const maxSheetUploadSize = 5 << 20 // 5 MiB

// ImportStockSheet ingests a supplier stock sheet (CSV or PDF upload, or a
// raw text field) and upserts its rows into the business's inventory.
func ImportStockSheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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
	if !requireAdmin(w, r) {
		return
	}

	if err := r.ParseMultipartForm(maxSheetUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		applog.Error(r.Context(), "failed to parse stock sheet form", "error", err)
		writeJSONError(w, http.StatusBadRequest, "upload is too large or invalid")
		return
	}

	rows, err := readSheetRows(r)
	if err != nil {
		if errors.Is(err, stocksheet.ErrNoRows) {
			writeJSONError(w, http.StatusBadRequest, "no parsable rows in the sheet")
			return
		}
		applog.Error(r.Context(), "failed to read stock sheet", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to read the uploaded sheet")
		return
	}

	summary, err := stocksheet.Import(r.Context(), database, businessID, rows)
	if err != nil {
		applog.Error(r.Context(), "stock sheet import failed", "error", err, "businessID", businessID)
		writeJSONError(w, http.StatusInternalServerError, "unable to import the sheet")
		return
	}

	applog.Info(r.Context(), "stock sheet imported",
		"businessID", businessID, "created", summary.Created, "updated", summary.Updated)
	writeJSON(w, http.StatusOK, summary)
}

func readSheetRows(r *http.Request) ([]stocksheet.Row, error) {
	if rawText := strings.TrimSpace(r.FormValue("text")); rawText != "" {
		return stocksheet.ParseText(rawText)
	}

	file, header, err := r.FormFile("sheet")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, stocksheet.ErrNoRows
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSheetUploadSize))
	if err != nil {
		return nil, err
	}

	if isPDFSheet(header.Filename, header.Header.Get("Content-Type"), data) {
		text, err := stocksheet.ExtractPDFText(data)
		if err != nil {
			return nil, err
		}
		return stocksheet.ParseText(text)
	}

	return stocksheet.ParseCSV(bytes.NewReader(data))
}

func isPDFSheet(filename, contentType string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF"))
}
