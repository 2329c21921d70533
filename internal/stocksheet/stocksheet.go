// Package stocksheet parses supplier stock sheets (CSV or PDF text) into
// inventory rows and upserts them into a business's inventory.
package stocksheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"gorm.io/gorm"

	"stockbook/models"
)

// Row is one parsed stock-sheet line: an item name, its unit, the counted
// quantity and an optional low-stock threshold.
type Row struct {
	Name      string
	Unit      string
	Quantity  float64
	Threshold float64
}

// Summary reports what an import changed.
type Summary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

var ErrNoRows = errors.New("stocksheet: no parsable rows")

// ParseCSV reads rows of the form: name, unit, quantity[, threshold]. A
// header row is detected by a non-numeric quantity column and skipped.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		row, ok := rowFromFields(record)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// ParseText parses loosely formatted sheet text, one item per line. Lines
// are split on commas when present, otherwise on whitespace with trailing
// numeric fields treated as quantity and threshold.
func ParseText(text string) ([]Row, error) {
	var rows []Row
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var fields []string
		if strings.Contains(line, ",") {
			fields = strings.Split(line, ",")
		} else {
			fields = splitColumns(line)
		}

		if row, ok := rowFromFields(fields); ok {
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// ExtractPDFText pulls the plain text out of a PDF stock sheet.
func ExtractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, textReader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return builder.String(), nil
}

// Import upserts rows into the business's inventory, matching existing items
// by case-insensitive name. Each row commits in its own transaction so one
// bad line does not discard the rest of the sheet; rejected rows are counted
// as skipped.
func Import(ctx context.Context, database *gorm.DB, businessID uint, rows []Row) (Summary, error) {
	if database == nil {
		return Summary{}, gorm.ErrInvalidDB
	}

	summary := Summary{}
	for _, row := range rows {
		row := row
		err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing models.InventoryItem
			err := tx.Where("business_id = ? AND lower(name) = ?", businessID, strings.ToLower(row.Name)).
				First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				item := models.InventoryItem{
					BusinessID: businessID,
					Name:       row.Name,
					Unit:       row.Unit,
					Quantity:   row.Quantity,
					Threshold:  row.Threshold,
				}
				if err := tx.Create(&item).Error; err != nil {
					return fmt.Errorf("create item %q: %w", row.Name, err)
				}
				summary.Created++
				return nil
			}
			if err != nil {
				return fmt.Errorf("find item %q: %w", row.Name, err)
			}

			updates := map[string]any{
				"quantity":  row.Quantity,
				"threshold": row.Threshold,
			}
			if row.Unit != "" {
				updates["unit"] = row.Unit
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("update item %q: %w", row.Name, err)
			}
			summary.Updated++
			return nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			summary.Skipped++
		}
	}
	return summary, nil
}

func rowFromFields(fields []string) (Row, bool) {
	cleaned := make([]string, 0, len(fields))
	for _, field := range fields {
		cleaned = append(cleaned, strings.TrimSpace(field))
	}

	if len(cleaned) < 3 {
		return Row{}, false
	}

	quantity, err := strconv.ParseFloat(cleaned[2], 64)
	if err != nil {
		// Header or prose line.
		return Row{}, false
	}

	row := Row{
		Name:     cleaned[0],
		Unit:     cleaned[1],
		Quantity: quantity,
	}
	if row.Name == "" || row.Unit == "" {
		return Row{}, false
	}

	if len(cleaned) > 3 {
		if threshold, err := strconv.ParseFloat(cleaned[3], 64); err == nil {
			row.Threshold = threshold
		}
	}
	return row, true
}

// splitColumns breaks a whitespace-separated line into name, unit and
// numeric columns: trailing numbers become quantity/threshold, the token
// before them the unit, and everything earlier the item name.
func splitColumns(line string) []string {
	tokens := strings.Fields(line)
	if len(tokens) < 3 {
		return tokens
	}

	numericStart := len(tokens)
	for numericStart > 0 {
		if _, err := strconv.ParseFloat(tokens[numericStart-1], 64); err != nil {
			break
		}
		numericStart--
	}

	// Need at least one numeric column and two leading text columns.
	if numericStart == len(tokens) || numericStart < 2 {
		return tokens
	}

	name := strings.Join(tokens[:numericStart-1], " ")
	unit := tokens[numericStart-1]
	return append([]string{name, unit}, tokens[numericStart:]...)
}
