package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stockbook/internal/config"
	"stockbook/internal/db"
	"stockbook/internal/stocksheet"
)

func main() {
	businessID := flag.Uint("business", 0, "business id to import into")
	flag.Parse()

	sheetPath := flag.Arg(0)
	if err := run(sheetPath, *businessID); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(sheetPath string, businessID uint) error {
	if strings.TrimSpace(sheetPath) == "" {
		return fmt.Errorf("usage: import_items -business <id> <sheet.csv|sheet.pdf>")
	}
	if businessID == 0 {
		return fmt.Errorf("business id must be provided")
	}

	data, err := os.ReadFile(sheetPath)
	if err != nil {
		return fmt.Errorf("read sheet: %w", err)
	}

	var rows []stocksheet.Row
	if strings.EqualFold(filepath.Ext(sheetPath), ".pdf") {
		text, err := stocksheet.ExtractPDFText(data)
		if err != nil {
			return err
		}
		rows, err = stocksheet.ParseText(text)
		if err != nil {
			return err
		}
	} else {
		rows, err = stocksheet.ParseCSV(strings.NewReader(string(data)))
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	summary, err := stocksheet.Import(context.Background(), database, businessID, rows)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d rows: %d created, %d updated\n",
		summary.Created+summary.Updated, summary.Created, summary.Updated)
	return nil
}
