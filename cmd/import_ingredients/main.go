package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"larder/internal/config"
	"larder/internal/db"
	"larder/internal/inventory"
	applog "larder/internal/log"
)

var (
	cleanWhitespace = regexp.MustCompile(`\s+`)
	numberPattern   = regexp.MustCompile(`[-+]?\d*\.?\d+`)
)

func main() {
	csvPath := "ingredients.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(context.Background(), csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}
	defer file.Close()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Configure(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	records, err := readCSV(file)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	svc := inventory.NewService(database, inventory.Options{MaxRetries: cfg.Ledger.RetryLimit()})
	summary, err := importRecords(ctx, svc, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d ingredients (%d created, %d updated, %d opening receipts) from %s\n",
		summary.created+summary.updated, summary.created, summary.updated, summary.receipts, filepath.Base(csvPath))
	return nil
}

type importSummary struct {
	created  int
	updated  int
	receipts int
}

// importRecords upserts ingredients by code. Opening stock is only booked for
// newly created ingredients so the import can be re-run.
func importRecords(ctx context.Context, svc *inventory.Service, records []map[string]string) (importSummary, error) {
	var summary importSummary
	for idx, record := range records {
		input, opening, err := buildIngredient(record)
		if err != nil {
			return summary, fmt.Errorf("record %d (%s): %w", idx+1, record["Code"], err)
		}

		existing, err := svc.FindIngredientByCode(ctx, input.Code)
		switch {
		case err == nil:
			if _, err := svc.UpdateIngredient(ctx, existing.ID, input); err != nil {
				return summary, fmt.Errorf("record %d (%s): update ingredient: %w", idx+1, input.Code, err)
			}
			summary.updated++
			applog.Debug(ctx, "ingredient updated from csv", "code", input.Code)
			continue
		case !errors.Is(err, inventory.ErrIngredientNotFound):
			return summary, fmt.Errorf("record %d (%s): find ingredient: %w", idx+1, input.Code, err)
		}

		created, err := svc.CreateIngredient(ctx, input)
		if err != nil {
			return summary, fmt.Errorf("record %d (%s): create ingredient: %w", idx+1, input.Code, err)
		}
		summary.created++

		if opening.quantity.IsPositive() {
			if _, err := svc.Receive(ctx, created.ID, opening.quantity, inventory.ReceiptMetadata{
				SupplierName: opening.supplier,
				CostPerUnit:  opening.cost,
				Remarks:      "opening stock",
			}); err != nil {
				return summary, fmt.Errorf("record %d (%s): opening stock: %w", idx+1, input.Code, err)
			}
			summary.receipts++
		}
	}
	return summary, nil
}

func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[strings.TrimSpace(key)] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

type openingStock struct {
	quantity decimal.Decimal
	supplier string
	cost     decimal.NullDecimal
}

func buildIngredient(row map[string]string) (inventory.IngredientInput, openingStock, error) {
	factor, err := parseDecimal(row["Subunits Per Main Unit"])
	if err != nil {
		return inventory.IngredientInput{}, openingStock{}, fmt.Errorf("subunits per main unit: %w", err)
	}
	quantity, err := parseDecimal(row["Opening Stock"])
	if err != nil {
		return inventory.IngredientInput{}, openingStock{}, fmt.Errorf("opening stock: %w", err)
	}

	opening := openingStock{
		quantity: quantity,
		supplier: normalizeText(row["Supplier"]),
	}
	if cost, err := parseDecimal(row["Cost Per Unit"]); err != nil {
		return inventory.IngredientInput{}, openingStock{}, fmt.Errorf("cost per unit: %w", err)
	} else if normalizeValue(row["Cost Per Unit"]) != "" {
		opening.cost = decimal.NewNullDecimal(cost)
	}

	input := inventory.IngredientInput{
		Code:                strings.ToUpper(normalizeValue(row["Code"])),
		Name:                normalizeText(row["Name"]),
		Category:            normalizeValue(row["Category"]),
		MainUnit:            normalizeValue(row["Main Unit"]),
		Subunit:             normalizeValue(row["Subunit"]),
		SubunitsPerMainUnit: factor,
		Notes:               normalizeText(row["Notes"]),
	}
	return input, opening, nil
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	return strings.TrimSpace(cleanWhitespace.ReplaceAllString(value, " "))
}

// parseDecimal takes the first number in value so cells like "12.5 kg" are
// accepted. Blank cells are zero and thousands separators are rejected.
func parseDecimal(value string) (decimal.Decimal, error) {
	value = normalizeValue(value)
	if value == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(value, ",") {
		return decimal.Zero, fmt.Errorf("unexpected separator in %q", value)
	}
	match := numberPattern.FindString(value)
	if match == "" {
		return decimal.Zero, fmt.Errorf("no number in %q", value)
	}
	return decimal.NewFromString(match)
}
