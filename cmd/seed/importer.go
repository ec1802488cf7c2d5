package main

import (
	"fmt"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/pkg/money"
	"github.com/xuri/excelize/v2"
)

// Column order of the product sheet. The first row is a header.
const (
	colName = iota
	colPrice
	colImageURL
	colDescription
)

type skippedRow struct {
	Row    int
	Reason string
}

type readResult struct {
	Products []model.Product
	Skipped  []skippedRow
}

func readProducts(f *excelize.File, sheet, currency string) (*readResult, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no data rows", sheet)
	}

	result := &readResult{}
	seen := make(map[string]int)
	for i, row := range rows[1:] {
		rowNum := i + 2 // spreadsheet rows are 1-based and row 1 is the header

		name := cell(row, colName)
		if name == "" {
			result.Skipped = append(result.Skipped, skippedRow{Row: rowNum, Reason: "missing name"})
			continue
		}
		price, err := money.ParsePrice(cell(row, colPrice), currency)
		if err != nil {
			result.Skipped = append(result.Skipped, skippedRow{Row: rowNum, Reason: err.Error()})
			continue
		}

		product := model.Product{
			Name:        name,
			Price:       price,
			ImageURL:    cell(row, colImageURL),
			Description: cell(row, colDescription),
		}

		// a later row with the same name wins
		key := strings.ToLower(name)
		if idx, ok := seen[key]; ok {
			result.Products[idx] = product
			continue
		}
		seen[key] = len(result.Products)
		result.Products = append(result.Products, product)
	}
	return result, nil
}

func importProducts(productService service.ProductService, products []model.Product) (created, updated int, err error) {
	for i := range products {
		isNew, err := productService.UpsertByName(&products[i])
		if err != nil {
			return created, updated, fmt.Errorf("product %q: %w", products[i].Name, err)
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
