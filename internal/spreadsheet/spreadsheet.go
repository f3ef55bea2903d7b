package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/duartefn/worten-price-scraper/internal/models"
)

// Output column order is fixed; downstream consumers address columns by
// position, not by header.
var outputHeader = []string{
	"ID", "EAN", "Nome Original", "Nome Worten", "Link Worten",
	"Menor Preco", "Vendedor", "Disponivel", "Ultima Atualizacao", "Erro",
}

const timestampLayout = "2006-01-02 15:04:05"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadProducts loads the input spreadsheet. Expected columns are ID, EAN and
// product name, in that order; a header row is skipped when present and rows
// without an ID are dropped.
func ReadProducts(path string) ([]*models.Product, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	default:
		rows, err = readXLSX(path)
	}
	if err != nil {
		return nil, err
	}

	var products []*models.Product
	for i, row := range rows {
		if i == 0 && isHeaderRow(row) {
			continue
		}
		p := rowToProduct(row)
		if p == nil {
			continue
		}
		products = append(products, p)
	}

	return products, nil
}

// WriteProducts saves the full output table. An unrecognized extension is
// rewritten to .xlsx; the path actually written is returned.
func WriteProducts(path string, products []*models.Product) (string, error) {
	rows := make([][]interface{}, 0, len(products)+1)

	header := make([]interface{}, len(outputHeader))
	for i, h := range outputHeader {
		header[i] = h
	}
	rows = append(rows, header)

	for _, p := range products {
		rows = append(rows, productToRow(p))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return path, writeCSV(path, rows)
	case ".xlsx":
		return path, writeXLSX(path, rows)
	default:
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
		return path, writeXLSX(path, rows)
	}
}

func readCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = trimBOM(data)

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func writeCSV(path string, rows [][]interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	defer file.Close()

	// BOM keeps Excel reading accented Portuguese text correctly.
	if _, err := file.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	writer := csv.NewWriter(file)
	for _, row := range rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = cellString(cell)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}

func writeXLSX(path string, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save spreadsheet: %w", err)
	}

	return nil
}

func rowToProduct(row []string) *models.Product {
	id := cellAt(row, 0)
	if id == "" {
		return nil
	}
	return &models.Product{
		OriginalID:   id,
		EAN:          cellAt(row, 1),
		OriginalName: cellAt(row, 2),
	}
}

func productToRow(p *models.Product) []interface{} {
	price := interface{}("")
	if p.LowestPrice != nil {
		price = *p.LowestPrice
	}

	available := "Nao"
	if p.IsAvailable {
		available = "Sim"
	}

	scraped := ""
	if p.LastScraped != nil {
		scraped = p.LastScraped.Format(timestampLayout)
	}

	return []interface{}{
		p.OriginalID, p.EAN, p.OriginalName, p.WortenName, p.WortenURL,
		price, p.SellerName, available, scraped, p.ScrapeError,
	}
}

func isHeaderRow(row []string) bool {
	first := strings.ToLower(cellAt(row, 0))
	return first == "id" || first == "codigo" || first == "código"
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return fmt.Sprint(v)
	}
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == utf8BOM[0] && data[1] == utf8BOM[1] && data[2] == utf8BOM[2] {
		return data[3:]
	}
	return data
}
