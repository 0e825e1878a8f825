package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aluiziolira/cnki-crawler/models"
	"github.com/xuri/excelize/v2"
)

// CreateWriter opens an OutputWriter for format. Dual output writes a CSV
// and a JSONL file that share filename's stem.
func CreateWriter(format, filename string, header []string) (OutputWriter, error) {
	switch strings.ToLower(format) {
	case "xlsx":
		return NewXLSXWriter(filename, header)
	case "csv":
		return NewCSVWriter(filename, header)
	case "json":
		return NewJSONWriter(filename, header)
	case "dual":
		stem := strings.TrimSuffix(filename, filepath.Ext(filename))
		return NewDualWriter(stem+".csv", stem+".jsonl", header)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ExportRecords writes records, in order, as one output file.
func ExportRecords(format, filename string, records []*models.Record) error {
	header := models.Header(records)
	writer, err := CreateWriter(format, filename, header)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.Row(header))
	}
	if err := writer.Write(rows); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return writer.Validate()
}

// ReadRecords loads input records from an .xlsx or .csv file. The first row
// is the header; rows with no values are skipped.
func ReadRecords(path string) ([]*models.Record, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported input file %q: want .xlsx or .csv", path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("input file %q has no header row", path)
	}

	header := rows[0]
	records := make([]*models.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		records = append(records, models.NewRecord(header, row))
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %q has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, row)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
