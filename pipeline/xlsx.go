package pipeline

import (
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the crawler reads from and writes to.
const SheetName = "Sheet1"

// XLSXWriter buffers rows in a workbook and saves it on Close.
type XLSXWriter struct {
	path   string
	file   *excelize.File
	next   int
	closed bool
	mu     sync.Mutex
}

// NewXLSXWriter creates a workbook with header as its first row.
func NewXLSXWriter(filename string, header []string) (*XLSXWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	xw := &XLSXWriter{path: filename, file: f, next: 1}
	if err := xw.writeRow(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write xlsx header: %w", err)
	}
	return xw, nil
}

// Write appends rows below the ones already written.
func (xw *XLSXWriter) Write(rows [][]string) error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if xw.closed {
		return fmt.Errorf("xlsx writer is closed")
	}
	for _, row := range rows {
		if err := xw.writeRow(row); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", xw.next, err)
		}
	}
	return nil
}

// Close saves the workbook to disk.
func (xw *XLSXWriter) Close() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if xw.closed {
		return nil
	}
	xw.closed = true
	if err := xw.file.SaveAs(xw.path); err != nil {
		xw.file.Close()
		return fmt.Errorf("save xlsx file: %w", err)
	}
	return xw.file.Close()
}

// Validate ensures the saved workbook exists and is not empty.
func (xw *XLSXWriter) Validate() error {
	return validateFile(xw.path, "xlsx")
}

func (xw *XLSXWriter) writeRow(row []string) error {
	cell, err := excelize.CoordinatesToCellName(1, xw.next)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	if err := xw.file.SetSheetRow(SheetName, cell, &values); err != nil {
		return err
	}
	xw.next++
	return nil
}
