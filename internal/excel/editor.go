package excel

import (
	"fmt"
	"sheetStat/internal/tally"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

type Editor struct {
	file     *excelize.File
	filepath string
}

// Sheet is one worksheet loaded as a grid
type Sheet struct {
	Name string
	Grid tally.Grid
}

// OpenFile opens an existing Excel file
func OpenFile(filepath string) (*Editor, error) {
	file, err := excelize.OpenFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return &Editor{
		file:     file,
		filepath: filepath,
	}, nil
}

// LoadWorkbook reads every sheet of a workbook and closes it again
func LoadWorkbook(filepath string) ([]Sheet, error) {
	editor, err := OpenFile(filepath)
	if err != nil {
		return nil, err
	}
	defer editor.Close()

	return editor.ReadGrids()
}

// GetSheetNames returns all sheet names in the workbook
func (e *Editor) GetSheetNames() []string {
	return e.file.GetSheetList()
}

// HasSheet reports whether the workbook contains the named sheet
func (e *Editor) HasSheet(sheetName string) bool {
	index, err := e.file.GetSheetIndex(sheetName)
	return err == nil && index != -1
}

// AddSheet creates a new sheet
func (e *Editor) AddSheet(sheetName string) error {
	_, err := e.file.NewSheet(sheetName)
	return err
}

// ReadGrids loads all sheets in workbook order
func (e *Editor) ReadGrids() ([]Sheet, error) {
	var sheets []Sheet
	for _, name := range e.GetSheetNames() {
		grid, err := e.ReadGrid(name)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, Sheet{Name: name, Grid: grid})
	}
	return sheets, nil
}

// ReadGrid loads one sheet as typed cells. Raw values are used so number
// formats don't turn a 0 into "0.00" or a date string.
func (e *Editor) ReadGrid(sheet string) (tally.Grid, error) {
	rows, err := e.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
	}

	grid := make(tally.Grid, len(rows))
	for r, row := range rows {
		cells := make([]tally.Cell, len(row))
		for c, value := range row {
			if value == "" {
				cells[c] = tally.EmptyCell()
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, fmt.Errorf("invalid cell position %d,%d: %w", c+1, r+1, err)
			}
			cellType, err := e.GetCellDataType(sheet, cellName)
			if err != nil {
				return nil, fmt.Errorf("failed to read type of %s!%s: %w", sheet, cellName, err)
			}
			cells[c] = toCell(value, cellType)
		}
		grid[r] = cells
	}
	return grid, nil
}

func (e *Editor) GetCellDataType(sheet, cell string) (excelize.CellType, error) {
	return e.file.GetCellType(sheet, cell)
}

// GetCellValue returns the value in a specific cell
func (e *Editor) GetCellValue(sheet, cell string) (string, error) {
	return e.file.GetCellValue(sheet, cell)
}

// SetCellValue sets a value in a specific cell
func (e *Editor) SetCellValue(sheet, cell string, value interface{}) error {
	return e.file.SetCellValue(sheet, cell, value)
}

// Save writes the workbook back to the file it was opened from
func (e *Editor) Save() error {
	return e.file.SaveAs(e.filepath)
}

// Close closes the Excel file
func (e *Editor) Close() error {
	return e.file.Close()
}

// toCell classifies a raw cell value. Strings stay text even when they look
// numeric; everything else is a number when it parses as one.
func toCell(value string, cellType excelize.CellType) tally.Cell {
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return tally.TextCell(value)
	case excelize.CellTypeBool:
		if value == "1" || strings.EqualFold(value, "TRUE") {
			return tally.NumberCell(1)
		}
		return tally.NumberCell(0)
	}

	if number, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return tally.NumberCell(number)
	}
	return tally.TextCell(value)
}
