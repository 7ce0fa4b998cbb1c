package excel

import (
	"fmt"
	"sheetStat/internal/tally"

	"github.com/xuri/excelize/v2"
)

const (
	headerRow = 1 // holds the StatsMarker
	labelRow  = 2 // holds knowledge-point labels
	dataRow   = 3 // first student row
)

// UpdateStatistics writes the aggregated counts of one sheet back into the
// workbook at path and saves it in place.
func UpdateStatistics(path, sheet string, result tally.Result, kps []string) error {
	editor, err := OpenFile(path)
	if err != nil {
		return err
	}
	defer editor.Close()

	if err := editor.WriteStatistics(sheet, result, kps); err != nil {
		return err
	}

	if err := editor.Save(); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// WriteStatistics finds or creates the statistics block of a sheet and
// overwrites it with result. The block starts at the StatsMarker column:
// student names go below the marker, one column per knowledge point follows.
// Existing label columns are reused, so writing the same result twice leaves
// the sheet unchanged.
func (e *Editor) WriteStatistics(sheet string, result tally.Result, kps []string) error {
	if !e.HasSheet(sheet) {
		if err := e.AddSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}

	rows, err := e.file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
	}
	width := 1
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	height := len(rows)

	statCol, err := e.findInRow(sheet, headerRow, 1, width+1, tally.StatsMarker)
	if err != nil {
		return err
	}
	if statCol == 0 {
		// leave one blank column between the data and the statistics
		statCol = width + 2
		if err := e.setCell(sheet, statCol, headerRow, tally.StatsMarker); err != nil {
			return err
		}
	}
	width = max(width, statCol)

	labels := tally.Distinct(kps)
	kpCols := make(map[string]int, len(labels))
	lastCol := statCol
	for _, kp := range labels {
		col, err := e.findInRow(sheet, labelRow, statCol+1, width, kp)
		if err != nil {
			return err
		}
		if col == 0 {
			col = lastCol + 1
			if err := e.setCell(sheet, col, labelRow, kp); err != nil {
				return err
			}
			width = max(width, col)
		}
		kpCols[kp] = col
		lastCol = max(lastCol, col)
	}

	lastRow := max(len(result.Students)+dataRow-1, height)
	for col := statCol; col <= lastCol; col++ {
		for row := dataRow; row <= lastRow; row++ {
			if err := e.setCell(sheet, col, row, nil); err != nil {
				return err
			}
		}
	}

	for i, student := range result.Students {
		row := dataRow + i
		if err := e.setCell(sheet, statCol, row, student); err != nil {
			return err
		}
		for _, kp := range labels {
			if err := e.setCell(sheet, kpCols[kp], row, result.Count(student, kp)); err != nil {
				return err
			}
		}
	}

	return nil
}

// findInRow returns the first column in [from, to] whose displayed value is
// exactly want, or 0 when there is none.
func (e *Editor) findInRow(sheet string, row, from, to int, want string) (int, error) {
	for col := from; col <= to; col++ {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return 0, err
		}
		value, err := e.GetCellValue(sheet, cell)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s!%s: %w", sheet, cell, err)
		}
		if value == want {
			return col, nil
		}
	}
	return 0, nil
}

func (e *Editor) setCell(sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := e.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
	}
	return nil
}
