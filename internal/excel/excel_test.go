package excel

import (
	"os"
	"path/filepath"
	"sheetStat/internal/tally"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves a workbook whose sheets, in names order, hold the
// given rows starting at A1. nil values leave the cell unset.
func writeWorkbook(t *testing.T, path string, names []string, sheets map[string][][]interface{}) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range names {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			for c, value := range row {
				if value == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(name, cell, value))
			}
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func gradeRows() [][]interface{} {
	return [][]interface{}{
		{"姓名", "第1题", "第2题", "第3题"},
		{nil, "分数", "小数", "方程"},
		{"Alice", 1, nil, "x"},
		{"Bob", 0, 1, nil},
		{"Carol", nil, nil, nil},
	}
}

func readRows(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestReadGridTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.xlsx")
	writeWorkbook(t, path, []string{"Sheet1"}, map[string][][]interface{}{
		"Sheet1": {
			{"name", "n", "t", "b", "f"},
			{"Alice", 0, "0", true, 2.5},
		},
	})

	sheets, err := LoadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, sheets, 1)

	grid := sheets[0].Grid
	require.Len(t, grid, 2)
	assert.Equal(t, tally.TextCell("Alice"), grid[1][0])
	assert.Equal(t, tally.NumberCell(0), grid[1][1])
	assert.Equal(t, tally.TextCell("0"), grid[1][2])
	assert.Equal(t, tally.NumberCell(1), grid[1][3])
	assert.Equal(t, tally.NumberCell(2.5), grid[1][4])
}

func TestReadGridsKeepsSheetOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.xlsx")
	writeWorkbook(t, path, []string{"Unit 1", "Unit 2"}, map[string][][]interface{}{
		"Unit 1": gradeRows(),
		"Unit 2": {{"姓名"}},
	})

	sheets, err := LoadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, "Unit 1", sheets[0].Name)
	assert.Equal(t, "Unit 2", sheets[1].Name)

	result, kps := tally.Aggregate(sheets[0].Grid)
	assert.Equal(t, []string{"分数", "小数", "方程"}, kps)
	assert.Equal(t, map[string]int{"分数": 1, "方程": 1}, result.Counts["Alice"])
	assert.Equal(t, map[string]int{"小数": 1}, result.Counts["Bob"])
	assert.Empty(t, result.Counts["Carol"])
}

func TestLoadWorkbookMissingFile(t *testing.T) {
	_, err := LoadWorkbook(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestUpdateStatisticsCreatesBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.xlsx")
	writeWorkbook(t, path, []string{"Sheet1"}, map[string][][]interface{}{"Sheet1": gradeRows()})

	sheets, err := LoadWorkbook(path)
	require.NoError(t, err)
	result, kps := tally.Aggregate(sheets[0].Grid)

	require.NoError(t, UpdateStatistics(path, "Sheet1", result, kps))

	rows := readRows(t, path, "Sheet1")
	// data is 4 columns wide, so the marker lands in column 6 (F)
	assert.Equal(t, tally.StatsMarker, rows[0][5])
	assert.Equal(t, []string{"分数", "小数", "方程"}, rows[1][6:9])
	assert.Equal(t, []string{"Alice", "1", "0", "1"}, rows[2][5:9])
	assert.Equal(t, []string{"Bob", "0", "1", "0"}, rows[3][5:9])
	assert.Equal(t, []string{"Carol", "0", "0", "0"}, rows[4][5:9])
	assert.Equal(t, "", rows[0][4], "separator column stays blank")

	// the source data is untouched and re-aggregation ignores the block
	again, err := LoadWorkbook(path)
	require.NoError(t, err)
	reResult, reKps := tally.Aggregate(again[0].Grid)
	assert.Equal(t, kps, reKps)
	assert.Equal(t, result, reResult)
}

func TestUpdateStatisticsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.xlsx")
	writeWorkbook(t, path, []string{"Sheet1"}, map[string][][]interface{}{"Sheet1": gradeRows()})

	sheets, err := LoadWorkbook(path)
	require.NoError(t, err)
	result, kps := tally.Aggregate(sheets[0].Grid)

	require.NoError(t, UpdateStatistics(path, "Sheet1", result, kps))
	first := readRows(t, path, "Sheet1")

	require.NoError(t, UpdateStatistics(path, "Sheet1", result, kps))
	second := readRows(t, path, "Sheet1")

	assert.Equal(t, first, second)
}

func TestUpdateStatisticsReusesExistingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.xlsx")
	writeWorkbook(t, path, []string{"Sheet1"}, map[string][][]interface{}{
		"Sheet1": {
			{"姓名", "Q1", "Q2", tally.StatsMarker},
			{nil, "A", "B", nil, "B", "A"},
			{"Alice", 1, 1, "old", 9, 9},
			{"Bob", nil, nil, "old", 9, 9},
			{"Eve", nil, nil, "stale", 9, 9},
		},
	})

	result := tally.Result{
		Students: []string{"Alice", "Bob"},
		Counts: map[string]map[string]int{
			"Alice": {"A": 1, "B": 1},
			"Bob":   {},
		},
	}
	require.NoError(t, UpdateStatistics(path, "Sheet1", result, []string{"A", "B"}))

	rows := readRows(t, path, "Sheet1")
	assert.Equal(t, tally.StatsMarker, rows[0][3])
	assert.Equal(t, []string{"Alice", "1", "1"}, rows[2][3:6])
	assert.Equal(t, []string{"Bob", "0", "0"}, rows[3][3:6])
	// the leftover row below the students is cleared, its data kept
	require.Len(t, rows, 5)
	eve := padRow(rows[4], 6)
	assert.Equal(t, "Eve", eve[0])
	assert.Equal(t, []string{"", "", ""}, eve[3:6])
}

func TestUpdateStatisticsAppendsNewLabelAfterExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.xlsx")
	writeWorkbook(t, path, []string{"Sheet1"}, map[string][][]interface{}{
		"Sheet1": {
			{"姓名", "Q1", "Q2", tally.StatsMarker},
			{nil, "A", "C", nil, "A", "B"},
			{"Alice", 1, 1, "Alice", 1, 0},
		},
	})

	result := tally.Result{
		Students: []string{"Alice"},
		Counts:   map[string]map[string]int{"Alice": {"A": 1, "C": 1}},
	}
	require.NoError(t, UpdateStatistics(path, "Sheet1", result, []string{"A", "C"}))

	rows := readRows(t, path, "Sheet1")
	assert.Equal(t, []string{"", "A", "C", "", "A", "C"}, rows[1][:6])
	assert.Equal(t, []string{"Alice", "1", "1"}, rows[2][3:6])
}

func TestUpdateStatisticsCreatesMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.xlsx")
	writeWorkbook(t, path, []string{"Sheet1"}, map[string][][]interface{}{"Sheet1": gradeRows()})

	result := tally.Result{
		Students: []string{"Alice"},
		Counts:   map[string]map[string]int{"Alice": {"A": 2}},
	}
	require.NoError(t, UpdateStatistics(path, "Extra", result, []string{"A"}))

	rows := readRows(t, path, "Extra")
	require.Len(t, rows, 3)
	assert.Equal(t, tally.StatsMarker, rows[0][2])
	assert.Equal(t, "A", rows[1][3])
	assert.Equal(t, []string{"Alice", "2"}, rows[2][2:4])
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "b.xlsx"), []string{"Sheet1"}, map[string][][]interface{}{"Sheet1": gradeRows()})
	writeWorkbook(t, filepath.Join(dir, "nested", "a.xlsx"), []string{"Sheet1"}, map[string][][]interface{}{
		"Sheet1": {
			{"姓名", "Q1", tally.StatsMarker},
			{nil, "A", nil},
		},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$b.xlsx"), []byte("lock"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xlsx"), []byte("not a zip"), 0644))

	files, err := ListSpreadsheets(dir, []string{".XLSX"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.xlsx"),
		filepath.Join(dir, "broken.xlsx"),
		filepath.Join(dir, "nested", "a.xlsx"),
	}, files)

	infos, err := ScanDirectory(dir, []string{".xlsx"})
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.NoError(t, infos[0].Err)
	require.Len(t, infos[0].Sheets, 1)
	assert.Equal(t, []string{"分数", "小数", "方程"}, infos[0].Sheets[0].KnowledgePoints)
	assert.Equal(t, 3, infos[0].Sheets[0].Students)
	assert.False(t, infos[0].Sheets[0].HasStatistics)

	assert.Error(t, infos[1].Err)

	require.Len(t, infos[2].Sheets, 1)
	assert.True(t, infos[2].Sheets[0].HasStatistics)
	assert.Equal(t, 0, infos[2].Sheets[0].Students)
}

func padRow(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}

func TestListSpreadsheetsMissingDirectory(t *testing.T) {
	files, err := ListSpreadsheets(filepath.Join(t.TempDir(), "data", "input"), []string{".xlsx"})
	require.NoError(t, err)
	assert.Empty(t, files)

	infos, err := ScanDirectory(filepath.Join(t.TempDir(), "missing"), []string{".xlsx"})
	require.NoError(t, err)
	assert.Empty(t, infos)
}
