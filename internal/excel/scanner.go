package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"sheetStat/internal/logger"
	"sheetStat/internal/tally"
	"sort"
	"strings"
)

// SheetInfo is what scan reports about one worksheet
type SheetInfo struct {
	Name            string
	KnowledgePoints []string
	Students        int
	HasStatistics   bool
}

// WorkbookInfo is what scan reports about one file
type WorkbookInfo struct {
	Path   string
	Sheets []SheetInfo
	Err    error
}

// ListSpreadsheets returns every file under dir whose extension is in exts,
// sorted by path. A directory that does not exist yet holds no spreadsheets.
func ListSpreadsheets(dir string, exts []string) ([]string, error) {
	var files []string

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Warn("Input directory does not exist", "directory", dir)
		return files, nil
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// skip Excel lock files such as ~$grades.xlsx
		if info.IsDir() || strings.HasPrefix(info.Name(), "~$") {
			return nil
		}

		if hasExtension(path, exts) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list spreadsheets in %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range exts {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// ScanDirectory describes every spreadsheet in dir. A file that fails to load
// is reported with its error instead of stopping the scan.
func ScanDirectory(dir string, exts []string) ([]WorkbookInfo, error) {
	files, err := ListSpreadsheets(dir, exts)
	if err != nil {
		return nil, err
	}

	logger.Info("Scanning spreadsheets", "directory", dir, "file_count", len(files))

	infos := make([]WorkbookInfo, 0, len(files))
	for _, path := range files {
		info, err := scanFile(path)
		if err != nil {
			logger.Warn("Failed to scan file", "file", path, "error", err)
			infos = append(infos, WorkbookInfo{Path: path, Err: err})
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func scanFile(path string) (WorkbookInfo, error) {
	sheets, err := LoadWorkbook(path)
	if err != nil {
		return WorkbookInfo{}, err
	}

	info := WorkbookInfo{Path: path}
	for _, sheet := range sheets {
		boundary := tally.Boundary(sheet.Grid)
		students := 0
		if len(sheet.Grid) > 2 {
			students = len(sheet.Grid) - 2
		}
		info.Sheets = append(info.Sheets, SheetInfo{
			Name:            sheet.Name,
			KnowledgePoints: tally.KnowledgePoints(sheet.Grid, boundary),
			Students:        students,
			HasStatistics:   boundary < sheet.Grid.Width(),
		})
	}
	return info, nil
}
