package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sheetStat/internal/excel"
	"sheetStat/internal/logger"
	"sheetStat/internal/plot"
	"sheetStat/internal/remarks"
	"sheetStat/internal/tally"
	"strings"
)

// ErrLoad wraps any failure to open or parse the input workbook
var ErrLoad = errors.New("failed to load spreadsheet")

// Options is what one report run needs
type Options struct {
	Path     string
	Renderer *plot.Renderer
	Advisor  *remarks.Advisor // nil skips remarks
	Out      io.Writer
}

// SheetReport is the outcome for one worksheet
type SheetReport struct {
	Name            string
	Result          tally.Result
	KnowledgePoints []string
	Summary         tally.Summary
	Charts          []string
	RemarkPath      string
}

// OutputDir is where charts of the workbook at path are written:
// a directory named after the file, next to it.
func OutputDir(path string) string {
	base := filepath.Base(path)
	return filepath.Join(filepath.Dir(path), strings.TrimSuffix(base, filepath.Ext(base)))
}

// Run processes every sheet of the workbook in order: aggregate, print,
// render charts, write the statistics back and optionally add a remark. The
// first chart or workbook failure stops the run.
func Run(ctx context.Context, opts Options) ([]SheetReport, error) {
	sheets, err := load(opts.Path)
	if err != nil {
		return nil, err
	}

	outDir := OutputDir(opts.Path)
	var reports []SheetReport

	for _, sheet := range sheets {
		rep, err := analyze(sheet)
		if err != nil {
			return reports, err
		}
		PrintSheet(opts.Out, rep)

		fmt.Fprintf(opts.Out, "Generating charts for %s...\n", sheet.Name)
		rep.Charts, err = opts.Renderer.RenderSheet(outDir, sheet.Name, rep.Result, rep.KnowledgePoints)
		if err != nil {
			logger.Error("Failed to render charts", "sheet", sheet.Name, "error", err)
			return reports, fmt.Errorf("failed to render charts for sheet %s: %w", sheet.Name, err)
		}

		fmt.Fprintf(opts.Out, "Updating workbook sheet %s...\n", sheet.Name)
		err = excel.UpdateStatistics(opts.Path, sheet.Name, rep.Result, rep.KnowledgePoints)
		if err != nil {
			logger.Error("Failed to update workbook", "sheet", sheet.Name, "error", err)
			return reports, fmt.Errorf("failed to update sheet %s: %w", sheet.Name, err)
		}

		if opts.Advisor != nil {
			rep.RemarkPath = addRemark(ctx, opts.Advisor, filepath.Join(outDir, plot.SafeFileName(sheet.Name)), rep)
		}

		logger.Info("Sheet processed",
			"sheet", sheet.Name,
			"students", len(rep.Result.Students),
			"knowledge_points", len(rep.KnowledgePoints),
			"charts", len(rep.Charts))
		reports = append(reports, rep)
	}

	return reports, nil
}

// Preview aggregates and prints every sheet without writing anything
func Preview(path string, out io.Writer) ([]SheetReport, error) {
	sheets, err := load(path)
	if err != nil {
		return nil, err
	}

	reports := make([]SheetReport, 0, len(sheets))
	for _, sheet := range sheets {
		rep, err := analyze(sheet)
		if err != nil {
			return reports, err
		}
		PrintSheet(out, rep)
		reports = append(reports, rep)
	}
	return reports, nil
}

func load(path string) ([]excel.Sheet, error) {
	logger.Info("Loading workbook", "file", path)
	sheets, err := excel.LoadWorkbook(path)
	if err != nil {
		logger.Error("Failed to load workbook", "file", path, "error", err)
		return nil, fmt.Errorf("%w %s: %w", ErrLoad, path, err)
	}
	logger.Info("Workbook loaded", "file", path, "sheets", len(sheets))
	return sheets, nil
}

func analyze(sheet excel.Sheet) (SheetReport, error) {
	result, kps := tally.Aggregate(sheet.Grid)
	summary, err := tally.Summarize(result, kps)
	if err != nil {
		return SheetReport{}, fmt.Errorf("failed to summarize sheet %s: %w", sheet.Name, err)
	}
	return SheetReport{
		Name:            sheet.Name,
		Result:          result,
		KnowledgePoints: kps,
		Summary:         summary,
	}, nil
}

// addRemark never fails the run; a missing remark is only logged
func addRemark(ctx context.Context, advisor *remarks.Advisor, dir string, rep SheetReport) string {
	if !rep.Result.HasErrors() {
		return ""
	}

	text, err := advisor.Remark(ctx, rep.Name, rep.Summary)
	if err != nil {
		logger.Warn("Skipping remark", "sheet", rep.Name, "error", err)
		return ""
	}

	path, err := remarks.WriteRemark(dir, rep.Name, text)
	if err != nil {
		logger.Warn("Failed to save remark", "sheet", rep.Name, "error", err)
		return ""
	}
	return path
}
