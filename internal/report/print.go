package report

import (
	"fmt"
	"io"
	"path/filepath"
	"sheetStat/internal/excel"
	"sheetStat/internal/tally"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// PrintSheet writes the per-student matrix and the class summary of a sheet
func PrintSheet(out io.Writer, rep SheetReport) {
	fmt.Fprintf(out, "\n== %s ==\n", rep.Name)

	if len(rep.Result.Students) == 0 {
		fmt.Fprintln(out, "No student rows found.")
		return
	}

	labels := tally.Distinct(rep.KnowledgePoints)

	matrix := newTable(out)
	matrix.SetHeader(append(append([]string{"Student"}, labels...), "Total"))
	for _, student := range rep.Result.Students {
		row := []string{student}
		for _, kp := range labels {
			row = append(row, strconv.Itoa(rep.Result.Count(student, kp)))
		}
		row = append(row, strconv.Itoa(rep.Result.Total(student)))
		matrix.Append(row)
	}
	matrix.Render()

	if len(rep.Summary.Points) > 0 {
		points := newTable(out)
		points.SetHeader([]string{"Knowledge point", "Errors", "Students", "Mean", "Median", "Max"})
		for _, p := range rep.Summary.Points {
			points.Append([]string{
				p.KnowledgePoint,
				strconv.Itoa(p.TotalErrors),
				fmt.Sprintf("%d/%d", p.Students, rep.Summary.Students),
				fmt.Sprintf("%.2f", p.Mean),
				fmt.Sprintf("%.1f", p.Median),
				fmt.Sprintf("%.0f", p.Max),
			})
		}
		points.Render()
	}

	fmt.Fprintf(out, "%d students, %d with errors, %d errors in total (%.2f ± %.2f per student)\n",
		rep.Summary.Students, rep.Summary.StudentsWithError, rep.Summary.TotalErrors,
		rep.Summary.MeanPerStudent, rep.Summary.StdDevPerStudent)
}

// Scan lists every spreadsheet under dir with its sheets' layout
func Scan(dir string, exts []string, out io.Writer) error {
	infos, err := excel.ScanDirectory(dir, exts)
	if err != nil {
		return err
	}

	if len(infos) == 0 {
		fmt.Fprintf(out, "No spreadsheets (%s) found in %s\n", strings.Join(exts, ", "), dir)
		return nil
	}

	table := newTable(out)
	table.SetHeader([]string{"File", "Sheet", "Students", "Knowledge points", "Statistics"})
	for _, info := range infos {
		name := info.Path
		if rel, err := filepath.Rel(dir, info.Path); err == nil {
			name = rel
		}
		if info.Err != nil {
			table.Append([]string{name, "-", "-", "error: " + info.Err.Error(), "-"})
			continue
		}
		for _, sheet := range info.Sheets {
			stats := "no"
			if sheet.HasStatistics {
				stats = "yes"
			}
			table.Append([]string{
				name,
				sheet.Name,
				strconv.Itoa(sheet.Students),
				strings.Join(sheet.KnowledgePoints, ", "),
				stats,
			})
		}
	}
	table.Render()

	fmt.Fprintf(out, "Scanned %d files\n", len(infos))
	return nil
}

func newTable(out io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}
