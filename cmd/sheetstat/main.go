package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sheetStat/internal/config"
	"sheetStat/internal/logger"
	"sheetStat/internal/picker"
	"sheetStat/internal/plot"
	"sheetStat/internal/remarks"
	"sheetStat/internal/report"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	command := os.Args[1]

	cfg, err := config.LoadConfig("configs/config.toml")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LoggerOptions())

	switch command {
	case "report":
		runReport(cfg, fileArg())
	case "preview":
		runPreview(cfg, fileArg())
	case "scan":
		runScan(cfg)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func printUsage() {
	fmt.Println("SheetStat - Test Error Statistics Tool")
	fmt.Println("\nUsage:")
	fmt.Println("  sheetstat report [file]    - Tally errors, draw charts and write statistics back")
	fmt.Println("  sheetstat preview [file]   - Print the statistics without writing anything")
	fmt.Println("  sheetstat scan             - List spreadsheets in the input directory")
	fmt.Println("\nWithout a file, a picker over the input directory is opened.")
}

func fileArg() string {
	if len(os.Args) > 2 {
		return os.Args[2]
	}
	return ""
}

// chooseFile returns path, or asks the user to pick one. It exits when
// nothing is chosen.
func chooseFile(cfg *config.Config, path string) string {
	if path != "" {
		return path
	}

	uiConfig := picker.UIConfig{
		ColumnsPerRow: cfg.UI.ColumnsPerRow,
		RowsPerPage:   cfg.UI.RowsPerPage,
	}
	path, err := picker.Run(cfg.Input.Directory, cfg.Input.Extensions, uiConfig)
	if errors.Is(err, picker.ErrNoSelection) {
		logger.Info("No file selected")
		fmt.Println("No file selected.")
		os.Exit(0)
	}
	if err != nil {
		logger.Error("File picker failed", "error", err)
		fmt.Printf("Error choosing file: %v\n", err)
		os.Exit(1)
	}
	return path
}

func runReport(cfg *config.Config, path string) {
	path = chooseFile(cfg, path)

	renderer, err := plot.NewRenderer(plot.Options{
		FontPath:      cfg.Chart.FontPath,
		Width:         cfg.Chart.Width,
		Height:        cfg.Chart.Height,
		StudentWidth:  cfg.Chart.StudentWidth,
		StudentHeight: cfg.Chart.StudentHeight,
		BarWidth:      cfg.Chart.BarWidth,
		OverviewTitle: cfg.Chart.OverviewTitle,
		StudentTitle:  cfg.Chart.StudentTitle,
	})
	if err != nil {
		logger.Error("Failed to prepare chart renderer", "error", err)
		fmt.Printf("Error preparing charts: %v\n", err)
		os.Exit(1)
	}

	advisor := newAdvisor(cfg)
	if advisor != nil {
		defer advisor.Close()
	}

	logger.Info("Starting report", "file", path)
	reports, err := report.Run(context.Background(), report.Options{
		Path:     path,
		Renderer: renderer,
		Advisor:  advisor,
		Out:      os.Stdout,
	})
	if err != nil {
		logger.Error("Report failed", "file", path, "error", err)
		fmt.Printf("Error: %v\n", err)
		if advisor != nil {
			advisor.Close()
		}
		os.Exit(1)
	}

	charts := 0
	for _, rep := range reports {
		charts += len(rep.Charts)
	}
	logger.Info("Report completed", "file", path, "sheets", len(reports), "charts", charts)

	fmt.Printf("\n========================================\n")
	fmt.Printf("Processed %d sheets, %d charts written\n", len(reports), charts)
	fmt.Printf("Charts saved to: %s\n", report.OutputDir(path))
}

// newAdvisor returns nil when remarks are disabled or no key is available
func newAdvisor(cfg *config.Config) *remarks.Advisor {
	if !cfg.AI.Enabled {
		return nil
	}

	apiKey := remarks.GetGeminiAPIKey()
	if apiKey == "" {
		fmt.Println("GEMINI_API_KEY not set, remarks are skipped.")
		return nil
	}

	advisor, err := remarks.NewAdvisor(apiKey, remarks.Options{
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		logger.Warn("Remarks disabled", "error", err)
		fmt.Printf("Remarks disabled: %v\n", err)
		return nil
	}
	return advisor
}

func runPreview(cfg *config.Config, path string) {
	path = chooseFile(cfg, path)

	logger.Info("Starting preview", "file", path)
	if _, err := report.Preview(path, os.Stdout); err != nil {
		logger.Error("Preview failed", "file", path, "error", err)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func runScan(cfg *config.Config) {
	logger.Info("Starting scan operation", "directory", cfg.Input.Directory)
	fmt.Printf("\nScanning %s for spreadsheets...\n", cfg.Input.Directory)

	if err := report.Scan(cfg.Input.Directory, cfg.Input.Extensions, os.Stdout); err != nil {
		logger.Error("Scan operation failed", "error", err)
		fmt.Printf("Error scanning spreadsheets: %v\n", err)
		os.Exit(1)
	}
}
