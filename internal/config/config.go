package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sheetStat/internal/logger"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Input InputConfig `toml:"input"`
	UI    UIConfig    `toml:"ui"`
	Chart ChartConfig `toml:"chart"`
	AI    AIConfig    `toml:"ai"`
	Log   LogConfig   `toml:"log"`
}

type InputConfig struct {
	Directory  string   `toml:"directory"`
	Extensions []string `toml:"extensions"`
}

type UIConfig struct {
	ColumnsPerRow int `toml:"columns_per_row"`
	RowsPerPage   int `toml:"rows_per_page"`
}

// ChartConfig sizes are in pixels. FontPath must point at a TrueType file with
// CJK glyphs for Chinese labels to render; empty searches the usual system
// font locations. Titles are format strings taking the sheet or student name.
type ChartConfig struct {
	FontPath      string `toml:"font_path"`
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
	StudentWidth  int    `toml:"student_width"`
	StudentHeight int    `toml:"student_height"`
	BarWidth      int    `toml:"bar_width"`
	OverviewTitle string `toml:"overview_title"`
	StudentTitle  string `toml:"student_title"`
}

type AIConfig struct {
	Enabled        bool    `toml:"enabled"`
	Model          string  `toml:"model"`
	Temperature    float32 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

type LogConfig struct {
	File       string `toml:"file"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Default returns the configuration written on first run
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Directory:  "data/input",
			Extensions: []string{".xlsx", ".xlsm"},
		},
		UI: UIConfig{
			ColumnsPerRow: 3,
			RowsPerPage:   8,
		},
		Chart: ChartConfig{
			Width:         1500,
			Height:        800,
			StudentWidth:  1000,
			StudentHeight: 600,
			BarWidth:      40,
			OverviewTitle: "%s的错题统计",
			StudentTitle:  "%s的错题直方图",
		},
		AI: AIConfig{
			Enabled:        false,
			Model:          "gemini-2.0-flash",
			Temperature:    0.3,
			TimeoutSeconds: 60,
		},
		Log: LogConfig{
			File:       filepath.Join("logs", "sheetstat.log"),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadConfig loads configuration from the specified config file path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		defaultConfig := Default()
		err = SaveConfig(configPath, defaultConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		logger.Info("Created default config file", "path", configPath)
		return defaultConfig, nil
	}

	var config Config
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	config.applyDefaults()

	logger.Info("Loaded configuration", "path", configPath)
	return &config, nil
}

// applyDefaults fills every zero value with its default. AI.Enabled is left
// alone since false is a legitimate choice.
func (c *Config) applyDefaults() {
	def := Default()

	if c.Input.Directory == "" {
		c.Input.Directory = def.Input.Directory
	}
	if len(c.Input.Extensions) == 0 {
		c.Input.Extensions = def.Input.Extensions
	}
	if c.UI.ColumnsPerRow == 0 {
		c.UI.ColumnsPerRow = def.UI.ColumnsPerRow
	}
	if c.UI.RowsPerPage == 0 {
		c.UI.RowsPerPage = def.UI.RowsPerPage
	}
	if c.Chart.Width == 0 {
		c.Chart.Width = def.Chart.Width
	}
	if c.Chart.Height == 0 {
		c.Chart.Height = def.Chart.Height
	}
	if c.Chart.StudentWidth == 0 {
		c.Chart.StudentWidth = def.Chart.StudentWidth
	}
	if c.Chart.StudentHeight == 0 {
		c.Chart.StudentHeight = def.Chart.StudentHeight
	}
	if c.Chart.BarWidth == 0 {
		c.Chart.BarWidth = def.Chart.BarWidth
	}
	if c.Chart.OverviewTitle == "" {
		c.Chart.OverviewTitle = def.Chart.OverviewTitle
	}
	if c.Chart.StudentTitle == "" {
		c.Chart.StudentTitle = def.Chart.StudentTitle
	}
	if c.AI.Model == "" {
		c.AI.Model = def.AI.Model
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = def.AI.Temperature
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = def.AI.TimeoutSeconds
	}
	if c.Log.File == "" {
		c.Log.File = def.Log.File
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = def.Log.MaxBackups
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = def.Log.MaxAgeDays
	}
}

// LoggerOptions converts the [log] section for logger.Init
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		File:       c.Log.File,
		Level:      c.Log.Level,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// SaveConfig saves configuration to the specified config file path
func SaveConfig(configPath string, config *Config) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	err = encoder.Encode(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	logger.Info("Saved configuration", "path", configPath)
	return nil
}
