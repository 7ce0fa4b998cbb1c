package plot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sheetStat/internal/logger"
	"sheetStat/internal/tally"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Options controls chart sizes, titles and the label font. The titles are
// format strings taking the sheet or student name.
type Options struct {
	FontPath      string
	Width         int
	Height        int
	StudentWidth  int
	StudentHeight int
	BarWidth      int
	OverviewTitle string
	StudentTitle  string
}

const (
	DefaultOverviewTitle = "%s的错题统计"
	DefaultStudentTitle  = "%s的错题直方图"
)

// ErrNoFont means a chart holds text the built-in font has no glyphs for
var ErrNoFont = errors.New("no CJK font available")

// fontCandidates are tried in order when no font is configured
var fontCandidates = []string{
	`C:\Windows\Fonts\msyh.ttc`,
	`C:\Windows\Fonts\simhei.ttf`,
	"/System/Library/Fonts/STHeiti Medium.ttc",
	"/Library/Fonts/Arial Unicode.ttf",
	"/usr/share/fonts/truetype/wqy/wqy-microhei.ttc",
	"/usr/share/fonts/truetype/wqy/wqy-zenhei.ttc",
	"/usr/share/fonts/wqy-microhei/wqy-microhei.ttc",
	"/usr/share/fonts/wqy-zenhei/wqy-zenhei.ttc",
	"/usr/share/fonts/truetype/arphic/uming.ttc",
	"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
}

// Renderer draws the charts of one run. The font is loaded once when the
// renderer is built and never changes afterwards.
type Renderer struct {
	opts Options
	font *truetype.Font
}

var skyBlue = drawing.Color{R: 135, G: 206, B: 235, A: 255}

// NewRenderer loads the configured font. Without one it falls back to the
// first usable system CJK font, and failing that to go-chart's built-in font,
// which only covers ASCII.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.OverviewTitle == "" {
		opts.OverviewTitle = DefaultOverviewTitle
	}
	if opts.StudentTitle == "" {
		opts.StudentTitle = DefaultStudentTitle
	}
	r := &Renderer{opts: opts}

	if opts.FontPath != "" {
		font, err := loadFont(opts.FontPath)
		if err != nil {
			return nil, err
		}
		r.font = font
		logger.Info("Loaded chart font", "path", opts.FontPath)
		return r, nil
	}

	for _, path := range fontCandidates {
		font, err := loadFont(path)
		if err != nil {
			logger.Debug("Skipping font candidate", "path", path, "error", err)
			continue
		}
		r.font = font
		logger.Info("Using system chart font", "path", path)
		return r, nil
	}

	logger.Warn("No CJK chart font found, charts with Chinese text will fail until chart.font_path is set")
	return r, nil
}

func loadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	font, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return font, nil
}

// RenderSheet writes the overview chart and one chart per student with errors
// into dir/<sheet>/ and returns the written paths. The overview is always
// written, with zero bars when nobody got anything wrong.
func (r *Renderer) RenderSheet(dir, sheet string, result tally.Result, kps []string) ([]string, error) {
	if err := r.checkFont(sheet, result, kps); err != nil {
		return nil, err
	}

	sheetDir := filepath.Join(dir, SafeFileName(sheet))
	if err := os.MkdirAll(sheetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	var written []string
	used := make(map[string]bool)

	path := chartPath(sheetDir, SafeFileName(sheet), used)
	if err := r.renderOverview(path, sheet, result, kps); err != nil {
		return written, err
	}
	written = append(written, path)

	for _, student := range result.Students {
		if len(result.Counts[student]) == 0 {
			continue
		}
		path := chartPath(sheetDir, SafeFileName(student), used)
		if err := r.renderStudent(path, student, result.Counts[student]); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	logger.Info("Rendered charts", "sheet", sheet, "directory", sheetDir, "count", len(written))
	return written, nil
}

// checkFont fails when the built-in font is in use and any text drawn for the
// sheet is outside ASCII.
func (r *Renderer) checkFont(sheet string, result tally.Result, kps []string) error {
	if r.font != nil {
		return nil
	}

	texts := []string{fmt.Sprintf(r.opts.OverviewTitle, sheet)}
	for _, student := range result.Students {
		texts = append(texts, student)
		if len(result.Counts[student]) > 0 {
			texts = append(texts, fmt.Sprintf(r.opts.StudentTitle, student))
		}
	}
	texts = append(texts, kps...)

	for _, text := range texts {
		if !isASCII(text) {
			return fmt.Errorf("%w to draw %q in sheet %s: set chart.font_path to a TrueType font with CJK glyphs",
				ErrNoFont, text, sheet)
		}
	}
	return nil
}

func isASCII(text string) bool {
	for _, r := range text {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// chartPath returns dir/name.png, or dir/name (2).png and so on when another
// chart of the sheet already took the name. Names are compared without case.
func chartPath(dir, name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
	used[strings.ToLower(candidate)] = true
	return filepath.Join(dir, candidate+".png")
}

// renderOverview draws one group of bars per knowledge point that anybody got
// wrong, one colored bar per student inside each group. A sheet without errors
// gets a group per knowledge point, all at zero.
func (r *Renderer) renderOverview(path, sheet string, result tally.Result, kps []string) error {
	points := ErrorPoints(result, kps)
	if len(points) == 0 {
		points = tally.Distinct(kps)
	}
	barWidth := r.opts.BarWidth
	spacing := max(barWidth/8, 2)

	var bars []chart.Value
	maxCount := 0
	for g, kp := range points {
		if g > 0 {
			bars = append(bars, chart.Value{Value: 0})
		}
		for i, student := range result.Students {
			n := result.Count(student, kp)
			maxCount = max(maxCount, n)

			label := ""
			if i == len(result.Students)/2 {
				label = kp
			}
			color := chart.GetDefaultColor(i)
			bars = append(bars, chart.Value{
				Value: float64(n),
				Label: label,
				Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
			})
		}
	}

	if len(bars) == 0 {
		// go-chart refuses to draw without bars
		bars = append(bars, chart.Value{Value: 0})
	}

	legendWidth := 180
	width := max(r.opts.Width, len(bars)*(barWidth+spacing)+legendWidth+80)

	graph := chart.BarChart{
		Title:  fmt.Sprintf(r.opts.OverviewTitle, sheet),
		Font:   r.font,
		Width:  width,
		Height: r.opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: legendWidth, Bottom: 20},
		},
		BarWidth:   barWidth,
		BarSpacing: spacing,
		YAxis:      countAxis(maxCount),
		Bars:       bars,
		Elements:   []chart.Renderable{legend(result.Students)},
	}

	return save(path, graph)
}

// renderStudent draws one student's errors, most frequent first
func (r *Renderer) renderStudent(path, student string, counts map[string]int) error {
	kps := make([]string, 0, len(counts))
	for kp := range counts {
		kps = append(kps, kp)
	}
	sort.Slice(kps, func(i, j int) bool {
		if counts[kps[i]] != counts[kps[j]] {
			return counts[kps[i]] > counts[kps[j]]
		}
		return kps[i] > kps[j]
	})

	bars := make([]chart.Value, 0, len(kps))
	for _, kp := range kps {
		bars = append(bars, chart.Value{
			Value: float64(counts[kp]),
			Label: kp,
			Style: chart.Style{FillColor: skyBlue, StrokeColor: skyBlue, StrokeWidth: 1},
		})
	}

	barWidth := r.opts.BarWidth
	graph := chart.BarChart{
		Title:  fmt.Sprintf(r.opts.StudentTitle, student),
		Font:   r.font,
		Width:  max(r.opts.StudentWidth, len(bars)*barWidth*2+120),
		Height: r.opts.StudentHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		BarWidth:   barWidth,
		BarSpacing: barWidth,
		YAxis:      countAxis(counts[kps[0]]),
		Bars:       bars,
	}

	return save(path, graph)
}

// countAxis is a y axis with one tick per whole error count
func countAxis(maxCount int) chart.YAxis {
	maxCount = max(maxCount, 1)
	ticks := make([]chart.Tick, 0, maxCount+1)
	for i := 0; i <= maxCount; i++ {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: strconv.Itoa(i)})
	}
	return chart.YAxis{
		Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
		Ticks: ticks,
	}
}

// legend draws a color swatch and name per student in the right padding
func legend(names []string) chart.Renderable {
	return func(r chart.Renderer, canvas chart.Box, defaults chart.Style) {
		const (
			swatch     = 10
			lineHeight = 16
		)
		text := chart.Style{
			Font:      defaults.Font,
			FontSize:  10,
			FontColor: drawing.ColorBlack,
		}
		x := canvas.Right + 16
		for i, name := range names {
			y := canvas.Top + i*lineHeight
			color := chart.GetDefaultColor(i)
			chart.Draw.Box(r, chart.Box{Top: y, Left: x, Right: x + swatch, Bottom: y + swatch},
				chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1})
			chart.Draw.Text(r, name, x+swatch+6, y+swatch, text)
		}
	}
}

func save(path string, graph chart.BarChart) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer file.Close()

	if err := graph.Render(chart.PNG, file); err != nil {
		return fmt.Errorf("failed to render chart %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ErrorPoints returns the distinct knowledge points with at least one error,
// in sheet order.
func ErrorPoints(result tally.Result, kps []string) []string {
	var points []string
	for _, kp := range tally.Distinct(kps) {
		for _, student := range result.Students {
			if result.Count(student, kp) > 0 {
				points = append(points, kp)
				break
			}
		}
	}
	return points
}

// SafeFileName makes a sheet or student name usable as a file name
func SafeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, name)
}
