package picker

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sheetStat/internal/excel"
	"sheetStat/internal/logger"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrNoSelection means the user left the picker without choosing a file
var ErrNoSelection = errors.New("no file selected")

// UI States
type state int

const (
	stateBrowse state = iota
	stateConfirm
	stateDone
)

// UIConfig represents UI configuration settings
type UIConfig struct {
	ColumnsPerRow int
	RowsPerPage   int
}

type model struct {
	dir      string
	files    []string
	selected string

	state state

	// Grid navigation
	page         int
	row          int
	col          int
	colsPerRow   int
	rowsPerPage  int
	itemsPerPage int

	width  int
	height int

	titleStyle    lipgloss.Style
	selectedStyle lipgloss.Style
	normalStyle   lipgloss.Style
	helpStyle     lipgloss.Style
	pathStyle     lipgloss.Style
}

func initialModel(dir string, files []string, uiConfig UIConfig) model {
	cols := max(uiConfig.ColumnsPerRow, 1)
	rows := max(uiConfig.RowsPerPage, 1)
	return model{
		dir:          dir,
		files:        files,
		state:        stateBrowse,
		colsPerRow:   cols,
		rowsPerPage:  rows,
		itemsPerPage: cols * rows,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Align(lipgloss.Center),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		normalStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		pathStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch m.state {
		case stateBrowse:
			return m.updateBrowse(msg)
		case stateConfirm:
			return m.updateConfirm(msg)
		}
	}
	return m, nil
}

func (m model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.state = stateDone
		return m, tea.Quit

	case "up", "k":
		if m.row > 0 {
			m.row--
		}

	case "down", "j":
		if m.row < m.maxRowForCurrentPage() && m.currentIndexAt(m.row+1, m.col) < len(m.files) {
			m.row++
		}

	case "left", "h":
		if m.col > 0 {
			m.col--
		} else if m.page > 0 {
			m.page--
			m.col = m.colsPerRow - 1
			m.adjustPosition()
		}

	case "right", "l":
		if m.col < m.maxColForCurrentRow() {
			m.col++
		} else if m.hasNextPage() {
			m.page++
			m.col = 0
			m.row = 0
		}

	case "enter":
		if idx := m.currentIndex(); idx < len(m.files) {
			m.selected = m.files[idx]
			m.state = stateConfirm
		}
	}
	return m, nil
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.selected = ""
		m.state = stateDone
		return m, tea.Quit
	case "y", "enter":
		m.state = stateDone
		return m, tea.Quit
	case "n", "esc":
		m.selected = ""
		m.state = stateBrowse
	}
	return m, nil
}

func (m model) currentIndex() int {
	return m.currentIndexAt(m.row, m.col)
}

func (m model) currentIndexAt(row, col int) int {
	return m.page*m.itemsPerPage + row*m.colsPerRow + col
}

func (m model) maxRowForCurrentPage() int {
	remaining := len(m.files) - m.page*m.itemsPerPage
	if remaining <= 0 {
		return 0
	}
	rowsNeeded := int(math.Ceil(float64(remaining) / float64(m.colsPerRow)))
	if rowsNeeded > m.rowsPerPage {
		return m.rowsPerPage - 1
	}
	return rowsNeeded - 1
}

func (m model) maxColForCurrentRow() int {
	startOfRow := m.currentIndexAt(m.row, 0)
	endOfRow := min(startOfRow+m.colsPerRow, len(m.files))
	return (endOfRow - startOfRow) - 1
}

func (m model) hasNextPage() bool {
	return (m.page+1)*m.itemsPerPage < len(m.files)
}

func (m *model) adjustPosition() {
	if m.currentIndex() < len(m.files) || len(m.files) == 0 {
		return
	}
	lastIdx := len(m.files) - 1
	m.page = lastIdx / m.itemsPerPage
	remainder := lastIdx % m.itemsPerPage
	m.row = remainder / m.colsPerRow
	m.col = remainder % m.colsPerRow
}

// displayName shows a file relative to the picker directory
func (m model) displayName(path string) string {
	if rel, err := filepath.Rel(m.dir, path); err == nil {
		return rel
	}
	return filepath.Base(path)
}

func (m model) View() string {
	switch m.state {
	case stateBrowse:
		return m.viewBrowse()
	case stateConfirm:
		return m.viewConfirm()
	}
	return ""
}

func (m model) viewBrowse() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Width(m.width).Render("Select a spreadsheet"))
	b.WriteString("\n\n")
	b.WriteString(m.helpStyle.Render(m.dir))
	b.WriteString("\n\n")

	totalPages := max(int(math.Ceil(float64(len(m.files))/float64(m.itemsPerPage))), 1)
	b.WriteString(m.helpStyle.Render(fmt.Sprintf("Page %d/%d", m.page+1, totalPages)))
	b.WriteString("\n\n")

	columnWidth := max((m.width-4)/m.colsPerRow, 16)

	for row := 0; row < m.rowsPerPage; row++ {
		var rowItems []string
		for col := 0; col < m.colsPerRow; col++ {
			idx := m.currentIndexAt(row, col)
			if idx >= len(m.files) {
				break
			}

			style := m.normalStyle
			if row == m.row && col == m.col {
				style = m.selectedStyle
			}

			text := []rune(m.displayName(m.files[idx]))
			if len(text) > columnWidth-2 {
				text = append(text[:columnWidth-5], []rune("...")...)
			}
			rowItems = append(rowItems, style.Render(fmt.Sprintf("%-*s", columnWidth-2, string(text))))
		}

		if len(rowItems) > 0 {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rowItems...))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render("↑↓←→: navigate | Enter: select | q: quit"))

	return b.String()
}

func (m model) viewConfirm() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render("Process this spreadsheet?"))
	b.WriteString("\n\n")
	b.WriteString(m.pathStyle.Render(m.selected))
	b.WriteString("\n\n")
	b.WriteString(m.helpStyle.Render("y/Enter to confirm, n/Esc to go back"))

	return b.String()
}

// Run shows the spreadsheets under dir and blocks until the user picks one.
// It returns ErrNoSelection when the user quits or there is nothing to pick.
func Run(dir string, exts []string, uiConfig UIConfig) (string, error) {
	files, err := excel.ListSpreadsheets(dir, exts)
	if err != nil {
		return "", err
	}

	if len(files) == 0 {
		fmt.Printf("No spreadsheets (%s) found in %s\n", strings.Join(exts, ", "), dir)
		return "", ErrNoSelection
	}

	logger.Info("Opening file picker", "directory", dir, "file_count", len(files))

	p := tea.NewProgram(initialModel(dir, files, uiConfig), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("error running file picker: %w", err)
	}

	final := finalModel.(model)
	if final.selected == "" {
		return "", ErrNoSelection
	}

	logger.Info("File selected", "file", final.selected)
	return final.selected, nil
}
