package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column describes one table column. A zero Width sizes the column to its
// widest cell.
type Column struct {
	Header string
	Width  int
	Align  lipgloss.Position
}

// Cell is one styled table cell.
type Cell struct {
	Text  string
	Style lipgloss.Style
}

// Table renders fixed-column monitor data with a rounded border.
type Table struct {
	columns []Column
	rows    [][]Cell

	headerStyle lipgloss.Style
	borderStyle lipgloss.Style
	showBorder  bool
}

// NewTable creates a table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{
		columns:     columns,
		headerStyle: headerStyle.Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Muted),
		showBorder: true,
	}
}

// AddRow appends a row; missing cells render empty.
func (t *Table) AddRow(cells ...Cell) *Table {
	t.rows = append(t.rows, cells)
	return t
}

// SetShowBorder enables or disables the outer border.
func (t *Table) SetShowBorder(show bool) *Table {
	t.showBorder = show
	return t
}

// View renders the table.
func (t *Table) View() string {
	if len(t.columns) == 0 {
		return ""
	}

	widths := t.columnWidths()

	var content strings.Builder

	var header strings.Builder
	for i, col := range t.columns {
		header.WriteString(t.renderCell(col.Header, widths[i], col.Align, t.headerStyle))
		if i < len(t.columns)-1 {
			header.WriteString("│")
		}
	}
	content.WriteString(header.String())
	content.WriteString("\n")

	var separator strings.Builder
	for i := range t.columns {
		separator.WriteString(strings.Repeat("─", widths[i]+2))
		if i < len(t.columns)-1 {
			separator.WriteString("┼")
		}
	}
	content.WriteString(separator.String())

	for _, row := range t.rows {
		content.WriteString("\n")
		var line strings.Builder
		for i, col := range t.columns {
			var cell Cell
			if i < len(row) {
				cell = row[i]
			}
			line.WriteString(t.renderCell(cell.Text, widths[i], col.Align, cell.Style.Padding(0, 1)))
			if i < len(t.columns)-1 {
				line.WriteString("│")
			}
		}
		content.WriteString(line.String())
	}

	result := content.String()
	if t.showBorder {
		result = t.borderStyle.Render(result)
	}
	return result
}

// renderCell truncates, pads and aligns one cell.
func (t *Table) renderCell(text string, width int, align lipgloss.Position, style lipgloss.Style) string {
	if len(text) > width {
		if width > 3 {
			text = text[:width-3] + "..."
		} else {
			text = text[:width]
		}
	}
	return style.Width(width + 2).Align(align).Render(text)
}

// columnWidths sizes zero-width columns to their widest content.
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		if col.Width > 0 {
			widths[i] = col.Width
			continue
		}
		w := len(col.Header)
		for _, row := range t.rows {
			if i < len(row) && len(row[i].Text) > w {
				w = len(row[i].Text)
			}
		}
		widths[i] = w
	}
	return widths
}
