package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// table renders aligned rows with a header line.
type table struct {
	title   string
	headers []string
	rows    [][]string
}

func newTable(title string, headers ...string) *table {
	return &table{title: title, headers: headers}
}

func (t *table) add(row ...string) {
	t.rows = append(t.rows, row)
}

func (t *table) render(styles Styles) string {
	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(styles.Title.Render(t.title))
		sb.WriteString("\n")
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	header := styles.Bold.Copy().PaddingRight(2)
	cell := styles.Body.Copy().PaddingRight(2)
	for i, h := range t.headers {
		sb.WriteString(header.Width(widths[i] + 2).Render(h))
	}
	sb.WriteString("\n")
	for _, row := range t.rows {
		for i, c := range row {
			if i >= len(widths) {
				break
			}
			sb.WriteString(cell.Width(widths[i] + 2).Render(c))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
