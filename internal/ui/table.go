package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
}

// NewTable creates a new table.
func NewTable(cols ...Column) *Table {
	return &Table{Columns: cols}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, Row(cells))
}

// Render returns the table as a string. Cells are padded by hand so every
// column keeps its exact width; longer values are cut with an ellipsis.
func (t *Table) Render() string {
	var sb strings.Builder

	header := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cell := lipgloss.NewStyle().Foreground(ColorValue)

	line := func(style lipgloss.Style, values func(i int) string) {
		parts := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			parts[i] = style.Render(fit(values(i), col.Width))
		}
		sb.WriteString(strings.Join(parts, " "))
		sb.WriteString("\n")
	}

	line(header, func(i int) string { return t.Columns[i].Title })
	line(StyleMeta, func(i int) string { return strings.Repeat("-", t.Columns[i].Width) })
	for _, row := range t.Rows {
		line(cell, func(i int) string {
			if i < len(row) {
				return row[i]
			}
			return ""
		})
	}
	return sb.String()
}

// fit pads or truncates s to exactly width runes.
func fit(s string, width int) string {
	r := []rune(s)
	switch {
	case len(r) == width:
		return s
	case len(r) < width:
		return s + strings.Repeat(" ", width-len(r))
	case width <= 1:
		return string(r[:width])
	default:
		return string(r[:width-1]) + "…"
	}
}

// KeyValueBlock renders key-value pairs in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-16s", p[0]+":"))
		sb.WriteString("  " + key + " " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(sb.String())
}
