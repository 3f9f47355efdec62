package utils

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// DetailBuilder builds key-value detail blocks for terminal output.
type DetailBuilder struct {
	b            strings.Builder
	labelWidth   int
	sectionStyle lipgloss.Style
}

// NewDetailBuilder creates a builder with a fixed-width label column.
// sectionStyle controls the rendering of section headings.
func NewDetailBuilder(labelWidth int, sectionStyle lipgloss.Style) *DetailBuilder {
	return &DetailBuilder{
		labelWidth:   labelWidth,
		sectionStyle: sectionStyle,
	}
}

// Row writes a labeled key-value row.
func (d *DetailBuilder) Row(label, value string) {
	fmt.Fprintf(&d.b, "  %-*s %s\n", d.labelWidth, label, value)
}

// Section writes a section heading like "── title ──────...".
func (d *DetailBuilder) Section(title string) {
	pad := max(40-len(title), 4)
	heading := fmt.Sprintf("── %s %s", title, strings.Repeat("─", pad))
	d.b.WriteString(d.sectionStyle.Render(heading) + "\n")
}

// String returns the accumulated content.
func (d *DetailBuilder) String() string {
	return d.b.String()
}

// Table renders rows in fixed-width columns. Cells wider than their column
// are truncated with "…"; the last column is never padded or truncated.
type Table struct {
	b           strings.Builder
	widths      []int
	headerStyle lipgloss.Style
}

func NewTable(headerStyle lipgloss.Style, widths ...int) *Table {
	return &Table{widths: widths, headerStyle: headerStyle}
}

// Header writes a styled header row.
func (t *Table) Header(cols ...string) {
	t.b.WriteString(t.headerStyle.Render(t.format(cols)) + "\n")
}

// Row writes a data row.
func (t *Table) Row(cols ...string) {
	t.b.WriteString(t.format(cols) + "\n")
}

func (t *Table) String() string {
	return t.b.String()
}

func (t *Table) format(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		if i < len(t.widths) && i < len(cols)-1 {
			parts[i] = fmt.Sprintf("%-*s", t.widths[i], Truncate(c, t.widths[i]))
		} else {
			parts[i] = c
		}
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}
