package logger

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

type Table struct {
	headers     []string
	rows        [][]string
	columnWidth []int
	out         io.Writer
}

func NewTable(headers []string, out io.Writer) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}

	return &Table{
		headers:     headers,
		columnWidth: widths,
		out:         out,
	}
}

func (t *Table) AddRow(cells ...string) {
	if len(cells) > len(t.headers) {
		cells = cells[:len(t.headers)]
	} else if len(cells) < len(t.headers) {
		padded := make([]string, len(t.headers))
		copy(padded, cells)
		cells = padded
	}

	for i, cell := range cells {
		if n := utf8.RuneCountInString(cell); n > t.columnWidth[i] {
			t.columnWidth[i] = n
		}
	}

	t.rows = append(t.rows, cells)
}

func (t *Table) Print() {
	var sb strings.Builder

	line := func(left, mid, right string) {
		sb.WriteString(left)
		for i, width := range t.columnWidth {
			sb.WriteString(strings.Repeat("─", width+2))
			if i < len(t.columnWidth)-1 {
				sb.WriteString(mid)
			}
		}
		sb.WriteString(right)
		sb.WriteString("\n")
	}

	row := func(cells []string) {
		sb.WriteString("│")
		for i, cell := range cells {
			pad := t.columnWidth[i] - utf8.RuneCountInString(cell)
			sb.WriteString(" " + cell + strings.Repeat(" ", pad) + " │")
		}
		sb.WriteString("\n")
	}

	line("┌", "┬", "┐")
	row(t.headers)
	line("├", "┼", "┤")
	for _, r := range t.rows {
		row(r)
	}
	line("└", "┴", "┘")

	fmt.Fprint(t.out, sb.String())
}
