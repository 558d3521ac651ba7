package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/loomdb/loomdb/internal/engine/table"
)

// WriteTable renders a result table as aligned columns with a header
// separator and a trailing row count.
func WriteTable(w io.Writer, t *table.Table) {
	columns := t.Columns()
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}

	cells := make([][]string, 0, t.RowCount())
	for _, r := range t.Rows() {
		line := make([]string, len(columns))
		for i := range columns {
			c, err := r.At(i)
			if err != nil {
				line[i] = ""
				continue
			}
			line[i] = c.Display()
			if len(line[i]) > widths[i] {
				widths[i] = len(line[i])
			}
		}
		cells = append(cells, line)
	}

	writeLine(w, columns, widths)
	sep := make([]string, len(columns))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	writeLine(w, sep, widths)
	for _, line := range cells {
		writeLine(w, line, widths)
	}
	fmt.Fprintf(w, "(%d rows)\n", t.RowCount())
}

func writeLine(w io.Writer, fields []string, widths []int) {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%-*s", widths[i], f)
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
}
