package format

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/pseudomuto/squeaky/pkg/store"
)

const (
	blobCell = "**BLOB**"
	nullCell = "null"
)

// Table renders rows as an ASCII table, preceded by title when it isn't empty.
//
// Columns are right-aligned and sized to their widest value:
//
//	+-------------------+
//	| id |  name |  pic |
//	+-------------------+
//	|  1 | alice | null |
//	+-------------------+
//
// BLOB values render as **BLOB**, NULL as null and floats always carry a decimal
// point. The cursor is reset before and after rendering.
func Table(w io.Writer, title string, rows *store.Rows) error {
	rows.Reset()
	defer rows.Reset()

	columns := rows.Columns()
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = utf8.RuneCountInString(col)
	}

	var cells [][]string
	for rows.Next() {
		row := make([]string, len(columns))
		for i := range columns {
			cell, err := render(rows, i)
			if err != nil {
				return err
			}

			row[i] = cell
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}

		cells = append(cells, row)
	}

	total := 1
	for _, width := range widths {
		total += width + 3
	}

	border := "+" + strings.Repeat("-", max(total-2, 0)) + "+\n"

	var sb strings.Builder
	if title != "" {
		sb.WriteString(title)
		sb.WriteString("\n")
	}

	sb.WriteString(border)
	writeRow(&sb, widths, columns)
	sb.WriteString(border)
	for _, row := range cells {
		writeRow(&sb, widths, row)
	}
	sb.WriteString(border)

	_, err := io.WriteString(w, sb.String())
	return errors.Wrap(err, "failed to write table")
}

func writeRow(sb *strings.Builder, widths []int, values []string) {
	for i, value := range values {
		sb.WriteString("| ")
		sb.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(value)))
		sb.WriteString(value)
		sb.WriteString(" ")
	}

	sb.WriteString("|\n")
}

func render(rows *store.Rows, i int) (string, error) {
	class, err := rows.Type(i)
	if err != nil {
		return "", err
	}

	switch class {
	case store.Null:
		return nullCell, nil
	case store.Blob:
		return blobCell, nil
	default:
		return rows.String(i)
	}
}
