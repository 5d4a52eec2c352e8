package format

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/squeaky/pkg/store"
	"github.com/pseudomuto/squeaky/pkg/utils"
)

const dumpWidth = 80

// Querier runs a query and returns the buffered rows. It is satisfied by
// *store.Store and *database.Database.
type Querier interface {
	Query(ctx context.Context, stmt string, args ...any) (*store.Rows, error)
}

// DumpTables writes a banner followed by the bookkeeping table named versions and
// every table in names. A positive limit caps the rows selected from each table in
// names; the bookkeeping table is always shown in full.
func DumpTables(ctx context.Context, w io.Writer, q Querier, versions string, names []string, limit int) error {
	rule := "+" + strings.Repeat("-", dumpWidth-2) + "+\n"
	title := "Squeaky Table Dump"
	pad := dumpWidth - 2 - len(title)

	banner := rule +
		"|" + strings.Repeat(" ", pad/2) + title + strings.Repeat(" ", pad-pad/2) + "|\n" +
		rule

	if _, err := io.WriteString(w, banner); err != nil {
		return errors.Wrap(err, "failed to write dump banner")
	}

	if err := dumpTable(ctx, w, q, versions, 0); err != nil {
		return err
	}

	for _, name := range names {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return errors.Wrap(err, "failed to write dump")
		}

		if err := dumpTable(ctx, w, q, name, limit); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "\n"+strings.Repeat("-", dumpWidth)+"\n")
	return errors.Wrap(err, "failed to write dump")
}

func dumpTable(ctx context.Context, w io.Writer, q Querier, name string, limit int) error {
	stmt := "SELECT * FROM " + utils.QuoteIdentifier(name)
	if limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := q.Query(ctx, stmt)
	if err != nil {
		return errors.Wrapf(err, "failed to dump table %s", name)
	}

	return Table(w, name, rows)
}
