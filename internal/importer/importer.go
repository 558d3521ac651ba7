package importer

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/loomdb/loomdb/internal/engine/cell"
	"github.com/loomdb/loomdb/internal/engine/row"
	"github.com/loomdb/loomdb/internal/engine/table"
	"github.com/loomdb/loomdb/internal/logging"
)

var log = logging.GetLogger("importer")

// ImportTable opens the SQLite database at dsn and rebuilds the named
// table as an engine table. Row ids come from an integer id column
// when one exists, the SQLite rowid otherwise.
func ImportTable(dsn, tableName string) (*table.Table, error) {
	log.Info("importing sqlite table", "dsn", dsn, "table", tableName)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("importer: open %q: %w", dsn, err)
	}
	defer db.Close()

	// A single connection is enough for a one-shot read.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("importer: ping %q: %w", dsn, err)
	}

	columns, types, err := introspect(db, tableName)
	if err != nil {
		return nil, err
	}

	t, err := table.New(tableName, columns, types)
	if err != nil {
		return nil, err
	}

	idColumn := -1
	for i, name := range columns {
		if strings.EqualFold(name, "id") && types[i] == cell.Integer {
			idColumn = i
			break
		}
	}

	quoted := quoteIdent(tableName)
	rows, err := db.Query(fmt.Sprintf("SELECT rowid, * FROM %s", quoted))
	if err != nil {
		return nil, fmt.Errorf("importer: scan %q: %w", tableName, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		values := make([]any, len(columns)+1)
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("importer: scan row: %w", err)
		}

		rowid, ok := values[0].(int64)
		if !ok {
			return nil, fmt.Errorf("importer: table %q has a non-integer rowid", tableName)
		}
		id := rowid
		if idColumn >= 0 {
			if v, ok := values[idColumn+1].(int64); ok {
				id = v
			}
		}

		r := row.New(id)
		for i, tag := range types {
			c, err := convert(values[i+1], tag)
			if err != nil {
				return nil, fmt.Errorf("importer: row %d column %q: %w", rowid, columns[i], err)
			}
			r.Append(c)
		}
		if err := t.Insert(r); err != nil {
			return nil, fmt.Errorf("importer: insert row %d: %w", rowid, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("importer: scan %q: %w", tableName, err)
	}

	log.Info("import complete", "table", tableName, "rows", count)
	return t, nil
}

// introspect reads the table's schema via PRAGMA table_info.
func introspect(db *sql.DB, tableName string) ([]string, []cell.Tag, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, nil, fmt.Errorf("importer: table_info %q: %w", tableName, err)
	}
	defer rows.Close()

	var columns []string
	var types []cell.Tag
	for rows.Next() {
		var cid int
		var name, declType string
		var notNull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, nil, fmt.Errorf("importer: table_info scan: %w", err)
		}
		columns = append(columns, name)
		types = append(types, mapDeclType(declType))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("importer: table_info %q: %w", tableName, err)
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("importer: table %q not found", tableName)
	}
	return columns, types, nil
}

// mapDeclType maps a SQLite declared type onto an engine tag using
// SQLite's own affinity rules in miniature: INT anywhere in the name
// means integer; REAL, FLOA and DOUB mean floating; everything else is
// text.
func mapDeclType(declType string) cell.Tag {
	u := strings.ToUpper(declType)
	switch {
	case strings.Contains(u, "INT"):
		return cell.Integer
	case strings.Contains(u, "REAL"), strings.Contains(u, "FLOA"), strings.Contains(u, "DOUB"):
		return cell.Float
	default:
		return cell.Text
	}
}

// convert coerces a scanned SQLite value into a cell of the declared
// tag. NULLs become the tag's zero value.
func convert(v any, tag cell.Tag) (cell.Cell, error) {
	if v == nil {
		switch tag {
		case cell.Integer:
			return cell.NewInt(0), nil
		case cell.Float:
			return cell.NewFloat(0), nil
		default:
			return cell.NewText(""), nil
		}
	}

	switch tag {
	case cell.Integer:
		switch n := v.(type) {
		case int64:
			return cell.NewInt(n), nil
		case float64:
			return cell.NewInt(int64(n)), nil
		default:
			return cell.Cell{}, fmt.Errorf("cannot store %T in an INT column", v)
		}
	case cell.Float:
		switch n := v.(type) {
		case float64:
			return cell.NewFloat(n), nil
		case int64:
			return cell.NewFloat(float64(n)), nil
		default:
			return cell.Cell{}, fmt.Errorf("cannot store %T in a DOUBLE column", v)
		}
	default:
		switch s := v.(type) {
		case string:
			return cell.NewText(s), nil
		case []byte:
			return cell.NewText(string(s)), nil
		case int64:
			return cell.NewText(fmt.Sprintf("%d", s)), nil
		case float64:
			return cell.NewText(fmt.Sprintf("%g", s)), nil
		default:
			return cell.Cell{}, fmt.Errorf("cannot store %T in a STRING column", v)
		}
	}
}

// quoteIdent wraps an identifier in double quotes, doubling embedded
// quotes. PRAGMA and SELECT cannot take the name as a bind parameter.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
