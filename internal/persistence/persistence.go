package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/loomdb/loomdb/internal/engine/cell"
	"github.com/loomdb/loomdb/internal/engine/row"
	"github.com/loomdb/loomdb/internal/engine/store"
	"github.com/loomdb/loomdb/internal/engine/table"
	"github.com/loomdb/loomdb/internal/logging"
)

var log = logging.GetLogger("persistence")

// ErrBadDocument is returned when a document's shape does not match
// the contract: parallel columns/column_types, known type names, rows
// whose scalars fit the declared types.
var ErrBadDocument = errors.New("persistence: bad document")

// Document is the external file format for one table. Cells are
// encoded as native scalars in the schema's declared types.
type Document struct {
	TableName   string   `json:"table_name" yaml:"table_name"`
	Columns     []string `json:"columns" yaml:"columns"`
	ColumnTypes []string `json:"column_types" yaml:"column_types"`
	Rows        [][]any  `json:"rows" yaml:"rows"`
}

// Save encodes a table as its JSON document.
func Save(t *table.Table) ([]byte, error) {
	doc := toDocument(t)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("persistence: encode %q: %w", t.Name(), err)
	}
	return data, nil
}

// Load decodes a JSON table document and rebuilds the table, inserting
// rows in document order so both indexes agree with the sequence.
func Load(data []byte) (*table.Table, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	return fromDocument(&doc)
}

// LoadYAML decodes the YAML rendition of the table document, used for
// fixture files in the REPL.
func LoadYAML(data []byte) (*table.Table, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	return fromDocument(&doc)
}

// SaveStore encodes every table in the store as a JSON array of table
// documents, in sorted name order.
func SaveStore(s *store.Store) ([]byte, error) {
	var docs []*Document
	for _, name := range s.Names() {
		docs = append(docs, toDocument(s.Get(name)))
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("persistence: encode store: %w", err)
	}
	return data, nil
}

// LoadStore decodes a JSON array of table documents into a fresh store.
func LoadStore(data []byte) (*store.Store, error) {
	var docs []*Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	s := store.New()
	for _, doc := range docs {
		t, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		if err := s.Add(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SaveStoreFile writes the store document to path.
func SaveStoreFile(s *store.Store, path string) error {
	data, err := SaveStore(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("persistence: write %q: %w", path, err)
	}
	log.Info("store saved", "path", path, "tables", len(s.Names()))
	return nil
}

// LoadStoreFile reads the store document at path.
func LoadStoreFile(path string) (*store.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persistence: read %q: %w", path, err)
	}
	s, err := LoadStore(data)
	if err != nil {
		return nil, err
	}
	log.Info("store loaded", "path", path, "tables", len(s.Names()))
	return s, nil
}

func toDocument(t *table.Table) *Document {
	doc := &Document{
		TableName: t.Name(),
		Columns:   t.Columns(),
		Rows:      [][]any{},
	}
	for _, tag := range t.Types() {
		doc.ColumnTypes = append(doc.ColumnTypes, tag.String())
	}
	for _, r := range t.Rows() {
		encoded := make([]any, 0, r.Width())
		for _, c := range r.Cells() {
			switch c.Tag() {
			case cell.Integer:
				v, _ := c.AsInt()
				encoded = append(encoded, v)
			case cell.Float:
				v, _ := c.AsFloat()
				encoded = append(encoded, v)
			default:
				encoded = append(encoded, c.Display())
			}
		}
		doc.Rows = append(doc.Rows, encoded)
	}
	return doc
}

func fromDocument(doc *Document) (*table.Table, error) {
	if doc.TableName == "" {
		return nil, fmt.Errorf("%w: missing table_name", ErrBadDocument)
	}
	if len(doc.Columns) != len(doc.ColumnTypes) {
		return nil, fmt.Errorf("%w: %d columns but %d column_types",
			ErrBadDocument, len(doc.Columns), len(doc.ColumnTypes))
	}

	types := make([]cell.Tag, 0, len(doc.ColumnTypes))
	for _, name := range doc.ColumnTypes {
		tag, err := parseTypeName(name)
		if err != nil {
			return nil, err
		}
		types = append(types, tag)
	}

	t, err := table.New(doc.TableName, doc.Columns, types)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}

	// The document carries no row identifiers: an INT column named
	// "id" supplies them, otherwise ids follow document order.
	idColumn := -1
	for i, name := range doc.Columns {
		if strings.EqualFold(name, "id") && types[i] == cell.Integer {
			idColumn = i
			break
		}
	}

	for i, encoded := range doc.Rows {
		id := int64(i + 1)
		if idColumn >= 0 && idColumn < len(encoded) {
			v, err := decodeInt(encoded[idColumn])
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrBadDocument, i, err)
			}
			id = v
		}

		r := row.New(id)
		for j, raw := range encoded {
			if j >= len(types) {
				return nil, fmt.Errorf("%w: row %d wider than schema", ErrBadDocument, i)
			}
			c, err := decodeCell(raw, types[j])
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %v", ErrBadDocument, i, j, err)
			}
			r.Append(c)
		}
		if err := t.Insert(r); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrBadDocument, i, err)
		}
	}
	return t, nil
}

func parseTypeName(name string) (cell.Tag, error) {
	switch strings.ToUpper(name) {
	case "INT":
		return cell.Integer, nil
	case "DOUBLE":
		return cell.Float, nil
	case "STRING":
		return cell.Text, nil
	default:
		return 0, fmt.Errorf("%w: unknown column type %q", ErrBadDocument, name)
	}
}

// decodeCell converts a native scalar to a cell of the declared type.
// JSON numbers arrive as float64; YAML integers as int.
func decodeCell(raw any, tag cell.Tag) (cell.Cell, error) {
	switch tag {
	case cell.Integer:
		v, err := decodeInt(raw)
		if err != nil {
			return cell.Cell{}, err
		}
		return cell.NewInt(v), nil
	case cell.Float:
		switch v := raw.(type) {
		case float64:
			return cell.NewFloat(v), nil
		case int:
			return cell.NewFloat(float64(v)), nil
		case int64:
			return cell.NewFloat(float64(v)), nil
		default:
			return cell.Cell{}, fmt.Errorf("expected number, got %T", raw)
		}
	case cell.Text:
		v, ok := raw.(string)
		if !ok {
			return cell.Cell{}, fmt.Errorf("expected string, got %T", raw)
		}
		return cell.NewText(v), nil
	default:
		return cell.Cell{}, fmt.Errorf("unknown tag %v", tag)
	}
}

func decodeInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expected integer, got %v", v)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
}
