package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/loomdb/loomdb/internal/engine/cell"
	"github.com/loomdb/loomdb/internal/engine/row"
	"github.com/loomdb/loomdb/internal/engine/table"
)

// CreateTableRequest represents a table creation request
type CreateTableRequest struct {
	Name        string   `json:"name" binding:"required"`
	Columns     []string `json:"columns" binding:"required"`
	ColumnTypes []string `json:"column_types" binding:"required"`
}

// InsertRowRequest represents a row insertion request. Values are
// native scalars in schema order.
type InsertRowRequest struct {
	ID     int64 `json:"id"`
	Values []any `json:"values" binding:"required"`
}

// listTables handles GET /api/v1/tables
func (s *Server) listTables(c *gin.Context) {
	s.mu.Lock()
	var tables []*TableData
	for _, name := range s.store.Names() {
		tables = append(tables, toTableData(s.store.Get(name), false, 0, 0))
	}
	s.mu.Unlock()

	if tables == nil {
		tables = []*TableData{}
	}
	SuccessResponse(c, "tables listed", gin.H{"tables": tables, "count": len(tables)})
}

// createTable handles POST /api/v1/tables
func (s *Server) createTable(c *gin.Context) {
	log := requestLogger(c, s.log)

	var req CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, "Invalid request body: "+err.Error())
		return
	}

	types := make([]cell.Tag, 0, len(req.ColumnTypes))
	for _, name := range req.ColumnTypes {
		tag, err := tagFromName(name)
		if err != nil {
			BadRequestError(c, err.Error())
			return
		}
		types = append(types, tag)
	}

	t, err := table.New(req.Name, req.Columns, types)
	if err != nil {
		BadRequestError(c, err.Error())
		return
	}

	s.mu.Lock()
	if s.store.Get(req.Name) != nil {
		s.mu.Unlock()
		ConflictError(c, fmt.Sprintf("table %q already exists", req.Name))
		return
	}
	err = s.store.Add(t)
	s.mu.Unlock()
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	log.Info("table created", "table", req.Name, "columns", len(req.Columns))
	CreatedResponse(c, "table created", toTableData(t, false, 0, 0))
}

// getTable handles GET /api/v1/tables/:name
func (s *Server) getTable(c *gin.Context) {
	name := c.Param("name")

	s.mu.Lock()
	t := s.store.Get(name)
	s.mu.Unlock()

	if t == nil {
		NotFoundError(c, fmt.Sprintf("no such table: %s", name))
		return
	}
	SuccessResponse(c, "table found", toTableData(t, false, 0, 0))
}

// listRows handles GET /api/v1/tables/:name/rows
func (s *Server) listRows(c *gin.Context) {
	name := c.Param("name")
	limit := clampLimit(intQuery(c, "limit", DefaultLimit))
	offset := intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	t := s.store.Get(name)
	var data *TableData
	if t != nil {
		data = toTableData(t, true, limit, offset)
	}
	s.mu.Unlock()

	if data == nil {
		NotFoundError(c, fmt.Sprintf("no such table: %s", name))
		return
	}
	SuccessResponse(c, "rows listed", data)
}

// insertRow handles POST /api/v1/tables/:name/rows
func (s *Server) insertRow(c *gin.Context) {
	log := requestLogger(c, s.log)
	name := c.Param("name")

	var req InsertRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, "Invalid request body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.store.Get(name)
	if t == nil {
		NotFoundError(c, fmt.Sprintf("no such table: %s", name))
		return
	}

	r := row.New(req.ID)
	for i, raw := range req.Values {
		if i >= len(t.Types()) {
			break
		}
		cl, err := cellFromScalar(raw, t.Types()[i])
		if err != nil {
			BadRequestError(c, fmt.Sprintf("value %d: %v", i, err))
			return
		}
		r.Append(cl)
	}

	if err := t.Insert(r); err != nil {
		log.Warn("insert rejected", "table", name, "id", req.ID, "error", err)
		switch {
		case errors.Is(err, table.ErrDuplicateKey):
			ConflictError(c, err.Error())
		case errors.Is(err, table.ErrSchemaMismatch):
			BadRequestError(c, err.Error())
		default:
			InternalError(c, err.Error())
		}
		return
	}

	log.Info("row inserted", "table", name, "id", req.ID)
	CreatedResponse(c, "row inserted", gin.H{"id": req.ID, "row_count": t.RowCount()})
}

// deleteRow handles DELETE /api/v1/tables/:name/rows/:id. Removing an
// absent id succeeds: remove is idempotent.
func (s *Server) deleteRow(c *gin.Context) {
	name := c.Param("name")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequestError(c, "row id must be an integer")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.store.Get(name)
	if t == nil {
		NotFoundError(c, fmt.Sprintf("no such table: %s", name))
		return
	}

	t.Remove(id)
	SuccessResponse(c, "row removed", gin.H{"id": id, "row_count": t.RowCount()})
}

func tagFromName(name string) (cell.Tag, error) {
	switch strings.ToUpper(name) {
	case "INT":
		return cell.Integer, nil
	case "DOUBLE":
		return cell.Float, nil
	case "STRING":
		return cell.Text, nil
	default:
		return 0, fmt.Errorf("unknown column type %q (want INT, DOUBLE or STRING)", name)
	}
}

// cellFromScalar converts a decoded JSON scalar to a cell of the
// declared type.
func cellFromScalar(raw any, tag cell.Tag) (cell.Cell, error) {
	switch tag {
	case cell.Integer:
		v, ok := raw.(float64)
		if !ok || v != float64(int64(v)) {
			return cell.Cell{}, fmt.Errorf("expected integer, got %v", raw)
		}
		return cell.NewInt(int64(v)), nil
	case cell.Float:
		v, ok := raw.(float64)
		if !ok {
			return cell.Cell{}, fmt.Errorf("expected number, got %v", raw)
		}
		return cell.NewFloat(v), nil
	default:
		v, ok := raw.(string)
		if !ok {
			return cell.Cell{}, fmt.Errorf("expected string, got %v", raw)
		}
		return cell.NewText(v), nil
	}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
