package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/loomdb/loomdb/internal/engine/cell"
	"github.com/loomdb/loomdb/internal/engine/executor"
	"github.com/loomdb/loomdb/internal/engine/parser"
	"github.com/loomdb/loomdb/internal/engine/table"
)

// QueryRequest represents a query execution request
type QueryRequest struct {
	Query string `json:"query" binding:"required"`
}

// TableData represents a table in responses: the schema's parallel
// sequences plus rows encoded as native scalars.
type TableData struct {
	TableName   string   `json:"table_name"`
	Columns     []string `json:"columns"`
	ColumnTypes []string `json:"column_types"`
	RowCount    int      `json:"row_count"`
	Rows        [][]any  `json:"rows,omitempty"`
}

// toTableData converts a table to its response form. Rows are included
// only when includeRows is set; limit bounds them, offset skips ahead.
func toTableData(t *table.Table, includeRows bool, limit, offset int) *TableData {
	data := &TableData{
		TableName: t.Name(),
		Columns:   t.Columns(),
		RowCount:  t.RowCount(),
	}
	for _, tag := range t.Types() {
		data.ColumnTypes = append(data.ColumnTypes, tag.String())
	}
	if !includeRows {
		return data
	}

	data.Rows = [][]any{}
	for i, r := range t.Rows() {
		if i < offset {
			continue
		}
		if limit >= 0 && len(data.Rows) >= limit {
			break
		}
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
		data.Rows = append(data.Rows, encoded)
	}
	return data
}

// executeQuery handles POST /api/v1/query
func (s *Server) executeQuery(c *gin.Context) {
	log := requestLogger(c, s.log)

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Query) > MaxQueryLength {
		BadRequestError(c, "Query too long")
		return
	}

	s.mu.Lock()
	result, err := executor.Run(s.store, req.Query)
	s.mu.Unlock()

	if err != nil {
		log.Warn("query failed", "error", err)
		switch {
		case errors.Is(err, parser.ErrParseFailure):
			BadRequestError(c, err.Error())
		case errors.Is(err, executor.ErrUnknownTable):
			NotFoundError(c, err.Error())
		default:
			BadRequestError(c, err.Error())
		}
		return
	}

	log.Info("query executed", "rows", result.RowCount())
	SuccessResponse(c, "query executed", toTableData(result, true, -1, 0))
}
