package api

import (
	"github.com/gin-gonic/gin"

	"github.com/loomdb/loomdb/internal/persistence"
)

// PersistenceRequest names the store document to read or write. An
// empty path falls back to the configured persistence path.
type PersistenceRequest struct {
	Path string `json:"path"`
}

func (s *Server) resolvePath(req *PersistenceRequest) string {
	if req.Path != "" {
		return req.Path
	}
	return s.config.Persistence.Path
}

// saveStore handles POST /api/v1/persistence/save
func (s *Server) saveStore(c *gin.Context) {
	log := requestLogger(c, s.log)

	var req PersistenceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequestError(c, "Invalid request body: "+err.Error())
			return
		}
	}
	path := s.resolvePath(&req)

	s.mu.Lock()
	err := persistence.SaveStoreFile(s.store, path)
	tables := len(s.store.Names())
	s.mu.Unlock()

	if err != nil {
		log.Error("save failed", "path", path, "error", err)
		InternalError(c, err.Error())
		return
	}

	log.Info("store saved", "path", path, "tables", tables)
	SuccessResponse(c, "store saved", gin.H{"path": path, "tables": tables})
}

// loadStore handles POST /api/v1/persistence/load. The loaded document
// replaces the in-memory store wholesale.
func (s *Server) loadStore(c *gin.Context) {
	log := requestLogger(c, s.log)

	var req PersistenceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequestError(c, "Invalid request body: "+err.Error())
			return
		}
	}
	path := s.resolvePath(&req)

	loaded, err := persistence.LoadStoreFile(path)
	if err != nil {
		log.Error("load failed", "path", path, "error", err)
		BadRequestError(c, err.Error())
		return
	}

	s.mu.Lock()
	s.store = loaded
	tables := len(s.store.Names())
	s.mu.Unlock()

	log.Info("store loaded", "path", path, "tables", tables)
	SuccessResponse(c, "store loaded", gin.H{"path": path, "tables": tables})
}
