package handler

import (
	"net/http"

	"github.com/erp/inventory-ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DatabaseChecker reports database reachability
type DatabaseChecker interface {
	Ping() error
	Driver() string
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Driver   string `json:"driver"`
}

// HealthHandler serves liveness and database checks
type HealthHandler struct {
	BaseHandler
	db DatabaseChecker
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db DatabaseChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// RegisterRoutes mounts the health endpoint. It sits outside the versioned group.
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Check)
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "database unreachable")
		return
	}
	h.Success(c, HealthResponse{Status: "ok", Database: "up", Driver: h.db.Driver()})
}
