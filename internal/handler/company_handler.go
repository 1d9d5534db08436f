package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/company-intel/internal/model"
	"github.com/fleveque/company-intel/internal/service"
)

// CompanyHandler handles company lookup requests. It delegates to
// LookupService, which runs the full pipeline: provider selection → adapter
// call → tolerant parsing → normalized profile.
type CompanyHandler struct {
	lookupService *service.LookupService
	logger        *zap.Logger
}

// NewCompanyHandler creates a new CompanyHandler with the lookup service.
func NewCompanyHandler(lookupService *service.LookupService, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		lookupService: lookupService,
		logger:        logger,
	}
}

// Lookup runs a company lookup and returns the normalized profile.
// Route: GET /api/v1/companies/:name?debug=true
//
// ?debug=true attaches the debug record (provider, model, exact prompt,
// pretty-printed raw response) to the reply — the same record the history
// endpoint persists.
func (h *CompanyHandler) Lookup(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company name is required"})
		return
	}
	includeDebug := c.Query("debug") == "true"

	profile, debug, err := h.lookupService.Lookup(c.Request.Context(), name)
	if err != nil {
		result := model.LookupResult{Success: false, Error: err.Error()}
		if includeDebug {
			result.Debug = debug
		}

		// Configuration errors are the deployment's fault (503); everything
		// else is the upstream provider's (502). Either way the lookup is
		// terminal: no retry, no partial result.
		status := http.StatusBadGateway
		if errors.Is(err, service.ErrNoProvider) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
		return
	}

	result := model.LookupResult{Success: true, Data: profile}
	if includeDebug {
		result.Debug = debug
	}
	c.JSON(http.StatusOK, result)
}
