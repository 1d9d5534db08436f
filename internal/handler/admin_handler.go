package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/company-intel/internal/model"
	"github.com/fleveque/company-intel/internal/service"
	"github.com/fleveque/company-intel/internal/storage"
)

// AdminHandler handles administrative endpoints: settings management, key
// validation, lookup history and service statistics.
type AdminHandler struct {
	lookupService *service.LookupService
	lookupRepo    storage.LookupRepository
	logger        *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(lookupService *service.LookupService, lookupRepo storage.LookupRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		lookupService: lookupService,
		lookupRepo:    lookupRepo,
		logger:        logger,
	}
}

// GetSettings returns the active settings record.
// Route: GET /api/v1/admin/settings
//
// Keys are returned as stored: this is a single-user deployment and the
// endpoint sits behind admin-key auth. The settings UI needs the values to
// round-trip them on save.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.lookupService.Settings(c.Request.Context())
	if err != nil {
		h.logger.Error("loading settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SaveSettings persists a full settings record. Partial updates are not
// supported: the client sends the complete record, same as the settings
// form submits it.
// Route: PUT /api/v1/admin/settings
func (h *AdminHandler) SaveSettings(c *gin.Context) {
	var settings model.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload: " + err.Error()})
		return
	}

	if err := h.lookupService.SaveSettings(c.Request.Context(), settings); err != nil {
		h.logger.Error("saving settings", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// ValidateKey pings one provider with the stored credentials.
// Route: POST /api/v1/admin/settings/validate?provider=openai
func (h *AdminHandler) ValidateKey(c *gin.Context) {
	provider := c.Query("provider")
	if !model.ValidProvider(provider) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid provider: must be openai, anthropic or gemini",
		})
		return
	}

	if err := h.lookupService.ValidateKey(c.Request.Context(), model.Provider(provider)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"provider": provider,
			"valid":    false,
			"error":    err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"provider": provider,
		"valid":    true,
	})
}

// Lookups lists recent lookup history, newest first.
// Route: GET /api/v1/admin/lookups?limit=20
func (h *AdminHandler) Lookups(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	if limit > 100 {
		limit = 100
	}

	recs, err := h.lookupRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("listing lookups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lookups": recs})
}

// Stats returns lookup counts overall and per provider.
// Route: GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.lookupRepo.Count(ctx)
	if err != nil {
		h.logger.Error("counting lookups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	successful, err := h.lookupRepo.CountSuccessful(ctx)
	if err != nil {
		h.logger.Error("counting successful lookups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	byProvider := gin.H{}
	for _, p := range model.FallbackOrder {
		count, err := h.lookupRepo.CountByProvider(ctx, p)
		if err != nil {
			h.logger.Error("counting lookups by provider",
				zap.String("provider", string(p)),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		byProvider[string(p)] = count
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       total,
		"successful":  successful,
		"failed":      total - successful,
		"by_provider": byProvider,
	})
}
