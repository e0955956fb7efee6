package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leadsync/internal/config"
	"leadsync/internal/repository"
	"leadsync/internal/scoring"
)

type AnalysisHandler struct {
	Service *scoring.Service
	Store   repository.Repository
	Tenant  config.TenantConfig
	Logger  *zap.Logger
}

func (h *AnalysisHandler) Register(r *gin.Engine) {
	group := r.Group("/api/analyses")
	group.GET("", h.listAnalyses)
	group.POST("/run", h.runScoring)
}

// @Summary List conversation analyses
// @Tags analyses
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Param min_score query number false "minimum overall score"
// @Success 200 {object} apiResponse
// @Router /api/analyses [get]
func (h *AnalysisHandler) listAnalyses(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	tenant, err := h.Store.GetTenantBySlug(c.Request.Context(), h.Tenant.Slug)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if tenant == nil {
		Error(c, http.StatusNotFound, "tenant not synced yet", nil)
		return
	}
	items, err := h.Store.ListConversationAnalyses(c.Request.Context(), tenant.ID, repository.ListAnalysesParams{
		Limit:    intQuery(c, "limit", 50),
		Offset:   intQuery(c, "offset", 0),
		MinScore: floatQueryPtr(c, "min_score"),
	})
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

// @Summary Score pending conversations now
// @Tags analyses
// @Success 200 {object} apiResponse
// @Router /api/analyses/run [post]
func (h *AnalysisHandler) runScoring(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusServiceUnavailable, "scoring disabled", nil)
		return
	}
	if err := h.Service.RunOnce(c.Request.Context()); err != nil {
		h.Logger.Error("manual scoring run failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"status": "completed"}, nil)
}
