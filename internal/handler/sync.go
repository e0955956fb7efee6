package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"leadsync/internal/models"
	"leadsync/internal/repository"
	"leadsync/internal/sync"
)

type SyncHandler struct {
	Service *sync.Service
	Store   repository.Repository
	Logger  *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sync")
	group.POST("/run", h.runSync)
	group.GET("/checkpoints", h.listCheckpoints)
	group.GET("/status", h.syncStatus)
}

// @Summary Trigger a sync run
// @Tags sync
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/sync/run [post]
func (h *SyncHandler) runSync(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	result, err := h.Service.Run(c.Request.Context())
	if errors.Is(err, sync.ErrRunInProgress) {
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	}
	if err != nil {
		h.Logger.Error("manual sync run failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, err.Error(), map[string]any{"partial": result})
		return
	}
	Ok(c, result, nil)
}

// @Summary List sync checkpoints
// @Tags sync
// @Param entity_type query string false "agents|contacts|conversations|messages|all"
// @Param status query string false "in_progress|success|failed"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} apiResponse
// @Router /api/sync/checkpoints [get]
func (h *SyncHandler) listCheckpoints(c *gin.Context) {
	tenant, ok := h.tenant(c)
	if !ok {
		return
	}
	items, err := h.Store.ListCheckpoints(c.Request.Context(), tenant, repository.ListCheckpointsParams{
		Limit:      intQuery(c, "limit", 50),
		Offset:     intQuery(c, "offset", 0),
		EntityType: strQueryPtr(c, "entity_type"),
		Status:     strQueryPtr(c, "status"),
	})
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

// @Summary Latest run checkpoint per entity
// @Tags sync
// @Success 200 {object} apiResponse
// @Router /api/sync/status [get]
func (h *SyncHandler) syncStatus(c *gin.Context) {
	tenant, ok := h.tenant(c)
	if !ok {
		return
	}
	entities := []string{
		models.EntityAgents,
		models.EntityContacts,
		models.EntityConversations,
		models.EntityMessages,
		models.EntityAll,
	}
	status := map[string]any{}
	for _, entity := range entities {
		cp, err := h.Store.LatestCheckpoint(c.Request.Context(), tenant, entity, "")
		if err != nil {
			Error(c, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		status[entity] = cp
	}
	Ok(c, status, nil)
}

func (h *SyncHandler) tenant(c *gin.Context) (tenantID uuid.UUID, ok bool) {
	if h.Store == nil || h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return uuid.Nil, false
	}
	tenant, err := h.Store.GetTenantBySlug(c.Request.Context(), h.Service.Tenant.Slug)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return uuid.Nil, false
	}
	if tenant == nil {
		Error(c, http.StatusNotFound, "tenant not synced yet", nil)
		return uuid.Nil, false
	}
	return tenant.ID, true
}
