package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"leadsync/internal/config"
	"leadsync/internal/models"
	"leadsync/internal/repository"
	"leadsync/internal/source"
)

// ErrRunInProgress is returned when a run is requested while another is still
// executing in this process.
var ErrRunInProgress = errors.New("sync run already in progress")

// Source is the upstream read surface the orchestrator pulls from.
type Source interface {
	Users(ctx context.Context, since *time.Time, limit, offset int) ([]source.UserRow, error)
	Leads(ctx context.Context, tenantID int64, since *time.Time, limit, offset int) ([]source.LeadRow, error)
	Conversations(ctx context.Context, tenantID int64, since *time.Time, limit, offset int) ([]source.ConversationRow, error)
	Messages(ctx context.Context, tenantID int64, since *time.Time, limit, offset int) ([]source.MessageRow, error)
}

type Service struct {
	Store  repository.Repository
	Source Source
	Tenant config.TenantConfig
	Cfg    config.SyncConfig
	Logger *zap.Logger

	running atomic.Bool
}

// EntityResult reports one entity stage of a run.
type EntityResult struct {
	Entity  string `json:"entity"`
	Pages   int    `json:"pages"`
	Synced  int    `json:"synced"`
	Skipped int    `json:"skipped"`
	Done    bool   `json:"done"`
}

type RunResult struct {
	TenantID     uuid.UUID      `json:"tenant_id"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at"`
	Since        *time.Time     `json:"since,omitempty"`
	Entities     []EntityResult `json:"entities"`
	TotalSynced  int            `json:"total_synced"`
	TotalSkipped int            `json:"total_skipped"`
	Done         bool           `json:"done"`
}

// entityOrder is fixed: referenced tables sync before the tables that
// reference them, so foreign keys resolve within a single run.
var entityOrder = []string{
	models.EntityAgents,
	models.EntityContacts,
	models.EntityConversations,
	models.EntityMessages,
}

// Run executes one incremental pass over all entities. One run at a time per
// process; concurrent calls get ErrRunInProgress.
func (s *Service) Run(ctx context.Context) (RunResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return RunResult{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	tenant, err := s.Store.EnsureTenant(ctx, s.Tenant.Slug, s.Tenant.DisplayName())
	if err != nil {
		return RunResult{}, fmt.Errorf("ensure tenant: %w", err)
	}
	if tenant == nil {
		return RunResult{}, fmt.Errorf("tenant %q unavailable", s.Tenant.Slug)
	}

	startedAt := time.Now().UTC()
	since, err := s.windowStart(ctx, tenant.ID)
	if err != nil {
		return RunResult{}, err
	}
	result := RunResult{TenantID: tenant.ID, StartedAt: startedAt, Since: since, Done: true}
	s.Logger.Info("sync run started",
		zap.String("tenant", s.Tenant.Slug),
		zap.Timep("since", since))

	for _, entity := range entityOrder {
		entityResult, err := s.syncEntity(ctx, tenant.ID, entity, since, startedAt)
		result.Entities = append(result.Entities, entityResult)
		result.TotalSynced += entityResult.Synced
		result.TotalSkipped += entityResult.Skipped
		if err != nil {
			result.CompletedAt = time.Now().UTC()
			result.Done = false
			return result, err
		}
		if !entityResult.Done {
			result.Done = false
		}
	}

	result.CompletedAt = time.Now().UTC()
	if result.Done {
		// The run checkpoint's StartedAt becomes the next run's window
		// lower bound, covering rows updated while this run executed.
		if err := s.Store.SaveCheckpoint(ctx, &models.SyncCheckpoint{
			TenantID:       tenant.ID,
			EntityType:     models.EntityAll,
			Status:         models.SyncSuccess,
			WatermarkTS:    since,
			RecordsSynced:  result.TotalSynced,
			RecordsSkipped: result.TotalSkipped,
			Stats:          runStats(result),
			StartedAt:      startedAt,
			CompletedAt:    &result.CompletedAt,
		}); err != nil {
			return result, fmt.Errorf("save run checkpoint: %w", err)
		}
	}
	s.Logger.Info("sync run finished",
		zap.String("tenant", s.Tenant.Slug),
		zap.Int("synced", result.TotalSynced),
		zap.Int("skipped", result.TotalSkipped),
		zap.Bool("done", result.Done),
		zap.Duration("elapsed", result.CompletedAt.Sub(startedAt)))
	return result, nil
}

// windowStart derives the incremental lower bound from the newest successful
// run checkpoint. A first run returns nil and syncs everything.
func (s *Service) windowStart(ctx context.Context, tenantID uuid.UUID) (*time.Time, error) {
	last, err := s.Store.LatestCheckpoint(ctx, tenantID, models.EntityAll, models.SyncSuccess)
	if err != nil {
		return nil, fmt.Errorf("load run checkpoint: %w", err)
	}
	if last == nil {
		return nil, nil
	}
	t := last.StartedAt
	return &t, nil
}

func (s *Service) syncEntity(ctx context.Context, tenantID uuid.UUID, entity string, since *time.Time, startedAt time.Time) (EntityResult, error) {
	result := EntityResult{Entity: entity}

	maps, err := s.buildMaps(ctx, tenantID, entity)
	if err != nil {
		return result, fmt.Errorf("%s: build id maps: %w", entity, err)
	}

	offset, err := s.resumeOffset(ctx, tenantID, entity, since)
	if err != nil {
		return result, err
	}

	pageSize := s.Cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	maxPages := s.Cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 50
	}

	for page := 0; page < maxPages; page++ {
		fetched, written, skipped, err := s.syncPage(ctx, tenantID, entity, since, pageSize, offset, maps)
		result.Synced += written
		result.Skipped += skipped
		if err != nil {
			s.writeFailed(ctx, tenantID, entity, since, offset, result, startedAt, err)
			return result, fmt.Errorf("%s: %w", entity, err)
		}
		if fetched == 0 && page == 0 {
			break
		}
		result.Pages++
		offset += fetched
		done := fetched < pageSize
		if err := s.writeProgress(ctx, tenantID, entity, since, offset, result, startedAt, done); err != nil {
			return result, fmt.Errorf("%s: save checkpoint: %w", entity, err)
		}
		if done {
			result.Done = true
			break
		}
	}
	if result.Pages == 0 {
		result.Done = true
	}
	s.Logger.Info("entity synced",
		zap.String("entity", entity),
		zap.Int("pages", result.Pages),
		zap.Int("synced", result.Synced),
		zap.Int("skipped", result.Skipped),
		zap.Bool("done", result.Done))
	return result, nil
}

type idMaps struct {
	agents        IDMap
	contacts      IDMap
	conversations IDMap
}

// buildMaps loads only the maps the entity's transform needs. Maps are built
// after their own entity stage completed, so they include this run's upserts.
func (s *Service) buildMaps(ctx context.Context, tenantID uuid.UUID, entity string) (idMaps, error) {
	var maps idMaps
	var err error
	switch entity {
	case models.EntityConversations:
		if maps.contacts, err = BuildMap(ctx, tenantID, s.Cfg.PageSize, s.Store.ListContactIDPairs); err != nil {
			return maps, err
		}
		maps.agents, err = BuildMap(ctx, tenantID, s.Cfg.PageSize, s.Store.ListAgentIDPairs)
	case models.EntityMessages:
		if maps.contacts, err = BuildMap(ctx, tenantID, s.Cfg.PageSize, s.Store.ListContactIDPairs); err != nil {
			return maps, err
		}
		if maps.agents, err = BuildMap(ctx, tenantID, s.Cfg.PageSize, s.Store.ListAgentIDPairs); err != nil {
			return maps, err
		}
		maps.conversations, err = BuildMap(ctx, tenantID, s.Cfg.PageSize, s.Store.ListConversationIDPairs)
	}
	return maps, err
}

// resumeOffset restores a partial entity's page offset, but only when its
// checkpoint belongs to the current incremental window. An offset recorded
// against an older window would skip rows the new window must revisit.
func (s *Service) resumeOffset(ctx context.Context, tenantID uuid.UUID, entity string, since *time.Time) (int, error) {
	if !s.Cfg.Resume {
		return 0, nil
	}
	last, err := s.Store.LatestCheckpoint(ctx, tenantID, entity, "")
	if err != nil {
		return 0, fmt.Errorf("%s: load checkpoint: %w", entity, err)
	}
	if last == nil || last.Status == models.SyncSuccess || last.Cursor == nil {
		return 0, nil
	}
	if !sameWindow(last.WatermarkTS, since) {
		return 0, nil
	}
	offset, err := strconv.Atoi(*last.Cursor)
	if err != nil || offset < 0 {
		return 0, nil
	}
	s.Logger.Info("resuming entity", zap.String("entity", entity), zap.Int("offset", offset))
	return offset, nil
}

func sameWindow(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// syncPage fetches one source page, transforms it and writes it in batches.
// It returns the number of source rows fetched, written and skipped.
func (s *Service) syncPage(ctx context.Context, tenantID uuid.UUID, entity string, since *time.Time, limit, offset int, maps idMaps) (fetched, written, skipped int, err error) {
	now := time.Now().UTC()
	writer := s.writerConfig()

	switch entity {
	case models.EntityAgents:
		rows, err := s.Source.Users(ctx, since, limit, offset)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("fetch page: %w", err)
		}
		items := make([]models.Agent, 0, len(rows))
		for _, row := range rows {
			items = append(items, TransformAgent(tenantID, row, now))
		}
		written, err = WriteBatches(ctx, s.Logger, writer, items, s.Store.UpsertAgents)
		return len(rows), written, 0, err

	case models.EntityContacts:
		rows, err := s.Source.Leads(ctx, s.Tenant.SourceID, since, limit, offset)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("fetch page: %w", err)
		}
		items := make([]models.Contact, 0, len(rows))
		for _, row := range rows {
			items = append(items, TransformContact(tenantID, row, now))
		}
		written, err = WriteBatches(ctx, s.Logger, writer, items, s.Store.UpsertContacts)
		return len(rows), written, 0, err

	case models.EntityConversations:
		rows, err := s.Source.Conversations(ctx, s.Tenant.SourceID, since, limit, offset)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("fetch page: %w", err)
		}
		items := make([]models.Conversation, 0, len(rows))
		for _, row := range rows {
			items = append(items, TransformConversation(tenantID, row, maps.contacts, maps.agents, now))
		}
		written, err = WriteBatches(ctx, s.Logger, writer, items, s.Store.UpsertConversations)
		return len(rows), written, 0, err

	case models.EntityMessages:
		rows, err := s.Source.Messages(ctx, s.Tenant.SourceID, since, limit, offset)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("fetch page: %w", err)
		}
		items := make([]models.Message, 0, len(rows))
		for _, row := range rows {
			item, ok := TransformMessage(tenantID, row, maps.conversations, maps.contacts, maps.agents, now)
			if !ok {
				skipped++
				continue
			}
			items = append(items, item)
		}
		written, err = WriteBatches(ctx, s.Logger, writer, items, s.Store.UpsertMessages)
		return len(rows), written, skipped, err

	default:
		return 0, 0, 0, fmt.Errorf("unsupported entity: %s", entity)
	}
}

func (s *Service) writerConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     s.Cfg.BatchSize,
		MaxRetries:    s.Cfg.MaxRetries,
		RetryDelay:    s.Cfg.RetryDelay,
		MaxRetryDelay: s.Cfg.MaxRetryDelay,
		BatchPause:    s.Cfg.BatchPause,
	}
}

func (s *Service) writeProgress(ctx context.Context, tenantID uuid.UUID, entity string, since *time.Time, nextOffset int, result EntityResult, startedAt time.Time, done bool) error {
	item := &models.SyncCheckpoint{
		TenantID:       tenantID,
		EntityType:     entity,
		Status:         models.SyncInProgress,
		Cursor:         strPtr(strconv.Itoa(nextOffset)),
		WatermarkTS:    since,
		RecordsSynced:  result.Synced,
		RecordsSkipped: result.Skipped,
		StartedAt:      startedAt,
	}
	if done {
		now := time.Now().UTC()
		item.Status = models.SyncSuccess
		item.Cursor = nil
		item.CompletedAt = &now
	}
	return s.Store.SaveCheckpoint(ctx, item)
}

// writeFailed records the failing offset so the next run can resume there.
// A checkpoint write failure here is only logged; the sync error wins.
func (s *Service) writeFailed(ctx context.Context, tenantID uuid.UUID, entity string, since *time.Time, offset int, result EntityResult, startedAt time.Time, syncErr error) {
	now := time.Now().UTC()
	item := &models.SyncCheckpoint{
		TenantID:       tenantID,
		EntityType:     entity,
		Status:         models.SyncFailed,
		Cursor:         strPtr(strconv.Itoa(offset)),
		WatermarkTS:    since,
		RecordsSynced:  result.Synced,
		RecordsSkipped: result.Skipped,
		Error:          strPtr(syncErr.Error()),
		StartedAt:      startedAt,
		CompletedAt:    &now,
	}
	if err := s.Store.SaveCheckpoint(ctx, item); err != nil {
		s.Logger.Error("failed to save failure checkpoint",
			zap.String("entity", entity), zap.Error(err))
	}
}

func runStats(result RunResult) datatypes.JSON {
	raw, err := json.Marshal(result.Entities)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func strPtr(s string) *string {
	return &s
}
