package services

import (
	"time"

	"github.com/konfig-io/konfig/internal/models"
	"github.com/konfig-io/konfig/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// AuditService records tenant-scoped audit events and sweeps expired entries
// on a daily cron schedule.
type AuditService struct {
	db            *gorm.DB
	retentionDays int
	scheduler     *cron.Cron
}

func NewAuditService(db *gorm.DB, retentionDays int) *AuditService {
	return &AuditService{db: db, retentionDays: retentionDays}
}

// Record writes one audit entry. Failures are logged but never propagated,
// an audit write must not fail the request it describes.
func (s *AuditService) Record(tenantID, actorID, module, action, message, ip string) {
	entry := models.AuditLog{
		TenantID: tenantID,
		ActorID:  actorID,
		Module:   module,
		Action:   action,
		Message:  message,
		IP:       ip,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		logger.Error().Err(err).Str("module", module).Str("action", action).Msg("Failed to write audit log")
	}
}

type AuditListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type AuditListResponse struct {
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Items    []models.AuditLog `json:"items"`
}

func (s *AuditService) List(tenantID string, req *AuditListRequest) (*AuditListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.AuditLog{}).Where("tenant_id = ?", tenantID)

	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}

	var total int64
	query.Count(&total)

	var items []models.AuditLog
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}

	return &AuditListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// Cleanup deletes entries older than the retention window and returns how
// many rows were removed. A non-positive retention disables cleanup.
func (s *AuditService) Cleanup() (int64, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}

// StartScheduler runs one cleanup immediately, then every night at 03:00.
func (s *AuditService) StartScheduler() {
	s.runCleanup()

	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc("0 3 * * *", s.runCleanup); err != nil {
		logger.Error().Err(err).Msg("Failed to schedule audit log cleanup")
		return
	}
	s.scheduler.Start()
	logger.Info().Int("retention_days", s.retentionDays).Msg("Audit log cleanup scheduler started")
}

func (s *AuditService) StopScheduler() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *AuditService) runCleanup() {
	deleted, err := s.Cleanup()
	if err != nil {
		logger.Error().Err(err).Msg("Audit log cleanup failed")
		return
	}
	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Int("retention_days", s.retentionDays).Msg("Audit log cleanup completed")
	}
}
