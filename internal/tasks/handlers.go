package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"atrium/internal/config"
	"atrium/internal/models"
	"atrium/internal/utils/logger"
)

// TaskHandler processes email log maintenance tasks.
type TaskHandler struct {
	db     *gorm.DB
	cfg    *config.MailerConfig
	logger *logger.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(db *gorm.DB, cfg *config.MailerConfig) *TaskHandler {
	return &TaskHandler{
		db:     db,
		cfg:    cfg,
		logger: logger.New("tasks"),
	}
}

// HandleEmailLogSweep closes email logs that have been stuck in pending longer
// than the configured threshold. A log can only end up in that state when the
// process died between the pending insert and the terminal update, so the rows
// are marked failed rather than retried.
func (h *TaskHandler) HandleEmailLogSweep(ctx context.Context, t *asynq.Task) error {
	cutoff := time.Now().Add(-h.cfg.StalePendingAfter)

	result := h.db.WithContext(ctx).
		Model(&models.EmailLog{}).
		Where("status = ? AND created_at < ?", models.EmailStatusPending, cutoff).
		Updates(map[string]interface{}{
			"status":        models.EmailStatusFailed,
			"error_message": fmt.Sprintf("abandoned: still pending after %s", h.cfg.StalePendingAfter),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to sweep stale email logs: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		h.logger.Warn("closed %d abandoned pending email logs", result.RowsAffected)
	}
	return nil
}

// HandleEmailLogPurge deletes email logs older than the retention window.
// A retention of 0 disables purging.
func (h *TaskHandler) HandleEmailLogPurge(ctx context.Context, t *asynq.Task) error {
	if h.cfg.LogRetentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -h.cfg.LogRetentionDays)

	result := h.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.EmailLog{})
	if result.Error != nil {
		return fmt.Errorf("failed to purge email logs: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		h.logger.Info("purged %d email logs older than %d days", result.RowsAffected, h.cfg.LogRetentionDays)
	}
	return nil
}
