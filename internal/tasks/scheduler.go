package tasks

import (
	"fmt"

	"github.com/hibiken/asynq"

	"atrium/internal/utils/logger"
)

// Scheduler handles periodic task scheduling
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *logger.Logger
}

// NewScheduler creates a new task scheduler
func NewScheduler(redisAddr, username, password string, db int, log *logger.Logger) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Username: username,
			Password: password,
			DB:       db,
		},
		&asynq.SchedulerOpts{},
	)

	return &Scheduler{
		scheduler: scheduler,
		logger:    log,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if err := s.registerTasks(); err != nil {
		return fmt.Errorf("failed to register tasks: %w", err)
	}

	s.logger.Info("starting task scheduler")
	return s.scheduler.Run()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
	s.logger.Info("task scheduler stopped")
}

// registerTasks registers all periodic tasks
func (s *Scheduler) registerTasks() error {
	// Stale pending sweep (every 5 minutes)
	entryID, err := s.scheduler.Register("*/5 * * * *", asynq.NewTask(
		TaskTypeEmailLogSweep,
		nil,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(RetryDefault),
		asynq.Timeout(TimeoutShort),
	))
	if err != nil {
		return fmt.Errorf("failed to register email log sweep: %w", err)
	}
	s.logger.Debug("registered email log sweep %s", entryID)

	// Retention purge (daily at 03:00)
	entryID, err = s.scheduler.Register("0 3 * * *", asynq.NewTask(
		TaskTypeEmailLogPurge,
		nil,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(RetryDefault),
		asynq.Timeout(TimeoutMedium),
	))
	if err != nil {
		return fmt.Errorf("failed to register email log purge: %w", err)
	}
	s.logger.Debug("registered email log purge %s", entryID)

	return nil
}
