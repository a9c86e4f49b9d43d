package tasks

import "time"

// Task Types
const (
	// Email log maintenance tasks
	TaskTypeEmailLogSweep = "email_log:sweep"
	TaskTypeEmailLogPurge = "email_log:purge"
)

// Task Queues
const (
	QueueDefault = "default" // For regular tasks
	QueueLow     = "low"     // For background tasks like cleanup
)

// Task Timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
)

// Task Retry Settings
const (
	RetryDefault = 3
	RetryNone    = 0
)
