package models

import (
	"time"
)

// ImageJob queues uploaded photos for variant generation.
// Variants are produced out of band so the upload request only pays for the
// initial smart compression.
type ImageJob struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID  int        `gorm:"not null;index:idx_job_lookup" json:"property_id"`
	SourcePath  string     `gorm:"type:text;not null" json:"source_path"`
	SourceName  string     `gorm:"type:varchar(255);not null" json:"source_name"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_status" json:"status"` // pending, processing, done, failed
	Priority    int        `gorm:"default:0;index:idx_priority" json:"priority"`                               // Higher = process first
	Attempts    int        `gorm:"default:0" json:"attempts"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
	NextRetryAt *time.Time `gorm:"index:idx_retry" json:"next_retry_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (ImageJob) TableName() string {
	return "image_jobs"
}

// Status constants
const (
	JobStatusPending       = "pending"
	JobStatusProcessing    = "processing"
	JobStatusDone          = "done"
	JobStatusFailed        = "failed"
	JobStatusPermanentFail = "permanent_fail" // unreadable source or other non-retryable failures
)

// MaxJobAttempts before marking a job as permanently failed
const MaxJobAttempts = 5

// NextJobRetryDelay calculates exponential backoff for retries
func NextJobRetryDelay(attempts int) time.Duration {
	// 1min, 5min, 15min, 1h, 4h
	delays := []time.Duration{
		1 * time.Minute,
		5 * time.Minute,
		15 * time.Minute,
		1 * time.Hour,
		4 * time.Hour,
	}

	if attempts >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[attempts]
}
