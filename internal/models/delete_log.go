package models

import "time"

// DeleteLog represents a record of physically deleted properties
type DeleteLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID int       `gorm:"not null;index" json:"property_id"`
	Title      string    `gorm:"type:text" json:"title"`
	Location   string    `gorm:"type:varchar(255)" json:"location"`
	RemovedAt  time.Time `json:"removed_at"`
	DeletedAt  time.Time `gorm:"not null;autoCreateTime;index" json:"deleted_at"`
	Reason     string    `gorm:"type:varchar(50);not null" json:"reason"`
}

// TableName specifies the table name
func (DeleteLog) TableName() string {
	return "delete_logs"
}

// DeleteReason constants
const (
	DeleteReasonExpired   = "retention_expired"
	DeleteReasonDuplicate = "duplicate"
	DeleteReasonManual    = "manual_deletion"
	DeleteReasonDataClean = "data_cleanup"
)
