package models

import "time"

// PropertySnapshot represents a daily snapshot of a listing's commercial state
type PropertySnapshot struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID int       `gorm:"not null;index:idx_property_date" json:"property_id"`
	SnapshotAt time.Time `gorm:"type:date;not null;index:idx_property_date,priority:2;index:idx_snapshot_date" json:"snapshot_at"`

	// Listing state at snapshot time
	Price      float64 `gorm:"type:decimal(14,2);not null" json:"price"`
	Status     string  `gorm:"type:varchar(20);not null" json:"status"`
	Featured   bool    `gorm:"not null;default:false" json:"featured"`
	Title      string  `gorm:"type:varchar(200)" json:"title,omitempty"`
	ImageCount int     `gorm:"not null;default:0" json:"image_count"`

	// Change detection
	HasChanged bool   `gorm:"type:boolean;default:false" json:"has_changed"`
	ChangeNote string `gorm:"type:text" json:"change_note,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (PropertySnapshot) TableName() string {
	return "property_snapshots"
}

// PropertyChange represents detected changes between snapshots
type PropertyChange struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID      int       `gorm:"not null;index" json:"property_id"`
	SnapshotID      uint      `gorm:"type:bigint;not null" json:"snapshot_id"`
	ChangeType      string    `gorm:"type:varchar(50);not null" json:"change_type"` // price_changed, status_changed, etc.
	OldValue        string    `gorm:"type:text" json:"old_value,omitempty"`
	NewValue        string    `gorm:"type:text" json:"new_value,omitempty"`
	ChangeMagnitude *float64  `gorm:"type:decimal(14,2)" json:"change_magnitude,omitempty"` // For numerical changes
	DetectedAt      time.Time `gorm:"not null;autoCreateTime;index" json:"detected_at"`
}

// TableName specifies the table name
func (PropertyChange) TableName() string {
	return "property_changes"
}

// ChangeType constants
const (
	ChangeTypePrice    = "price_changed"
	ChangeTypeStatus   = "status_changed"
	ChangeTypeFeatured = "featured_changed"
	ChangeTypeTitle    = "title_changed"
	ChangeTypeNew      = "new_property"
	ChangeTypeRemoved  = "property_removed"
)
