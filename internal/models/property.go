package models

import (
	"time"

	"gorm.io/gorm"
)

// Property is a single listing managed by the back office.
type Property struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`

	// Commercial attributes
	Price  float64        `gorm:"type:decimal(14,2);not null;index" json:"price"`
	Status PropertyStatus `gorm:"type:varchar(20);not null;default:'For Sale';index" json:"status"`

	// Location
	Location string `gorm:"type:varchar(255);not null;index" json:"location"`
	Address  string `gorm:"type:text;not null" json:"address"`

	// Physical attributes
	Bedrooms  int     `gorm:"not null;index" json:"bedrooms"`
	Bathrooms float64 `gorm:"type:decimal(4,1);not null" json:"bathrooms"`
	Size      int     `gorm:"not null" json:"size"` // square feet

	Featured bool `gorm:"not null;default:false;index" json:"featured"`

	// Owning agent
	AgentID int    `gorm:"not null;index" json:"agent_id"`
	Agent   *Agent `gorm:"foreignKey:AgentID" json:"agent,omitempty"`

	Images []PropertyImage `gorm:"foreignKey:PropertyID" json:"images,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime;index:idx_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PropertyStatus is the listing status shown to buyers
type PropertyStatus string

const (
	StatusForSale PropertyStatus = "For Sale"
	StatusForRent PropertyStatus = "For Rent"
	StatusSold    PropertyStatus = "Sold"
	StatusRented  PropertyStatus = "Rented"
)

// AllStatuses lists every valid listing status, in display order
func AllStatuses() []PropertyStatus {
	return []PropertyStatus{StatusForSale, StatusForRent, StatusSold, StatusRented}
}

// TableName specifies the table name
func (Property) TableName() string {
	return "properties"
}

// IsAvailable reports whether the listing is still on the market
func (p *Property) IsAvailable() bool {
	return p.Status == StatusForSale || p.Status == StatusForRent
}
