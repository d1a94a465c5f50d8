package models

import "time"

// Agent is a member of the sales team that listings are assigned to
type Agent struct {
	ID       int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"type:varchar(120);not null" json:"name"`
	Email    string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Phone    string `gorm:"type:varchar(40)" json:"phone,omitempty"`
	Bio      string `gorm:"type:text" json:"bio,omitempty"`
	PhotoURL string `gorm:"type:text" json:"photo_url,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Agent) TableName() string {
	return "agents"
}
