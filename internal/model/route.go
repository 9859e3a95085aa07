package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Route represents a named, schedulable path owned by a user.
//
// TotalDistance is derived from the waypoint set and maintained by the
// service layer on every write; the store itself does not enforce it.
type Route struct {
	ID            uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	UserID        uint           `json:"user_id" gorm:"not null;index"`
	Name          string         `json:"name" gorm:"size:255;not null"`
	Description   *string        `json:"description,omitempty" gorm:"size:1000"`
	DayOfWeek     int            `json:"day_of_week" gorm:"not null;index"` // 0 = Sunday .. 6 = Saturday
	StartTime     *string        `json:"start_time,omitempty" gorm:"size:8"` // HH:MM:SS
	EstimatedMins *int           `json:"estimated_duration,omitempty"`
	IsActive      bool           `json:"is_active" gorm:"default:true;index"`
	TotalDistance float64        `json:"total_distance" gorm:"type:decimal(10,2);default:0"` // kilometers
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Waypoints []Waypoint `json:"waypoints,omitempty" gorm:"foreignKey:RouteID"`
}

// BeforeCreate sets UUID before creating the record.
func (r *Route) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
