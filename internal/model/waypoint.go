package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Waypoint roles within a route.
const (
	WaypointTypeStart = "start"
	WaypointTypeStop  = "stop"
	WaypointTypeEnd   = "end"
)

// Waypoint is one ordered stop within a route. Order indices are 0-based and
// contiguous; the first waypoint is the start and the last the end.
type Waypoint struct {
	ID            uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	RouteID       uuid.UUID `json:"route_id" gorm:"type:char(36);not null;index:idx_route_order,priority:1"`
	Name          string    `json:"name" gorm:"size:255;not null"`
	Description   *string   `json:"description,omitempty" gorm:"size:1000"`
	Address       *string   `json:"address,omitempty" gorm:"size:500"`
	Latitude      float64   `json:"latitude" gorm:"type:decimal(10,7);not null"`
	Longitude     float64   `json:"longitude" gorm:"type:decimal(10,7);not null"`
	OrderIndex    int       `json:"order_index" gorm:"not null;index:idx_route_order,priority:2"`
	EstimatedMins int       `json:"estimated_duration" gorm:"default:0"` // minutes spent at this stop
	WaypointType  string    `json:"waypoint_type" gorm:"size:10;default:'stop'"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (w *Waypoint) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
