package model

import (
	"time"

	"gorm.io/gorm"

	"routelink/internal/geo"
)

// RouteState represents the current lifecycle state of a route
type RouteState int

const (
	RouteStateActive RouteState = iota
	RouteStateArchived
)

// Route is the unified model for route entity (used for both PostgreSQL and Redis)
type Route struct {
	ID       string     `json:"id" gorm:"primaryKey"`
	Name     string     `json:"name" gorm:"size:255;not null"`
	Profile  string     `json:"profile" gorm:"size:32;not null"`
	Geometry string     `json:"geometry" gorm:"type:text;not null"`
	State    RouteState `json:"state" gorm:"not null"`

	OriginLat      float64 `json:"origin_lat" gorm:"not null"`
	OriginLng      float64 `json:"origin_lng" gorm:"not null"`
	DestinationLat float64 `json:"destination_lat" gorm:"not null"`
	DestinationLng float64 `json:"destination_lng" gorm:"not null"`

	PointCount int     `json:"point_count" gorm:"not null"`
	PathKm     float64 `json:"path_km" gorm:"not null"`
	DirectKm   float64 `json:"direct_km" gorm:"not null"`
	ReportedKm float64 `json:"reported_km" gorm:""`

	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at"`
	CreatedAt time.Time      `json:"-" gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"column:deleted_at;index"`

	// Decoded geometry, rebuilt from Geometry on demand and never persisted.
	Points geo.Path `json:"-" gorm:"-"`
}

// ToLightVersion returns a lighter version of the route for memory storage or Redis
func (r *Route) ToLightVersion() *Route {
	return &Route{
		ID:             r.ID,
		Name:           r.Name,
		Profile:        r.Profile,
		Geometry:       r.Geometry,
		State:          r.State,
		OriginLat:      r.OriginLat,
		OriginLng:      r.OriginLng,
		DestinationLat: r.DestinationLat,
		DestinationLng: r.DestinationLng,
		PointCount:     r.PointCount,
		PathKm:         r.PathKm,
		DirectKm:       r.DirectKm,
		ReportedKm:     r.ReportedKm,
		UpdatedAt:      r.UpdatedAt,
	}
}
