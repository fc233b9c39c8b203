// model.go this code defines the data model for the application
package datastore

import "time"

// Park represents a single POTA entity in the local dataset. Reference is the
// natural key; upserts match on it exclusively.
type Park struct {
	ID           uint   `gorm:"primaryKey"`
	Reference    string `gorm:"uniqueIndex:idx_parks_reference;not null"`
	Name         string `gorm:"index:idx_parks_name"`
	Latitude     float64
	Longitude    float64
	GridSquare   string
	LocationCode string `gorm:"index:idx_parks_location"`
	EntityName   string
	LocationName string
	ParkType     string
	Active       bool
	SourceURL    string
	Metadata     string    `gorm:"type:text"`
	SyncedAt     time.Time `gorm:"index:idx_parks_syncedat"` // set by the store on every write
}

// Plan statuses. Stored as plain strings, validated at the store boundary.
const (
	PlanStatusDraft     = "draft"
	PlanStatusFinalized = "finalized"
	PlanStatusCompleted = "completed"
	PlanStatusCancelled = "cancelled"
)

// ValidPlanStatus reports whether status is one of the known plan statuses.
func ValidPlanStatus(status string) bool {
	switch status {
	case PlanStatusDraft, PlanStatusFinalized, PlanStatusCompleted, PlanStatusCancelled:
		return true
	default:
		return false
	}
}

// Plan represents a planned activation of a park.
type Plan struct {
	ID                 uint   `gorm:"primaryKey"`
	PublicID           string `gorm:"uniqueIndex:idx_plans_publicid;not null"`
	ParkID             uint   `gorm:"index:idx_plans_park;not null"`
	Park               Park   `gorm:"foreignKey:ParkID"`
	Status             string `gorm:"type:varchar(20);index:idx_plans_status"`
	PlannedDate        string `gorm:"index:idx_plans_date"` // YYYY-MM-DD
	PlannedTime        string // HH:MM, optional
	DurationHours      float64
	PresetID           string
	Notes              string    `gorm:"type:text"`
	ForecastSnapshot   string    `gorm:"type:text"` // cached forecast JSON at planning time
	ConditionsSnapshot string    `gorm:"type:text"` // cached band-condition JSON
	CreatedAt          time.Time `gorm:"index"`
	UpdatedAt          time.Time
}

// PlanUpdate carries a partial update for a plan. Nil fields are left
// untouched; non-nil fields overwrite the stored value.
type PlanUpdate struct {
	Status             *string
	PlannedDate        *string
	PlannedTime        *string
	DurationHours      *float64
	PresetID           *string
	Notes              *string
	ForecastSnapshot   *string
	ConditionsSnapshot *string
}

// ForecastCache holds one cached forecast payload for a quantized coordinate
// pair and target date. A missing row is treated identically to an expired one.
type ForecastCache struct {
	ID        uint   `gorm:"primaryKey"`
	LatQ      string `gorm:"uniqueIndex:idx_forecastcache_key;not null"` // latitude quantized to 4 decimals
	LonQ      string `gorm:"uniqueIndex:idx_forecastcache_key;not null"` // longitude quantized to 4 decimals
	Date      string `gorm:"uniqueIndex:idx_forecastcache_key;not null"` // YYYY-MM-DD
	Payload   string `gorm:"type:text"`
	FetchedAt time.Time
	ExpiresAt time.Time `gorm:"index:idx_forecastcache_expires"`
}

// IsExpired reports whether the entry has passed its expiry at the given time.
func (fc *ForecastCache) IsExpired(now time.Time) bool {
	return !fc.ExpiresAt.After(now)
}

// SchemaMigration records an applied migration, keyed by migration ID.
type SchemaMigration struct {
	ID        string `gorm:"primaryKey"`
	AppliedAt time.Time
}
