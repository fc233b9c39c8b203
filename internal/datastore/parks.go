package datastore

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pjbaur/pota-assistant/internal/errors"
)

// parkUpsertColumns lists every column overwritten on conflict. The reference
// key and row id are never touched, synced_at is always refreshed.
var parkUpsertColumns = []string{
	"name", "latitude", "longitude", "grid_square", "location_code",
	"entity_name", "location_name", "park_type", "active", "source_url",
	"metadata", "synced_at",
}

// parkOnConflict is the upsert clause keyed on the natural key.
var parkOnConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "reference"}},
	DoUpdates: clause.AssignmentColumns(parkUpsertColumns),
}

// NormalizeReference uppercases and trims a park reference so that case never
// creates duplicate rows.
func NormalizeReference(reference string) string {
	return strings.ToUpper(strings.TrimSpace(reference))
}

// GetPark retrieves a park by its reference. A missing park is not an error:
// it returns (nil, nil) so callers can distinguish absence from failure.
func (ds *DataStore) GetPark(reference string) (*Park, error) {
	var park Park
	err := ds.DB.Where("reference = ?", NormalizeReference(reference)).First(&park).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dbError(err, "get_park", "reference", reference)
	}
	return &park, nil
}

// SearchParks performs a case-insensitive substring match on reference and
// name, with optional equality filters. It returns the matching page and the
// unfiltered table total so callers can report "N of M parks".
func (ds *DataStore) SearchParks(query string, filters ParkFilters, limit int) ([]Park, int64, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	q := ds.DB.Model(&Park{}).
		Where("LOWER(reference) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)

	if filters.LocationCode != "" {
		q = q.Where("LOWER(location_code) = ?", strings.ToLower(filters.LocationCode))
	}
	if filters.ParkType != "" {
		q = q.Where("LOWER(park_type) = ?", strings.ToLower(filters.ParkType))
	}
	if filters.ActiveOnly {
		q = q.Where("active = ?", true)
	}

	var parks []Park
	if err := q.Order("reference").Limit(limit).Find(&parks).Error; err != nil {
		return nil, 0, dbError(err, "search_parks", "query", query)
	}

	total, err := ds.CountParks()
	if err != nil {
		return nil, 0, err
	}

	return parks, total, nil
}

// SavePark inserts or updates a single park keyed on its reference. The store
// owns synced_at; any caller-supplied value is overwritten.
func (ds *DataStore) SavePark(park *Park) error {
	if err := normalizePark(park); err != nil {
		return err
	}
	if err := ds.DB.Clauses(parkOnConflict).Create(park).Error; err != nil {
		return dbError(err, "save_park", "reference", park.Reference)
	}
	return nil
}

// SaveParkBatch upserts the whole slice inside a single transaction: either
// every record lands or none do. It returns the number of records submitted.
func (ds *DataStore) SaveParkBatch(parks []Park) (int, error) {
	if len(parks) == 0 {
		return 0, nil
	}

	now := time.Now()
	for i := range parks {
		if err := normalizeParkAt(&parks[i], now); err != nil {
			return 0, err
		}
	}

	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(parkOnConflict).Create(&parks).Error
	})
	if err != nil {
		return 0, dbError(err, "save_park_batch", "batch_size", len(parks))
	}

	return len(parks), nil
}

// CountParks returns the number of parks in the store.
func (ds *DataStore) CountParks() (int64, error) {
	var count int64
	if err := ds.DB.Model(&Park{}).Count(&count).Error; err != nil {
		return 0, dbError(err, "count_parks")
	}
	return count, nil
}

// LastParkSync returns the most recent synced_at across all parks, or nil
// when no park has ever been written.
func (ds *DataStore) LastParkSync() (*time.Time, error) {
	var park Park
	err := ds.DB.Order("synced_at DESC").First(&park).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dbError(err, "last_park_sync")
	}
	return &park.SyncedAt, nil
}

func normalizePark(park *Park) error {
	return normalizeParkAt(park, time.Now())
}

// normalizeParkAt enforces the store-boundary invariants: uppercase natural
// key and store-owned synced_at.
func normalizeParkAt(park *Park, now time.Time) error {
	park.Reference = NormalizeReference(park.Reference)
	if park.Reference == "" {
		return validationError("park reference must not be blank", "reference", park.Reference)
	}
	park.SyncedAt = now
	return nil
}
