package datastore

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pjbaur/pota-assistant/internal/errors"
)

// forecastOnConflict refreshes the payload and TTL window when a row for the
// same quantized key already exists.
var forecastOnConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "lat_q"}, {Name: "lon_q"}, {Name: "date"}},
	DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at", "expires_at"}),
}

// GetForecastCache retrieves the cache row for a quantized key, expired or
// not. A missing row returns (nil, nil); freshness is the caller's decision.
func (ds *DataStore) GetForecastCache(latQ, lonQ, date string) (*ForecastCache, error) {
	var entry ForecastCache
	err := ds.DB.Where("lat_q = ? AND lon_q = ? AND date = ?", latQ, lonQ, date).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dbError(err, "get_forecast_cache", "lat_q", latQ, "lon_q", lonQ, "date", date)
	}
	return &entry, nil
}

// SaveForecastCache inserts or refreshes a cache row keyed on the quantized
// coordinates and date.
func (ds *DataStore) SaveForecastCache(entry *ForecastCache) error {
	if entry.LatQ == "" || entry.LonQ == "" || entry.Date == "" {
		return validationError("forecast cache key must be complete", "key",
			entry.LatQ+"/"+entry.LonQ+"/"+entry.Date)
	}
	if err := ds.DB.Clauses(forecastOnConflict).Create(entry).Error; err != nil {
		return dbError(err, "save_forecast_cache", "date", entry.Date)
	}
	return nil
}

// GetForecastCacheRange returns all cache rows for a quantized coordinate pair
// whose date falls within [startDate, endDate], ordered by date.
func (ds *DataStore) GetForecastCacheRange(latQ, lonQ, startDate, endDate string) ([]ForecastCache, error) {
	var entries []ForecastCache
	err := ds.DB.
		Where("lat_q = ? AND lon_q = ? AND date >= ? AND date <= ?", latQ, lonQ, startDate, endDate).
		Order("date").
		Find(&entries).Error
	if err != nil {
		return nil, dbError(err, "get_forecast_cache_range", "start", startDate, "end", endDate)
	}
	return entries, nil
}

// DeleteExpiredForecasts removes every cache row past its expiry and returns
// the count removed. Safe to call at any time.
func (ds *DataStore) DeleteExpiredForecasts(now time.Time) (int64, error) {
	result := ds.DB.Where("expires_at <= ?", now).Delete(&ForecastCache{})
	if result.Error != nil {
		return 0, dbError(result.Error, "delete_expired_forecasts")
	}
	return result.RowsAffected, nil
}
