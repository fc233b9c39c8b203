package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pjbaur/pota-assistant/internal/conf"
	"github.com/pjbaur/pota-assistant/internal/datastore"
	"github.com/pjbaur/pota-assistant/internal/errors"
)

// Service is the cache manager in front of the forecast provider. Reads go
// through the durable forecast cache table; the provider is only consulted
// when no fresh row exists, and a failing provider falls back to stale
// cached data rather than erroring while any cached row is available.
type Service struct {
	provider Provider
	db       datastore.Interface
	ttl      time.Duration
	days     int
	now      func() time.Time // injectable clock for TTL tests
}

// NewService creates a forecast service wired to the configured provider.
func NewService(settings *conf.Settings, db datastore.Interface, provider Provider) *Service {
	ttl := time.Duration(settings.Weather.CacheTTL) * time.Minute
	if ttl <= 0 {
		ttl = time.Duration(conf.DefaultCacheTTL) * time.Minute
	}
	days := settings.Weather.ForecastDays
	if days <= 0 {
		days = conf.DefaultForecastDays
	}

	return &Service{
		provider: provider,
		db:       db,
		ttl:      ttl,
		days:     days,
		now:      time.Now,
	}
}

// GetForecast returns the forecast for one coordinate pair and date.
// Coordinates are quantized before every store interaction.
func (s *Service) GetForecast(ctx context.Context, latitude, longitude float64, date string) (*Result, error) {
	latQ := datastore.QuantizeCoordinate(latitude)
	lonQ := datastore.QuantizeCoordinate(longitude)
	now := s.now()

	cached, err := s.db.GetForecastCache(latQ, lonQ, date)
	if err != nil {
		return nil, err
	}

	// Fresh cache row: return the payload verbatim, no remote call.
	// Malformed payloads are treated as a cache miss, not a fatal error.
	if cached != nil && !cached.IsExpired(now) {
		if forecast, ok := decodePayload(cached.Payload); ok {
			logger.Debug("Forecast cache hit", "lat_q", latQ, "lon_q", lonQ, "date", date)
			return &Result{Forecast: forecast, CachedAt: cached.FetchedAt}, nil
		}
		logger.Warn("Malformed cached forecast payload, treating as miss",
			"lat_q", latQ, "lon_q", lonQ, "date", date)
	}

	forecasts, fetchErr := s.provider.FetchDaily(ctx, latitude, longitude, s.days)
	if fetchErr != nil {
		// Stale fallback: any cached row, even expired, beats an error.
		if cached != nil {
			if forecast, ok := decodePayload(cached.Payload); ok {
				warning := staleWarning(cached.FetchedAt, fetchErr)
				logger.Warn("Forecast fetch failed, serving stale cache",
					"date", date, "cached_at", cached.FetchedAt, "error", fetchErr)
				return &Result{Forecast: forecast, Warning: warning, CachedAt: cached.FetchedAt}, nil
			}
		}
		return nil, fetchErr
	}

	for i := range forecasts {
		if forecasts[i].Date != date {
			continue
		}
		if err := s.persist(latQ, lonQ, &forecasts[i], now); err != nil {
			return nil, err
		}
		return &Result{Forecast: &forecasts[i]}, nil
	}

	// The requested date is outside the remote range: not an error.
	return &Result{
		Warning: fmt.Sprintf("date %s not available, forecast covers %s to %s",
			date, forecasts[0].Date, forecasts[len(forecasts)-1].Date),
	}, nil
}

// GetForecastRange returns forecasts for [startDate, startDate+days) in a
// single remote round trip, caching every returned date. On remote failure it
// falls back to a cached date-range query.
func (s *Service) GetForecastRange(ctx context.Context, latitude, longitude float64, startDate string, days int) (*RangeResult, error) {
	latQ := datastore.QuantizeCoordinate(latitude)
	lonQ := datastore.QuantizeCoordinate(longitude)
	now := s.now()

	if days <= 0 {
		days = s.days
	}
	endDate, err := addDays(startDate, days-1)
	if err != nil {
		return nil, err
	}

	// Serve entirely from cache when every requested date is present and fresh.
	cached, err := s.db.GetForecastCacheRange(latQ, lonQ, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if result, ok := rangeFromCache(cached, days, now); ok {
		logger.Debug("Forecast range served from cache",
			"start", startDate, "days", days)
		return result, nil
	}

	forecasts, fetchErr := s.provider.FetchDaily(ctx, latitude, longitude, s.days)
	if fetchErr != nil {
		// Fall back to whatever the cache holds for the range, even expired.
		if len(cached) > 0 {
			result := &RangeResult{}
			oldest := cached[0].FetchedAt
			for i := range cached {
				if forecast, ok := decodePayload(cached[i].Payload); ok {
					result.Forecasts = append(result.Forecasts, *forecast)
					if cached[i].FetchedAt.Before(oldest) {
						oldest = cached[i].FetchedAt
					}
				}
			}
			if len(result.Forecasts) > 0 {
				result.Warnings = append(result.Warnings, staleWarning(oldest, fetchErr))
				if len(result.Forecasts) < days {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("only %d of %d requested days available from cache", len(result.Forecasts), days))
				}
				return result, nil
			}
		}
		return nil, fetchErr
	}

	// Cache every date the remote returned in one pass.
	for i := range forecasts {
		if err := s.persist(latQ, lonQ, &forecasts[i], now); err != nil {
			return nil, err
		}
	}

	result := &RangeResult{}
	for i := range forecasts {
		if forecasts[i].Date >= startDate && forecasts[i].Date <= endDate {
			result.Forecasts = append(result.Forecasts, forecasts[i])
		}
	}
	if len(result.Forecasts) < days {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d of %d requested days not available, forecast covers %s to %s",
				days-len(result.Forecasts), days, forecasts[0].Date, forecasts[len(forecasts)-1].Date))
	}
	return result, nil
}

// Cleanup deletes all cache rows past their expiry and returns the count
// removed. Safe to call at any time.
func (s *Service) Cleanup() (int64, error) {
	removed, err := s.db.DeleteExpiredForecasts(s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.Info("Swept expired forecast cache rows", "removed", removed)
	}
	return removed, nil
}

// persist writes one forecast day to the durable cache with the service TTL.
func (s *Service) persist(latQ, lonQ string, forecast *DailyForecast, now time.Time) error {
	payload, err := json.Marshal(forecast)
	if err != nil {
		return err
	}
	return s.db.SaveForecastCache(&datastore.ForecastCache{
		LatQ:      latQ,
		LonQ:      lonQ,
		Date:      forecast.Date,
		Payload:   string(payload),
		FetchedAt: now,
		ExpiresAt: now.Add(s.ttl),
	})
}

// rangeFromCache returns a RangeResult when the cache covers all requested
// days with fresh, well-formed rows.
func rangeFromCache(cached []datastore.ForecastCache, days int, now time.Time) (*RangeResult, bool) {
	if len(cached) < days {
		return nil, false
	}
	result := &RangeResult{Forecasts: make([]DailyForecast, 0, len(cached))}
	for i := range cached {
		if cached[i].IsExpired(now) {
			return nil, false
		}
		forecast, ok := decodePayload(cached[i].Payload)
		if !ok {
			return nil, false
		}
		result.Forecasts = append(result.Forecasts, *forecast)
	}
	return result, true
}

// decodePayload unmarshals a cached payload; malformed JSON reads as a miss.
func decodePayload(payload string) (*DailyForecast, bool) {
	var forecast DailyForecast
	if err := json.Unmarshal([]byte(payload), &forecast); err != nil || forecast.Date == "" {
		return nil, false
	}
	return &forecast, true
}

// staleWarning names the failure reason and the cached-as-of time.
func staleWarning(fetchedAt time.Time, err error) string {
	return fmt.Sprintf("using cached forecast from %s, fresh fetch failed: %v",
		fetchedAt.Format("2006-01-02 15:04"), err)
}

// addDays shifts a YYYY-MM-DD date string by n days.
func addDays(date string, n int) (string, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", errors.New(err).
			Component("forecast").
			Category(errors.CategoryValidation).
			Context("date", date).
			Build()
	}
	return t.AddDate(0, 0, n).Format("2006-01-02"), nil
}
