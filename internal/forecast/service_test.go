package forecast

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pjbaur/pota-assistant/internal/conf"
	"github.com/pjbaur/pota-assistant/internal/datastore"
	"github.com/pjbaur/pota-assistant/internal/errors"
)

// fakeProvider counts calls and returns a canned response or error.
type fakeProvider struct {
	forecasts []DailyForecast
	err       error
	calls     int
}

func (f *fakeProvider) FetchDaily(ctx context.Context, latitude, longitude float64, days int) ([]DailyForecast, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.forecasts, nil
}

func testDays(start string, n int) []DailyForecast {
	t, _ := time.Parse("2006-01-02", start)
	days := make([]DailyForecast, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, DailyForecast{
			Date:    t.AddDate(0, 0, i).Format("2006-01-02"),
			TempMax: 20 + float64(i),
			TempMin: 10 + float64(i),
		})
	}
	return days
}

func newTestService(t *testing.T, provider Provider) (*Service, datastore.Interface) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&datastore.ForecastCache{}))

	store := &datastore.SQLiteStore{DataStore: datastore.DataStore{DB: db}}

	settings := &conf.Settings{}
	settings.Weather.CacheTTL = 60
	settings.Weather.ForecastDays = 7

	return NewService(settings, store, provider), store
}

func TestGetForecast_FetchesAndCaches(t *testing.T) {
	provider := &fakeProvider{forecasts: testDays("2026-09-01", 7)}
	svc, store := newTestService(t, provider)

	result, err := svc.GetForecast(context.Background(), 44.4285678, -110.5885123, "2026-09-02")
	require.NoError(t, err)
	require.NotNil(t, result.Forecast)
	assert.Equal(t, "2026-09-02", result.Forecast.Date)
	assert.Empty(t, result.Warning)
	assert.Equal(t, 1, provider.calls)

	// The requested date slice was persisted under the quantized key.
	entry, err := store.GetForecastCache("44.4286", "-110.5885", "2026-09-02")
	require.NoError(t, err)
	require.NotNil(t, entry)
}

func TestGetForecast_FreshCacheSkipsRemote(t *testing.T) {
	provider := &fakeProvider{forecasts: testDays("2026-09-01", 7)}
	svc, _ := newTestService(t, provider)

	_, err := svc.GetForecast(context.Background(), 44.4286, -110.5885, "2026-09-02")
	require.NoError(t, err)

	// Near-duplicate coordinates collapse to the same quantized key.
	result, err := svc.GetForecast(context.Background(), 44.4285678, -110.5885123, "2026-09-02")
	require.NoError(t, err)
	require.NotNil(t, result.Forecast)
	assert.Equal(t, 1, provider.calls, "fresh cache row must not trigger a remote call")
	assert.False(t, result.CachedAt.IsZero())
}

func TestGetForecast_StaleFallbackOnRemoteFailure(t *testing.T) {
	provider := &fakeProvider{forecasts: testDays("2026-09-01", 7)}
	svc, _ := newTestService(t, provider)

	_, err := svc.GetForecast(context.Background(), 44.4286, -110.5885, "2026-09-02")
	require.NoError(t, err)

	// Cache is expired and the remote now fails.
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	provider.err = errors.Newf("connection refused").Category(errors.CategoryNetwork).Build()

	result, err := svc.GetForecast(context.Background(), 44.4286, -110.5885, "2026-09-02")
	require.NoError(t, err, "stale fallback is a success, not an error")
	require.NotNil(t, result.Forecast)
	assert.NotEmpty(t, result.Warning)
	assert.Contains(t, result.Warning, "connection refused")
}

func TestGetForecast_NoCacheAndRemoteFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.Newf("connection refused").Category(errors.CategoryNetwork).Build()}
	svc, _ := newTestService(t, provider)

	result, err := svc.GetForecast(context.Background(), 44.4286, -110.5885, "2026-09-02")
	require.Error(t, err, "with no cached row the remote error propagates")
	assert.Nil(t, result)
}

func TestGetForecast_DateOutsideRangeIsAdvisory(t *testing.T) {
	provider := &fakeProvider{forecasts: testDays("2026-09-01", 7)}
	svc, _ := newTestService(t, provider)

	result, err := svc.GetForecast(context.Background(), 44.4286, -110.5885, "2026-10-15")
	require.NoError(t, err)
	assert.Nil(t, result.Forecast)
	assert.Contains(t, result.Warning, "not available")
}

func TestGetForecast_MalformedCachedPayloadIsMiss(t *testing.T) {
	provider := &fakeProvider{forecasts: testDays("2026-09-01", 7)}
	svc, store := newTestService(t, provider)

	now := time.Now()
	require.NoError(t, store.SaveForecastCache(&datastore.ForecastCache{
		LatQ: "44.4286", LonQ: "-110.5885", Date: "2026-09-02",
		Payload:   "{corrupt",
		FetchedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))

	result, err := svc.GetForecast(context.Background(), 44.4286, -110.5885, "2026-09-02")
	require.NoError(t, err)
	require.NotNil(t, result.Forecast)
	assert.Equal(t, 1, provider.calls, "malformed payload must fall through to the provider")
}

func TestGetForecastRange_SingleRoundTripCachesAllDates(t *testing.T) {
	provider := &fakeProvider{forecasts: testDays("2026-09-01", 7)}
	svc, store := newTestService(t, provider)

	result, err := svc.GetForecastRange(context.Background(), 44.4286, -110.5885, "2026-09-01", 3)
	require.NoError(t, err)
	require.Len(t, result.Forecasts, 3)
	assert.Equal(t, 1, provider.calls)

	// Every returned date was cached, not just the requested window.
	entries, err := store.GetForecastCacheRange("44.4286", "-110.5885", "2026-09-01", "2026-09-07")
	require.NoError(t, err)
	assert.Len(t, entries, 7)

	// A second range request inside the window is served from cache.
	result, err = svc.GetForecastRange(context.Background(), 44.4286, -110.5885, "2026-09-02", 3)
	require.NoError(t, err)
	assert.Len(t, result.Forecasts, 3)
	assert.Equal(t, 1, provider.calls)
}

func TestGetForecastRange_PartialWindowAdvisory(t *testing.T) {
	provider := &fakeProvider{forecasts: testDays("2026-09-01", 3)}
	svc, _ := newTestService(t, provider)

	result, err := svc.GetForecastRange(context.Background(), 44.4286, -110.5885, "2026-09-02", 5)
	require.NoError(t, err)
	assert.Len(t, result.Forecasts, 2, "dates beyond the remote range are simply absent")
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "not available")
}

func TestGetForecastRange_FallsBackToCachedRange(t *testing.T) {
	provider := &fakeProvider{forecasts: testDays("2026-09-01", 7)}
	svc, _ := newTestService(t, provider)

	_, err := svc.GetForecastRange(context.Background(), 44.4286, -110.5885, "2026-09-01", 7)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	provider.err = errors.Newf("gateway timeout").Category(errors.CategoryTimeout).Build()

	result, err := svc.GetForecastRange(context.Background(), 44.4286, -110.5885, "2026-09-01", 7)
	require.NoError(t, err)
	assert.Len(t, result.Forecasts, 7)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "gateway timeout")
}

func TestGetForecastRange_NoCacheAndRemoteFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.Newf("boom").Category(errors.CategoryNetwork).Build()}
	svc, _ := newTestService(t, provider)

	_, err := svc.GetForecastRange(context.Background(), 44.4286, -110.5885, "2026-09-01", 3)
	require.Error(t, err)
}

func TestCleanup(t *testing.T) {
	provider := &fakeProvider{}
	svc, store := newTestService(t, provider)

	now := time.Now()
	payload, _ := json.Marshal(DailyForecast{Date: "2026-08-20"})
	require.NoError(t, store.SaveForecastCache(&datastore.ForecastCache{
		LatQ: "44.4286", LonQ: "-110.5885", Date: "2026-08-20",
		Payload:   string(payload),
		FetchedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}))

	removed, err := svc.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
