package datastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheEntry(latQ, lonQ, date string, ttl time.Duration) ForecastCache {
	now := time.Now()
	return ForecastCache{
		LatQ:      latQ,
		LonQ:      lonQ,
		Date:      date,
		Payload:   `{"temp_max":21.5}`,
		FetchedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestForecastCache_QuantizedKeysCollapse(t *testing.T) {
	ds := setupTestDB(t)

	// Written with full-precision input, read back with the rounded form.
	entry := cacheEntry(QuantizeCoordinate(44.4285678), QuantizeCoordinate(-110.5885123), "2026-09-01", time.Hour)
	require.NoError(t, ds.SaveForecastCache(&entry))

	found, err := ds.GetForecastCache(QuantizeCoordinate(44.4286), QuantizeCoordinate(-110.5885), "2026-09-01")
	require.NoError(t, err)
	require.NotNil(t, found, "near-duplicate coordinates must hit the same cache row")
	assert.Equal(t, entry.Payload, found.Payload)
}

func TestForecastCache_UpsertRefreshesRow(t *testing.T) {
	ds := setupTestDB(t)

	entry := cacheEntry("44.4286", "-110.5885", "2026-09-01", time.Hour)
	require.NoError(t, ds.SaveForecastCache(&entry))

	refreshed := cacheEntry("44.4286", "-110.5885", "2026-09-01", 2*time.Hour)
	refreshed.Payload = `{"temp_max":18.0}`
	require.NoError(t, ds.SaveForecastCache(&refreshed))

	var count int64
	require.NoError(t, ds.DB.Model(&ForecastCache{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	found, err := ds.GetForecastCache("44.4286", "-110.5885", "2026-09-01")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, `{"temp_max":18.0}`, found.Payload)
}

func TestForecastCache_TTLBoundaries(t *testing.T) {
	t.Parallel()

	fetchedAt := time.Now()
	entry := ForecastCache{
		FetchedAt: fetchedAt,
		ExpiresAt: fetchedAt.Add(time.Hour),
	}

	assert.False(t, entry.IsExpired(fetchedAt.Add(59*time.Minute)), "fresh at fetchedAt+59m")
	assert.True(t, entry.IsExpired(fetchedAt.Add(61*time.Minute)), "expired at fetchedAt+61m")
	assert.True(t, entry.IsExpired(fetchedAt.Add(time.Hour)), "expiry instant counts as expired")
}

func TestForecastCache_Range(t *testing.T) {
	ds := setupTestDB(t)

	for _, date := range []string{"2026-09-01", "2026-09-02", "2026-09-03", "2026-09-10"} {
		entry := cacheEntry("44.4286", "-110.5885", date, time.Hour)
		require.NoError(t, ds.SaveForecastCache(&entry))
	}
	// Different key, same dates: must not leak into the range.
	other := cacheEntry("45.0000", "-110.5885", "2026-09-02", time.Hour)
	require.NoError(t, ds.SaveForecastCache(&other))

	entries, err := ds.GetForecastCacheRange("44.4286", "-110.5885", "2026-09-01", "2026-09-03")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "2026-09-01", entries[0].Date)
	assert.Equal(t, "2026-09-03", entries[2].Date)
}

func TestDeleteExpiredForecasts(t *testing.T) {
	ds := setupTestDB(t)

	fresh := cacheEntry("44.4286", "-110.5885", "2026-09-01", time.Hour)
	expired := cacheEntry("44.4286", "-110.5885", "2026-08-20", -time.Hour)
	require.NoError(t, ds.SaveForecastCache(&fresh))
	require.NoError(t, ds.SaveForecastCache(&expired))

	removed, err := ds.DeleteExpiredForecasts(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// Sweep is safe to repeat.
	removed, err = ds.DeleteExpiredForecasts(time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSaveForecastCache_IncompleteKeyRejected(t *testing.T) {
	ds := setupTestDB(t)

	entry := cacheEntry("", "-110.5885", "2026-09-01", time.Hour)
	require.Error(t, ds.SaveForecastCache(&entry))
}
