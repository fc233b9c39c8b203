package datastore

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPark(reference string) Park {
	return Park{
		Reference:    reference,
		Name:         "Yellowstone National Park",
		Latitude:     44.4280,
		Longitude:    -110.5885,
		GridSquare:   "DN44xk",
		LocationCode: "US-WY",
		EntityName:   "United States",
		LocationName: "Wyoming",
		ParkType:     "National Park",
		Active:       true,
	}
}

func TestSavePark_UpsertIsIdempotent(t *testing.T) {
	ds := setupTestDB(t)

	park := testPark("US-0039")
	require.NoError(t, ds.SavePark(&park))

	firstSync := park.SyncedAt

	// Re-submitting the same natural key must update in place, not duplicate.
	again := testPark("US-0039")
	again.Name = "Yellowstone NP"
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, ds.SavePark(&again))

	count, err := ds.CountParks()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := ds.GetPark("US-0039")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Yellowstone NP", stored.Name)
	assert.True(t, stored.SyncedAt.After(firstSync), "synced_at must advance on every write")
}

func TestSavePark_ReferenceCaseNormalization(t *testing.T) {
	ds := setupTestDB(t)

	lower := testPark("us-0039")
	require.NoError(t, ds.SavePark(&lower))

	upper := testPark("US-0039")
	require.NoError(t, ds.SavePark(&upper))

	count, err := ds.CountParks()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "case must never create duplicates")

	stored, err := ds.GetPark("Us-0039")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "US-0039", stored.Reference)
}

func TestSavePark_BlankReferenceRejected(t *testing.T) {
	ds := setupTestDB(t)

	park := testPark("  ")
	err := ds.SavePark(&park)
	require.Error(t, err)
}

func TestGetPark_MissingReturnsNilNil(t *testing.T) {
	ds := setupTestDB(t)

	park, err := ds.GetPark("US-9999")
	require.NoError(t, err)
	assert.Nil(t, park)
}

func TestSaveParkBatch_IdempotentAcrossRuns(t *testing.T) {
	ds := setupTestDB(t)

	batch := make([]Park, 0, 10)
	for i := 0; i < 10; i++ {
		p := testPark(fmt.Sprintf("US-%04d", i+1))
		batch = append(batch, p)
	}

	n, err := ds.SaveParkBatch(batch)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	// Applying the same batch twice leaves exactly N rows.
	n, err = ds.SaveParkBatch(batch)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	count, err := ds.CountParks()
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)
}

func TestSaveParkBatch_Empty(t *testing.T) {
	ds := setupTestDB(t)

	n, err := ds.SaveParkBatch(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSearchParks(t *testing.T) {
	ds := setupTestDB(t)

	yellowstone := testPark("US-0039")
	grand := testPark("US-0031")
	grand.Name = "Grand Teton National Park"
	ontario := testPark("CA-0123")
	ontario.Name = "Algonquin Provincial Park"
	ontario.LocationCode = "CA-ON"
	ontario.EntityName = "Canada"
	ontario.ParkType = "Provincial Park"

	_, err := ds.SaveParkBatch([]Park{yellowstone, grand, ontario})
	require.NoError(t, err)

	// Case-insensitive substring on name.
	parks, total, err := ds.SearchParks("teton", ParkFilters{}, 25)
	require.NoError(t, err)
	assert.Len(t, parks, 1)
	assert.Equal(t, int64(3), total, "total reports the unfiltered table count")
	assert.Equal(t, "US-0031", parks[0].Reference)

	// Case-insensitive substring on reference.
	parks, _, err = ds.SearchParks("ca-01", ParkFilters{}, 25)
	require.NoError(t, err)
	assert.Len(t, parks, 1)

	// Equality filter on location code.
	parks, _, err = ds.SearchParks("park", ParkFilters{LocationCode: "us-wy"}, 25)
	require.NoError(t, err)
	assert.Len(t, parks, 2)

	// Limit applies to the page, not the total.
	parks, total, err = ds.SearchParks("park", ParkFilters{}, 2)
	require.NoError(t, err)
	assert.Len(t, parks, 2)
	assert.Equal(t, int64(3), total)
}

func TestLastParkSync(t *testing.T) {
	ds := setupTestDB(t)

	last, err := ds.LastParkSync()
	require.NoError(t, err)
	assert.Nil(t, last, "no writes yet")

	park := testPark("US-0039")
	require.NoError(t, ds.SavePark(&park))

	last, err = ds.LastParkSync()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.WithinDuration(t, time.Now(), *last, 5*time.Second)
}
