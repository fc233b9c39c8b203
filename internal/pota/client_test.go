package pota

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjbaur/pota-assistant/internal/errors"
)

const testBaseURL = "https://pota.test"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	client := NewClient(Config{
		BaseURL:       testBaseURL,
		Timeout:       2 * time.Second,
		HealthTimeout: time.Second,
	})
	httpmock.ActivateNonDefault(client.httpClient)
	return client
}

func parkListJSON() string {
	return `[
		{"reference":"US-0039","name":"Yellowstone National Park","latitude":44.428,"longitude":-110.5885,
		 "grid":"DN44xk","locationDesc":"US-WY","locationName":"Wyoming","entityName":"United States",
		 "parktypeDesc":"National Park","active":1},
		{"reference":"CA-0123","name":"Algonquin Provincial Park","latitude":45.5,"longitude":-78.4,
		 "grid":"","locationDesc":"CA-ON","locationName":"Ontario","entityName":"Canada",
		 "parktypeDesc":"Provincial Park","active":1}
	]`
}

func TestFetchAllParks_Success(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/program/parks/ALL",
		httpmock.NewStringResponder(http.StatusOK, parkListJSON()))

	parks, err := client.FetchAllParks(context.Background(), "ALL")
	require.NoError(t, err)
	require.Len(t, parks, 2)
	assert.Equal(t, "US-0039", parks[0].Reference)
	assert.InDelta(t, 44.428, parks[0].Latitude, 0.001)
	assert.Equal(t, "Canada", parks[1].EntityName)
	assert.Empty(t, parks[1].Grid, "grid may be absent from the source")
}

func TestFetchAllParks_ServerError(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/program/parks/ALL",
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream down"))

	parks, err := client.FetchAllParks(context.Background(), "ALL")
	require.Error(t, err)
	assert.Nil(t, parks)

	var ee *errors.EnhancedError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, errors.CategoryNetwork, ee.Category)
	assert.Equal(t, http.StatusBadGateway, ee.StatusCode, "status code surfaced to the caller")
	assert.NotEmpty(t, ee.Suggestions)
}

func TestFetchAllParks_MalformedBody(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/program/parks/ALL",
		httpmock.NewStringResponder(http.StatusOK, `{"unexpected":"shape"`))

	_, err := client.FetchAllParks(context.Background(), "ALL")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestFetchPark_Success(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/park/US-0039",
		httpmock.NewStringResponder(http.StatusOK,
			`{"reference":"US-0039","name":"Yellowstone National Park","latitude":44.428,"longitude":-110.5885,"active":1}`))

	park, err := client.FetchPark(context.Background(), "US-0039")
	require.NoError(t, err)
	require.NotNil(t, park)
	assert.Equal(t, "Yellowstone National Park", park.Name)
}

func TestFetchPark_NotFoundIsNilNil(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/park/US-9999",
		httpmock.NewStringResponder(http.StatusNotFound, "not found"))

	park, err := client.FetchPark(context.Background(), "US-9999")
	require.NoError(t, err, "remote 404 must map to a clean miss")
	assert.Nil(t, park)
}

func TestFetchPark_OtherFailureIsError(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/park/US-0039",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "maintenance"))

	park, err := client.FetchPark(context.Background(), "US-0039")
	require.Error(t, err)
	assert.Nil(t, park)
}

func TestPing(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL,
		httpmock.NewStringResponder(http.StatusOK, "ok"))

	require.NoError(t, client.Ping(context.Background()))
}
