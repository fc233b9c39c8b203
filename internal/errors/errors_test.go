package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	err := Newf("something broke").Build()

	assert.Equal(t, "something broke", err.Error())
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.Empty(t, err.Suggestions)
	assert.False(t, err.Timestamp.IsZero())
}

func TestBuilderCarriesMetadata(t *testing.T) {
	base := NewStd("connection reset")
	err := New(base).
		Component("pota").
		Category(CategoryNetwork).
		Context("url", "https://api.pota.app/park/US-0039").
		Suggestion("check network connectivity", "retry later").
		StatusCode(502).
		Build()

	assert.Equal(t, "pota", err.Component)
	assert.Equal(t, CategoryNetwork, err.Category)
	assert.Equal(t, 502, err.StatusCode)
	assert.Equal(t, []string{"check network connectivity", "retry later"}, err.GetSuggestions())
	assert.Equal(t, "https://api.pota.app/park/US-0039", err.GetContext()["url"])

	// The original error stays reachable through the chain.
	assert.True(t, Is(err, base))
	assert.Equal(t, base, Unwrap(err))
}

func TestCategoryOf(t *testing.T) {
	err := Newf("missing row").Category(CategoryNotFound).Build()
	assert.Equal(t, CategoryNotFound, CategoryOf(err))
	assert.True(t, IsCategory(err, CategoryNotFound))
	assert.False(t, IsCategory(err, CategoryDatabase))

	// Wrapping with fmt keeps the category visible.
	wrapped := fmt.Errorf("query failed: %w", err)
	assert.Equal(t, CategoryNotFound, CategoryOf(wrapped))

	// Plain errors fall back to generic.
	assert.Equal(t, CategoryGeneric, CategoryOf(NewStd("plain")))
	assert.Nil(t, SuggestionsOf(NewStd("plain")))
}

func TestEnhancedErrorsMatchOnCategory(t *testing.T) {
	a := Newf("first").Category(CategoryTimeout).Build()
	b := Newf("second").Category(CategoryTimeout).Build()
	c := Newf("third").Category(CategoryNetwork).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}

func TestGetContextReturnsCopy(t *testing.T) {
	err := Newf("bad value").Context("field", "latitude").Build()

	ctx := err.GetContext()
	require.NotNil(t, ctx)
	ctx["field"] = "mutated"

	assert.Equal(t, "latitude", err.GetContext()["field"])
}

func TestTiming(t *testing.T) {
	err := Newf("slow query").Timing("search_parks", 1500*time.Millisecond).Build()

	ctx := err.GetContext()
	assert.Equal(t, "search_parks", ctx["operation"])
	assert.Equal(t, int64(1500), ctx["duration_ms"])
}
