package gridsquare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCoordinates_KnownLocators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		latitude  float64
		longitude float64
		want      string
	}{
		{"helsinki", 60.1699, 24.9384, "KP20le"},
		{"munich", 48.1465, 11.6080, "JN58td"},
		{"newington_w1aw", 41.7148, -72.7272, "FN31pr"},
		{"null_island", 0.0, 0.0, "JJ00aa"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := FromCoordinates(tt.latitude, tt.longitude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromCoordinates_Boundaries(t *testing.T) {
	t.Parallel()

	// Poles and the antimeridian must stay within the A-X / 0-9 / a-x alphabets.
	for _, coords := range [][2]float64{
		{90, 180},
		{-90, -180},
		{90, -180},
		{-90, 180},
	} {
		got, err := FromCoordinates(coords[0], coords[1])
		require.NoError(t, err)
		assert.Len(t, got, 6)
	}
}

func TestFromCoordinates_OutOfRange(t *testing.T) {
	t.Parallel()

	_, err := FromCoordinates(90.1, 0)
	require.Error(t, err)

	_, err = FromCoordinates(0, -180.5)
	require.Error(t, err)
}
