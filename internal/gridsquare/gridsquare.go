// Package gridsquare derives Maidenhead grid locators from coordinates.
package gridsquare

import (
	"math"

	"github.com/pjbaur/pota-assistant/internal/errors"
)

const upperAlpha = "ABCDEFGHIJKLMNOPQRSTUVWX"
const lowerAlpha = "abcdefghijklmnopqrstuvwx"

// FromCoordinates returns the 6-character Maidenhead locator for the given
// coordinates.
func FromCoordinates(latitude, longitude float64) (string, error) {
	if latitude < -90 || latitude > 90 {
		return "", errors.Newf("latitude out of range: %f", latitude).
			Component("gridsquare").
			Category(errors.CategoryValidation).
			Context("latitude", latitude).
			Build()
	}
	if longitude < -180 || longitude > 180 {
		return "", errors.Newf("longitude out of range: %f", longitude).
			Component("gridsquare").
			Category(errors.CategoryValidation).
			Context("longitude", longitude).
			Build()
	}

	// Shift to positive ranges: longitude 0..360, latitude 0..180.
	// The north pole and the antimeridian fall into the last cell.
	lon := math.Min(longitude+180, 359.999999)
	lat := math.Min(latitude+90, 179.999999)

	fieldLon := int(lon / 20)
	fieldLat := int(lat / 10)

	squareLon := int(math.Mod(lon, 20) / 2)
	squareLat := int(math.Mod(lat, 10))

	subLon := int(math.Mod(lon, 2) * 12)
	subLat := int(math.Mod(lat, 1) * 24)

	locator := string([]byte{
		upperAlpha[fieldLon],
		upperAlpha[fieldLat],
		byte('0' + squareLon),
		byte('0' + squareLat),
		lowerAlpha[subLon],
		lowerAlpha[subLat],
	})

	return locator, nil
}
