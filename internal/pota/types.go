package pota

import "time"

// Config holds the park dataset API client configuration.
type Config struct {
	BaseURL       string
	Timeout       time.Duration // bulk fetch timeout
	HealthTimeout time.Duration // lightweight health check timeout
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://api.pota.app",
		Timeout:       30 * time.Second,
		HealthTimeout: 5 * time.Second,
	}
}

// ParkRecord is the wire shape of one park as returned by the dataset API.
type ParkRecord struct {
	Reference    string  `json:"reference"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Grid         string  `json:"grid"`
	LocationDesc string  `json:"locationDesc"` // e.g. "US-WY"
	LocationName string  `json:"locationName"` // e.g. "Wyoming"
	EntityName   string  `json:"entityName"`   // e.g. "United States"
	ParkTypeDesc string  `json:"parktypeDesc"`
	Active       int     `json:"active"` // 1 active, 0 inactive
	Website      string  `json:"website"`
}
