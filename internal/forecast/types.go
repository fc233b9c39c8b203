package forecast

import "time"

// DailyForecast is the normalized domain shape for one day of forecast data.
// It is also the JSON payload persisted in the forecast cache.
type DailyForecast struct {
	Date                     string  `json:"date"` // YYYY-MM-DD
	WeatherCode              int     `json:"weather_code"`
	TempMax                  float64 `json:"temp_max"`
	TempMin                  float64 `json:"temp_min"`
	PrecipitationSum         float64 `json:"precipitation_sum"`
	PrecipitationProbability int     `json:"precipitation_probability"`
	WindSpeedMax             float64 `json:"wind_speed_max"`
	WindGustMax              float64 `json:"wind_gust_max"`
}

// Result carries a single-day forecast lookup outcome. Warning is non-empty
// when the payload is a stale fallback or the requested date was unavailable;
// a warning never accompanies an error.
type Result struct {
	Forecast *DailyForecast
	Warning  string
	CachedAt time.Time // set when the payload came from the cache
}

// RangeResult carries a multi-day forecast outcome with per-call advisories.
type RangeResult struct {
	Forecasts []DailyForecast
	Warnings  []string
}

// Config holds the forecast provider configuration.
type Config struct {
	Endpoint string
	Units    string // metric or imperial
	Days     int    // days requested per remote call
	Timeout  time.Duration
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() Config {
	return Config{
		Endpoint: "https://api.open-meteo.com/v1/forecast",
		Units:    "metric",
		Days:     7,
		Timeout:  30 * time.Second,
	}
}
