// Package forecast fetches and caches weather forecasts for park coordinates.
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pjbaur/pota-assistant/internal/datastore"
	"github.com/pjbaur/pota-assistant/internal/errors"
	"github.com/pjbaur/pota-assistant/internal/logging"
)

// Package-level logger specific to the forecast service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "forecast.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "forecast", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize forecast file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "forecast")
		closeLogger = func() error { return nil }
	}
}

// Provider fetches a multi-day forecast for a coordinate pair.
type Provider interface {
	FetchDaily(ctx context.Context, latitude, longitude float64, days int) ([]DailyForecast, error)
}

// hotCacheTTL bounds the in-process layer in front of HTTP. The durable TTL
// lives in the forecast cache table; this only deduplicates requests within
// one process run.
const hotCacheTTL = 5 * time.Minute

// OpenMeteoProvider implements Provider against an Open-Meteo style API.
type OpenMeteoProvider struct {
	config     Config
	httpClient *http.Client
	hotCache   *gocache.Cache
}

// openMeteoResponse mirrors the daily block of the Open-Meteo forecast API.
type openMeteoResponse struct {
	Daily struct {
		Time                      []string  `json:"time"`
		WeatherCode               []int     `json:"weather_code"`
		Temperature2mMax          []float64 `json:"temperature_2m_max"`
		Temperature2mMin          []float64 `json:"temperature_2m_min"`
		PrecipitationSum          []float64 `json:"precipitation_sum"`
		PrecipitationProbability  []int     `json:"precipitation_probability_max"`
		WindSpeed10mMax           []float64 `json:"wind_speed_10m_max"`
		WindGusts10mMax           []float64 `json:"wind_gusts_10m_max"`
	} `json:"daily"`
}

// NewOpenMeteoProvider creates a provider with defaults filled in.
func NewOpenMeteoProvider(config Config) *OpenMeteoProvider {
	defaults := DefaultConfig()
	if config.Endpoint == "" {
		config.Endpoint = defaults.Endpoint
	}
	if config.Units == "" {
		config.Units = defaults.Units
	}
	if config.Days <= 0 {
		config.Days = defaults.Days
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}

	return &OpenMeteoProvider{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		hotCache:   gocache.New(hotCacheTTL, 2*hotCacheTTL),
	}
}

// FetchDaily retrieves up to days of daily forecast data for the coordinates.
func (p *OpenMeteoProvider) FetchDaily(ctx context.Context, latitude, longitude float64, days int) ([]DailyForecast, error) {
	cacheKey := fmt.Sprintf("daily:%s:%s:%d",
		datastore.QuantizeCoordinate(latitude),
		datastore.QuantizeCoordinate(longitude),
		days)

	if cached, found := p.hotCache.Get(cacheKey); found {
		if forecasts, ok := cached.([]DailyForecast); ok {
			logger.Debug("Forecast hot cache hit", "cache_key", cacheKey)
			return forecasts, nil
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&forecast_days=%d&timezone=auto"+
		"&daily=weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,"+
		"precipitation_probability_max,wind_speed_10m_max,wind_gusts_10m_max",
		p.config.Endpoint, latitude, longitude, days)
	if p.config.Units == "imperial" {
		url += "&temperature_unit=fahrenheit&wind_speed_unit=mph&precipitation_unit=inch"
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.New(err).
			Component("forecast").
			Category(errors.CategoryNetwork).
			Build()
	}
	req.Header.Set("User-Agent", "pota-assistant")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		category := errors.CategoryNetwork
		if errors.Is(err, context.DeadlineExceeded) || reqCtx.Err() == context.DeadlineExceeded {
			category = errors.CategoryTimeout
		}
		return nil, errors.New(err).
			Component("forecast").
			Category(category).
			Context("endpoint", p.config.Endpoint).
			Suggestion("check network connectivity and retry").
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("received non-200 response: %d", resp.StatusCode).
			Component("forecast").
			Category(errors.CategoryNetwork).
			StatusCode(resp.StatusCode).
			Context("endpoint", p.config.Endpoint).
			Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(err).
			Component("forecast").
			Category(errors.CategoryNetwork).
			Build()
	}

	var raw openMeteoResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.New(err).
			Component("forecast").
			Category(errors.CategoryFileParsing).
			Suggestion("the forecast API may have changed its response format").
			Build()
	}

	forecasts := normalizeDaily(&raw)
	if len(forecasts) == 0 {
		return nil, errors.Newf("no forecast days returned from API").
			Component("forecast").
			Category(errors.CategoryNetwork).
			Build()
	}

	p.hotCache.Set(cacheKey, forecasts, gocache.DefaultExpiration)

	logger.Debug("Fetched forecast",
		"days", len(forecasts),
		"first_date", forecasts[0].Date)

	return forecasts, nil
}

// normalizeDaily converts the raw column-oriented response into per-day
// records, tolerating ragged arrays.
func normalizeDaily(raw *openMeteoResponse) []DailyForecast {
	d := &raw.Daily
	forecasts := make([]DailyForecast, 0, len(d.Time))
	for i, date := range d.Time {
		f := DailyForecast{Date: date}
		if i < len(d.WeatherCode) {
			f.WeatherCode = d.WeatherCode[i]
		}
		if i < len(d.Temperature2mMax) {
			f.TempMax = d.Temperature2mMax[i]
		}
		if i < len(d.Temperature2mMin) {
			f.TempMin = d.Temperature2mMin[i]
		}
		if i < len(d.PrecipitationSum) {
			f.PrecipitationSum = d.PrecipitationSum[i]
		}
		if i < len(d.PrecipitationProbability) {
			f.PrecipitationProbability = d.PrecipitationProbability[i]
		}
		if i < len(d.WindSpeed10mMax) {
			f.WindSpeedMax = d.WindSpeed10mMax[i]
		}
		if i < len(d.WindGusts10mMax) {
			f.WindGustMax = d.WindGusts10mMax[i]
		}
		forecasts = append(forecasts, f)
	}
	return forecasts
}
