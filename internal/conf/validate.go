package conf

import (
	"github.com/pjbaur/pota-assistant/internal/errors"
)

// ValidateSettings checks the loaded settings for values that would break the
// engine at runtime.
func ValidateSettings(settings *Settings) error {
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return errors.Newf("no storage backend enabled").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Suggestion("enable output.sqlite or output.mysql in config.yaml").
			Build()
	}

	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return errors.Newf("sqlite enabled but no database path configured").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("field", "output.sqlite.path").
			Build()
	}

	if settings.Sync.Timeout <= 0 {
		return errors.Newf("sync timeout must be positive: %d", settings.Sync.Timeout).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("field", "sync.timeout").
			Build()
	}

	if settings.Weather.CacheTTL <= 0 {
		return errors.Newf("weather cache TTL must be positive: %d", settings.Weather.CacheTTL).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("field", "weather.cachettl").
			Build()
	}

	if settings.Import.BatchSize <= 0 {
		return errors.Newf("import batch size must be positive: %d", settings.Import.BatchSize).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("field", "import.batchsize").
			Build()
	}

	if lat := settings.Node.Latitude; lat < -90 || lat > 90 {
		return errors.Newf("node latitude out of range: %f", lat).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("field", "node.latitude").
			Build()
	}
	if lon := settings.Node.Longitude; lon < -180 || lon > 180 {
		return errors.Newf("node longitude out of range: %f", lon).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("field", "node.longitude").
			Build()
	}

	return nil
}
