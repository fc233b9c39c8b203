// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Default policy values referenced outside the config layer.
const (
	DefaultSyncTimeout    = 30 // seconds, bulk dataset fetch
	DefaultHealthTimeout  = 5  // seconds, lightweight health checks
	DefaultCooldownHours  = 1
	DefaultStalenessDays  = 30
	DefaultCacheTTL       = 60 // minutes
	DefaultForecastDays   = 7
	DefaultImportBatch    = 1000
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("node.callsign", "N0CALL")
	viper.SetDefault("node.latitude", 0.000)
	viper.SetDefault("node.longitude", 0.000)

	viper.SetDefault("sync.endpoint", "https://api.pota.app")
	viper.SetDefault("sync.program", "ALL")
	viper.SetDefault("sync.region", "")
	viper.SetDefault("sync.timeout", DefaultSyncTimeout)
	viper.SetDefault("sync.cooldownhours", DefaultCooldownHours)
	viper.SetDefault("sync.stalenessdays", DefaultStalenessDays)

	viper.SetDefault("weather.endpoint", "https://api.open-meteo.com/v1/forecast")
	viper.SetDefault("weather.units", "metric")
	viper.SetDefault("weather.cachettl", DefaultCacheTTL)
	viper.SetDefault("weather.forecastdays", DefaultForecastDays)
	viper.SetDefault("weather.timeout", DefaultSyncTimeout)

	viper.SetDefault("import.batchsize", DefaultImportBatch)
	viper.SetDefault("import.strict", false)
	viper.SetDefault("import.verbose", false)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "pota.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "pota")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "pota")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
