// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"math"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/pjbaur/pota-assistant/internal/conf"
)

// Interface abstracts the underlying database implementation and defines the
// operations the engine performs against the local store.
type Interface interface {
	Open() error
	Close() error

	// parks
	GetPark(reference string) (*Park, error)
	SearchParks(query string, filters ParkFilters, limit int) ([]Park, int64, error)
	SavePark(park *Park) error
	SaveParkBatch(parks []Park) (int, error)
	CountParks() (int64, error)
	LastParkSync() (*time.Time, error)

	// plans
	CreatePlan(plan *Plan) error
	GetPlan(id uint) (*Plan, error)
	ListPlans(status string) ([]Plan, error)
	UpdatePlan(id uint, update *PlanUpdate) (*Plan, error)
	DeletePlan(id uint) error

	// forecast cache
	GetForecastCache(latQ, lonQ, date string) (*ForecastCache, error)
	SaveForecastCache(entry *ForecastCache) error
	GetForecastCacheRange(latQ, lonQ, startDate, endDate string) ([]ForecastCache, error)
	DeleteExpiredForecasts(now time.Time) (int64, error)
}

// ParkFilters narrows a park search. Zero values mean "no filter".
type ParkFilters struct {
	LocationCode string // equality match, case-insensitive
	ParkType     string // equality match, case-insensitive
	ActiveOnly   bool
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new store instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		// conf.ValidateSettings rejects configs with no backend enabled
		return nil
	}
}

// QuantizeCoordinate rounds a coordinate to 4 decimal places (~11 m) and
// formats it as the string used in forecast cache keys, so that near-duplicate
// floating-point inputs collapse to the same key.
func QuantizeCoordinate(v float64) string {
	return strconv.FormatFloat(math.Round(v*10000)/10000, 'f', 4, 64)
}
