package datastore

import (
	"log"
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pjbaur/pota-assistant/internal/logging"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow. One second accommodates migration batch queries.
const DefaultSlowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             DefaultSlowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// migration is one step of the ordered schema evolution list. Each step runs
// in its own transaction and is recorded in schema_migrations when it
// succeeds, so re-running the list is idempotent.
type migration struct {
	id  string
	run func(tx *gorm.DB) error
}

// migrationList is ordered; append only, never reorder released entries.
var migrationList = []migration{
	{
		id: "0001_create_parks",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&Park{})
		},
	},
	{
		id: "0002_create_plans",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&Plan{})
		},
	},
	{
		id: "0003_create_forecast_cache",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&ForecastCache{})
		},
	},
}

// runMigrations applies every unapplied migration in order. The bookkeeping
// table itself is created first via AutoMigrate.
func runMigrations(db *gorm.DB, dbType string) error {
	logger := migrationLogger()

	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return dbError(err, "migrate_schema_migrations", "db_type", dbType)
	}

	for _, m := range migrationList {
		var applied int64
		if err := db.Model(&SchemaMigration{}).Where("id = ?", m.id).Count(&applied).Error; err != nil {
			return dbError(err, "check_migration", "migration_id", m.id, "db_type", dbType)
		}
		if applied > 0 {
			continue
		}

		logger.Info("Applying migration", "migration_id", m.id, "db_type", dbType)

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.run(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{ID: m.id, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return dbError(err, "apply_migration", "migration_id", m.id, "db_type", dbType)
		}
	}

	return nil
}

// migrationLogger returns the datastore service logger, falling back to the
// process default when logging has not been initialized (tests).
func migrationLogger() *slog.Logger {
	if l := logging.ForService("datastore"); l != nil {
		return l
	}
	return slog.Default().With("service", "datastore")
}
