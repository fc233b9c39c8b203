// Package syncer decides when the local park dataset needs a refresh and
// performs the fetch-normalize-store pipeline.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pjbaur/pota-assistant/internal/conf"
	"github.com/pjbaur/pota-assistant/internal/datastore"
	"github.com/pjbaur/pota-assistant/internal/errors"
	"github.com/pjbaur/pota-assistant/internal/gridsquare"
	"github.com/pjbaur/pota-assistant/internal/logging"
	"github.com/pjbaur/pota-assistant/internal/pota"
)

// Package-level logger specific to the syncer service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "sync.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "syncer", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize sync file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "syncer")
		closeLogger = func() error { return nil }
	}
}

// ParkFetcher is the narrow contract the coordinator needs from the remote
// dataset client.
type ParkFetcher interface {
	FetchAllParks(ctx context.Context, program string) ([]pota.ParkRecord, error)
	FetchPark(ctx context.Context, reference string) (*pota.ParkRecord, error)
}

// Options controls one sync invocation.
type Options struct {
	Force  bool   // refetch regardless of the cooldown
	Region string // optional case-insensitive region filter
}

// Result reports what a sync invocation did.
type Result struct {
	Refreshed bool   // whether a remote fetch took place
	Count     int    // parks persisted by this invocation
	Total     int64  // parks now in the store
	Advisory  string // set when the sync was skipped
}

// Coordinator owns the resync and staleness policy for the park dataset.
type Coordinator struct {
	fetcher  ParkFetcher
	db       datastore.Interface
	settings *conf.Settings
	now      func() time.Time // injectable clock for policy tests
}

// New creates a sync coordinator.
func New(settings *conf.Settings, db datastore.Interface, fetcher ParkFetcher) *Coordinator {
	return &Coordinator{
		fetcher:  fetcher,
		db:       db,
		settings: settings,
		now:      time.Now,
	}
}

// Sync refreshes the local park dataset when forced or when the cooldown has
// elapsed since the last write. A skipped sync is a success carrying an
// advisory; no network call is made.
func (c *Coordinator) Sync(ctx context.Context, opts Options) (*Result, error) {
	refetch, advisory, err := c.needsResync(opts.Force)
	if err != nil {
		return nil, err
	}
	if !refetch {
		total, err := c.db.CountParks()
		if err != nil {
			return nil, err
		}
		logger.Info("Sync skipped", "advisory", advisory, "total", total)
		return &Result{Total: total, Advisory: advisory}, nil
	}

	records, err := c.fetcher.FetchAllParks(ctx, c.settings.Sync.Program)
	if err != nil {
		// No automatic retry; surface the fetcher's message with suggestions.
		return nil, errors.New(err).
			Component("syncer").
			Category(errors.CategoryOf(err)).
			Context("program", c.settings.Sync.Program).
			Suggestion("check network connectivity", "retry with 'pota sync --force'").
			Build()
	}

	region := opts.Region
	if region == "" {
		region = c.settings.Sync.Region
	}

	parks := make([]datastore.Park, 0, len(records))
	for i := range records {
		if region != "" && !matchesRegion(&records[i], region) {
			continue
		}
		parks = append(parks, NormalizeRecord(&records[i]))
	}

	count, err := c.db.SaveParkBatch(parks)
	if err != nil {
		return nil, err
	}

	total, err := c.db.CountParks()
	if err != nil {
		return nil, err
	}

	logger.Info("Sync complete",
		"fetched", len(records),
		"persisted", count,
		"region", region,
		"total", total)

	return &Result{Refreshed: true, Count: count, Total: total}, nil
}

// LookupPark returns a park by reference, checking the local store first and
// falling back to a single-record remote fetch. A park absent both locally
// and remotely returns (nil, nil).
func (c *Coordinator) LookupPark(ctx context.Context, reference string) (*datastore.Park, error) {
	park, err := c.db.GetPark(reference)
	if err != nil {
		return nil, err
	}
	if park != nil {
		return park, nil
	}

	record, err := c.fetcher.FetchPark(ctx, datastore.NormalizeReference(reference))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	normalized := NormalizeRecord(record)
	if err := c.db.SavePark(&normalized); err != nil {
		return nil, err
	}

	logger.Debug("Park fetched remotely and cached", "reference", normalized.Reference)
	return &normalized, nil
}

// StalenessAdvisory returns a human-readable advisory when the dataset is
// older than the staleness threshold, a distinct "no data" advisory when
// nothing has ever been synced, and "" when the data is fresh enough.
// Read paths attach the advisory without blocking on it.
func (c *Coordinator) StalenessAdvisory() (string, error) {
	last, err := c.db.LastParkSync()
	if err != nil {
		return "", err
	}
	if last == nil {
		return "no park data available, run 'pota sync' to download the dataset", nil
	}

	thresholdDays := c.settings.Sync.StalenessDays
	if thresholdDays <= 0 {
		thresholdDays = conf.DefaultStalenessDays
	}

	age := c.now().Sub(*last)
	ageDays := int(age.Hours() / 24)
	if ageDays >= thresholdDays {
		return fmt.Sprintf("park data is %d days old, consider running 'pota sync'", ageDays), nil
	}
	return "", nil
}

// needsResync applies the cooldown policy: refetch on force, on an empty
// store, or when the cooldown has elapsed since the last write.
func (c *Coordinator) needsResync(force bool) (bool, string, error) {
	if force {
		return true, "", nil
	}

	last, err := c.db.LastParkSync()
	if err != nil {
		return false, "", err
	}
	if last == nil {
		return true, "", nil
	}

	cooldownHours := c.settings.Sync.CooldownHours
	if cooldownHours <= 0 {
		cooldownHours = conf.DefaultCooldownHours
	}
	cooldown := time.Duration(cooldownHours) * time.Hour

	elapsed := c.now().Sub(*last)
	if elapsed >= cooldown {
		return true, "", nil
	}

	advisory := fmt.Sprintf("data synced %s ago, within the %s cooldown; use --force to refetch",
		elapsed.Round(time.Minute), cooldown)
	return false, advisory, nil
}

// NormalizeRecord converts a wire record into the store's upsert shape,
// deriving the grid square when the source omits it and building the
// canonical detail URL from the reference.
func NormalizeRecord(record *pota.ParkRecord) datastore.Park {
	reference := datastore.NormalizeReference(record.Reference)

	grid := record.Grid
	if grid == "" {
		if derived, err := gridsquare.FromCoordinates(record.Latitude, record.Longitude); err == nil {
			grid = derived
		}
	}

	sourceURL := record.Website
	if sourceURL == "" {
		sourceURL = fmt.Sprintf("https://pota.app/#/park/%s", reference)
	}

	metadata, _ := json.Marshal(record)

	return datastore.Park{
		Reference:    reference,
		Name:         record.Name,
		Latitude:     record.Latitude,
		Longitude:    record.Longitude,
		GridSquare:   grid,
		LocationCode: record.LocationDesc,
		EntityName:   record.EntityName,
		LocationName: record.LocationName,
		ParkType:     record.ParkTypeDesc,
		Active:       record.Active != 0,
		SourceURL:    sourceURL,
		Metadata:     string(metadata),
	}
}

// matchesRegion performs a case-insensitive match against the record's
// country, region and state fields.
func matchesRegion(record *pota.ParkRecord, region string) bool {
	needle := strings.ToLower(strings.TrimSpace(region))
	if needle == "" {
		return true
	}
	for _, field := range []string{record.EntityName, record.LocationName, record.LocationDesc} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
