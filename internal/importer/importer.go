// Package importer loads park datasets from delimited files into the store.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pjbaur/pota-assistant/internal/conf"
	"github.com/pjbaur/pota-assistant/internal/datastore"
	"github.com/pjbaur/pota-assistant/internal/errors"
	"github.com/pjbaur/pota-assistant/internal/logging"
	"github.com/pjbaur/pota-assistant/internal/pota"
	"github.com/pjbaur/pota-assistant/internal/syncer"
)

// Package-level logger specific to the importer service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "import.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "importer", serviceLevelVar)
	if err != nil {
		// Fallback: disabled handler that still respects the level var
		log.Printf("Failed to initialize importer file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "importer")
		closeLogger = func() error { return nil }
	}
}

// Column layout of the park dataset export. The first four columns are
// required; the rest default to empty when a row is short.
const (
	colReference = iota
	colName
	colLatitude
	colLongitude
	colGrid
	colLocationDesc
	colLocationName
	colEntityName
	colParkType
	colActive

	minColumns = colLongitude + 1
)

// Options controls a single import run.
type Options struct {
	Path      string             // source file, required
	BatchSize int                // rows per transaction, 0 uses the default
	Strict    bool               // abort on the first invalid row
	Verbose   bool               // include placeholder-coordinate warnings
	Progress  func(imported int) // invoked after every committed batch
}

// Result summarizes a completed import.
type Result struct {
	Imported int
	Skipped  int
	Warnings []string
	Duration time.Duration
}

// Importer streams delimited park records into the datastore in batches.
type Importer struct {
	db datastore.Interface
}

// New creates an importer writing through the given store.
func New(db datastore.Interface) *Importer {
	return &Importer{db: db}
}

// Run imports the file at opts.Path. The file is read row by row and never
// buffered whole. Each full batch is committed in its own transaction, so a
// failure partway through leaves earlier batches persisted; re-running the
// import is safe because the store upserts on reference.
func (im *Importer) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	if opts.BatchSize <= 0 {
		opts.BatchSize = conf.DefaultImportBatch
	}

	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, errors.New(err).
			Component("importer").
			Category(errors.CategoryFileIO).
			Context("path", opts.Path).
			Suggestion("verify the file path exists and is readable").
			Build()
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // rows may omit trailing columns
	reader.TrimLeadingSpace = true

	// Header row is consumed without emission.
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, errors.Newf("file %s is empty", opts.Path).
				Component("importer").
				Category(errors.CategoryFileParsing).
				Suggestion("expected a header row followed by park records").
				Build()
		}
		return nil, parseError(err, opts.Path)
	}

	logger.Info("Starting import",
		"path", opts.Path,
		"batch_size", opts.BatchSize,
		"strict", opts.Strict)

	result := &Result{}
	batch := make([]datastore.Park, 0, opts.BatchSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(err).
				Component("importer").
				Category(errors.CategoryTimeout).
				Context("imported", result.Imported).
				Build()
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv.ParseError already cites the input line.
			warning := fmt.Sprintf("%v", err)
			if skipErr := im.handleInvalid(opts, result, warning); skipErr != nil {
				return nil, skipErr
			}
			continue
		}

		line, _ := reader.FieldPos(0)

		record, warning, ok := parseRow(row, line)
		if !ok {
			if skipErr := im.handleInvalid(opts, result, warning); skipErr != nil {
				return nil, skipErr
			}
			continue
		}
		if warning != "" && opts.Verbose {
			result.Warnings = append(result.Warnings, warning)
		}

		batch = append(batch, syncer.NormalizeRecord(record))
		if len(batch) >= opts.BatchSize {
			if err := im.commit(batch, result, opts.Progress); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}

	// Final partial batch.
	if len(batch) > 0 {
		if err := im.commit(batch, result, opts.Progress); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	logger.Info("Import complete",
		"imported", result.Imported,
		"skipped", result.Skipped,
		"warnings", len(result.Warnings),
		"duration_ms", result.Duration.Milliseconds())
	return result, nil
}

// handleInvalid records a validation failure. In strict mode it converts the
// warning into an abort error; in lenient mode it counts a skip.
func (im *Importer) handleInvalid(opts Options, result *Result, warning string) error {
	if opts.Strict {
		return errors.Newf("import aborted: %s", warning).
			Component("importer").
			Category(errors.CategoryValidation).
			Context("path", opts.Path).
			Suggestion("fix the failing row or rerun without --strict to skip invalid rows").
			Build()
	}
	result.Skipped++
	result.Warnings = append(result.Warnings, warning)
	logger.Debug("Skipping invalid row", "warning", warning)
	return nil
}

// commit writes one batch transactionally and reports progress.
func (im *Importer) commit(batch []datastore.Park, result *Result, progress func(int)) error {
	count, err := im.db.SaveParkBatch(batch)
	if err != nil {
		return errors.New(err).
			Component("importer").
			Category(errors.CategoryDatabase).
			Context("imported_before_failure", result.Imported).
			Suggestion("earlier batches are already persisted; rerunning the import is safe").
			Build()
	}
	result.Imported += count
	if progress != nil {
		progress(result.Imported)
	}
	return nil
}

// parseRow validates one data row. It returns the parsed record, an optional
// soft warning, and whether the row is importable. A failed validation
// returns ok=false with the warning describing the failing line.
func parseRow(row []string, line int) (record *pota.ParkRecord, warning string, ok bool) {
	if len(row) < minColumns {
		return nil, fmt.Sprintf("line %d: expected at least %d columns, got %d", line, minColumns, len(row)), false
	}

	reference := strings.TrimSpace(row[colReference])
	name := strings.TrimSpace(row[colName])
	if reference == "" {
		return nil, fmt.Sprintf("line %d: blank park reference", line), false
	}
	if name == "" {
		return nil, fmt.Sprintf("line %d: blank park name for %s", line, reference), false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(row[colLatitude]), 64)
	if err != nil {
		return nil, fmt.Sprintf("line %d: invalid latitude %q for %s", line, row[colLatitude], reference), false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(row[colLongitude]), 64)
	if err != nil {
		return nil, fmt.Sprintf("line %d: invalid longitude %q for %s", line, row[colLongitude], reference), false
	}
	if lat < -90 || lat > 90 {
		return nil, fmt.Sprintf("line %d: latitude %.4f out of range for %s", line, lat, reference), false
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Sprintf("line %d: longitude %.4f out of range for %s", line, lon, reference), false
	}
	if lat == 0 && lon == 0 {
		// Valid but suspicious; surfaced only in verbose mode.
		warning = fmt.Sprintf("line %d: coordinates (0,0) for %s look like a placeholder", line, reference)
	}

	record = &pota.ParkRecord{
		Reference: reference,
		Name:      name,
		Latitude:  lat,
		Longitude: lon,
		Grid:      strings.TrimSpace(field(row, colGrid)),
		Active:    1,
	}
	record.LocationDesc = strings.TrimSpace(field(row, colLocationDesc))
	record.LocationName = strings.TrimSpace(field(row, colLocationName))
	record.EntityName = strings.TrimSpace(field(row, colEntityName))
	record.ParkTypeDesc = strings.TrimSpace(field(row, colParkType))
	if active := strings.TrimSpace(field(row, colActive)); active != "" {
		if v, err := strconv.Atoi(active); err == nil {
			record.Active = v
		}
	}
	return record, warning, true
}

// field returns row[idx] or "" when the row is too short.
func field(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func parseError(err error, path string) error {
	return errors.New(err).
		Component("importer").
		Category(errors.CategoryFileParsing).
		Context("path", path).
		Suggestion("check that the file is a valid comma-delimited park export").
		Build()
}
