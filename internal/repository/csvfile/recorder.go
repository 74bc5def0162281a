package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Nazarious-ucu/city-data-reporter/internal/models"
)

const (
	fileMode   = 0o644
	tracerName = "city-data-reporter/csvfile"
)

// Header is the first line of every file written by Recorder.
var Header = []string{"city", "temperature", "humidity", "description"}

// Recorder appends weather records to a flat CSV file and reads them back.
// It keeps no handle open between calls.
type Recorder struct {
	path   string
	logger zerolog.Logger
}

func NewRecorder(path string, logger zerolog.Logger) *Recorder {
	return &Recorder{path: filepath.Clean(path), logger: logger}
}

func (r *Recorder) Path() string {
	return r.path
}

// Append writes rec as one row, preceded by the header when the file is new
// or empty.
func (r *Recorder) Append(ctx context.Context, rec models.WeatherRecord) (err error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "csvfile.Append")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "append failed")
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("file", r.path), attribute.String("city", rec.City))

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, fileMode)
	if err != nil {
		return fmt.Errorf("%w: open %s for append: %w", models.ErrIO, r.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", models.ErrIO, r.path, cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", models.ErrIO, r.path, err)
	}

	w := csv.NewWriter(f)
	writeHeader := info.Size() == 0
	if writeHeader {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("%w: write header: %w", models.ErrIO, err)
		}
	}
	if err := w.Write(toRow(rec)); err != nil {
		return fmt.Errorf("%w: write row: %w", models.ErrIO, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush %s: %w", models.ErrIO, r.path, err)
	}

	r.logger.Debug().
		Str("file", r.path).
		Str("city", rec.City).
		Bool("header", writeHeader).
		Msg("row appended")
	return nil
}

// ReadAll returns every record in file order. A missing file has no records.
func (r *Recorder) ReadAll(ctx context.Context) ([]models.WeatherRecord, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "csvfile.ReadAll")
	defer span.End()

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: open %s for read: %w", models.ErrIO, r.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.Error().Err(cerr).Str("file", r.path).Msg("failed to close file")
		}
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(Header)

	var records []models.WeatherRecord
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", models.ErrIO, r.path, err)
		}
		if line == 1 {
			continue
		}

		rec, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %w", models.ErrIO, r.path, line, err)
		}
		records = append(records, rec)
	}

	span.SetAttributes(attribute.Int("rows", len(records)))
	return records, nil
}

// Stats reads the whole file and aggregates it. Duplicate cities count as
// separate entries.
func (r *Recorder) Stats(ctx context.Context) (models.Stats, error) {
	records, err := r.ReadAll(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return Aggregate(records), nil
}

func Aggregate(records []models.WeatherRecord) models.Stats {
	stats := models.Stats{Count: len(records), Entries: records}
	if len(records) == 0 {
		return stats
	}

	var sum float64
	for _, rec := range records {
		sum += rec.Temperature
	}
	stats.Average = sum / float64(len(records))
	return stats
}

func toRow(rec models.WeatherRecord) []string {
	return []string{
		rec.City,
		strconv.FormatFloat(rec.Temperature, 'f', -1, 64),
		strconv.Itoa(rec.Humidity),
		rec.Description,
	}
}

func fromRow(row []string) (models.WeatherRecord, error) {
	temp, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return models.WeatherRecord{}, fmt.Errorf("temperature %q: %w", row[1], err)
	}
	humidity, err := strconv.Atoi(row[2])
	if err != nil {
		return models.WeatherRecord{}, fmt.Errorf("humidity %q: %w", row[2], err)
	}
	return models.WeatherRecord{
		City:        row[0],
		Temperature: temp,
		Humidity:    humidity,
		Description: row[3],
	}, nil
}
