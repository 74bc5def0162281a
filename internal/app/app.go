package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Nazarious-ucu/city-data-reporter/internal/config"
	"github.com/Nazarious-ucu/city-data-reporter/internal/models"
	"github.com/Nazarious-ucu/city-data-reporter/internal/repository/csvfile"
	"github.com/Nazarious-ucu/city-data-reporter/internal/services/input"
	loggerT "github.com/Nazarious-ucu/city-data-reporter/internal/services/logger"
	metricsSvc "github.com/Nazarious-ucu/city-data-reporter/internal/services/metrics"
	"github.com/Nazarious-ucu/city-data-reporter/internal/services/report"
	serviceWeather "github.com/Nazarious-ucu/city-data-reporter/internal/services/weather"
	fLogger "github.com/Nazarious-ucu/city-data-reporter/pkg/logger"
)

const tracerName = "city-data-reporter/app"

type recorder interface {
	Append(ctx context.Context, rec models.WeatherRecord) error
	Stats(ctx context.Context) (models.Stats, error)
	Path() string
}

// ServiceContainer holds the dependencies of a single run.
type ServiceContainer struct {
	Prompter       *input.Prompter
	WeatherService *serviceWeather.Service
	Recorder       recorder

	fileLogger *zap.Logger
}

// App runs the prompt, fetch, print and record sequence once.
type App struct {
	cfg config.Config
	l   zerolog.Logger
	m   *metricsSvc.Metrics

	in  io.Reader
	out io.Writer

	// transport is the innermost HTTP transport; nil means http.DefaultTransport.
	transport http.RoundTripper
}

// New prepares an App reading answers from in and printing to out.
func New(cfg config.Config, logger zerolog.Logger, met *metricsSvc.Metrics, in io.Reader, out io.Writer) *App {
	return &App{
		cfg: cfg,
		l:   logger,
		m:   met,
		in:  in,
		out: out,
	}
}

// WithTransport replaces the transport used to reach the provider.
func (a *App) WithTransport(rt http.RoundTripper) *App {
	a.transport = rt
	return a
}

// Run executes one full cycle. On any fetch failure nothing is appended.
func (a *App) Run(ctx context.Context) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "reporter.Run")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, serviceWeather.Outcome(err))
		}
		span.End()
	}()

	prompter := input.NewPrompter(a.in, a.out, a.l)

	apiKey, err := a.resolveAPIKey(ctx, prompter)
	if err != nil {
		return err
	}

	srv := a.init(prompter, apiKey)
	defer a.shutdown(srv)

	city, err := srv.Prompter.ReadCity(ctx)
	if err != nil {
		return err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout())
	defer cancel()

	record, err := srv.WeatherService.GetByCity(fetchCtx, city)
	if err != nil {
		return err
	}

	if err := report.PrintSummary(a.out, record); err != nil {
		return err
	}

	if err := srv.Recorder.Append(ctx, record); err != nil {
		a.l.Error().Err(err).Str("file", srv.Recorder.Path()).Msg("failed to append record")
		return err
	}

	stats, err := srv.Recorder.Stats(ctx)
	if err != nil {
		a.l.Error().Err(err).Str("file", srv.Recorder.Path()).Msg("failed to read records")
		return err
	}

	a.l.Info().
		Str("city", record.City).
		Int("rows", stats.Count).
		Msg("run completed")

	return report.PrintStats(a.out, srv.Recorder.Path(), stats)
}

func (a *App) resolveAPIKey(ctx context.Context, prompter *input.Prompter) (string, error) {
	if a.cfg.OpenWeatherMap.APIKey != "" {
		return a.cfg.OpenWeatherMap.APIKey, nil
	}

	a.l.Debug().Msg("no API key in environment, asking the user")
	if _, err := fmt.Fprintln(a.out, "No OPEN_WEATHER_MAP_API_KEY found in environment."); err != nil {
		return "", err
	}
	return prompter.ReadAPIKey(ctx)
}

// init builds the provider client and the recorder. The only I/O is
// opening the HTTP log file.
func (a *App) init(prompter *input.Prompter, apiKey string) ServiceContainer {
	fileLogger, err := fLogger.NewFileLogger(a.cfg.Log.HTTPPath)
	if err != nil {
		a.l.Warn().Err(err).Str("path", a.cfg.Log.HTTPPath).Msg("failed to create HTTP file logger, HTTP logging disabled")
		fileLogger = zap.NewNop()
	}

	httpLogClient := &http.Client{Transport: loggerT.NewRoundTripper(fileLogger, a.transport)}

	openWeather := serviceWeather.NewClientOpenWeatherMap(apiKey, a.cfg.OpenWeatherMap.URL, httpLogClient, a.l)

	return ServiceContainer{
		Prompter:       prompter,
		WeatherService: serviceWeather.NewService(a.l, openWeather, a.m),
		Recorder:       csvfile.NewMetricsDecorator(csvfile.NewRecorder(a.cfg.CSVFile, a.l), a.m),
		fileLogger:     fileLogger,
	}
}

func (a *App) shutdown(srv ServiceContainer) {
	if err := srv.fileLogger.Sync(); err != nil {
		a.l.Debug().Err(err).Msg("failed to sync file logger")
	}

	if err := a.m.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
		a.l.Warn().Err(err).Str("path", a.cfg.MetricsTextfile).Msg("failed to write metrics textfile")
	}
}
