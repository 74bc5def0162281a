package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/city-data-reporter/internal/config"
	"github.com/Nazarious-ucu/city-data-reporter/internal/models"
	metricsSvc "github.com/Nazarious-ucu/city-data-reporter/internal/services/metrics"
)

const (
	testAPIKey = "secret-key-open-weather"

	parisResponse = `{
		"name": "Paris",
		"main": {"temp": 18.5, "feels_like": 17.9, "pressure": 1015, "humidity": 60},
		"weather": [{"main": "Clear", "description": "clear sky"}]
	}`
)

type fakeProvider struct {
	*httptest.Server
	hits atomic.Int32
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	p := &fakeProvider{}
	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.hits.Add(1)
		key := r.URL.Query().Get("appid")
		city := r.URL.Query().Get("q")

		if key != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key."}`))
			return
		}
		if city != "Paris" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(parisResponse))
	}))
	t.Cleanup(p.Close)
	return p
}

func testConfig(t *testing.T, providerURL string) config.Config {
	t.Helper()
	dir := t.TempDir()

	return config.Config{
		OpenWeatherMap: config.OpenWeatherMap{
			APIKey:         testAPIKey,
			URL:            providerURL,
			RequestTimeout: 5,
		},
		Log:     config.Log{HTTPPath: filepath.Join(dir, "log", "http.log")},
		CSVFile: filepath.Join(dir, "city_data.csv"),
	}
}

func runApp(t *testing.T, cfg config.Config, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := New(cfg, zerolog.Nop(), metricsSvc.NewMetrics(), strings.NewReader(input), &out).
		Run(context.Background())
	return out.String(), err
}

func TestRun_EndToEnd(t *testing.T) {
	provider := newFakeProvider(t)
	cfg := testConfig(t, provider.URL)

	out, err := runApp(t, cfg, "Paris\n")
	require.NoError(t, err)

	assert.Contains(t, out, "Weather for Paris: clear sky | Temp: 18.5°C | Humidity: 60%")
	assert.Contains(t, out, "Entries in city_data.csv: 1")
	assert.Contains(t, out, " - Paris: 18.5°C")
	assert.Contains(t, out, "Average temperature: 18.5°C")

	data, err := os.ReadFile(cfg.CSVFile)
	require.NoError(t, err)
	assert.Equal(t, "city,temperature,humidity,description\nParis,18.5,60,clear sky\n", string(data))
	assert.Equal(t, int32(1), provider.hits.Load())
}

func TestRun_HeaderWrittenOnceAcrossRuns(t *testing.T) {
	provider := newFakeProvider(t)
	cfg := testConfig(t, provider.URL)

	_, err := runApp(t, cfg, "Paris\n")
	require.NoError(t, err)
	out, err := runApp(t, cfg, "  paris \n")
	require.NoError(t, err)

	assert.Contains(t, out, "Entries in city_data.csv: 2")

	data, err := os.ReadFile(cfg.CSVFile)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "city,temperature,humidity,description"))
	assert.Equal(t, 2, strings.Count(string(data), "Paris,18.5,60,clear sky"))
}

func TestRun_EmptyInputMakesNoRequest(t *testing.T) {
	provider := newFakeProvider(t)
	cfg := testConfig(t, provider.URL)

	_, err := runApp(t, cfg, "   \n\t\n")
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, ExitValidation, ExitCode(err))

	assert.Equal(t, int32(0), provider.hits.Load())
	assert.NoFileExists(t, cfg.CSVFile)
}

func TestRun_UnknownCityAppendsNothing(t *testing.T) {
	provider := newFakeProvider(t)
	cfg := testConfig(t, provider.URL)

	out, err := runApp(t, cfg, "Atlantis\n")
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, ExitNotFound, ExitCode(err))
	assert.Contains(t, Message(err), "Atlantis")

	assert.NotContains(t, out, "Weather for")
	assert.NoFileExists(t, cfg.CSVFile)
}

func TestRun_InvalidAPIKey(t *testing.T) {
	provider := newFakeProvider(t)
	cfg := testConfig(t, provider.URL)
	cfg.OpenWeatherMap.APIKey = "wrong"

	_, err := runApp(t, cfg, "Paris\n")
	require.ErrorIs(t, err, models.ErrCredential)
	assert.Equal(t, ExitCredential, ExitCode(err))
	assert.NoFileExists(t, cfg.CSVFile)
}

func TestRun_PromptsForMissingAPIKey(t *testing.T) {
	provider := newFakeProvider(t)
	cfg := testConfig(t, provider.URL)
	cfg.OpenWeatherMap.APIKey = ""

	out, err := runApp(t, cfg, testAPIKey+"\nParis\n")
	require.NoError(t, err)

	assert.Contains(t, out, "No OPEN_WEATHER_MAP_API_KEY found in environment.")
	assert.Contains(t, out, "Entries in city_data.csv: 1")
}

func TestRun_MissingAPIKeyWithoutAnswer(t *testing.T) {
	provider := newFakeProvider(t)
	cfg := testConfig(t, provider.URL)
	cfg.OpenWeatherMap.APIKey = ""

	_, err := runApp(t, cfg, "\n")
	require.ErrorIs(t, err, models.ErrCredential)
	assert.Equal(t, int32(0), provider.hits.Load())
}

func TestRun_ProviderUnreachable(t *testing.T) {
	provider := newFakeProvider(t)
	cfg := testConfig(t, provider.URL)
	provider.Close()

	_, err := runApp(t, cfg, "Paris\n")
	require.ErrorIs(t, err, models.ErrNetwork)
	assert.Equal(t, ExitNetwork, ExitCode(err))
	assert.NotContains(t, Message(err), testAPIKey)
	assert.NoFileExists(t, cfg.CSVFile)
}

func TestRun_UnwritableFile(t *testing.T) {
	provider := newFakeProvider(t)
	cfg := testConfig(t, provider.URL)
	cfg.CSVFile = filepath.Join(t.TempDir(), "no-such-dir", "city_data.csv")

	out, err := runApp(t, cfg, "Paris\n")
	require.ErrorIs(t, err, models.ErrIO)
	assert.Equal(t, ExitIO, ExitCode(err))
	assert.Contains(t, out, "Weather for Paris")
}

func TestRun_WritesMetricsTextfile(t *testing.T) {
	provider := newFakeProvider(t)
	cfg := testConfig(t, provider.URL)
	cfg.MetricsTextfile = filepath.Join(t.TempDir(), "reporter.prom")

	_, err := runApp(t, cfg, "Paris\n")
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `city_data_reporter_weather_fetch_total{outcome="success"} 1`)
	assert.Contains(t, string(data), "city_data_reporter_rows_in_file 1")
}

func TestRun_LogsHTTPTrafficWithoutKey(t *testing.T) {
	provider := newFakeProvider(t)
	cfg := testConfig(t, provider.URL)

	_, err := runApp(t, cfg, "Paris\n")
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Log.HTTPPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "HTTP request completed")
	assert.NotContains(t, string(data), testAPIKey)
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("network is unreachable")
}

func TestRun_TransportFailure(t *testing.T) {
	cfg := testConfig(t, "https://api.openweathermap.org/data/2.5/weather")

	var out bytes.Buffer
	err := New(cfg, zerolog.Nop(), metricsSvc.NewMetrics(), strings.NewReader("Paris\n"), &out).
		WithTransport(failingTransport{}).
		Run(context.Background())

	require.ErrorIs(t, err, models.ErrNetwork)
	assert.Contains(t, Message(err), "network is unreachable")
	assert.NotContains(t, Message(err), testAPIKey)
	assert.NoFileExists(t, cfg.CSVFile)
}

func TestRun_InterruptedAtPrompt(t *testing.T) {
	provider := newFakeProvider(t)
	cfg := testConfig(t, provider.URL)

	pr, pw := io.Pipe()
	t.Cleanup(func() {
		_ = pw.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	var out bytes.Buffer
	err := New(cfg, zerolog.Nop(), metricsSvc.NewMetrics(), pr, &out).Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Interrupted.", Message(err))
	assert.Zero(t, provider.hits.Load())
	assert.NoFileExists(t, cfg.CSVFile)
}
