package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type OpenWeatherMap struct {
	APIKey string `envconfig:"OPEN_WEATHER_MAP_API_KEY"`
	URL    string `envconfig:"OPEN_WEATHER_MAP_URL" default:"https://api.openweathermap.org/data/2.5/weather"`
	// RequestTimeout is in seconds.
	RequestTimeout int `envconfig:"REQUEST_TIMEOUT" default:"10"`
}

type Log struct {
	Path     string `envconfig:"LOGS_PATH" default:"./log/city-data-reporter.log"`
	HTTPPath string `envconfig:"HTTP_LOGS_PATH" default:"./log/http.log"`
	Level    string `envconfig:"LOG_LEVEL" default:"warn"`
}

type Config struct {
	OpenWeatherMap OpenWeatherMap
	Log            Log

	CSVFile         string `envconfig:"CSV_FILE" default:"city_data.csv"`
	MetricsTextfile string `envconfig:"METRICS_TEXTFILE"`
	CollectorURL    string `envconfig:"OTEL_COLLECTOR_URL"`
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.OpenWeatherMap.RequestTimeout) * time.Second
}
