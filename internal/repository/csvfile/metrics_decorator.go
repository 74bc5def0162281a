package csvfile

import (
	"context"

	"github.com/Nazarious-ucu/city-data-reporter/internal/models"
)

type recorder interface {
	Append(ctx context.Context, rec models.WeatherRecord) error
	Stats(ctx context.Context) (models.Stats, error)
	Path() string
}

type metricsCollector interface {
	ObserveAppend()
	SetRowsInFile(n int)
}

// MetricsDecorator counts appended rows and tracks the file size in rows.
type MetricsDecorator struct {
	next      recorder
	collector metricsCollector
}

func NewMetricsDecorator(next recorder, collector metricsCollector) *MetricsDecorator {
	return &MetricsDecorator{next: next, collector: collector}
}

func (m *MetricsDecorator) Append(ctx context.Context, rec models.WeatherRecord) error {
	if err := m.next.Append(ctx, rec); err != nil {
		return err
	}
	m.collector.ObserveAppend()
	return nil
}

func (m *MetricsDecorator) Stats(ctx context.Context) (models.Stats, error) {
	stats, err := m.next.Stats(ctx)
	if err != nil {
		return stats, err
	}
	m.collector.SetRowsInFile(stats.Count)
	return stats, nil
}

func (m *MetricsDecorator) Path() string {
	return m.next.Path()
}
