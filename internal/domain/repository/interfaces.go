package repository

import (
	"context"
	"encoding/json"

	"SegPull/internal/domain/models"
)

// ReportFetcher is the upstream benchmarking API.
type ReportFetcher interface {
	ListReports(ctx context.Context, opts ...models.FetchOption) (json.RawMessage, error)
	GetSegmentSections(ctx context.Context, code string, sections []string, opts ...models.FetchOption) (*models.ReportResponse, error)
	GetUpdatedReports(ctx context.Context, startDate, endDate string, opts ...models.FetchOption) (json.RawMessage, error)
}

// RecordSink receives normalized rows after an export run.
type RecordSink interface {
	Name() string
	Write(ctx context.Context, runID string, records []models.SegmentRecord) error
	Close() error
}

type Metrics interface {
	RecordRequest(operation, result string)
	RecordCacheLookup(kind string, hit bool)
	RecordRetry(operation string)
	RecordLatency(op string, seconds float64)
	RecordExported(sink string, n int)
	RecordError(kind string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordRequest(string, string)   {}
func (NopMetrics) RecordCacheLookup(string, bool) {}
func (NopMetrics) RecordRetry(string)             {}
func (NopMetrics) RecordLatency(string, float64)  {}
func (NopMetrics) RecordExported(string, int)     {}
func (NopMetrics) RecordError(string)             {}
