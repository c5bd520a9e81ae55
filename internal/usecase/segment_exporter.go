package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"SegPull/internal/domain/models"
	drepo "SegPull/internal/domain/repository"
	"SegPull/internal/services/segments"
	"SegPull/pkg/logger"
)

// ExportRequest describes one bulk run.
type ExportRequest struct {
	Codes    []string
	Sections []string
	// Out is the CSV path; empty skips the file.
	Out     string
	Refresh bool
}

// ExportResult is what a run produced.
type ExportResult struct {
	RunID   string
	Records []models.SegmentRecord
	Table   Table
	Out     string
}

// SegmentExporter fetches reports one code at a time, normalizes them and
// writes the combined table.
type SegmentExporter struct {
	fetcher    drepo.ReportFetcher
	normalizer *segments.Normalizer
	sinks      []drepo.RecordSink
	metrics    drepo.Metrics
	log        *logger.Logger
}

// NewSegmentExporter creates a new SegmentExporter instance.
func NewSegmentExporter(fetcher drepo.ReportFetcher, normalizer *segments.Normalizer, sinks []drepo.RecordSink, metrics drepo.Metrics, log *logger.Logger) *SegmentExporter {
	if normalizer == nil {
		normalizer = segments.NewNormalizer()
	}
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SegmentExporter{fetcher: fetcher, normalizer: normalizer, sinks: sinks, metrics: metrics, log: log}
}

// Collect fetches and normalizes every code in order. The first fetch
// failure aborts the run.
func (e *SegmentExporter) Collect(ctx context.Context, codes, sections []string, refresh bool) ([]models.SegmentRecord, error) {
	if len(sections) == 0 {
		sections = models.DefaultSections
	}
	var records []models.SegmentRecord
	for _, code := range codes {
		resp, err := e.fetcher.GetSegmentSections(ctx, code, sections, models.WithRefresh(refresh))
		if err != nil {
			e.metrics.RecordError("export_fetch")
			return nil, fmt.Errorf("fetch %s: %w", code, err)
		}
		recs := e.normalizer.Normalize(code, resp)
		e.log.Info("normalized report",
			logger.String("code", code),
			logger.Int("records", len(recs)),
		)
		records = append(records, recs...)
	}
	return records, nil
}

// Export runs a full bulk export: collect, build the table, write the CSV,
// then hand the records to the configured sinks.
func (e *SegmentExporter) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := e.log.With(logger.String("run_id", runID))
	log.Info("export started",
		logger.Int("codes", len(req.Codes)),
		logger.Strings("sections", req.Sections),
	)

	records, err := e.Collect(ctx, req.Codes, req.Sections, req.Refresh)
	if err != nil {
		log.Error("export aborted", logger.Error(err))
		return nil, err
	}

	res := &ExportResult{
		RunID:   runID,
		Records: records,
		Table:   BuildTable(records),
		Out:     req.Out,
	}

	if req.Out != "" {
		if err := WriteCSVFile(req.Out, res.Table); err != nil {
			e.metrics.RecordError("export_write")
			return nil, fmt.Errorf("write %s: %w", req.Out, err)
		}
		e.metrics.RecordExported("csv", len(records))
	}

	var sinkErrs []error
	if len(records) > 0 {
		for _, s := range e.sinks {
			if err := s.Write(ctx, runID, records); err != nil {
				e.metrics.RecordError("sink_" + s.Name())
				log.Error("sink write failed", logger.String("sink", s.Name()), logger.Error(err))
				sinkErrs = append(sinkErrs, fmt.Errorf("sink %s: %w", s.Name(), err))
				continue
			}
			e.metrics.RecordExported(s.Name(), len(records))
		}
	}

	e.metrics.RecordLatency("export", time.Since(start).Seconds())
	log.Info("export finished",
		logger.Int("records", len(records)),
		logger.String("out", req.Out),
		logger.Duration("elapsed", time.Since(start)),
	)
	return res, errors.Join(sinkErrs...)
}
