package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	models "SegPull/internal/domain/models"
	domrepo "SegPull/internal/domain/repository"
	"SegPull/internal/service/ibisworld"
	"SegPull/internal/services/segments"
	"SegPull/internal/usecase"
	xhttp "SegPull/pkg/http"
	xlogger "SegPull/pkg/logger"
	xutil "SegPull/pkg/util"
)

// SegmentsEchoHandler serves read-only views over the benchmarking API.
type SegmentsEchoHandler struct {
	logger     *xlogger.Logger
	fetcher    domrepo.ReportFetcher
	normalizer *segments.Normalizer
	exporter   *usecase.SegmentExporter
}

func NewSegmentsEchoHandler(logger *xlogger.Logger, fetcher domrepo.ReportFetcher, normalizer *segments.Normalizer, exporter *usecase.SegmentExporter) *SegmentsEchoHandler {
	return &SegmentsEchoHandler{logger: logger, fetcher: fetcher, normalizer: normalizer, exporter: exporter}
}

func (h *SegmentsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/reports", h.Reports)
	g.GET("/reports/updated", h.UpdatedReports)
	g.GET("/segments/:code", h.Segment)
	g.GET("/export", h.Export)
}

func (h *SegmentsEchoHandler) Reports(c echo.Context) error {
	req := &models.ReportsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	raw, err := h.fetcher.ListReports(c.Request().Context(),
		models.WithCountry(req.Country),
		models.WithLanguage(req.Language),
		models.WithRefresh(req.Refresh),
	)
	if err != nil {
		return h.fail(c, "list reports", err)
	}
	return xhttp.RawSuccessResponse(c, raw)
}

func (h *SegmentsEchoHandler) UpdatedReports(c echo.Context) error {
	req := &models.UpdatedReportsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := xutil.ValidateDateRange(req.Start, req.End); err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{Code: "ERR_RANGE", Field: "start", Message: err.Error()}})
	}

	raw, err := h.fetcher.GetUpdatedReports(c.Request().Context(), req.Start, req.End,
		models.WithCountry(req.Country),
		models.WithLanguage(req.Language),
	)
	if err != nil {
		return h.fail(c, "updated reports", err)
	}
	return xhttp.RawSuccessResponse(c, raw)
}

func (h *SegmentsEchoHandler) Segment(c echo.Context) error {
	req := &models.SegmentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sections := xutil.SplitList(req.Sections...)
	if len(sections) == 0 {
		sections = models.DefaultSections
	}

	resp, err := h.fetcher.GetSegmentSections(c.Request().Context(), req.Code, sections,
		models.WithCountry(req.Country),
		models.WithLanguage(req.Language),
		models.WithRefresh(req.Refresh),
	)
	if err != nil {
		return h.fail(c, "segment sections", err)
	}
	if req.Raw {
		return xhttp.SuccessResponse(c, resp)
	}

	records := h.normalizer.Normalize(req.Code, resp)
	if records == nil {
		records = []models.SegmentRecord{}
	}
	return xhttp.ListResponse(c, records, int64(len(records)))
}

func (h *SegmentsEchoHandler) Export(c echo.Context) error {
	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	codes := xutil.SplitList(req.Codes...)
	records, err := h.exporter.Collect(c.Request().Context(), codes, xutil.SplitList(req.Sections...), req.Refresh)
	if err != nil {
		return h.fail(c, "export", err)
	}
	table := usecase.BuildTable(records)

	if req.Format == "csv" {
		c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="segments.csv"`)
		c.Response().WriteHeader(http.StatusOK)
		return usecase.WriteCSV(c.Response(), table)
	}

	rows := table.Rows
	if rows == nil {
		rows = [][]string{}
	}
	header := table.Header
	if header == nil {
		header = []string{}
	}
	return xhttp.SuccessResponse(c, &xhttp.TableDataResponse{Header: header, Rows: rows})
}

func (h *SegmentsEchoHandler) fail(c echo.Context, op string, err error) error {
	h.logger.Error(op+" failed", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, toAppError(err))
}

// toAppError maps client errors onto API errors.
func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, ibisworld.ErrNoCredentials), errors.Is(err, ibisworld.ErrNoAccessToken):
		return xhttp.NewAppError("ERR_CREDENTIALS", "", "upstream credentials are not configured or were rejected", http.StatusServiceUnavailable).WithError(err)
	case errors.Is(err, ibisworld.ErrEmptyCode):
		return xhttp.BadRequestError("code", "code is required")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "request cancelled", http.StatusGatewayTimeout).WithError(err)
	}
	return xhttp.UpstreamError(err)
}
