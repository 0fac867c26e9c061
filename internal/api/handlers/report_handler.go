package handlers

import (
	"context"
	"errors"
	"time"

	"leilao-insights/internal/dto"
	"leilao-insights/internal/models"
	"leilao-insights/internal/repository"
	"leilao-insights/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultReportPageSize = 20
	maxReportPageSize     = 100
)

// ReportStore reads archived reports.
type ReportStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	List(ctx context.Context, limit, offset int) ([]*models.Report, error)
}

type ReportHandler struct {
	reports ReportStore
	logger  *zap.Logger
}

func NewReportHandler(reports ReportStore, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger,
	}
}

// ListReports godoc
// @Summary List archived analyses
// @Tags reports
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.ReportSummary
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/reports [get]
func (h *ReportHandler) ListReports(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultReportPageSize)
	if limit <= 0 || limit > maxReportPageSize {
		limit = defaultReportPageSize
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	reports, err := h.reports.List(c.UserContext(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to list reports"})
	}

	out := make([]dto.ReportSummary, 0, len(reports))
	for _, r := range reports {
		out = append(out, dto.ReportSummary{
			ID:              r.ID.String(),
			SessionID:       r.SessionID.String(),
			ListingURL:      r.ListingURL,
			Title:           r.Analysis.Property.Title,
			InitialBidValue: service.FormatBRL(r.Analysis.Property.InitialBidValue),
			Recommendations: len(r.Analysis.Recommendations),
			CreatedAt:       r.CreatedAt,
		})
	}
	return c.JSON(out)
}

// GetReport godoc
// @Summary Get an archived analysis
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} dto.ReportResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/reports/{id} [get]
func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	report, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.ReportResponse{
		ID:         report.ID.String(),
		SessionID:  report.SessionID.String(),
		ListingURL: report.ListingURL,
		Analysis:   report.Analysis,
		Review:     service.Present(report.ListingURL, report.Analysis),
		CreatedAt:  report.CreatedAt,
	})
}

// ReportPDF godoc
// @Summary Download an archived report
// @Tags reports
// @Produce application/pdf
// @Param id path string true "Report ID"
// @Success 200 {file} file
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/reports/{id}/pdf [get]
func (h *ReportHandler) ReportPDF(c *fiber.Ctx) error {
	report, err := h.load(c)
	if err != nil {
		return err
	}
	meta := service.ReportMeta{ID: report.ID, IssuedAt: report.CreatedAt}
	return sendPDF(c, h.logger, service.Present(report.ListingURL, report.Analysis), meta, "relatorio-"+report.ID.String()+".pdf")
}

// load returns a *fiber.Error the router renders when the report is unavailable.
func (h *ReportHandler) load(c *fiber.Ctx) (*models.Report, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid report ID")
	}
	report, err := h.reports.GetByID(c.UserContext(), id)
	if errors.Is(err, repository.ErrReportNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Report not found")
	}
	if err != nil {
		h.logger.Error("Failed to load report", zap.String("report_id", id.String()), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load report")
	}
	return report, nil
}

func sendPDF(c *fiber.Ctx, logger *zap.Logger, view dto.ReviewView, meta service.ReportMeta, filename string) error {
	started := time.Now()
	out, err := service.RenderPDF(view, meta)
	if err != nil {
		logger.Error("Failed to render report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to render report"})
	}
	logger.Debug("Report rendered",
		zap.String("verification_id", meta.VerificationID()),
		zap.Int("bytes", len(out)),
		zap.Duration("elapsed", time.Since(started)),
	)
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(out)
}
