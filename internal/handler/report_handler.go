package handler

import (
	"go-retail-backoffice/internal/service"
	"go-retail-backoffice/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// GetProfitReport returns profit by day, top products and brand performance
// Query params: start_date, end_date (YYYY-MM-DD)
func (h *ReportHandler) GetProfitReport(c *fiber.Ctx) error {
	period, err := dateRange(c)
	if err != nil {
		return err
	}

	report, err := h.service.ProfitReport(c.UserContext(), period)
	if err != nil {
		return err
	}
	return response.OK(c, "Profit report generated", report)
}
