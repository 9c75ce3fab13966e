package handlers

import (
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tgmarket/internal/pdf"
	"tgmarket/internal/repositories"
	"tgmarket/internal/services"
)

type ReportsHandler struct {
	accounts *repositories.AccountRepository
	pdfGen   pdf.Generator
	mailer   services.EmailService
	filesDir string
}

func NewReportsHandler(accounts *repositories.AccountRepository, pdfGen pdf.Generator, mailer services.EmailService, filesDir string) *ReportsHandler {
	return &ReportsHandler{accounts: accounts, pdfGen: pdfGen, mailer: mailer, filesDir: filesDir}
}

// @Summary      PDF-отчёт по выплатам
// @Description  Принятые аккаунты за период с суммами к выплате
// @Tags         Reports
// @Produce      application/pdf
// @Param        days   query  int     false  "период в днях (по умолчанию 30)"
// @Param        email  query  string  false  "отправить сводку на этот адрес"
// @Success      200  {file}  binary
// @Failure      500  {object}  map[string]string
// @Router       /admin/reports/payouts [get]
func (h *ReportsHandler) Payouts(c *gin.Context) {
	days := 30
	if v := c.Query("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}

	now := time.Now()
	since := now.AddDate(0, 0, -days)

	accepted, err := h.accounts.ListAccepted(since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data := pdf.PayoutReportData{From: since, To: now}
	for _, a := range accepted {
		acceptedAt := now
		if a.AcceptedAt != nil {
			acceptedAt = *a.AcceptedAt
		}
		data.Rows = append(data.Rows, pdf.PayoutRow{
			PhoneNumber:  a.PhoneNumber,
			CountryName:  a.CountryName,
			Amount:       a.Amount,
			AcceptedAt:   acceptedAt,
			AutoApproved: a.AutoApproved,
		})
	}

	relPath, err := h.pdfGen.GeneratePayoutReport(data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if to := c.Query("email"); to != "" {
		var total float64
		for _, r := range data.Rows {
			total += r.Amount
		}
		if err := h.mailer.SendPayoutSummary(to, len(data.Rows), total); err != nil {
			log.Printf("[reports][payouts] не удалось отправить сводку на %s: %v", to, err)
		}
	}

	filename := filepath.Base(relPath)
	c.FileAttachment(filepath.Join(h.filesDir, filename), filename)
}
