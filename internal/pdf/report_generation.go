package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator - интерфейс (удобно мокать в тестах)
type Generator interface {
	GeneratePayoutReport(data PayoutReportData) (string, error)
}

// ReportGenerator - реализация
type ReportGenerator struct {
	RootDir  string // корень хранения, например "./files"
	FontPath string // путь до TTF, например "assets/fonts/DejaVuSans.ttf"
	fontName string // внутреннее имя шрифта в PDF
}

type PayoutRow struct {
	PhoneNumber  string
	CountryName  string
	Amount       float64
	AcceptedAt   time.Time
	AutoApproved bool
}

type PayoutReportData struct {
	From     time.Time
	To       time.Time
	Rows     []PayoutRow
	Filename string // имя файла (без путей); если пусто - сгенерируем
}

func NewReportGenerator(rootDir, fontPath string) *ReportGenerator {
	return &ReportGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		fontName: "DejaVu",
	}
}

func (g *ReportGenerator) GeneratePayoutReport(data PayoutReportData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("payouts_%s.pdf", data.To.Format("2006-01-02"))
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Отчёт по выплатам", false)
	pdf.SetAuthor("TG Market", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	g.addUTF8Font(pdf)
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "ОТЧЁТ ПО ВЫПЛАТАМ", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 12)
	sub := fmt.Sprintf("за период  %s - %s",
		data.From.Format("02.01.2006"),
		data.To.Format("02.01.2006"),
	)
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)

	pdf.Ln(3)

	// ===== Сводка
	var total float64
	autoApproved := 0
	for _, r := range data.Rows {
		total += r.Amount
		if r.AutoApproved {
			autoApproved++
		}
	}
	g.sectionTitle(pdf, "Сводка")
	g.kvLine(pdf, "Принятых номеров", fmt.Sprintf("%d", len(data.Rows)))
	g.kvLine(pdf, "Из них автоматом", fmt.Sprintf("%d", autoApproved))
	g.kvLine(pdf, "Сумма к выплате", fmt.Sprintf("%.2f", total))
	pdf.Ln(2)
	g.hr(pdf)

	// ===== Таблица
	g.sectionTitle(pdf, "Принятые номера")

	pdf.SetFont(g.fontName, "B", 10)
	pdf.CellFormat(45, 7, "Номер", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 7, "Страна", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Сумма", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Принят", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 7, "Авто", "1", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 10)
	for _, r := range data.Rows {
		auto := "нет"
		if r.AutoApproved {
			auto = "да"
		}
		country := r.CountryName
		if country == "" {
			country = "-"
		}
		pdf.CellFormat(45, 7, r.PhoneNumber, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, country, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", r.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, r.AcceptedAt.Format("02.01.2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 7, auto, "1", 1, "C", false, 0, "")
	}

	// ===== Нумерация страниц
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 10,
			fmt.Sprintf("Стр. %d/{nb}", pdf.PageNo()),
			"", 0, "C", false, 0, "",
		)
	})

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

// ===== helpers =====

func (g *ReportGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *ReportGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *ReportGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename) // безопасность
	return filepath.Join(g.RootDir, filename), nil
}

func (g *ReportGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	// AddUTF8Font принимает путь до TTF
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}
