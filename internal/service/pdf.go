package service

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"leilao-insights/internal/dto"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin     = 20.0
	pdfLabelWidth = 55.0
	pdfLineHeight = 6.0
)

// ReportMeta identifies one rendering of a report.
type ReportMeta struct {
	ID       uuid.UUID
	IssuedAt time.Time
}

// VerificationID is printed on the report so a copy can be matched to the
// archived analysis.
func (m ReportMeta) VerificationID() string {
	return fmt.Sprintf("LF-%d-%s", m.IssuedAt.UnixMilli(), strings.ToUpper(m.ID.String()[:4]))
}

// RenderPDF lays view out as an A4 report.
func RenderPDF(view dto.ReviewView, meta ReportMeta) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(127, 140, 141)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetTextColor(44, 62, 80)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr("RELATÓRIO DE ANÁLISE DE IMÓVEL"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, pdfLineHeight, tr("Data de emissão: "+meta.IssuedAt.Format(displayDateLayout)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, pdfLineHeight, tr("Verificação: "+meta.VerificationID()), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	section(pdf, tr, "INFORMAÇÕES DO IMÓVEL")
	row(pdf, tr, "Título", view.Title)
	row(pdf, tr, "Tipo", view.PropertyType)
	row(pdf, tr, "Área total", view.TotalArea)
	row(pdf, tr, "Endereço", view.Street)
	row(pdf, tr, "Localização", view.Location)
	row(pdf, tr, "Anúncio", view.ListingURL)

	section(pdf, tr, "RESUMO FINANCEIRO")
	row(pdf, tr, "Lance inicial", view.InitialBidValue)
	row(pdf, tr, "Valor atual", view.CurrentValue)
	row(pdf, tr, "Desconto", view.Discount)

	section(pdf, tr, "LEILÃO")
	row(pdf, tr, "Tipo de leilão", view.AuctionType)
	row(pdf, tr, "Data de início", view.StartDate)
	row(pdf, tr, "Data de encerramento", view.EndDate)

	section(pdf, tr, "RECOMENDAÇÕES")
	list(pdf, tr, view.Recommendations, "Nenhuma recomendação disponível")

	section(pdf, tr, "DOCUMENTOS ANALISADOS")
	list(pdf, tr, view.Documents, "Nenhum documento enviado")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(44, 62, 80)
	pdf.CellFormat(0, 8, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func row(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(85, 85, 85)
	pdf.CellFormat(pdfLabelWidth, pdfLineHeight, tr(label+":"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(44, 62, 80)
	pdf.MultiCell(0, pdfLineHeight, tr(value), "", "L", false)
}

func list(pdf *gofpdf.Fpdf, tr func(string) string, items []string, empty string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(44, 62, 80)
	if len(items) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, pdfLineHeight, tr(empty), "", "L", false)
		return
	}
	for _, item := range items {
		pdf.MultiCell(0, pdfLineHeight, tr("• "+item), "", "L", false)
	}
}
