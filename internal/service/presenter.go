package service

import (
	"strings"
	"time"

	"leilao-insights/internal/dto"
	"leilao-insights/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	PlaceholderText = "Não informado"
	PlaceholderDate = "Data não informada"

	displayDateLayout = "02/01/2006"
)

var hundred = decimal.NewFromInt(100)

// Present renders record for the review screen and the PDF report.
func Present(listingURL string, record models.PropertyAnalysis) dto.ReviewView {
	p := record.Property
	return dto.ReviewView{
		ListingURL:      orPlaceholder(listingURL),
		Title:           orPlaceholder(p.Title),
		PropertyType:    orPlaceholder(p.PropertyType.DisplayLabel()),
		TotalArea:       FormatArea(p.TotalAreaSqm),
		Street:          orPlaceholder(p.Street),
		Location:        FormatLocation(p.Neighborhood, p.City, p.State),
		InitialBidValue: FormatBRL(p.InitialBidValue),
		CurrentValue:    FormatBRL(p.CurrentValue),
		Discount:        FormatDiscount(p.InitialBidValue, p.CurrentValue),
		StartDate:       FormatDate(p.StartDate),
		AuctionType:     orPlaceholder(record.AuctionType),
		EndDate:         FormatDate(record.EndDate),
		Images:          append([]string{}, p.Images...),
		Documents:       append([]string{}, record.Documents...),
		Recommendations: append([]string{}, record.Recommendations...),
	}
}

func printer() *message.Printer {
	return message.NewPrinter(language.BrazilianPortuguese)
}

// FormatBRL renders "R$ 1.234,56". Zero means the value was never supplied.
func FormatBRL(v decimal.Decimal) string {
	if v.IsZero() {
		return PlaceholderText
	}
	return "R$ " + printer().Sprintf("%.2f", v.Round(2).InexactFloat64())
}

// FormatArea renders "80 m²" or "80,5 m²".
func FormatArea(sqm float64) string {
	if sqm <= 0 {
		return PlaceholderText
	}
	return trimFraction(printer().Sprintf("%.2f", sqm)) + " m²"
}

// FormatDiscount is how far below the current value the opening bid sits.
func FormatDiscount(initial, current decimal.Decimal) string {
	if !initial.IsPositive() || !current.IsPositive() || initial.GreaterThanOrEqual(current) {
		return PlaceholderText
	}
	pct := decimal.NewFromInt(1).Sub(initial.Div(current)).Mul(hundred).Round(1)
	return trimFraction(printer().Sprintf("%.1f", pct.InexactFloat64())) + "%"
}

// FormatDate turns a stored calendar date into DD/MM/YYYY.
func FormatDate(date string) string {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return PlaceholderDate
	}
	return t.Format(displayDateLayout)
}

// FormatLocation renders "Bairro, Cidade - UF", skipping missing parts.
func FormatLocation(neighborhood, city, state string) string {
	var parts []string
	for _, s := range []string{neighborhood, city} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	out := strings.Join(parts, ", ")
	if uf := strings.TrimSpace(state); uf != "" {
		if out == "" {
			return strings.ToUpper(uf)
		}
		out += " - " + strings.ToUpper(uf)
	}
	return orPlaceholder(out)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return PlaceholderText
	}
	return s
}

// trimFraction drops a zero fraction: "80,50" becomes "80,5", "80,00" becomes "80".
func trimFraction(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ",")
}
