package service

import (
	"testing"

	"leilao-insights/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", FormatBRL(decimal.NewFromFloat(1234.56)))
	assert.Equal(t, "R$ 150.000,00", FormatBRL(decimal.NewFromInt(150000)))
	assert.Equal(t, "R$ 0,50", FormatBRL(decimal.NewFromFloat(0.5)))
	assert.Equal(t, PlaceholderText, FormatBRL(decimal.Zero))
}

func TestFormatArea(t *testing.T) {
	assert.Equal(t, "80 m²", FormatArea(80))
	assert.Equal(t, "80,5 m²", FormatArea(80.5))
	assert.Equal(t, "1.200,25 m²", FormatArea(1200.25))
	assert.Equal(t, PlaceholderText, FormatArea(0))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "15/03/2024", FormatDate("2024-03-15"))
	assert.Equal(t, PlaceholderDate, FormatDate(""))
	assert.Equal(t, PlaceholderDate, FormatDate("15/03/2024"))
}

func TestFormatLocation(t *testing.T) {
	assert.Equal(t, "Centro, Curitiba - PR", FormatLocation("Centro", "Curitiba", "pr"))
	assert.Equal(t, "Curitiba - PR", FormatLocation("", "Curitiba", "PR"))
	assert.Equal(t, "Centro, Curitiba", FormatLocation("Centro", "Curitiba", ""))
	assert.Equal(t, PlaceholderText, FormatLocation(" ", "", ""))
}

func TestFormatDiscount(t *testing.T) {
	assert.Equal(t, "40%", FormatDiscount(decimal.NewFromInt(60000), decimal.NewFromInt(100000)))
	assert.Equal(t, "12,5%", FormatDiscount(decimal.NewFromInt(87500), decimal.NewFromInt(100000)))
	assert.Equal(t, PlaceholderText, FormatDiscount(decimal.Zero, decimal.NewFromInt(100000)))
	assert.Equal(t, PlaceholderText, FormatDiscount(decimal.NewFromInt(200), decimal.NewFromInt(100)))
}

func TestPresentEmptyRecordUsesPlaceholders(t *testing.T) {
	view := Present("", models.NewPropertyAnalysis())

	for _, field := range []string{
		view.ListingURL, view.Title, view.PropertyType, view.TotalArea, view.Street,
		view.Location, view.InitialBidValue, view.CurrentValue, view.Discount, view.AuctionType,
	} {
		assert.Equal(t, PlaceholderText, field)
	}
	assert.Equal(t, PlaceholderDate, view.StartDate)
	assert.Equal(t, PlaceholderDate, view.EndDate)
	assert.Empty(t, view.Recommendations)
}

func TestPresent(t *testing.T) {
	record := models.NewPropertyAnalysis()
	record.Property.Title = "Apartamento 2 quartos"
	record.Property.PropertyType = models.PropertyTypeApartment
	record.Property.TotalAreaSqm = 62
	record.Property.City = "Santos"
	record.Property.State = "SP"
	record.Property.InitialBidValue = decimal.NewFromFloat(210000)
	record.Property.StartDate = "2024-05-02"
	record.Recommendations = []string{"Status de ocupação: desocupado"}

	view := Present("https://leilao.example/1", record)

	assert.Equal(t, "https://leilao.example/1", view.ListingURL)
	assert.Equal(t, "Apartamento", view.PropertyType)
	assert.Equal(t, "62 m²", view.TotalArea)
	assert.Equal(t, "Santos - SP", view.Location)
	assert.Equal(t, "R$ 210.000,00", view.InitialBidValue)
	assert.Equal(t, PlaceholderText, view.CurrentValue)
	assert.Equal(t, "02/05/2024", view.StartDate)
	assert.Equal(t, []string{"Status de ocupação: desocupado"}, view.Recommendations)
}
