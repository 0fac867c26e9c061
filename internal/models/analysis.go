package models

import (
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date layout every stored date uses.
const DateLayout = "2006-01-02"

// Property holds the listing attributes the wizard lets the user confirm.
type Property struct {
	Title           string          `json:"title"`
	PropertyType    PropertyType    `json:"property_type"`
	TotalAreaSqm    float64         `json:"total_area_sqm"`
	Street          string          `json:"street"`
	Neighborhood    string          `json:"neighborhood"`
	City            string          `json:"city"`
	State           string          `json:"state"`
	InitialBidValue decimal.Decimal `json:"initial_bid_value"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	StartDate       string          `json:"start_date"`
	Images          []string        `json:"images"`
}

// PropertyAnalysis is the canonical record built up across the wizard steps.
type PropertyAnalysis struct {
	Property        Property `json:"property"`
	AuctionType     string   `json:"auction_type"`
	EndDate         string   `json:"end_date"`
	Documents       []string `json:"documents"`
	Recommendations []string `json:"recommendations"`
}

// NewPropertyAnalysis returns the empty record a fresh wizard starts with.
func NewPropertyAnalysis() PropertyAnalysis {
	return PropertyAnalysis{
		Property: Property{
			InitialBidValue: decimal.Zero,
			CurrentValue:    decimal.Zero,
			Images:          []string{},
		},
		Documents:       []string{},
		Recommendations: []string{},
	}
}

// Clone returns a deep copy so callers never share slices with a session.
func (a PropertyAnalysis) Clone() PropertyAnalysis {
	out := a
	out.Property.Images = append([]string{}, a.Property.Images...)
	out.Documents = append([]string{}, a.Documents...)
	out.Recommendations = append([]string{}, a.Recommendations...)
	return out
}
