package dto

import (
	"time"

	"leilao-insights/internal/models"
)

type SetURLRequest struct {
	URL string `json:"url" validate:"required,url,max=2048"`
}

// CreateWizardResponse carries the token every later wizard call must send.
type CreateWizardResponse struct {
	ID        string `json:"id"`
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

type ReportSummary struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	ListingURL      string    `json:"listing_url"`
	Title           string    `json:"title"`
	InitialBidValue string    `json:"initial_bid_value"`
	Recommendations int       `json:"recommendations"`
	CreatedAt       time.Time `json:"created_at"`
}

type ReportResponse struct {
	ID         string                  `json:"id"`
	SessionID  string                  `json:"session_id"`
	ListingURL string                  `json:"listing_url"`
	Analysis   models.PropertyAnalysis `json:"analysis"`
	Review     ReviewView              `json:"review"`
	CreatedAt  time.Time               `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
