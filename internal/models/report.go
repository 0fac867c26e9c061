package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is a finalized analysis archived for the dashboard.
type Report struct {
	ID         uuid.UUID        `db:"id"`
	SessionID  uuid.UUID        `db:"session_id"`
	ListingURL string           `db:"listing_url"`
	Analysis   PropertyAnalysis `db:"analysis"`
	CreatedAt  time.Time        `db:"created_at"`
}
