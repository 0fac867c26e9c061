package models

import (
	"time"

	"github.com/google/uuid"
)

// Upload is a file attached at step 3. Only the name ever reaches the backend;
// the bytes are not kept.
type Upload struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	AddedAt     time.Time `json:"added_at"`
}

// UploadNames returns the file names in attachment order.
func UploadNames(uploads []Upload) []string {
	names := make([]string, 0, len(uploads))
	for _, u := range uploads {
		names = append(names, u.Name)
	}
	return names
}
