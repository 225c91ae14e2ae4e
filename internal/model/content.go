package model

import "time"

// ContentStatus tracks how far an item has progressed through the
// enrichment pipeline. Transitions only move forward.
type ContentStatus string

const (
	StatusUnprocessed ContentStatus = "unprocessed"
	StatusTagged      ContentStatus = "tagged"
	StatusIndexed     ContentStatus = "indexed"
)

// ContentItem represents one uploaded file tracked by the system.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage, worker) without
// coupling to persistence.
type ContentItem struct {
	ID               string        `json:"id"`
	OriginalFilename string        `json:"original_filename"`
	StoragePath      string        `json:"storage_path"`
	Status           ContentStatus `json:"status"`
	Version          int           `json:"version"`
	Checksum         string        `json:"checksum,omitempty"`
	ContentType      string        `json:"content_type,omitempty"`
	Size             int64         `json:"size"`
	Metadata         Metadata      `json:"metadata"`
	CreatedAt        time.Time     `json:"created_at"`
}
