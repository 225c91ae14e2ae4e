// Package ai defines the metadata generation boundary used by the tagging
// worker. Implementations live in subpackages (e.g., openai).
package ai

import (
	"context"

	"contentapi/internal/model"
)

// Tag applied to the degraded payload when generation fails, so failed
// items remain inspectable instead of stuck.
const FailedTag = "processing-failed"

// Generator produces descriptive metadata (summary, tags, sentiment, and
// type-specific fields) for a stored blob.
//
// GenerateMetadata never fails: any internal error (unreadable file, model
// error, malformed model output) degrades to a payload carrying an "error"
// description and a FailedTag tag, which is itself valid output.
type Generator interface {
	GenerateMetadata(ctx context.Context, filePath, contentText string) model.Metadata
}

// Degraded builds the failure payload returned when generation cannot
// produce real metadata.
func Degraded(err error) model.Metadata {
	return model.Metadata{
		"error": err.Error(),
		"tags":  []string{FailedTag},
	}
}
