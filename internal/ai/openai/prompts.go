package openai

import (
	"path/filepath"
	"strings"
)

// contentCategory is the closed set of prompt families. Unknown extensions
// fall back to categoryDefault.
type contentCategory string

const (
	categoryText    contentCategory = "text"
	categoryImage   contentCategory = "image"
	categoryDefault contentCategory = "default"
)

var textExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".markdown": {}, ".csv": {}, ".json": {},
	".log": {}, ".yaml": {}, ".yml": {}, ".xml": {}, ".html": {},
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".bmp": {},
}

func categoryFor(path string) contentCategory {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageExtensions[ext]; ok {
		return categoryImage
	}
	if _, ok := textExtensions[ext]; ok {
		return categoryText
	}
	return categoryDefault
}

const baseInstructions = `Analyze the provided content and produce descriptive metadata.`

// requiredSchema names the exact JSON fields the pipeline expects; prompts
// must always include it so the merge step sees stable keys.
const requiredSchema = `Respond with ONLY a single JSON object. No prose, no explanation, no code fences.
The object must use exactly these field names:
- "summary": a brief summary of the content
- "tags": a list of short relevant tags
- "sentiment": one of "positive", "negative" or "neutral"`

const imageSchemaExtra = `- "colors": the dominant color palette of the image
- "subjects": a list of the main subjects visible in the image`

var categoryInstructions = map[contentCategory]string{
	categoryText:    `The content is a text document. Base the summary on its subject matter, not its formatting.`,
	categoryImage:   `The content is an image. Describe what it depicts.`,
	categoryDefault: `The content type is unknown. Infer what you can from the content and the filename.`,
}

// buildPrompt composes the category-specific instructions with the shared
// base instructions and required output schema.
func buildPrompt(c contentCategory) string {
	parts := []string{baseInstructions, categoryInstructions[c], requiredSchema}
	if c == categoryImage {
		parts = append(parts, imageSchemaExtra)
	}
	return strings.Join(parts, "\n\n")
}
