package domain

import "strings"

const (
	DefaultAspectRatio = "1:1"
	DefaultQuality     = "standard"
)

// GenerationRequest is the user's text-to-image request as submitted by the
// landing page form.
type GenerationRequest struct {
	Prompt         string
	NegativePrompt string
	StylePreset    string
	AspectRatio    string
	Quality        string
}

// Normalize trims every field and fills aspect ratio and quality defaults.
// Unrecognized values are kept; the request builder falls back on them.
func (r *GenerationRequest) Normalize() {
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.NegativePrompt = strings.TrimSpace(r.NegativePrompt)
	r.StylePreset = strings.TrimSpace(r.StylePreset)
	r.AspectRatio = strings.TrimSpace(r.AspectRatio)
	r.Quality = strings.TrimSpace(r.Quality)
	if r.AspectRatio == "" {
		r.AspectRatio = DefaultAspectRatio
	}
	if r.Quality == "" {
		r.Quality = DefaultQuality
	}
}

// Validate rejects requests that must never reach the provider.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrInvalidPrompt
	}
	return nil
}
