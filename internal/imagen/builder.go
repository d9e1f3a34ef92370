package imagen

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"imagestudio/internal/domain"
)

// DefaultGuidanceScale applies when no style preset (or an unknown one) is selected.
const DefaultGuidanceScale = 7.0

// TextureSuffix steers the model towards a full-frame tileable texture.
const TextureSuffix = "seamless tileable texture, full rectangular format, no rounded corners, no borders, no black spaces, no gaps, filling entire frame, high-resolution, flat texture"

// Dimensions is an explicit output size in pixels.
type Dimensions struct {
	Height int
	Width  int
}

var aspectDimensions = map[string]Dimensions{
	"1:1":  {Height: 1024, Width: 1024},
	"16:9": {Height: 576, Width: 1024},
	"9:16": {Height: 1024, Width: 576},
	"4:3":  {Height: 768, Width: 1024},
	"3:4":  {Height: 1024, Width: 768},
	"21:9": {Height: 448, Width: 1024},
}

var squareDimensions = Dimensions{Height: 1024, Width: 1024}

var qualitySteps = map[string]int{
	"standard": 30,
	"hd":       50,
}

var guidanceScales = map[string]float64{
	"photographic": 6.0,
	"digital-art":  7.5,
	"cinematic":    7.0,
	"anime":        7.0,
	"fantasy-art":  8.0,
	"neon-punk":    8.5,
	"enhance":      5.5,
	"comic-book":   7.5,
	"isometric":    7.0,
	"low-poly":     7.0,
	"origami":      7.5,
	"line-art":     7.0,
	"watercolor":   6.5,
	"pixel-art":    8.0,
}

var stylePrefixes = map[string]string{
	"digital-art": "digital art style",
	"cinematic":   "cinematic lighting",
	"anime":       "anime style",
	"fantasy-art": "fantasy art",
	"neon-punk":   "neon cyberpunk style",
	"comic-book":  "comic book style",
	"isometric":   "isometric view",
	"low-poly":    "low poly 3D",
	"origami":     "origami style",
	"line-art":    "line art",
	"watercolor":  "watercolor painting",
	"pixel-art":   "pixel art",
}

// Instance is the single prompt entry of a predict call.
type Instance struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

// Parameters carries the generation knobs. Steps is omitted when the quality
// value is not in the table.
type Parameters struct {
	SampleCount   int     `json:"sampleCount"`
	Steps         int     `json:"steps,omitempty"`
	Height        int     `json:"height"`
	Width         int     `json:"width"`
	GuidanceScale float64 `json:"guidance_scale"`
}

// Payload is the JSON body of a Vertex AI predict request.
type Payload struct {
	Instances  []Instance `json:"instances"`
	Parameters Parameters `json:"parameters"`
}

// Prompt returns the (possibly rewritten) prompt of the first instance.
func (p Payload) Prompt() string {
	if len(p.Instances) == 0 {
		return ""
	}
	return p.Instances[0].Prompt
}

// BuildPayload derives the predict payload from a request using the static
// tables. It never fails: unknown values fall back to defaults.
func BuildPayload(req domain.GenerationRequest) Payload {
	instance := Instance{Prompt: req.Prompt}
	if neg := strings.TrimSpace(req.NegativePrompt); neg != "" {
		instance.NegativePrompt = neg
	}

	params := Parameters{SampleCount: 1}
	if steps, ok := qualitySteps[req.Quality]; ok {
		params.Steps = steps
	}

	dims := DimensionsFor(req.AspectRatio)
	params.Height = dims.Height
	params.Width = dims.Width

	params.GuidanceScale = GuidanceScaleFor(req.StylePreset)
	if _, ok := guidanceScales[req.StylePreset]; ok {
		instance.Prompt = ApplyStylePrefix(req.Prompt, req.StylePreset)
	}

	return Payload{
		Instances:  []Instance{instance},
		Parameters: params,
	}
}

// DimensionsFor maps an aspect ratio to its explicit size; unknown ratios are square.
func DimensionsFor(aspect string) Dimensions {
	if dims, ok := aspectDimensions[aspect]; ok {
		return dims
	}
	return squareDimensions
}

// IsKnownAspectRatio reports whether aspect is in the dimension table.
func IsKnownAspectRatio(aspect string) bool {
	_, ok := aspectDimensions[aspect]
	return ok
}

// GuidanceScaleFor returns the preset's guidance scale or the default.
func GuidanceScaleFor(style string) float64 {
	if scale, ok := guidanceScales[style]; ok {
		return scale
	}
	return DefaultGuidanceScale
}

// ApplyStylePrefix appends the style phrase to prompt unless the prompt
// already contains it. Applying it twice yields the same prompt.
func ApplyStylePrefix(prompt, style string) string {
	prefix, ok := stylePrefixes[style]
	if !ok {
		return prompt
	}
	if containsFold(prompt, prefix) {
		return prompt
	}
	return prompt + ", " + prefix
}

// TexturePrompt decorates a texture prompt with TextureSuffix.
func TexturePrompt(prompt string) string {
	return strings.TrimSpace(prompt) + ", " + TextureSuffix
}

// AspectRatios lists the supported ratios, square first.
func AspectRatios() []string {
	out := make([]string, 0, len(aspectDimensions))
	for k := range aspectDimensions {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i] == domain.DefaultAspectRatio {
			return true
		}
		if out[j] == domain.DefaultAspectRatio {
			return false
		}
		return out[i] < out[j]
	})
	return out
}

// StylePresets lists the presets with a known guidance scale.
func StylePresets() []string {
	out := make([]string, 0, len(guidanceScales))
	for k := range guidanceScales {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Qualities lists the quality values with a step mapping.
func Qualities() []string {
	out := make([]string, 0, len(qualitySteps))
	for k := range qualitySteps {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func containsFold(s, substr string) bool {
	// A Caser keeps state, so each call gets its own.
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(substr))
}
