package imagen

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"imagestudio/internal/domain"
)

// SyntheticGenerator renders deterministic striped placeholders locally. It
// keeps the studio usable without cloud credentials (IMAGEN_BACKEND=synthetic).
type SyntheticGenerator struct{}

func NewSyntheticGenerator() *SyntheticGenerator {
	return &SyntheticGenerator{}
}

func (g *SyntheticGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload := BuildPayload(req)
	seed := syntheticSeed(payload.Prompt(), req.NegativePrompt, req.StylePreset, req.Quality)
	data, err := renderSynthetic(payload.Parameters.Width, payload.Parameters.Height, seed)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindImageProcess, Message: fmt.Sprintf("Failed to render placeholder image: %v", err), Cause: err}
	}
	return &Image{Data: data, MIMEType: "image/png", Shape: "synthetic"}, nil
}

func renderSynthetic(width, height int, seed string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorFromSeed(seed, 0)}, image.Point{}, draw.Src)

	accent := &image.Uniform{colorFromSeed(seed, 1)}
	stripe := max(32, height/12)
	for y := 0; y < height; y += stripe * 2 {
		draw.Draw(img, image.Rect(0, y, width, min(height, y+stripe)), accent, image.Point{}, draw.Src)
	}

	diagonal := colorFromSeed(seed, 2)
	for x := 0; x < max(width, height); x += max(16, width/32) {
		for y := 0; y < height && x+y < width; y++ {
			img.Set(x+y, y, diagonal)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func colorFromSeed(seed string, shift int) color.RGBA {
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{R: hexByte(segment[0:2]), G: hexByte(segment[2:4]), B: hexByte(segment[4:6]), A: 255}
}

func hexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func syntheticSeed(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'|'})
	}
	return hex.EncodeToString(h.Sum(nil))[:18]
}

var _ Generator = (*SyntheticGenerator)(nil)
