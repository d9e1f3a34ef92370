package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"imagestudio/internal/domain"
)

// FlattenPNG decodes an image, composites it over an opaque white canvas and
// re-encodes it as PNG. The result carries no transparency.
func FlattenPNG(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewError(domain.KindImageProcess, fmt.Sprintf("Failed to decode image for flattening: %v", err), err)
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, domain.NewError(domain.KindImageProcess, fmt.Sprintf("Failed to encode flattened image: %v", err), err)
	}
	return buf.Bytes(), nil
}
