package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"imagestudio/internal/domain"
)

func encodePNG(t require.TestingT, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func assertOpaque(t require.TestingT, data []byte) image.Image {
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := decoded.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := decoded.At(x, y).RGBA()
			require.Equal(t, uint32(0xffff), a, "pixel (%d,%d) is not opaque", x, y)
		}
	}
	return decoded
}

func TestFlattenPNGTransparentBecomesWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.Set(1, 1, color.NRGBA{R: 255, A: 255})

	out, err := FlattenPNG(encodePNG(t, src))
	require.NoError(t, err)

	decoded := assertOpaque(t, out)
	r, g, b, _ := decoded.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})
	r, g, b, _ = decoded.At(1, 1).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b})
}

func TestFlattenPNGAcceptsJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	out, err := FlattenPNG(buf.Bytes())
	require.NoError(t, err)
	decoded := assertOpaque(t, out)
	assert.Equal(t, 8, decoded.Bounds().Dx())
}

func TestFlattenPNGRejectsGarbage(t *testing.T) {
	_, err := FlattenPNG([]byte("definitely not an image"))
	assert.True(t, domain.IsKind(err, domain.KindImageProcess))
}

func TestFlattenPNGAlwaysOpaque(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 12).Draw(t, "w")
		h := rapid.IntRange(1, 12).Draw(t, "h")
		src := image.NewNRGBA(image.Rect(0, 0, w, h))
		for i := range src.Pix {
			src.Pix[i] = rapid.Byte().Draw(t, "pix")
		}

		out, err := FlattenPNG(encodePNG(t, src))
		if err != nil {
			t.Fatalf("flatten: %v", err)
		}
		decoded := assertOpaque(t, out)
		if decoded.Bounds().Dx() != w || decoded.Bounds().Dy() != h {
			t.Fatalf("size changed: %v", decoded.Bounds())
		}
	})
}
