package imagen

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagestudio/internal/domain"
)

func TestSyntheticGeneratorHonoursAspectRatio(t *testing.T) {
	gen := NewSyntheticGenerator()
	img, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "a red fox", AspectRatio: "9:16"})
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	decoded, err := png.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 576, decoded.Bounds().Dx())
	assert.Equal(t, 1024, decoded.Bounds().Dy())
}

func TestSyntheticGeneratorIsDeterministic(t *testing.T) {
	gen := NewSyntheticGenerator()
	req := domain.GenerationRequest{Prompt: "lighthouse", AspectRatio: "21:9", StylePreset: "watercolor"}

	a, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	b, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)

	req.Prompt = "harbour"
	c, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, a.Data, c.Data)
}

func TestSyntheticGeneratorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSyntheticGenerator().Generate(ctx, domain.GenerationRequest{Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
