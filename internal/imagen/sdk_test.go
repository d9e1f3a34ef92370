package imagen

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"imagestudio/internal/domain"
	"imagestudio/internal/infra"
)

type stubModels struct {
	prompt   string
	config   *genai.GenerateImagesConfig
	deadline time.Time
	resp     *genai.GenerateImagesResponse
	err      error
}

func (s *stubModels) GenerateImages(ctx context.Context, _ string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	s.prompt = prompt
	s.config = config
	s.deadline, _ = ctx.Deadline()
	return s.resp, s.err
}

func TestSDKGeneratorMapsRequest(t *testing.T) {
	models := &stubModels{resp: &genai.GenerateImagesResponse{GeneratedImages: []*genai.GeneratedImage{
		{Image: &genai.Image{ImageBytes: []byte("png"), MIMEType: "image/png"}},
	}}}
	gen := &SDKGenerator{models: models, model: "imagen-3.0-generate-002", logger: infra.OrDiscard(nil)}

	img, err := gen.Generate(context.Background(), domain.GenerationRequest{
		Prompt: "a red fox", NegativePrompt: "blur", StylePreset: "neon-punk", AspectRatio: "16:9",
	})
	require.NoError(t, err)
	assert.Equal(t, "png", string(img.Data))

	assert.Equal(t, "a red fox, neon cyberpunk style", models.prompt)
	assert.Equal(t, "16:9", models.config.AspectRatio)
	assert.Equal(t, "blur", models.config.NegativePrompt)
	require.NotNil(t, models.config.GuidanceScale)
	assert.InDelta(t, 8.5, *models.config.GuidanceScale, 0.001)
}

func TestSDKGeneratorSkipsUnsupportedRatio(t *testing.T) {
	models := &stubModels{resp: &genai.GenerateImagesResponse{GeneratedImages: []*genai.GeneratedImage{
		{Image: &genai.Image{ImageBytes: []byte("png")}},
	}}}
	gen := &SDKGenerator{models: models, logger: infra.OrDiscard(nil)}

	_, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "x", AspectRatio: "21:9"})
	require.NoError(t, err)
	assert.Empty(t, models.config.AspectRatio)
}

func TestSDKGeneratorClassifiesFailures(t *testing.T) {
	cases := map[string]struct {
		models *stubModels
		kind   domain.Kind
	}{
		"transport": {&stubModels{err: fmt.Errorf("dial: %w", context.DeadlineExceeded)}, domain.KindTimeout},
		"network":   {&stubModels{err: fmt.Errorf("connection reset")}, domain.KindNetwork},
		"provider":  {&stubModels{err: genai.APIError{Code: 400, Message: "Invalid prompt"}}, domain.KindHTTP},
		"empty":     {&stubModels{resp: &genai.GenerateImagesResponse{}}, domain.KindResponseShape},
		"filtered": {&stubModels{resp: &genai.GenerateImagesResponse{GeneratedImages: []*genai.GeneratedImage{
			{RAIFilteredReason: "sexual content"},
		}}}, domain.KindSafety},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &SDKGenerator{models: tc.models, logger: infra.OrDiscard(nil)}
			_, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"})
			assert.True(t, domain.IsKind(err, tc.kind), "got %v", err)
		})
	}
}

func TestSDKGeneratorReportsProviderError(t *testing.T) {
	models := &stubModels{err: genai.APIError{Code: 400, Message: "Invalid prompt", Status: "INVALID_ARGUMENT"}}
	gen := &SDKGenerator{models: models, logger: infra.OrDiscard(nil)}

	_, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"})
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.KindHTTP, derr.Kind)
	assert.Equal(t, 400, derr.Status)
	assert.Equal(t, "HTTP 400: Invalid prompt", derr.Message)
}

func TestSDKGeneratorBoundsCall(t *testing.T) {
	models := &stubModels{resp: &genai.GenerateImagesResponse{GeneratedImages: []*genai.GeneratedImage{
		{Image: &genai.Image{ImageBytes: []byte("png")}},
	}}}
	gen := &SDKGenerator{models: models, timeout: 2 * time.Minute, logger: infra.OrDiscard(nil)}

	start := time.Now()
	_, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"})
	require.NoError(t, err)
	require.False(t, models.deadline.IsZero())
	assert.WithinDuration(t, start.Add(2*time.Minute), models.deadline, 5*time.Second)
}
