package studio

import (
	"context"
	"strings"
	"time"

	"imagestudio/internal/domain"
	"imagestudio/internal/imagen"
	"imagestudio/internal/infra"
	"imagestudio/internal/metrics"
	"imagestudio/internal/storage"
)

const flowTexture = "texture"

const invalidFilenameChars = `<>:"/\|?*`

// ValidateTextureFilename accepts bare .png names without path or reserved
// characters.
func ValidateTextureFilename(name string) error {
	if !strings.HasSuffix(name, ".png") || strings.ContainsAny(name, invalidFilenameChars) {
		return domain.ErrInvalidFilename
	}
	return nil
}

// TextureService generates opaque tileable textures into a directory chosen
// by the caller's filename. Existing files are replaced.
type TextureService struct {
	generator imagen.Generator
	files     *storage.FileStore
	metrics   *metrics.Collector
	logger    *infra.Logger
}

func NewTextureService(generator imagen.Generator, files *storage.FileStore, collector *metrics.Collector, logger *infra.Logger) *TextureService {
	return &TextureService{generator: generator, files: files, metrics: collector, logger: infra.OrDiscard(logger)}
}

// GenerateTexture returns the absolute path of the written PNG.
func (s *TextureService) GenerateTexture(ctx context.Context, prompt, filename string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", domain.ErrInvalidPrompt
	}
	if err := ValidateTextureFilename(filename); err != nil {
		return "", err
	}

	req := domain.GenerationRequest{Prompt: imagen.TexturePrompt(prompt)}
	req.Normalize()

	start := time.Now()
	img, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.metrics.RecordGeneration(flowTexture, outcome(err), time.Since(start), 0)
		s.logger.Error().Err(err).Str("kind", string(domain.KindOf(err))).Msg("texture: generation failed")
		return "", err
	}

	flat, err := storage.FlattenPNG(img.Data)
	if err != nil {
		s.metrics.RecordGeneration(flowTexture, outcome(err), time.Since(start), 0)
		s.logger.Error().Err(err).Msg("texture: flattening failed")
		return "", err
	}

	path, err := s.files.Write(ctx, filename, flat)
	if err != nil {
		s.metrics.RecordGeneration(flowTexture, outcome(err), time.Since(start), 0)
		s.logger.Error().Err(err).Str("filename", filename).Msg("texture: saving failed")
		return "", err
	}
	s.metrics.RecordGeneration(flowTexture, "success", time.Since(start), len(flat))
	s.logger.Info().Str("path", path).Msg("texture: saved as a full rectangle")
	return path, nil
}
