package studio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"imagestudio/internal/domain"
	"imagestudio/internal/gallery"
	"imagestudio/internal/imagen"
	"imagestudio/internal/infra"
	"imagestudio/internal/metrics"
	"imagestudio/internal/storage"
)

// GeneratedURLPrefix is where stored images are served from.
const GeneratedURLPrefix = "/static/generated/"

const flowGenerate = "generate"

// Result is the outcome of a generation as shown to the user: exactly one of
// ImageURL or Error is set.
type Result struct {
	ImageURL string `json:"image_url,omitempty"`
	Filename string `json:"-"`
	Error    string `json:"error,omitempty"`
}

// Service runs the text-to-image flow: generate, persist, record metadata.
type Service struct {
	generator imagen.Generator
	gallery   *gallery.Store
	files     *storage.FileStore
	metrics   *metrics.Collector
	logger    *infra.Logger
	now       func() time.Time
}

func NewService(generator imagen.Generator, store *gallery.Store, collector *metrics.Collector, logger *infra.Logger) *Service {
	return &Service{
		generator: generator,
		gallery:   store,
		files:     store.Files(),
		metrics:   collector,
		logger:    infra.OrDiscard(logger),
		now:       time.Now,
	}
}

// Generate never returns a Go error; failures are rendered into Result.Error.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest) Result {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return Result{Error: "Prompt is required"}
	}
	if !imagen.IsKnownAspectRatio(req.AspectRatio) {
		s.logger.Warn().Str("aspect_ratio", req.AspectRatio).Msg("studio: unknown aspect ratio, using 1:1 dimensions")
	}

	start := time.Now()
	img, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.metrics.RecordGeneration(flowGenerate, outcome(err), time.Since(start), 0)
		ev := s.logger.Error()
		if domain.IsKind(err, domain.KindSafety) {
			ev = s.logger.Warn()
		}
		ev.Err(err).Str("kind", string(domain.KindOf(err))).Msg("studio: generation failed")
		return Result{Error: UserMessage(err)}
	}

	filename := "generated_" + uuid.NewString() + ".png"
	path, err := s.files.Create(ctx, filename, img.Data)
	if err != nil {
		s.metrics.RecordGeneration(flowGenerate, string(domain.KindIO), time.Since(start), 0)
		s.logger.Error().Err(err).Str("filename", filename).Msg("studio: saving image failed")
		return Result{Error: fmt.Sprintf("Failed to decode or save generated image: %v", err)}
	}
	s.metrics.RecordGeneration(flowGenerate, "success", time.Since(start), len(img.Data))
	s.logger.Info().Str("path", path).Int("bytes", len(img.Data)).Msg("studio: image saved")

	err = s.gallery.Append(ctx, gallery.NewGenerationEntry(filename, req, s.now()))
	s.metrics.RecordGalleryOp("append", err)
	if err != nil {
		s.logger.Warn().Err(err).Str("filename", filename).Msg("studio: could not save image metadata")
	}

	return Result{ImageURL: GeneratedURLPrefix + filename, Filename: filename}
}

// UserMessage renders err the way the pages and JSON endpoints show it.
func UserMessage(err error) string {
	var de *domain.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &de) && de.Message != "":
		return de.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "Image generation request timed out."
	default:
		return fmt.Sprintf("An unexpected server error occurred during generation: %v", err)
	}
}

func outcome(err error) string {
	if kind := domain.KindOf(err); kind != "" {
		return string(kind)
	}
	return "unexpected"
}
