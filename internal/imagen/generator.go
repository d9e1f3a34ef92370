package imagen

import (
	"context"
	"errors"

	"imagestudio/internal/domain"
	"imagestudio/internal/infra"
)

// Generator turns a normalized request into a single image.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*Image, error)
}

type predictor interface {
	Predict(ctx context.Context, payload Payload) (map[string]any, error)
}

// RESTGenerator builds the predict payload, calls the REST endpoint once and
// extracts the image from whichever response layout came back.
type RESTGenerator struct {
	client predictor
	logger *infra.Logger
}

// NewRESTGenerator wires a predict client.
func NewRESTGenerator(client *Client, logger *infra.Logger) *RESTGenerator {
	return &RESTGenerator{client: client, logger: infra.OrDiscard(logger)}
}

func (g *RESTGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*Image, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("imagen: rest generator not configured")
	}
	payload := BuildPayload(req)
	g.logger.Info().
		Str("style", req.StylePreset).
		Str("aspect_ratio", req.AspectRatio).
		Str("quality", req.Quality).
		Int("height", payload.Parameters.Height).
		Int("width", payload.Parameters.Width).
		Float64("guidance_scale", payload.Parameters.GuidanceScale).
		Msg("imagen: generating image")

	body, err := g.client.Predict(ctx, payload)
	if err != nil {
		return nil, err
	}
	img, err := ExtractImage(body)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Detail != "" {
			g.logger.Error().Str("kind", string(de.Kind)).Str("response", de.Detail).Msg("imagen: unexpected response layout")
		}
		return nil, err
	}
	g.logger.Debug().Str("shape", img.Shape).Int("bytes", len(img.Data)).Msg("imagen: image extracted")
	return img, nil
}

var _ Generator = (*RESTGenerator)(nil)
