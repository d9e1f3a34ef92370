package imagen

import (
	"context"
	"fmt"
	"time"

	"imagestudio/internal/infra"
)

// NewGenerator selects the generator for cfg.ImagenBackend. timeout bounds
// each outbound call of the REST and genai backends.
func NewGenerator(ctx context.Context, cfg *infra.Config, timeout time.Duration, logger *infra.Logger) (Generator, error) {
	switch cfg.ImagenBackend {
	case infra.BackendSynthetic:
		return NewSyntheticGenerator(), nil
	case infra.BackendGenAI:
		return NewSDKGenerator(ctx, cfg, timeout, logger)
	case infra.BackendREST, "":
		client, err := NewClient(Options{
			Endpoint: cfg.Endpoint(),
			Tokens:   NewDefaultTokenProvider(logger),
			Timeout:  timeout,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		infra.OrDiscard(logger).Info().Str("endpoint", client.Endpoint()).Dur("timeout", timeout).Msg("imagen: rest backend ready")
		return NewRESTGenerator(client, logger), nil
	default:
		return nil, fmt.Errorf("imagen: unsupported backend %q", cfg.ImagenBackend)
	}
}
