package imagen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagestudio/internal/infra"
)

func TestNewGeneratorSelectsBackend(t *testing.T) {
	cfg := &infra.Config{ProjectID: "p", Location: "us-central1", ImagenModel: "imagen-3.0-generate-002"}

	cfg.ImagenBackend = infra.BackendSynthetic
	gen, err := NewGenerator(context.Background(), cfg, 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &SyntheticGenerator{}, gen)

	cfg.ImagenBackend = infra.BackendREST
	gen, err = NewGenerator(context.Background(), cfg, 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &RESTGenerator{}, gen)

	cfg.ImagenBackend = ""
	gen, err = NewGenerator(context.Background(), cfg, 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &RESTGenerator{}, gen)
}

func TestNewGeneratorRejectsUnknownBackend(t *testing.T) {
	_, err := NewGenerator(context.Background(), &infra.Config{ImagenBackend: "dall-e"}, 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"dall-e"`)
}
