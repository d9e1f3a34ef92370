package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"imagestudio/internal/domain"
	"imagestudio/internal/infra"
	"imagestudio/internal/studio"
)

const maxTextureBody = 64 << 10

// TextureApp serves the local texture service used by the 3D tool plugin.
type TextureApp struct {
	Textures *studio.TextureService
	Logger   *infra.Logger
}

func NewTextureApp(textures *studio.TextureService, logger *infra.Logger) *TextureApp {
	return &TextureApp{Textures: textures, Logger: infra.OrDiscard(logger)}
}

type textureRequest struct {
	Prompt         string `json:"prompt"`
	OutputFilename string `json:"output_filename"`
}

func (t *TextureApp) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Texture server is running. Use the /generate_texture endpoint to generate textures.")
}

func (t *TextureApp) GenerateTexture(w http.ResponseWriter, r *http.Request) {
	var req textureRequest
	body := http.MaxBytesReader(w, r.Body, maxTextureBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		t.Logger.Debug().Err(err).Msg("texture: unreadable request body")
	}

	if strings.TrimSpace(req.Prompt) == "" || req.OutputFilename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing 'prompt' or 'output_filename' in request."})
		return
	}
	if err := studio.ValidateTextureFilename(req.OutputFilename); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid output filename."})
		return
	}

	path, err := t.Textures.GenerateTexture(r.Context(), req.Prompt, req.OutputFilename)
	if err != nil {
		t.Logger.Error().Err(err).Str("kind", string(domain.KindOf(err))).Str("filename", req.OutputFilename).Msg("texture generation failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to generate texture."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file_path": path})
}
