package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagestudio/internal/domain"
	"imagestudio/internal/imagen"
	"imagestudio/internal/storage"
	"imagestudio/internal/studio"
)

func newTextureApp(t *testing.T, gen imagen.Generator) (*TextureApp, string) {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewTextureApp(studio.NewTextureService(gen, files, nil, nil), nil), files.BasePath()
}

func postTexture(app *TextureApp, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate_texture", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.GenerateTexture(rec, req)
	return rec
}

func TestTextureIndexBanner(t *testing.T) {
	app, _ := newTextureApp(t, &stubGenerator{})
	rec := httptest.NewRecorder()
	app.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/generate_texture")
}

func TestGenerateTextureSuccess(t *testing.T) {
	app, dir := newTextureApp(t, &stubGenerator{img: &imagen.Image{Data: tinyPNG(t)}})

	rec := postTexture(app, `{"prompt":"Seamless metal surface texture","output_filename":"blender_metal_texture.png"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, filepath.Join(dir, "blender_metal_texture.png"), decodeJSON(t, rec)["file_path"])
	assert.FileExists(t, filepath.Join(dir, "blender_metal_texture.png"))
}

func TestGenerateTextureValidation(t *testing.T) {
	gen := &stubGenerator{}
	app, _ := newTextureApp(t, gen)

	cases := []struct{ body, want string }{
		{`{"prompt":"x"}`, "Missing 'prompt' or 'output_filename' in request."},
		{`{"output_filename":"a.png"}`, "Missing 'prompt' or 'output_filename' in request."},
		{`not json`, "Missing 'prompt' or 'output_filename' in request."},
		{`{"prompt":"x","output_filename":"a.jpg"}`, "Invalid output filename."},
		{`{"prompt":"x","output_filename":"../a.png"}`, "Invalid output filename."},
		{`{"prompt":"x","output_filename":"C:\\a.png"}`, "Invalid output filename."},
	}
	for _, tc := range cases {
		rec := postTexture(app, tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
		assert.Equal(t, tc.want, decodeJSON(t, rec)["error"], tc.body)
	}
	assert.Zero(t, gen.calls)
}

func TestGenerateTextureUpstreamFailure(t *testing.T) {
	app, _ := newTextureApp(t, &stubGenerator{err: &domain.Error{Kind: domain.KindTimeout, Message: "Image generation request timed out."}})

	rec := postTexture(app, `{"prompt":"x","output_filename":"a.png"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": "Failed to generate texture."}, decodeJSON(t, rec))
}
