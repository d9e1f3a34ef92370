package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"imagestudio/internal/domain"
	"imagestudio/internal/imagen"
	"imagestudio/internal/studio"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Flash is a one-shot notice rendered above the form.
type Flash struct {
	Category string
	Message  string
}

type pageData struct {
	Flashes      []Flash
	Form         domain.GenerationRequest
	Result       *studio.Result
	AspectRatios []string
	StylePresets []string
	Qualities    []string
}

func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	form := domain.GenerationRequest{}
	form.Normalize()
	a.render(w, http.StatusOK, pageData{Form: form})
}

// Generate handles the landing page form and re-renders the page with the
// outcome.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render(w, http.StatusBadRequest, pageData{
			Flashes: []Flash{{Category: "error", Message: "Could not read the submitted form."}},
		})
		return
	}
	req := domain.GenerationRequest{
		Prompt:         r.PostForm.Get("prompt"),
		NegativePrompt: r.PostForm.Get("negative_prompt"),
		StylePreset:    r.PostForm.Get("style_preset"),
		AspectRatio:    r.PostForm.Get("aspect_ratio"),
		Quality:        r.PostForm.Get("quality"),
	}
	req.Normalize()
	a.Logger.Debug().
		Str("aspect_ratio", req.AspectRatio).
		Str("style_preset", req.StylePreset).
		Str("quality", req.Quality).
		Msg("generate form received")

	data := pageData{Form: req}
	if req.Prompt == "" {
		data.Flashes = []Flash{{Category: "error", Message: "Prompt is required for generation!"}}
		data.Result = &studio.Result{Error: "Prompt is required"}
		a.render(w, http.StatusOK, data)
		return
	}

	res := a.Studio.Generate(r.Context(), req)
	data.Result = &res
	switch {
	case res.Error != "" && res.ImageURL == "":
		data.Flashes = []Flash{{Category: "error", Message: "Generation failed: " + res.Error}}
	case res.ImageURL != "":
		data.Flashes = []Flash{{Category: "success", Message: "Image generated successfully!"}}
	}
	a.render(w, http.StatusOK, data)
}

func (a *App) render(w http.ResponseWriter, code int, data pageData) {
	data.AspectRatios = imagen.AspectRatios()
	data.StylePresets = imagen.StylePresets()
	data.Qualities = imagen.Qualities()
	if data.Form.AspectRatio == "" {
		data.Form.Normalize()
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		a.Logger.Error().Err(err).Msg("render index page")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}
