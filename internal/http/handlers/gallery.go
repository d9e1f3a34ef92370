package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"imagestudio/internal/domain"
	"imagestudio/internal/gallery"
	"imagestudio/pkg/zip"
)

// ListGallery lists the gallery entries as {"images": [...]}.
func (a *App) ListGallery(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"images": a.Gallery.List(r.Context())})
}

func (a *App) DeleteImage(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "filename")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	if strings.TrimSpace(raw) == "" {
		a.error(w, http.StatusBadRequest, "No filename provided")
		return
	}

	filename := SecureFilename(raw)
	if filename == "" {
		a.error(w, http.StatusNotFound, "File not found")
		return
	}

	err := a.Gallery.Remove(r.Context(), filename)
	a.Metrics.RecordGalleryOp("remove", err)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "File not found")
	case err != nil:
		a.Logger.Error().Err(err).Str("filename", filename).Msg("failed to delete image")
		a.error(w, http.StatusInternalServerError, err.Error())
	default:
		a.json(w, http.StatusOK, map[string]any{"success": true})
	}
}

// ExportGallery streams every stored PNG plus the metadata document as a ZIP.
func (a *App) ExportGallery(w http.ResponseWriter, r *http.Request) {
	files := a.Gallery.Files()
	listed, err := files.List(".png")
	if err != nil {
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}

	assets := make([]zip.Asset, 0, len(listed)+1)
	for _, f := range listed {
		data, err := files.Read(r.Context(), f.Name)
		if err != nil {
			a.Logger.Warn().Err(err).Str("filename", f.Name).Msg("skipping unreadable image in export")
			continue
		}
		assets = append(assets, zip.Asset{Filename: f.Name, Modified: f.ModTime, Data: data})
	}
	if doc, err := files.Read(r.Context(), gallery.MetadataFile); err == nil {
		assets = append(assets, zip.Asset{Filename: gallery.MetadataFile, Modified: time.Now(), Data: doc})
	}

	archive, err := zip.ArchiveAssets(assets)
	a.Metrics.RecordGalleryOp("export", err)
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to build gallery archive")
		a.error(w, http.StatusInternalServerError, "Failed to export gallery")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="gallery.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// ServeGenerated serves a stored image by its flat filename.
func (a *App) ServeGenerated(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}
	files := a.Gallery.Files()
	if !files.Exists(name) {
		http.NotFound(w, r)
		return
	}
	path, err := files.Path(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, path)
}
