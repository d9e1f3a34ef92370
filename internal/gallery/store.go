package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"imagestudio/internal/domain"
	"imagestudio/internal/infra"
	"imagestudio/internal/storage"
)

// MetadataFile is the gallery document kept next to the images.
const MetadataFile = "metadata.json"

// Mirror receives a copy of every gallery change. Mirror failures never fail
// the gallery operation.
type Mirror interface {
	Upsert(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, filename string) error
}

// Store maintains metadata.json. Read-modify-write cycles are serialized
// within the process and the document is replaced atomically; separate
// processes writing the same directory are still last-writer-wins.
type Store struct {
	mu     sync.Mutex
	files  *storage.FileStore
	mirror Mirror
	logger *infra.Logger
}

// NewStore creates a gallery over files. mirror may be nil.
func NewStore(files *storage.FileStore, mirror Mirror, logger *infra.Logger) *Store {
	return &Store{files: files, mirror: mirror, logger: infra.OrDiscard(logger)}
}

// Files exposes the image directory backing the gallery.
func (s *Store) Files() *storage.FileStore {
	return s.files
}

// Append records entry. A missing or unreadable document starts a new list.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	entries, _ := s.readDocument(ctx)
	entries = append(entries, entry)
	err := s.writeDocument(ctx, entries)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.mirrorUpsert(ctx, entry)
	return nil
}

// List returns the gallery document, or a directory scan when the document
// is missing or corrupt. It never fails.
func (s *Store) List(ctx context.Context) []Entry {
	s.mu.Lock()
	entries, ok := s.readDocument(ctx)
	s.mu.Unlock()
	if ok {
		return entries
	}
	return s.Scan()
}

// Remove deletes the image file and drops its entries from the document.
// The document itself cannot be removed through here.
func (s *Store) Remove(ctx context.Context, filename string) error {
	if strings.EqualFold(filename, MetadataFile) {
		return domain.ErrNotFound
	}
	if !s.files.Exists(filename) {
		return domain.ErrNotFound
	}

	s.mu.Lock()
	if err := s.files.Remove(ctx, filename); err != nil {
		s.mu.Unlock()
		return err
	}
	if entries, ok := s.readDocument(ctx); ok {
		kept := entries[:0]
		for _, e := range entries {
			if e.Filename != filename {
				kept = append(kept, e)
			}
		}
		if err := s.writeDocument(ctx, kept); err != nil {
			s.logger.Warn().Err(err).Str("filename", filename).Msg("gallery: could not update metadata after delete")
		}
	}
	s.mu.Unlock()

	if s.mirror != nil {
		if err := s.mirror.Delete(ctx, filename); err != nil {
			s.logger.Warn().Err(err).Str("filename", filename).Msg("gallery: mirror delete failed")
		}
	}
	return nil
}

// Bootstrap seeds the document from a directory scan when it does not exist
// yet. It reports whether a document was written.
func (s *Store) Bootstrap(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files.Exists(MetadataFile) {
		return false, nil
	}
	entries := s.Scan()
	if err := s.writeDocument(ctx, entries); err != nil {
		return false, err
	}
	s.logger.Info().Int("images", len(entries)).Msg("gallery: created initial metadata document")
	return true, nil
}

// Rebuild replaces the document with a directory scan, keeping the recorded
// metadata of images that still exist.
func (s *Store) Rebuild(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := map[string]Entry{}
	if entries, ok := s.readDocument(ctx); ok {
		for _, e := range entries {
			known[e.Filename] = e
		}
	}
	scanned := s.Scan()
	for i, e := range scanned {
		if prev, ok := known[e.Filename]; ok {
			scanned[i] = prev
		}
	}
	if err := s.writeDocument(ctx, scanned); err != nil {
		return nil, err
	}
	return scanned, nil
}

// Scan lists the non-hidden PNG files of the directory as placeholder
// entries dated by modification time.
func (s *Store) Scan() []Entry {
	files, err := s.files.List(".png")
	if err != nil {
		s.logger.Error().Err(err).Msg("gallery: listing images failed")
		return []Entry{}
	}
	out := make([]Entry, 0, len(files))
	for _, f := range files {
		out = append(out, Entry{
			Filename: f.Name,
			Prompt:   UnknownPrompt,
			Type:     TypeGenerated,
			Created:  FormatCreated(f.ModTime),
		})
	}
	return out
}

// NewGenerationEntry builds the entry recorded after a successful generation.
func NewGenerationEntry(filename string, req domain.GenerationRequest, now time.Time) Entry {
	var style any
	if req.StylePreset != "" {
		style = req.StylePreset
	}
	return Entry{
		Filename: filename,
		Prompt:   req.Prompt,
		Type:     TypeGeneration,
		Created:  FormatCreated(now),
		Extra: map[string]any{
			"style_preset": style,
			"aspect_ratio": req.AspectRatio,
			"quality":      req.Quality,
		},
	}
}

func (s *Store) readDocument(ctx context.Context) ([]Entry, bool) {
	data, err := s.files.Read(ctx, MetadataFile)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("gallery: could not read metadata")
		}
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		s.logger.Warn().Err(err).Msg("gallery: metadata document is corrupt")
		return nil, false
	}
	return entries, true
}

func (s *Store) writeDocument(ctx context.Context, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = s.files.Write(ctx, MetadataFile, data)
	return err
}

func (s *Store) mirrorUpsert(ctx context.Context, entry Entry) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Upsert(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("filename", entry.Filename).Msg("gallery: mirror upsert failed")
	}
}
