package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"imagestudio/internal/infra"
	"imagestudio/internal/sqlinline"
)

// PostgresMirror copies gallery entries into the gallery_entries table.
type PostgresMirror struct {
	sql infra.SQLExecutor
}

func NewPostgresMirror(sql infra.SQLExecutor) *PostgresMirror {
	return &PostgresMirror{sql: sql}
}

// EnsureSchema creates the mirror table when missing.
func (m *PostgresMirror) EnsureSchema(ctx context.Context) error {
	if m == nil || m.sql == nil {
		return errors.New("gallery: mirror not configured")
	}
	if _, err := m.sql.Exec(ctx, sqlinline.QEnsureGallerySchema); err != nil {
		return fmt.Errorf("gallery: ensure schema: %w", err)
	}
	return nil
}

func (m *PostgresMirror) Upsert(ctx context.Context, entry Entry) error {
	if m == nil || m.sql == nil {
		return errors.New("gallery: mirror not configured")
	}
	props := []byte("{}")
	if len(entry.Extra) > 0 {
		raw, err := json.Marshal(entry.Extra)
		if err != nil {
			return fmt.Errorf("gallery: encode properties: %w", err)
		}
		props = raw
	}
	if _, err := m.sql.Exec(ctx, sqlinline.QUpsertGalleryEntry,
		entry.Filename, entry.Prompt, entry.Type, entry.Created, props); err != nil {
		return fmt.Errorf("gallery: upsert %s: %w", entry.Filename, err)
	}
	return nil
}

func (m *PostgresMirror) Delete(ctx context.Context, filename string) error {
	if m == nil || m.sql == nil {
		return errors.New("gallery: mirror not configured")
	}
	if _, err := m.sql.Exec(ctx, sqlinline.QDeleteGalleryEntry, filename); err != nil {
		return fmt.Errorf("gallery: delete %s: %w", filename, err)
	}
	return nil
}

// Sync upserts every entry and prunes rows for images no longer present.
func (m *PostgresMirror) Sync(ctx context.Context, entries []Entry) error {
	if m == nil || m.sql == nil {
		return errors.New("gallery: mirror not configured")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := m.Upsert(ctx, e); err != nil {
			return err
		}
		names = append(names, e.Filename)
	}
	if _, err := m.sql.Exec(ctx, sqlinline.QPruneGalleryEntries, names); err != nil {
		return fmt.Errorf("gallery: prune: %w", err)
	}
	return nil
}

// Count returns the number of mirrored rows.
func (m *PostgresMirror) Count(ctx context.Context) (int64, error) {
	if m == nil || m.sql == nil {
		return 0, errors.New("gallery: mirror not configured")
	}
	var n int64
	if err := m.sql.QueryRow(ctx, sqlinline.QCountGalleryEntries).Scan(&n); err != nil {
		if infra.IsNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("gallery: count: %w", err)
	}
	return n, nil
}

var _ Mirror = (*PostgresMirror)(nil)
