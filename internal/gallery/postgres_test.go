package gallery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"imagestudio/internal/infra"
)

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// stubDB keeps gallery rows in memory and checks every statement carries a
// valid marker, like the real runner does.
type stubDB struct {
	rows    map[string][]any
	execErr error
}

func newStubDB() *stubDB {
	return &stubDB{rows: map[string][]any{}}
}

func (s *stubDB) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if _, _, err := infra.ExtractMarker(query); err != nil {
		return pgconn.CommandTag{}, err
	}
	if s.execErr != nil {
		return pgconn.CommandTag{}, s.execErr
	}
	switch {
	case strings.Contains(query, "create table"):
	case strings.Contains(query, "insert into gallery_entries"):
		s.rows[args[0].(string)] = args
	case strings.Contains(query, "not (filename = any"):
		keep := map[string]bool{}
		for _, n := range args[0].([]string) {
			keep[n] = true
		}
		for k := range s.rows {
			if !keep[k] {
				delete(s.rows, k)
			}
		}
	case strings.Contains(query, "delete from gallery_entries"):
		delete(s.rows, args[0].(string))
	default:
		return pgconn.CommandTag{}, errors.New("unexpected query")
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (s *stubDB) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	if _, _, err := infra.ExtractMarker(query); err != nil {
		return stubRow{scan: func(...any) error { return err }}
	}
	return stubRow{scan: func(dest ...any) error {
		*(dest[0].(*int64)) = int64(len(s.rows))
		return nil
	}}
}

func TestPostgresMirrorUpsertAndDelete(t *testing.T) {
	db := newStubDB()
	m := NewPostgresMirror(db)
	ctx := context.Background()

	if err := m.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	entry := Entry{Filename: "a.png", Prompt: "p", Type: TypeGeneration, Created: "c", Extra: map[string]any{"quality": "hd"}}
	if err := m.Upsert(ctx, entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := m.Upsert(ctx, entry); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if got := string(db.rows["a.png"][4].([]byte)); got != `{"quality":"hd"}` {
		t.Fatalf("unexpected properties %s", got)
	}
	n, err := m.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("count = %d, %v", n, err)
	}

	if err := m.Delete(ctx, "a.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(db.rows) != 0 {
		t.Fatalf("expected empty table, got %d rows", len(db.rows))
	}
}

func TestPostgresMirrorSyncPrunes(t *testing.T) {
	db := newStubDB()
	m := NewPostgresMirror(db)
	ctx := context.Background()
	_ = m.Upsert(ctx, Entry{Filename: "stale.png"})

	if err := m.Sync(ctx, []Entry{{Filename: "a.png"}, {Filename: "b.png"}}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if _, ok := db.rows["stale.png"]; ok {
		t.Fatal("stale row should be pruned")
	}
	if len(db.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(db.rows))
	}
}

func TestPostgresMirrorWrapsErrors(t *testing.T) {
	db := newStubDB()
	db.execErr = errors.New("connection refused")
	err := NewPostgresMirror(db).Upsert(context.Background(), Entry{Filename: "a.png"})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	var nilMirror *PostgresMirror
	if err := nilMirror.Delete(context.Background(), "a.png"); err == nil {
		t.Fatal("expected error from unconfigured mirror")
	}
}
