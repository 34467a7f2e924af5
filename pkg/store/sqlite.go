package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"biotimeline/pkg/db"
	"biotimeline/pkg/model"
)

// ErrBuiltinReference is returned when deleting a reference that ships with the binary.
var ErrBuiltinReference = errors.New("built-in references cannot be deleted")

// Store defines the repository interface.
// It composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	ReferenceStore
	StateStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- References ---

const referenceColumns = `id, name, locale, biography, events, builtin, source, created_at`

// SaveReference inserts or replaces a reference. A missing ID is generated and
// written back to ref.
func (s *SQLiteStore) SaveReference(ctx context.Context, ref *model.Reference) error {
	if ref.ID == "" {
		ref.ID = uuid.NewString()
	}
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now().UTC()
	}

	eventsJSON, err := json.Marshal(ref.Events)
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}

	// Transparent Compression
	bio := []byte(ref.Biography)
	if compressed, err := compress(bio); err == nil {
		bio = compressed
	}

	query := `INSERT OR REPLACE INTO gold_references (` + referenceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		ref.ID, ref.Name, string(ref.Locale), bio, string(eventsJSON), ref.Builtin, ref.Source, ref.CreatedAt,
	)
	return err
}

// GetReference returns nil, nil when id is unknown.
func (s *SQLiteStore) GetReference(ctx context.Context, id string) (*model.Reference, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+referenceColumns+` FROM gold_references WHERE id = ?`, id)
	ref, err := scanReference(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ref, err
}

// FindReference looks a reference up by name and locale. It returns nil, nil when absent.
func (s *SQLiteStore) FindReference(ctx context.Context, name string, loc model.Locale) (*model.Reference, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+referenceColumns+` FROM gold_references WHERE name = ? AND locale = ? ORDER BY created_at LIMIT 1`,
		name, string(loc))
	ref, err := scanReference(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ref, err
}

// ListReferences returns every reference without its biography text.
func (s *SQLiteStore) ListReferences(ctx context.Context) ([]*model.Reference, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+referenceColumns+` FROM gold_references ORDER BY builtin DESC, name, locale`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []*model.Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		ref.Biography = ""
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// DeleteReference removes a user reference. Unknown ids are not an error.
func (s *SQLiteStore) DeleteReference(ctx context.Context, id string) error {
	var builtin bool
	err := s.db.QueryRowContext(ctx, "SELECT builtin FROM gold_references WHERE id = ?", id).Scan(&builtin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if builtin {
		return ErrBuiltinReference
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM gold_references WHERE id = ?", id)
	return err
}

// DeleteReferencesBySource removes every reference with the given import source.
func (s *SQLiteStore) DeleteReferencesBySource(ctx context.Context, source string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM gold_references WHERE source = ?", source)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReference(row rowScanner) (*model.Reference, error) {
	var ref model.Reference
	var locale, eventsJSON string
	var bio []byte
	var source sql.NullString

	if err := row.Scan(&ref.ID, &ref.Name, &locale, &bio, &eventsJSON, &ref.Builtin, &source, &ref.CreatedAt); err != nil {
		return nil, err
	}
	ref.Locale = model.Locale(locale)
	ref.Source = source.String

	// Transparent Decompression
	if len(bio) > 2 && bio[0] == 0x1f && bio[1] == 0x8b {
		if decompressed, err := decompress(bio); err == nil {
			bio = decompressed
		}
	}
	ref.Biography = string(bio)

	if eventsJSON != "" {
		if err := json.Unmarshal([]byte(eventsJSON), &ref.Events); err != nil {
			return nil, fmt.Errorf("reference %s: corrupt events: %w", ref.ID, err)
		}
	}
	return &ref, nil
}

// --- Compression Pooling ---

var (
	// Pool for gzip writers to reuse flate state
	gzipWriterPool = sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}
	// Pool for generic byte buffers
	bufferPool = sync.Pool{
		New: func() interface{} {
			return new(bytes.Buffer)
		},
	}
)

func compress(data []byte) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	w := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)

	w.Reset(buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	// Must copy because buf is returned to pool
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}
