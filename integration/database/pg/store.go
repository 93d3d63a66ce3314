package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store keeps constraint documents in the constraint_documents table and
// implements ingest.Source. Calls made with a context from WithTx run in
// that transaction.
type Store struct {
	db DBTX
}

// NewStore creates a Store. Run Migrate first.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) DBTX {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return s.db
}

// List returns every document name, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.conn(ctx).Query(ctx, `SELECT name FROM constraint_documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pg: list documents: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("pg: list documents: %w", err)
	}
	return names, nil
}

// Fetch returns one document.
func (s *Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyDocumentName
	}
	var body []byte
	err := s.conn(ctx).QueryRow(ctx, `SELECT body FROM constraint_documents WHERE name = $1`, name).Scan(&body)
	if IsNotFoundError(err) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("pg: fetch %s: %w", name, err)
	}
	return body, nil
}

// Put inserts or replaces a document.
func (s *Store) Put(ctx context.Context, name string, body []byte) error {
	if name == "" {
		return ErrEmptyDocumentName
	}
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO constraint_documents (name, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		name, body)
	if err != nil {
		return fmt.Errorf("pg: put %s: %w", name, err)
	}
	return nil
}

// Delete removes a document. It reports whether the document existed.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM constraint_documents WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("pg: delete %s: %w", name, err)
	}
	return tag.RowsAffected() > 0, nil
}
