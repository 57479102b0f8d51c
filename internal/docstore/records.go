package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

type encoded struct {
	id   string
	body []byte
}

func encode(doc Document) (encoded, error) {
	id := doc.DocumentID()
	if id == "" {
		return encoded{}, errors.New("document has an empty id")
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return encoded{}, fmt.Errorf("encoding document %s: %w", id, err)
	}
	if !gjson.ParseBytes(body).IsObject() {
		return encoded{}, fmt.Errorf("document %s does not encode to a JSON object", id)
	}
	return encoded{id: id, body: body}, nil
}

func (s *Store) checkCollection(collection string) error {
	if _, ok := s.schema[collection]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	return nil
}

// Put upserts doc by id. Last write wins.
func (s *Store) Put(ctx context.Context, collection string, doc Document) error {
	return PutAll(ctx, s, collection, []Document{doc})
}

// PutAll upserts every doc in one transaction.
func PutAll[T Document](ctx context.Context, s *Store, collection string, docs []T) error {
	if err := s.checkCollection(collection); err != nil {
		return err
	}
	enc, err := encodeAll(docs)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.write(ctx, tx, collection, enc)
	})
}

// ReplaceAll swaps the whole content of collection for docs in a single
// transaction. Readers observe either the previous snapshot or the new one.
func ReplaceAll[T Document](ctx context.Context, s *Store, collection string, docs []T) error {
	if err := s.checkCollection(collection); err != nil {
		return err
	}
	enc, err := encodeAll(docs)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := clearTx(ctx, tx, collection); err != nil {
			return err
		}
		return s.write(ctx, tx, collection, enc)
	})
}

func encodeAll[T Document](docs []T) ([]encoded, error) {
	out := make([]encoded, 0, len(docs))
	for _, d := range docs {
		e, err := encode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) write(ctx context.Context, tx *sql.Tx, collection string, docs []encoded) error {
	now := time.Now().UTC().Format(time.RFC3339)
	fields := s.schema[collection]
	for _, d := range docs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO documents (collection, id, body, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
			collection, d.id, string(d.body), now,
		); err != nil {
			return fmt.Errorf("writing %s/%s: %w", collection, d.id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM document_fields WHERE collection = ? AND id = ?`, collection, d.id,
		); err != nil {
			return fmt.Errorf("clearing index of %s/%s: %w", collection, d.id, err)
		}
		for _, f := range fields {
			v := gjson.GetBytes(d.body, f)
			if !v.Exists() {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO document_fields (collection, id, field, value) VALUES (?, ?, ?, ?)`,
				collection, d.id, f, v.String(),
			); err != nil {
				return fmt.Errorf("indexing %s/%s.%s: %w", collection, d.id, f, err)
			}
		}
	}
	return nil
}

// Clear removes every record of collection.
func (s *Store) Clear(ctx context.Context, collection string) error {
	if err := s.checkCollection(collection); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return clearTx(ctx, tx, collection)
	})
}

func clearTx(ctx context.Context, tx *sql.Tx, collection string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM document_fields WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("clearing %s index: %w", collection, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("clearing %s: %w", collection, err)
	}
	return nil
}

// Delete removes one record. It returns ErrNotFound if id is absent.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.checkCollection(collection); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM document_fields WHERE collection = ? AND id = ?`, collection, id)
		return err
	})
}

// Count returns the number of records in collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := s.checkCollection(collection); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&n)
	return n, err
}

// Get decodes the record with the given id into a T.
func Get[T any](ctx context.Context, s *Store, collection, id string) (T, error) {
	var out T
	if err := s.checkCollection(collection); err != nil {
		return out, err
	}
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return out, ErrNotFound
	}
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return out, fmt.Errorf("decoding %s/%s: %w", collection, id, err)
	}
	return out, nil
}

// GetAll decodes every record of collection. Order is insertion order, which
// callers should not rely on.
func GetAll[T any](ctx context.Context, s *Store, collection string) ([]T, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? ORDER BY rowid`, collection)
	if err != nil {
		return nil, err
	}
	return decodeRows[T](rows)
}

// Query returns the records whose indexed field equals value. Numbers compare
// by their JSON text, so jobId 7 matches "7".
func Query[T any](ctx context.Context, s *Store, collection, field, value string) ([]T, error) {
	ok, err := s.schema.indexed(collection, field)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, collection)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotIndexed, collection, field)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.body FROM documents d
		JOIN document_fields f ON f.collection = d.collection AND f.id = d.id
		WHERE f.collection = ? AND f.field = ? AND f.value = ?
		ORDER BY d.rowid`, collection, field, value)
	if err != nil {
		return nil, err
	}
	return decodeRows[T](rows)
}

func decodeRows[T any](rows *sql.Rows) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
