package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/wefixit/internal/errs"
	"github.com/and161185/wefixit/internal/repository"
)

// Collection implements repository.Collection over a table
// (id uuid, doc jsonb, created_at timestamptz).
type Collection struct {
	db    *DB
	table string
}

// NewCollection constructs a collection gateway. Unknown names are rejected
// because the name is interpolated into SQL.
func NewCollection(db *DB, name repository.CollectionName) (*Collection, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("postgres: unknown collection %q", name)
	}
	return &Collection{db: db, table: string(name)}, nil
}

// Insert stores a new document.
func (c *Collection) Insert(ctx context.Context, doc repository.Document) error {
	body, err := encodeFields(doc.Fields)
	if err != nil {
		return err
	}
	q := `INSERT INTO ` + c.table + ` (id, doc, created_at) VALUES ($1, $2::jsonb, $3)`
	if _, err := c.db.Pool.Exec(ctx, q, doc.ID, body, doc.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return errs.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID loads one document.
func (c *Collection) FindByID(ctx context.Context, id uuid.UUID) (*repository.Document, error) {
	q := `SELECT id, doc, created_at FROM ` + c.table + ` WHERE id=$1`
	var (
		doc  repository.Document
		body []byte
	)
	if err := c.db.Pool.QueryRow(ctx, q, id).Scan(&doc.ID, &body, &doc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	fields, err := decodeFields(body)
	if err != nil {
		return nil, err
	}
	doc.Fields = fields
	return &doc, nil
}

// Find returns documents containing every filter field, ordered by created_at.
func (c *Collection) Find(ctx context.Context, qry repository.Query) ([]repository.Document, error) {
	filter, err := encodeFields(qry.Filter)
	if err != nil {
		return nil, err
	}
	order := "DESC"
	if qry.Sort == repository.OldestFirst {
		order = "ASC"
	}
	q := `SELECT id, doc, created_at FROM ` + c.table +
		` WHERE doc @> $1::jsonb ORDER BY created_at ` + order + `, id OFFSET $2`
	args := []any{filter, qry.Offset}
	if qry.Limit > 0 {
		q += ` LIMIT $3`
		args = append(args, qry.Limit)
	}

	rows, err := c.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []repository.Document{}
	for rows.Next() {
		var (
			id   uuid.UUID
			body []byte
			ts   time.Time
		)
		if err = rows.Scan(&id, &body, &ts); err != nil {
			return nil, err
		}
		fields, err := decodeFields(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", c.table, id, err)
		}
		out = append(out, repository.Document{ID: id, CreatedAt: ts, Fields: fields})
	}
	return out, rows.Err()
}

// Count returns the number of documents containing every filter field.
func (c *Collection) Count(ctx context.Context, filter repository.Fields) (int64, error) {
	body, err := encodeFields(filter)
	if err != nil {
		return 0, err
	}
	q := `SELECT count(*) FROM ` + c.table + ` WHERE doc @> $1::jsonb`
	var n int64
	if err := c.db.Pool.QueryRow(ctx, q, body).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Set merges fields into the stored document in a single statement.
func (c *Collection) Set(ctx context.Context, id uuid.UUID, fields repository.Fields) error {
	body, err := encodeFields(fields)
	if err != nil {
		return err
	}
	q := `UPDATE ` + c.table + ` SET doc = doc || $2::jsonb WHERE id=$1`
	tag, err := c.db.Pool.Exec(ctx, q, id, body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a document.
func (c *Collection) Delete(ctx context.Context, id uuid.UUID) error {
	q := `DELETE FROM ` + c.table + ` WHERE id=$1`
	tag, err := c.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func encodeFields(f repository.Fields) ([]byte, error) {
	if f == nil {
		f = repository.Fields{}
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

func decodeFields(b []byte) (repository.Fields, error) {
	f := repository.Fields{}
	if len(b) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode document (%d bytes): %w", len(b), err)
	}
	return f, nil
}
