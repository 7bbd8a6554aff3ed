// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// postgres.go implements the document Store on PostgreSQL. All collections
// share one documents table with a jsonb payload; equality filters are
// translated to jsonb containment. The slug registry's uniqueness guard is
// a partial unique index on (data->>'slug') created by the migrations, so a
// racing duplicate insert surfaces as a unique-violation error here.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the PostgreSQL error code for unique-constraint
// violations.
const pgUniqueViolation = "23505"

// DocumentStore is the PostgreSQL-backed document store.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore creates a DocumentStore with the given database connection.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// filterJSON renders an equality filter as a jsonb containment argument.
func filterJSON(filter Filter) ([]byte, error) {
	if filter == nil {
		filter = Filter{}
	}
	b, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}
	return b, nil
}

// Find returns all documents in the collection matching the filter, oldest
// first.
func (s *DocumentStore) Find(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	fj, err := filterJSON(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND data @> $2::jsonb
		ORDER BY created_at ASC, id ASC
	`, collection, fj)
	if err != nil {
		return nil, markUnavailable("find "+collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Data, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, markUnavailable("find "+collection, err)
	}
	return docs, nil
}

// FindOne returns one matching document, or nil if none matches.
func (s *DocumentStore) FindOne(ctx context.Context, collection string, filter Filter) (*Document, error) {
	fj, err := filterJSON(filter)
	if err != nil {
		return nil, err
	}

	d := &Document{}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND data @> $2::jsonb
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, collection, fj).Scan(&d.ID, &d.Data, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, markUnavailable("find one "+collection, err)
	}
	return d, nil
}

// FindByID retrieves a document by id. Returns nil if not found.
func (s *DocumentStore) FindByID(ctx context.Context, collection string, id uuid.UUID) (*Document, error) {
	d := &Document{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&d.ID, &d.Data, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, markUnavailable("find "+collection+" by id", err)
	}
	return d, nil
}

// Insert writes a new document and returns it with store-assigned timestamps.
func (s *DocumentStore) Insert(ctx context.Context, collection string, id uuid.UUID, data []byte) (*Document, error) {
	d := &Document{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		RETURNING id, data, created_at, updated_at
	`, collection, id, data).Scan(&d.ID, &d.Data, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert %s: %w", collection, ErrDuplicateKey)
		}
		return nil, markUnavailable("insert "+collection, err)
	}
	return d, nil
}

// InsertUnique inserts a document relying on the collection's unique index
// over uniqueField. The index itself lives in the migrations; a concurrent
// duplicate loses the race inside PostgreSQL and comes back as
// ErrDuplicateKey.
func (s *DocumentStore) InsertUnique(ctx context.Context, collection, uniqueField string, id uuid.UUID, data []byte) (*Document, error) {
	_ = uniqueField // enforced by the partial unique index on the collection
	return s.Insert(ctx, collection, id, data)
}

// Update replaces an existing document's payload and bumps updated_at.
// Returns nil if the id does not exist.
func (s *DocumentStore) Update(ctx context.Context, collection string, id uuid.UUID, data []byte) (*Document, error) {
	d := &Document{}
	err := s.db.QueryRowContext(ctx, `
		UPDATE documents SET data = $3, updated_at = NOW()
		WHERE collection = $1 AND id = $2
		RETURNING id, data, created_at, updated_at
	`, collection, id, data).Scan(&d.ID, &d.Data, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, markUnavailable("update "+collection, err)
	}
	return d, nil
}

// Delete removes a document by id.
func (s *DocumentStore) Delete(ctx context.Context, collection string, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return false, markUnavailable("delete "+collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s rows affected: %w", collection, err)
	}
	return n > 0, nil
}

// DeleteOne removes a single document matching the filter.
func (s *DocumentStore) DeleteOne(ctx context.Context, collection string, filter Filter) (bool, error) {
	fj, err := filterJSON(filter)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND id IN (
			SELECT id FROM documents
			WHERE collection = $1 AND data @> $2::jsonb
			ORDER BY created_at ASC, id ASC
			LIMIT 1
		)
	`, collection, fj)
	if err != nil {
		return false, markUnavailable("delete one "+collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete one %s rows affected: %w", collection, err)
	}
	return n > 0, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
