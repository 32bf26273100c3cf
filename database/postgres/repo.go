// Package postgres implements the volume registry using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/database/internal"
)

const selectColumns = `id::text, owner_key, name, storage_format, storage_tags, metadata::text, created_at`

const tagCondition = `%s = ANY(storage_tags)`

// Repo stores volumes in one PostgreSQL table.
type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewRepo creates a Repo over an already migrated database.
func NewRepo(pool *pgxpool.Pool, tables volstore.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: pgx.Identifier{tables.Volumes}.Sanitize()}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Create(ctx context.Context, v volstore.Volume) (volstore.Volume, error) {
	metadata, err := internal.EncodeMetadata(v.Metadata)
	if err != nil {
		return volstore.Volume{}, fmt.Errorf("create: %w", err)
	}
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (owner_key, name, storage_format, storage_tags, metadata)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		RETURNING %s
	`, r.tableName, selectColumns)

	created, err := scanVolume(r.pool.QueryRow(ctx, query, v.OwnerKey, v.Name, string(v.Format), tags, metadata))
	if err != nil {
		return volstore.Volume{}, fmt.Errorf("create: %w", err)
	}
	return created, nil
}

func (r *Repo) Get(ctx context.Context, id string) (volstore.Volume, error) {
	if _, err := uuid.Parse(id); err != nil {
		return volstore.Volume{}, fmt.Errorf("get %q: %w", id, volstore.ErrNotFound)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, selectColumns, r.tableName)

	v, err := scanVolume(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return volstore.Volume{}, fmt.Errorf("get %q: %w", id, volstore.ErrNotFound)
		}
		return volstore.Volume{}, fmt.Errorf("get: %w", err)
	}
	return v, nil
}

func (r *Repo) Find(ctx context.Context, ownerKey, name string) (volstore.Volume, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_key = $1 AND name = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, selectColumns, r.tableName)

	v, err := scanVolume(r.pool.QueryRow(ctx, query, ownerKey, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return volstore.Volume{}, fmt.Errorf("find %s/%s: %w", ownerKey, name, volstore.ErrNotFound)
		}
		return volstore.Volume{}, fmt.Errorf("find: %w", err)
	}
	return v, nil
}

func (r *Repo) Search(ctx context.Context, q volstore.VolumeQuery) (volstore.VolumePage, error) {
	q = q.Normalize()
	if q.ID != "" {
		if _, err := uuid.Parse(q.ID); err != nil {
			return volstore.VolumePage{Items: []volstore.Volume{}, Page: q.Page}, nil
		}
	}

	filter := internal.VolumeFilter(q, internal.Dollar, tagCondition)

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, r.tableName, filter.Where())
	if err := r.pool.QueryRow(ctx, countQuery, filter.Args()...).Scan(&total); err != nil {
		return volstore.VolumePage{}, fmt.Errorf("search: count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s%s
		ORDER BY created_at DESC, id DESC
		LIMIT %s OFFSET %s
	`, selectColumns, r.tableName, filter.Where(), filter.Bind(q.Length), filter.Bind(q.Offset()))

	rows, err := r.pool.Query(ctx, query, filter.Args()...)
	if err != nil {
		return volstore.VolumePage{}, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	items := make([]volstore.Volume, 0, q.Length)
	for rows.Next() {
		v, err := scanVolume(rows)
		if err != nil {
			return volstore.VolumePage{}, fmt.Errorf("search: scan: %w", err)
		}
		items = append(items, v)
	}

	if err := rows.Err(); err != nil {
		return volstore.VolumePage{}, fmt.Errorf("search: rows: %w", err)
	}

	return volstore.VolumePage{Items: items, Total: total, Page: q.Page}, nil
}

func scanVolume(row pgx.Row) (volstore.Volume, error) {
	var v volstore.Volume
	var format, metadata string

	if err := row.Scan(&v.ID, &v.OwnerKey, &v.Name, &format, &v.Tags, &metadata, &v.CreatedAt); err != nil {
		return volstore.Volume{}, err
	}

	v.Format = volstore.StorageFormat(format)
	v.Tags = internal.Tags(v.Tags)
	v.CreatedAt = v.CreatedAt.UTC()

	var err error
	v.Metadata, err = internal.DecodeMetadata(metadata)
	if err != nil {
		return volstore.Volume{}, err
	}
	return v, nil
}
