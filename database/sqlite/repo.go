// Package sqlite implements the volume registry using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/database/internal"
)

// timeLayout has a fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const tagCondition = `EXISTS (SELECT 1 FROM json_each(storage_tags) WHERE json_each.value = %s)`

// Repo stores volumes in one SQLite table.
type Repo struct {
	db        *sql.DB
	tableName string
	now       func() time.Time
}

// NewRepo creates a Repo over an already migrated database.
func NewRepo(db *sql.DB, tables volstore.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, tableName: quoteIdentifier(tables.Volumes), now: time.Now}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repo) Create(ctx context.Context, v volstore.Volume) (volstore.Volume, error) {
	tags, err := json.Marshal(nonNil(v.Tags))
	if err != nil {
		return volstore.Volume{}, fmt.Errorf("create: encode tags: %w", err)
	}
	metadata, err := internal.EncodeMetadata(v.Metadata)
	if err != nil {
		return volstore.Volume{}, fmt.Errorf("create: %w", err)
	}

	v.ID = uuid.New().String()
	v.CreatedAt = r.now().UTC()
	v.Tags = internal.Tags(v.Tags)
	if len(v.Metadata) == 0 {
		v.Metadata = nil
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, owner_key, name, storage_format, storage_tags, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, r.tableName)

	_, err = r.db.ExecContext(ctx, query,
		v.ID, v.OwnerKey, v.Name, string(v.Format), string(tags), metadata, v.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return volstore.Volume{}, fmt.Errorf("create: insert: %w", err)
	}

	v.CreatedAt, _ = time.Parse(timeLayout, v.CreatedAt.Format(timeLayout))
	return v, nil
}

func (r *Repo) Get(ctx context.Context, id string) (volstore.Volume, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, owner_key, name, storage_format, storage_tags, metadata, created_at
		FROM %s
		WHERE id = ?`, r.tableName)

	v, err := scanVolume(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return volstore.Volume{}, fmt.Errorf("get %q: %w", id, volstore.ErrNotFound)
		}
		return volstore.Volume{}, fmt.Errorf("get: %w", err)
	}
	return v, nil
}

func (r *Repo) Find(ctx context.Context, ownerKey, name string) (volstore.Volume, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, owner_key, name, storage_format, storage_tags, metadata, created_at
		FROM %s
		WHERE owner_key = ? AND name = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, r.tableName)

	v, err := scanVolume(r.db.QueryRowContext(ctx, query, ownerKey, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return volstore.Volume{}, fmt.Errorf("find %s/%s: %w", ownerKey, name, volstore.ErrNotFound)
		}
		return volstore.Volume{}, fmt.Errorf("find: %w", err)
	}
	return v, nil
}

func (r *Repo) Search(ctx context.Context, q volstore.VolumeQuery) (volstore.VolumePage, error) {
	q = q.Normalize()
	filter := internal.VolumeFilter(q, internal.Question, tagCondition)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, r.tableName, filter.Where()) //nolint:gosec // G201: table name is validated
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, filter.Args()...).Scan(&total); err != nil {
		return volstore.VolumePage{}, fmt.Errorf("search: count: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, owner_key, name, storage_format, storage_tags, metadata, created_at
		FROM %s%s
		ORDER BY created_at DESC, rowid DESC
		LIMIT %s OFFSET %s`,
		r.tableName, filter.Where(), filter.Bind(q.Length), filter.Bind(q.Offset()))

	rows, err := r.db.QueryContext(ctx, query, filter.Args()...)
	if err != nil {
		return volstore.VolumePage{}, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]volstore.Volume, 0, q.Length)
	for rows.Next() {
		v, scanErr := scanVolume(rows)
		if scanErr != nil {
			return volstore.VolumePage{}, fmt.Errorf("search: %w", scanErr)
		}
		items = append(items, v)
	}

	if err := rows.Err(); err != nil {
		return volstore.VolumePage{}, fmt.Errorf("search: rows: %w", err)
	}

	return volstore.VolumePage{Items: items, Total: total, Page: q.Page}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVolume(row scanner) (volstore.Volume, error) {
	var v volstore.Volume
	var format, tags, metadata, createdAt string

	if err := row.Scan(&v.ID, &v.OwnerKey, &v.Name, &format, &tags, &metadata, &createdAt); err != nil {
		return volstore.Volume{}, err
	}

	v.Format = volstore.StorageFormat(format)

	if err := json.Unmarshal([]byte(tags), &v.Tags); err != nil {
		return volstore.Volume{}, fmt.Errorf("parse storage_tags: %w", err)
	}
	v.Tags = internal.Tags(v.Tags)

	var err error
	v.Metadata, err = internal.DecodeMetadata(metadata)
	if err != nil {
		return volstore.Volume{}, err
	}

	v.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return volstore.Volume{}, fmt.Errorf("parse created_at: %w", err)
	}

	return v, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
