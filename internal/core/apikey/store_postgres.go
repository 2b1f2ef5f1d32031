// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apikey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/aihub/internal/platform/database/schema"
	"github.com/taibuivan/aihub/internal/platform/dberr"
)

// PostgresRepository implements [Repository] on the access.apikey table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var keyColumns = strings.Join(schema.AccessAPIKey.Columns(), ", ")

func scanKey(row pgx.Row) (*Key, error) {
	key := &Key{}
	var status string
	err := row.Scan(
		&key.ID, &key.Token, &key.Name, &key.Description, &key.RateLimit,
		&status, &key.CreatedBy, &key.CreatedAt, &key.LastUsedAt, &key.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	key.Status = Status(status)
	return key, nil
}

func wrapKeyErr(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrKeyNotFound
	}
	return dberr.Wrap(err, action)
}

/*
Create inserts a key and fills its generated id and creation time.

Parameters:
  - context: context.Context
  - key: *Key (Token, Name and Status must be set)

Returns:
  - error: Conflict on a duplicate token, or connectivity errors
*/
func (repository *PostgresRepository) Create(context context.Context, key *Key) error {
	table := schema.AccessAPIKey
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s, %s
	`,
		table.Table, table.APIKey, table.Name, table.Description, table.RateLimit,
		table.Status, table.CreatedBy, table.ExpiresAt,
		table.ID, table.CreatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		key.Token, key.Name, key.Description, key.RateLimit,
		string(key.Status), key.CreatedBy, key.ExpiresAt,
	).Scan(&key.ID, &key.CreatedAt)

	return dberr.Wrap(err, "create_api_key")
}

func (repository *PostgresRepository) FindByToken(context context.Context, token string) (*Key, error) {
	table := schema.AccessAPIKey
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, keyColumns, table.Table, table.APIKey)

	key, err := scanKey(repository.pool.QueryRow(context, query, token))
	if err != nil {
		return nil, wrapKeyErr(err, "find_api_key")
	}
	return key, nil
}

// List returns every key, newest first.
func (repository *PostgresRepository) List(context context.Context) ([]*Key, error) {
	table := schema.AccessAPIKey
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC`, keyColumns, table.Table, table.CreatedAt)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_api_keys")
	}
	defer rows.Close()

	keys := make([]*Key, 0)
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_api_key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_api_keys")
	}
	return keys, nil
}

func (repository *PostgresRepository) Delete(context context.Context, id int64) error {
	table := schema.AccessAPIKey
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_api_key")
	}
	if tag.RowsAffected() == 0 {
		return ErrKeyNotFound
	}
	return nil
}

func (repository *PostgresRepository) TouchLastUsed(context context.Context, id int64, at time.Time) error {
	table := schema.AccessAPIKey
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, table.Table, table.LastUsedAt, table.ID)

	_, err := repository.pool.Exec(context, query, id, at)
	return dberr.Wrap(err, "touch_api_key")
}

func (repository *PostgresRepository) Count(context context.Context) (int, error) {
	table := schema.AccessAPIKey
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table.Table)

	var count int
	err := repository.pool.QueryRow(context, query).Scan(&count)
	return count, dberr.Wrap(err, "count_api_keys")
}

func (repository *PostgresRepository) CountActive(context context.Context) (int, error) {
	table := schema.AccessAPIKey
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, table.Table, table.Status)

	var count int
	err := repository.pool.QueryRow(context, query, string(StatusActive)).Scan(&count)
	return count, dberr.Wrap(err, "count_active_api_keys")
}
