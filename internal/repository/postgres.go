package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"necessities/swap/internal/ids"
	"necessities/swap/internal/models"
)

const uniqueViolation = "23505"

// PostgresCollection keeps each document as a JSONB row keyed by id.
type PostgresCollection struct {
	pool  *pgxpool.Pool
	table string
}

func NewPostgresCollection(pool *pgxpool.Pool, table string) *PostgresCollection {
	return &PostgresCollection{pool: pool, table: table}
}

// NewPostgresStore builds both collections over one pool. Closing the store
// closes the pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Users: NewPostgresCollection(pool, CollectionUsers),
		Items: NewPostgresCollection(pool, CollectionItems),
		ping:  pool.Ping,
		close: pool.Close,
	}
}

func (c *PostgresCollection) Name() string {
	return c.table
}

func (c *PostgresCollection) Insert(ctx context.Context, doc models.Document) (string, error) {
	body, err := json.Marshal(withoutID(doc))
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id := ids.New()
	query := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb)`, c.ident())
	if _, err := c.pool.Exec(ctx, query, id, body); err != nil {
		return "", c.wrap("insert", err)
	}
	return id, nil
}

func (c *PostgresCollection) FindByID(ctx context.Context, id string) (models.Document, error) {
	query := fmt.Sprintf(`SELECT id, doc FROM %s WHERE id = $1`, c.ident())
	return c.scanOne(c.pool.QueryRow(ctx, query, id))
}

func (c *PostgresCollection) FindOne(ctx context.Context, filter Filter) (models.Document, error) {
	where, args, err := buildWhere(filter, nil)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, doc FROM %s WHERE %s ORDER BY seq LIMIT 1`, c.ident(), where)
	return c.scanOne(c.pool.QueryRow(ctx, query, args...))
}

func (c *PostgresCollection) Find(ctx context.Context, filter Filter) ([]models.Document, error) {
	where, args, err := buildWhere(filter, nil)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, doc FROM %s WHERE %s ORDER BY seq`, c.ident(), where)

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, c.wrap("find", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		doc, err := c.scanOne(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, c.wrap("find", err)
	}
	return docs, nil
}

func (c *PostgresCollection) UpdateByID(ctx context.Context, id string, cond models.Document, set models.Document) (bool, error) {
	body, err := json.Marshal(withoutID(set))
	if err != nil {
		return false, fmt.Errorf("encode update: %w", err)
	}
	if cond == nil {
		cond = models.Document{}
	}
	condBody, err := json.Marshal(cond)
	if err != nil {
		return false, fmt.Errorf("encode condition: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET doc = doc || $2::jsonb
		WHERE id = $1 AND doc @> $3::jsonb
	`, c.ident())
	cmd, err := c.pool.Exec(ctx, query, id, body, condBody)
	if err != nil {
		return false, c.wrap("update", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (c *PostgresCollection) DeleteByID(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, c.ident())
	cmd, err := c.pool.Exec(ctx, query, id)
	if err != nil {
		return c.wrap("delete", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *PostgresCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	where, args, err := buildWhere(filter, nil)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, c.ident(), where)

	var count int64
	if err := c.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, c.wrap("count", err)
	}
	return count, nil
}

func (c *PostgresCollection) GroupCount(ctx context.Context, field string) ([]Bucket, error) {
	query := fmt.Sprintf(`
		SELECT doc -> $1::text, COUNT(*)
		FROM %s
		GROUP BY 1
		ORDER BY 2 DESC, MIN(seq)
	`, c.ident())

	rows, err := c.pool.Query(ctx, query, field)
	if err != nil {
		return nil, c.wrap("group", err)
	}
	defer rows.Close()

	buckets := []Bucket{}
	for rows.Next() {
		var (
			raw    []byte
			bucket Bucket
		)
		if err := rows.Scan(&raw, &bucket.Count); err != nil {
			return nil, c.wrap("group", err)
		}
		if raw != nil {
			if err := json.Unmarshal(raw, &bucket.Key); err != nil {
				return nil, fmt.Errorf("decode group key: %w", err)
			}
		}
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

func (c *PostgresCollection) scanOne(row pgx.Row) (models.Document, error) {
	var (
		id  string
		raw []byte
	)
	if err := row.Scan(&id, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, c.wrap("scan", err)
	}

	doc := models.Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", c.table, err)
	}
	doc[models.FieldID] = id
	return doc, nil
}

func (c *PostgresCollection) ident() string {
	return pgx.Identifier{c.table}.Sanitize()
}

func (c *PostgresCollection) wrap(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return fmt.Errorf("%s %s: %w", op, c.table, err)
}

const rfc3339Pattern = `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`

func buildWhere(filter Filter, args []any) (string, []any, error) {
	clauses := []string{"TRUE"}

	if len(filter.Match) > 0 {
		body, err := json.Marshal(filter.Match)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter: %w", err)
		}
		args = append(args, body)
		clauses = append(clauses, fmt.Sprintf("doc @> $%d::jsonb", len(args)))
	}

	if filter.Since != nil {
		args = append(args, filter.Since.Field, filter.Since.From.UTC())
		field, from := len(args)-1, len(args)
		// values that are not RFC3339 timestamps never match
		clauses = append(clauses, fmt.Sprintf(
			"(CASE WHEN doc ->> $%[1]d::text ~ '%[3]s' THEN (doc ->> $%[1]d::text)::timestamptz END) >= $%[2]d",
			field, from, rfc3339Pattern,
		))
	}

	return strings.Join(clauses, " AND "), args, nil
}
