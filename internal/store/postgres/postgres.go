// Package postgres implements store.EventStore on top of pgx/v5,
// following the connection-pooling and retry conventions of the
// teacher's internal/web-app and internal/dcb packages: a pgxpool.Pool
// configured from environment-style settings, a startup ping with
// bounded retry, and SQLSTATE-based error classification instead of
// string matching against driver messages.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studybuddy/eventcore/internal/apperrors"
	"github.com/studybuddy/eventcore/internal/store"
)

const serializationFailure = "40001"

// Config configures connection pooling and transaction retry. Zero
// value fields fall back to the defaults Connect applies.
type Config struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxRetries      int
	RetryBaseDelay  time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConns == 0 {
		c.MaxConns = 20
	}
	if c.MinConns == 0 {
		c.MinConns = 5
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 10 * time.Minute
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = 20 * time.Millisecond
	}
	return c
}

type eventStore struct {
	pool        *pgxpool.Pool
	cfg         Config
	closeOnce   sync.Once
}

// Connect parses dsn, configures the pool per cfg, and pings the
// database with a bounded retry loop mirroring
// internal/web-app/main.go's startup sequence.
func Connect(ctx context.Context, dsn string, cfg Config) (store.EventStore, error) {
	cfg = cfg.withDefaults()

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperrors.Transient("Connect", "database", fmt.Errorf("parse dsn: %w", err))
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperrors.Transient("Connect", "database", fmt.Errorf("create pool: %w", err))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var pingErr error
	for attempt := 0; attempt < 30; attempt++ {
		if pingErr = pool.Ping(pingCtx); pingErr == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if pingErr != nil {
		pool.Close()
		return nil, apperrors.Transient("Connect", "database", fmt.Errorf("ping failed after retries: %w", pingErr))
	}

	return &eventStore{pool: pool, cfg: cfg}, nil
}

func (es *eventStore) Close() {
	es.closeOnce.Do(func() { es.pool.Close() })
}

func (es *eventStore) CreateIfAbsent(ctx context.Context, path, kind string, body []byte) (bool, error) {
	tag, err := es.pool.Exec(ctx, `
		INSERT INTO documents (path, kind, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (path) DO NOTHING`,
		path, kind, body)
	if err != nil {
		return false, classify("CreateIfAbsent", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (es *eventStore) Read(ctx context.Context, path string) (*store.Doc, error) {
	row := es.pool.QueryRow(ctx, `
		SELECT path, kind, doc, position, created_at, updated_at
		FROM documents WHERE path = $1`, path)
	doc, err := scanDoc(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("Read", err)
	}
	return doc, nil
}

func (es *eventStore) ReadMany(ctx context.Context, paths []string) ([]*store.Doc, error) {
	rows, err := es.pool.Query(ctx, `
		SELECT path, kind, doc, position, created_at, updated_at
		FROM documents WHERE path = ANY($1)`, paths)
	if err != nil {
		return nil, classify("ReadMany", err)
	}
	defer rows.Close()

	byPath := make(map[string]*store.Doc, len(paths))
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, classify("ReadMany", err)
		}
		byPath[d.Path] = d
	}
	if err := rows.Err(); err != nil {
		return nil, classify("ReadMany", err)
	}

	out := make([]*store.Doc, len(paths))
	for i, p := range paths {
		out[i] = byPath[p]
	}
	return out, nil
}

func (es *eventStore) Write(ctx context.Context, path, kind string, body []byte) error {
	_, err := es.pool.Exec(ctx, `
		INSERT INTO documents (path, kind, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (path) DO UPDATE SET doc = EXCLUDED.doc, kind = EXCLUDED.kind, updated_at = now()`,
		path, kind, body)
	if err != nil {
		return classify("Write", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Read(ctx context.Context, path string) (*store.Doc, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT path, kind, doc, position, created_at, updated_at
		FROM documents WHERE path = $1 FOR UPDATE`, path)
	doc, err := scanDoc(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (t *pgTx) Write(ctx context.Context, path, kind string, body []byte) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO documents (path, kind, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (path) DO UPDATE SET doc = EXCLUDED.doc, kind = EXCLUDED.kind, updated_at = now()`,
		path, kind, body)
	return err
}

// Transaction retries on SQLSTATE 40001 (serialization failure) with a
// short exponential backoff, the same conflict class the teacher's
// command_executor.go retries on under RepeatableRead/Serializable
// isolation.
func (es *eventStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	var lastErr error
	delay := es.cfg.RetryBaseDelay
	for attempt := 0; attempt <= es.cfg.MaxRetries; attempt++ {
		err := pgx.BeginTxFunc(ctx, es.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, func(tx pgx.Tx) error {
			return fn(ctx, &pgTx{tx: tx})
		})
		if err == nil {
			return nil
		}
		lastErr = err
		if !isSerializationFailure(err) {
			return classify("Transaction", err)
		}
		if attempt < es.cfg.MaxRetries {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return apperrors.Transient("Transaction", "database", fmt.Errorf("exhausted %d retries: %w", es.cfg.MaxRetries, lastErr))
}

func (es *eventStore) Query(ctx context.Context, filter store.QueryFilter, order store.Order, limit int, afterPath string) ([]*store.Doc, error) {
	dir := "ASC"
	cmp := ">"
	if order == store.OrderDescending {
		dir = "DESC"
		cmp = "<"
	}

	sql := fmt.Sprintf(`
		SELECT path, kind, doc, position, created_at, updated_at
		FROM documents
		WHERE kind = $1 AND path LIKE $2 AND ($3 = '' OR path %s $3)
		ORDER BY path %s
		LIMIT $4`, cmp, dir)

	// A limit of zero or less binds NULL, and LIMIT NULL returns every row.
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := es.pool.Query(ctx, sql, filter.Kind, filter.PathPrefix+"%", afterPath, lim)
	if err != nil {
		return nil, classify("Query", err)
	}
	defer rows.Close()

	var out []*store.Doc
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, classify("Query", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (es *eventStore) BatchWrite(ctx context.Context, items []store.Write) ([]bool, error) {
	created := make([]bool, len(items))
	err := es.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		for i, item := range items {
			prior, err := tx.Read(ctx, item.Path)
			if err != nil {
				return err
			}
			if prior != nil {
				created[i] = false
				continue
			}
			if err := tx.Write(ctx, item.Path, item.Kind, item.Body); err != nil {
				return err
			}
			created[i] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDoc(row rowScanner) (*store.Doc, error) {
	var d store.Doc
	if err := row.Scan(&d.Path, &d.Kind, &d.Body, &d.Position, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == serializationFailure
	}
	return false
}

// classify maps a raw pgx/driver error onto the pipeline's error
// taxonomy (§7): anything we cannot identify as a conflict is reported
// transient, matching the store's "retry is always safe, idempotency
// is earned by the cursor" contract.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if isSerializationFailure(err) {
		return apperrors.Concurrency(op, err)
	}
	return apperrors.Transient(op, "database", err)
}
