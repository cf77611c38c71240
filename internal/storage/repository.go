// Package storage implements store.Store on database/sql for SQLite and
// PostgreSQL. Queries are written with ? placeholders and rebound per dialect.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"aguin/internal/log"
	"aguin/internal/store"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

type Repository struct {
	db      *sql.DB
	dialect Dialect
	logger  *log.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

var _ store.Store = (*Repository)(nil)

// SQLiteDSN enables foreign keys and a busy timeout on every connection.
func SQLiteDSN(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(ctx context.Context, dbPath string, logger *log.Logger) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(ctx, DialectSQLite, SQLiteDSN(dbPath), logger)
}

func NewPostgresRepository(ctx context.Context, dsn string, logger *log.Logger) (*Repository, error) {
	return open(ctx, DialectPostgres, dsn, logger)
}

func open(ctx context.Context, dialect Dialect, dsn string, logger *log.Logger) (*Repository, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentStorage)

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// single writer avoids SQLITE_BUSY under concurrent handlers
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.InfoContext(ctx, "Database ready", log.FieldBackend, string(dialect), log.FieldOperation, log.OpMigrate)

	return &Repository{
		db:      db,
		dialect: dialect,
		logger:  logger,
		tracer:  otel.Tracer("aguin/storage"),
		now:     time.Now,
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Dialect reports which database the repository talks to.
func (r *Repository) Dialect() Dialect {
	return r.dialect
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (r *Repository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Repository) exec(ctx context.Context, q execer, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return 0, classify(err)
	}
	return res.RowsAffected()
}

// insert runs an INSERT ... RETURNING id statement.
func (r *Repository) insert(ctx context.Context, q execer, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, r.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, classify(err)
	}
	return id, nil
}

// mustAffect turns a zero-row UPDATE or DELETE into store.ErrNotFound.
func mustAffect(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.system", string(r.dialect)))
	return r.tracer.Start(ctx, "storage."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// classify maps driver constraint errors onto store sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", store.ErrConflict, pqErr.Message)
		case "23503":
			return fmt.Errorf("%w: %s", store.ErrNotFound, pqErr.Message)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", store.ErrConflict, liteErr.Error())
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %s", store.ErrNotFound, liteErr.Error())
		}
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s", store.ErrConflict, msg)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %s", store.ErrNotFound, msg)
	}
	return err
}

var countQueries = map[store.Entity]string{
	store.EntityReservations:  "SELECT COUNT(*) FROM reservations",
	store.EntityClients:       "SELECT COUNT(*) FROM clients",
	store.EntityPhotographers: "SELECT COUNT(*) FROM photographers",
	store.EntityServices:      "SELECT COUNT(*) FROM services",
	store.EntityPackages:      "SELECT COUNT(*) FROM packages",
	store.EntityReviews:       "SELECT COUNT(*) FROM reviews",
	store.EntityPayments:      "SELECT COUNT(*) FROM payments",
	store.EntityGalleries:     "SELECT COUNT(*) FROM galleries",
	store.EntityPhotos:        "SELECT COUNT(*) FROM photos",
}

func (r *Repository) Count(ctx context.Context, entity store.Entity) (n int, err error) {
	ctx, span := r.startSpan(ctx, "count", attribute.String("entity", string(entity)))
	defer func() { endSpan(span, err) }()

	query, ok := countQueries[entity]
	if !ok {
		return 0, fmt.Errorf("count %s: %w", entity, store.ErrNotFound)
	}
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", entity, err)
	}
	return n, nil
}
