package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"werewolf-service/domain"
)

// Repository implements the engine's Store facade on PostgreSQL.
type Repository struct {
	db *sql.DB
}

func NewRepository(connStr string) (*Repository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initDB(db); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	zap.L().Info("Connected to PostgreSQL successfully")
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// querier abstracts *sql.DB / *sql.Tx so every operation transparently joins
// the room transaction when one is on the context.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

func (r *Repository) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.db
}

const txRetries = 5

// WithRoomTransaction serializes fn against concurrent transactions on the
// same room via an advisory lock on the room id, retrying serialization
// conflicts with jittered backoff.
func (r *Repository) WithRoomTransaction(ctx context.Context, roomID uuid.UUID, fn func(ctx context.Context) error) error {
	// Nested calls join the outer transaction.
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 0; attempt < txRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(50+rand.Intn(100*attempt)) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := r.runRoomTx(ctx, roomID, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
		zap.L().Warn("room transaction conflict, retrying",
			zap.String("room_id", roomID.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return fmt.Errorf("%w: room transaction: %v", domain.ErrInternal, lastErr)
}

func (r *Repository) runRoomTx(ctx context.Context, roomID uuid.UUID, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, roomID.String()); err != nil {
		return fmt.Errorf("failed to take room lock: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func retryable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "deadlock detected")
}

// mapError turns driver errors into the domain's sentinel kinds.
func mapError(err error, what string) error {
	switch {
	case err == sql.ErrNoRows:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	case strings.Contains(err.Error(), "unique constraint") ||
		strings.Contains(err.Error(), "duplicate key"):
		return fmt.Errorf("%w: %s already exists", domain.ErrConflict, what)
	default:
		return fmt.Errorf("%w: %s: %v", domain.ErrInternal, what, err)
	}
}
