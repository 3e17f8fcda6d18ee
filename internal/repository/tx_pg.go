package repository

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

//go:embed schema_pg.sql
var pgSchema string

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func OpenPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return NewPGStore(pool), nil
}

func pgRepositories(db DBTX) Repositories {
	return Repositories{
		Vehicles:      NewVehicleRepository(db),
		Capacity:      NewCapacityRepository(db),
		Bookings:      NewBookingRepository(db),
		Cancellations: NewCancellationRepository(db),
	}
}

func (s *PGStore) Repositories() Repositories {
	return pgRepositories(s.pool)
}

func (s *PGStore) WithinTx(ctx context.Context, fn TxFunc) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, pgRepositories(tx)); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

func (s *PGStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, pgSchema)
	return errors.Wrap(err, "migrate postgres schema")
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

var _ Store = (*PGStore)(nil)
