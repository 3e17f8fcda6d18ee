package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

//go:embed schema_mysql.sql
var mysqlSchema string

// sqlExecutor is satisfied by both *sql.DB and *sql.Tx.
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// MySQLDSN builds a DSN with parseTime enabled so DATETIME columns scan into time.Time.
func MySQLDSN(host string, port int, user, password, dbName string) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = host + ":" + strconv.Itoa(port)
	cfg.DBName = dbName
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func OpenMySQLStore(ctx context.Context, dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping mysql")
	}
	return NewMySQLStore(db), nil
}

func mysqlRepositories(db sqlExecutor) Repositories {
	return Repositories{
		Vehicles:      &MySQLVehicleRepository{db: db},
		Capacity:      &MySQLCapacityRepository{db: db},
		Bookings:      &MySQLBookingRepository{db: db},
		Cancellations: &MySQLCancellationRepository{db: db},
	}
}

func (s *MySQLStore) Repositories() Repositories {
	return mysqlRepositories(s.db)
}

func (s *MySQLStore) WithinTx(ctx context.Context, fn TxFunc) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if err := fn(ctx, mysqlRepositories(tx)); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

// Migrate runs the schema one statement at a time; the driver rejects multi-statement Exec by default.
func (s *MySQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(mysqlSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate mysql schema")
		}
	}
	return nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

var _ Store = (*MySQLStore)(nil)
