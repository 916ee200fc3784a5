package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// MySQL error numbers the store translates.
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
	errDuplicateEntry  = 1062
)

// MySQLStore implements Store on InnoDB.  Unit locks are rows in
// inventory_locks and serialize writers per unit and date.  Write
// transactions run at READ COMMITTED with a bounded lock wait: the ledger
// reads that follow LockUnits see every earlier commit and take no gap
// locks, so bookings of one room on disjoint dates never block each other.
type MySQLStore struct {
	db       *sqlx.DB
	lockWait time.Duration
}

// NewMySQLStore wraps an open connection pool.  lockWait bounds every row
// lock wait inside write transactions and is rounded up to whole seconds.
func NewMySQLStore(db *sqlx.DB, lockWait time.Duration) *MySQLStore {
	if lockWait <= 0 {
		lockWait = 5 * time.Second
	}
	return &MySQLStore{db: db, lockWait: lockWait}
}

// DB exposes the pool for health checks and schema setup.
func (s *MySQLStore) DB() *sqlx.DB { return s.db }

// BeginTx starts a transaction.  Read-only transactions use the server's
// default isolation; write transactions run at READ COMMITTED.
func (s *MySQLStore) BeginTx(ctx context.Context, opts TxOptions) (Tx, error) {
	txOpts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	if opts.ReadOnly {
		txOpts = &sql.TxOptions{ReadOnly: true}
	}
	tx, err := s.db.BeginTxx(ctx, txOpts)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	if !opts.ReadOnly {
		secs := int((s.lockWait + time.Second - 1) / time.Second)
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET SESSION innodb_lock_wait_timeout = %d", secs)); err != nil {
			return nil, errors.Join(fmt.Errorf("setting lock wait timeout: %w", err), tx.Rollback())
		}
	}
	return &mysqlTx{tx: tx, readOnly: opts.ReadOnly}, nil
}

type mysqlTx struct {
	tx       *sqlx.Tx
	readOnly bool
}

func (t *mysqlTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return mapMySQLError(fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

func (t *mysqlTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// LockUnits upserts one row per key.  ON DUPLICATE KEY UPDATE takes an
// exclusive record lock whether or not the row already existed, so a
// single statement both creates and locks the keys in sorted order.
func (t *mysqlTx) LockUnits(ctx context.Context, keys []string) error {
	if t.readOnly {
		return ErrReadOnly
	}
	keys = SortedKeys(keys)
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("(?),", len(keys)), ",")
	q := `INSERT INTO inventory_locks (lock_key) VALUES ` + placeholders + `
		ON DUPLICATE KEY UPDATE locked_at = CURRENT_TIMESTAMP(6)`
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	if _, err := t.tx.ExecContext(ctx, q, args...); err != nil {
		return mapMySQLError(fmt.Errorf("locking inventory units: %w", err))
	}
	return nil
}

// mapMySQLError converts lock timeouts, deadlocks and duplicate keys into
// the package sentinels while keeping the driver error in the chain.
func mapMySQLError(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errLockWaitTimeout, errDeadlock:
			return fmt.Errorf("%w: %w", ErrLockTimeout, err)
		case errDuplicateEntry:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
	}
	return err
}
