package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TxOptions bounds a unit of work.
type TxOptions struct {
	// MaxWait is how long to wait for a pooled connection.
	MaxWait time.Duration
	// Timeout is how long the whole unit of work may run, commit included.
	Timeout time.Duration
	// Isolation is passed to BEGIN; zero means the driver default.
	Isolation sql.IsolationLevel
}

// UnitOfWork runs multi-statement mutations atomically.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type unitOfWork struct {
	db   *gorm.DB
	opts TxOptions
}

func NewUnitOfWork(db *gorm.DB, opts TxOptions) UnitOfWork {
	return &unitOfWork{db: db, opts: opts}
}

// Do acquires a connection within MaxWait, begins a transaction bounded by
// Timeout and commits when fn returns nil. Any error or panic rolls back.
func (u *unitOfWork) Do(ctx context.Context, fn func(tx *gorm.DB) error) (err error) {
	sqlDB, err := u.db.DB()
	if err != nil {
		return fmt.Errorf("get database pool: %w", err)
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, u.opts.MaxWait)
	conn, err := sqlDB.Conn(waitCtx)
	cancelWait()
	if err != nil {
		return fmt.Errorf("acquire connection within %s: %w", u.opts.MaxWait, err)
	}
	defer conn.Close()

	execCtx, cancel := context.WithTimeout(ctx, u.opts.Timeout)
	defer cancel()

	sqlTx, err := conn.BeginTx(execCtx, &sql.TxOptions{Isolation: u.opts.Isolation})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// same wiring gorm.DB.Begin does, on a connection we own
	tx := u.db.Session(&gorm.Session{NewDB: true, Context: execCtx})
	tx.Statement.ConnPool = sqlTx

	defer func() {
		if r := recover(); r != nil {
			_ = sqlTx.Rollback()
			panic(r)
		}
	}()

	if err = fn(tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ForUpdate adds a row lock on dialects that support one.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
