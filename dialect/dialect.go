// Package dialect provides the database driver abstraction used by the
// secure query layer. It defines the interfaces and dialect constants the
// builders in dialect/sql render against, allowing the library to target
// PostgreSQL, MySQL, and SQLite backends.
package dialect

import (
	"context"
	"fmt"
)

// Dialect names, as registered with database/sql.
const (
	// Postgres is the PostgreSQL dialect.
	Postgres = "postgres"
	// MySQL is the MySQL/MariaDB dialect.
	MySQL = "mysql"
	// SQLite is the SQLite dialect.
	SQLite = "sqlite"
)

// ExecQuerier wraps the two basic Exec and Query operations.
type ExecQuerier interface {
	// Exec executes a statement that doesn't return rows. For example,
	// INSERT, UPDATE or DELETE. It scans the result into v.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement that returns rows, typically a SELECT,
	// and scans the rows into v.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all database operations.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps database transaction.
type Tx interface {
	ExecQuerier
	// Commit commits the transaction.
	Commit() error
	// Rollback discards the transaction.
	Rollback() error
}

type nopTx struct {
	Driver
}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

// NopTx returns a Tx with a no-op Commit / Rollback operations.
func NopTx(d Driver) Tx {
	return nopTx{d}
}

// DebugDriver is a driver that logs all driver operations.
type DebugDriver struct {
	Driver             // underlying driver.
	log    func(...any) // log function.
}

// Debug gets a driver and a logging function, and returns
// a new debugged-driver that prints all outgoing operations.
func Debug(d Driver, logger func(...any)) Driver {
	return &DebugDriver{d, logger}
}

// Exec logs its params and calls the underlying driver Exec method.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log(fmt.Sprintf("driver.Exec: query=%v args=%v", query, args))
	return d.Driver.Exec(ctx, query, args, v)
}

// Query logs its params and calls the underlying driver Query method.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log(fmt.Sprintf("driver.Query: query=%v args=%v", query, args))
	return d.Driver.Query(ctx, query, args, v)
}

// Tx adds an identifier to the wrapped transaction and calls the underlying
// driver Tx command.
func (d *DebugDriver) Tx(ctx context.Context) (Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{tx, d.log}, nil
}

// DebugTx is a transaction implementation that logs all transaction operations.
type DebugTx struct {
	Tx               // underlying transaction.
	log func(...any) // log function.
}

// Exec logs its params and calls the underlying transaction Exec method.
func (d *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	d.log(fmt.Sprintf("tx.Exec: query=%v args=%v", query, args))
	return d.Tx.Exec(ctx, query, args, v)
}

// Query logs its params and calls the underlying transaction Query method.
func (d *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	d.log(fmt.Sprintf("tx.Query: query=%v args=%v", query, args))
	return d.Tx.Query(ctx, query, args, v)
}

// Commit logs this step and calls the underlying transaction Commit method.
func (d *DebugTx) Commit() error {
	d.log("tx.Commit")
	return d.Tx.Commit()
}

// Rollback logs this step and calls the underlying transaction Rollback method.
func (d *DebugTx) Rollback() error {
	d.log("tx.Rollback")
	return d.Tx.Rollback()
}
