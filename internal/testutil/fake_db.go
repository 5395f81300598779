package testutil

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUnexpectedCall is returned by fakes whose behavior was not configured.
var ErrUnexpectedCall = errors.New("unexpected call")

// FakeDB is a function-field implementation of database.DB.
type FakeDB struct {
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	BeginFunc    func(ctx context.Context) (pgx.Tx, error)
}

func (f *FakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.ExecFunc != nil {
		return f.ExecFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, ErrUnexpectedCall
}

func (f *FakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if f.QueryFunc != nil {
		return f.QueryFunc(ctx, sql, args...)
	}
	return nil, ErrUnexpectedCall
}

func (f *FakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if f.QueryRowFunc != nil {
		return f.QueryRowFunc(ctx, sql, args...)
	}
	return FakeRow{Err: ErrUnexpectedCall}
}

func (f *FakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if f.BeginFunc != nil {
		return f.BeginFunc(ctx)
	}
	return nil, ErrUnexpectedCall
}

// FakeRow is a pgx.Row that returns Err, or copies Values into the scan
// destinations through ScanFunc.
type FakeRow struct {
	Err      error
	ScanFunc func(dest ...any) error
}

func (r FakeRow) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	if r.ScanFunc != nil {
		return r.ScanFunc(dest...)
	}
	return nil
}

// FakeTx records the work done inside a transaction. Methods not overridden
// here panic through the nil embedded pgx.Tx.
type FakeTx struct {
	pgx.Tx

	ExecFunc      func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatchFunc func(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	CommitErr     error

	Committed  bool
	RolledBack bool
}

func (t *FakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if t.ExecFunc != nil {
		return t.ExecFunc(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (t *FakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	if t.SendBatchFunc != nil {
		return t.SendBatchFunc(ctx, b)
	}
	return &FakeBatchResults{}
}

func (t *FakeTx) Commit(ctx context.Context) error {
	if t.CommitErr != nil {
		return t.CommitErr
	}
	t.Committed = true
	return nil
}

// Rollback is a no-op after Commit, as with a real transaction.
func (t *FakeTx) Rollback(ctx context.Context) error {
	if t.Committed {
		return pgx.ErrTxClosed
	}
	t.RolledBack = true
	return nil
}

// FakeBatchResults returns ExecErrs in order, one per queued statement.
type FakeBatchResults struct {
	pgx.BatchResults

	ExecErrs []error
	CloseErr error
	execs    int
}

func (b *FakeBatchResults) Exec() (pgconn.CommandTag, error) {
	var err error
	if b.execs < len(b.ExecErrs) {
		err = b.ExecErrs[b.execs]
	}
	b.execs++
	return pgconn.NewCommandTag("INSERT 0 1"), err
}

func (b *FakeBatchResults) Close() error {
	return b.CloseErr
}

// FakeRows iterates over Records, scanning each through ScanFunc.
type FakeRows struct {
	pgx.Rows

	Records  []any
	ScanFunc func(record any, dest ...any) error
	ErrValue error

	pos    int
	closed bool
}

func (r *FakeRows) Next() bool {
	if r.closed || r.pos >= len(r.Records) {
		return false
	}
	r.pos++
	return true
}

func (r *FakeRows) Scan(dest ...any) error {
	return r.ScanFunc(r.Records[r.pos-1], dest...)
}

func (r *FakeRows) Err() error { return r.ErrValue }

func (r *FakeRows) Close() { r.closed = true }

// Closed reports whether Close was called.
func (r *FakeRows) Closed() bool { return r.closed }
