package badger

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// numSequenceBandwidth is how many catalog sequence numbers a repository
// leases from the database at a time.
const numSequenceBandwidth = 100

// Backend wraps a BadgerDB instance holding the compound catalog.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// dbLogger routes BadgerDB's own log lines through the backend's slog
// logger under a fixed component attribute.
type dbLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*dbLogger)(nil)

func (l *dbLogger) Errorf(msg string, items ...any) {
	l.logger.Error(fmt.Sprintf(msg, items...), "component", "badger")
}

func (l *dbLogger) Warningf(msg string, items ...any) {
	l.logger.Warn(fmt.Sprintf(msg, items...), "component", "badger")
}

func (l *dbLogger) Infof(msg string, items ...any) {
	l.logger.Info(fmt.Sprintf(msg, items...), "component", "badger")
}

func (l *dbLogger) Debugf(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...), "component", "badger")
}

// OpenBackend opens the catalog database in the given directory, creating
// it if it doesn't exist.
func OpenBackend(dir string, opts ...Option) (*Backend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("catalog directory %s: %w", dir, err)
	}
	return open(badger.DefaultOptions(dir), opts...)
}

// open finishes backend construction from prepared BadgerDB options. The
// catalog stores short SMILES strings, so compression is disabled.
func open(dbOpts badger.Options, opts ...Option) (*Backend, error) {
	b := &Backend{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}

	dbOpts.Logger = &dbLogger{logger: b.logger}
	dbOpts.Compression = options.None

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	b.db = db
	return b, nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetSequence returns the named catalog sequence.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), numSequenceBandwidth)
}
