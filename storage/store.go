package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/errors"
)

// Store keeps JSON values per scope. Scopes isolate components from each
// other; the host methods use the calling component's path.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New wraps a migrated database.
func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = Logger()
	}
	return &Store{db: db, logger: logger}
}

// OpenStore opens and migrates the database at path.
func OpenStore(path string, logger *zap.Logger) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, logger), nil
}

// Get returns the value under key. ok is false when nothing is stored.
func (s *Store) Get(ctx context.Context, scope, key string) (value any, ok bool, err error) {
	var raw string
	err = s.db.QueryRowContext(ctx,
		`SELECT value FROM component_values WHERE scope = ? AND key = ?`, scope, key).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.fail(err, scope, key, "read")
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false, errors.New(errors.PhaseStorage, errors.KindInvalidData).
			Component(scope).
			Value(key).
			Cause(err).
			Detail("stored value for %q is not JSON", key).
			Build()
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, scope, key string, value any) error {
	if key == "" {
		return errors.InvalidInput(errors.PhaseStorage, "key cannot be empty")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.New(errors.PhaseStorage, errors.KindInvalidData).
			Component(scope).
			Value(key).
			Cause(err).
			Detail("value for %q cannot be stored", key).
			Build()
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO component_values (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		scope, key, string(data), time.Now().UTC().Truncate(time.Second))
	if err != nil {
		return s.fail(err, scope, key, "write")
	}
	s.logger.Debug("value stored", zap.String("scope", scope), zap.String("key", key))
	return nil
}

// Delete removes key. It reports whether a value was stored.
func (s *Store) Delete(ctx context.Context, scope, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM component_values WHERE scope = ? AND key = ?`, scope, key)
	if err != nil {
		return false, s.fail(err, scope, key, "delete")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.fail(err, scope, key, "delete")
	}
	return n > 0, nil
}

// Keys lists the keys of scope in order.
func (s *Store) Keys(ctx context.Context, scope string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM component_values WHERE scope = ? ORDER BY key`, scope)
	if err != nil {
		return nil, s.fail(err, scope, "", "list")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, s.fail(err, scope, "", "list")
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(err, scope, "", "list")
	}
	return keys, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) fail(err error, scope, key, op string) error {
	s.logger.Error("storage "+op+" failed",
		zap.String("scope", scope),
		zap.String("key", key),
		zap.Error(err))
	return errors.New(errors.PhaseStorage, errors.KindRemote).
		Component(scope).
		Value(key).
		Cause(err).
		Detail("%s failed", op).
		Build()
}
