package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"trading-signal-bot/migrations"
	"trading-signal-bot/types"
)

// SQLiteStore keeps users and keys in a single database file. All writes go
// through one mutex so a redemption is atomic against the expiry passes and
// against a concurrent redemption of the same code.
type SQLiteStore struct {
	db *sqlx.DB
	mu sync.Mutex
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "signals.db"
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(s.db.DB, ".")
}

func (s *SQLiteStore) UpsertUser(telegramID int64, username string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
INSERT INTO users (telegram_id, username, active, expiry, notified_expiry)
VALUES (?, ?, 0, 0, 0)
ON CONFLICT (telegram_id) DO UPDATE SET username = excluded.username
`, telegramID, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	return s.findUser(telegramID)
}

func (s *SQLiteStore) FindUser(telegramID int64) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUser(telegramID)
}

func (s *SQLiteStore) findUser(telegramID int64) (*types.User, error) {
	var u types.User
	err := s.db.Get(&u, `
SELECT id, telegram_id, username, active, expiry, notified_expiry
FROM users
WHERE telegram_id = ?
`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStore) ActiveUsers() ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []types.User
	err := s.db.Select(&users, `
SELECT id, telegram_id, username, active, expiry, notified_expiry
FROM users
WHERE active = 1
ORDER BY id
`)
	return users, err
}

func (s *SQLiteStore) UsersExpiringWithin(now, windowSeconds int64) ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []types.User
	err := s.db.Select(&users, `
SELECT id, telegram_id, username, active, expiry, notified_expiry
FROM users
WHERE active = 1
  AND expiry > ?
  AND expiry - ? <= ?
  AND notified_expiry != expiry
ORDER BY expiry
`, now, now, windowSeconds)
	return users, err
}

func (s *SQLiteStore) ExpiredUsers(now int64) ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []types.User
	err := s.db.Select(&users, `
SELECT id, telegram_id, username, active, expiry, notified_expiry
FROM users
WHERE active = 1 AND expiry <= ?
ORDER BY id
`, now)
	return users, err
}

func (s *SQLiteStore) DeactivateExpired(now int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE users SET active = 0 WHERE active = 1 AND expiry <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) MarkPreExpiryNotified(telegramID, expiry int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE users SET notified_expiry = ? WHERE telegram_id = ?`, expiry, telegramID)
	return err
}

func (s *SQLiteStore) CreateKey(code string, durationDays int, now int64) (*types.Key, error) {
	code = strings.TrimSpace(code)
	if durationDays <= 0 {
		return nil, types.ErrInvalidDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var exists bool
	if err := s.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM keys WHERE key_code = ?)`, code); err != nil {
		return nil, err
	}
	if exists {
		return nil, types.ErrDuplicateKey
	}

	res, err := s.db.Exec(`
INSERT INTO keys (key_code, duration_days, created_at)
VALUES (?, ?, ?)
`, code, durationDays, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &types.Key{
		ID:           id,
		Code:         code,
		DurationDays: durationDays,
		CreatedAt:    now,
	}, nil
}

func (s *SQLiteStore) ListKeys() ([]types.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []types.Key
	err := s.db.Select(&keys, `
SELECT id, key_code, duration_days, used_by, created_at, expiry, consumed_at
FROM keys
ORDER BY created_at DESC, id DESC
`)
	return keys, err
}

func (s *SQLiteStore) RedeemKey(code string, telegramID, now int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var k types.Key
	err = tx.Get(&k, `
SELECT id, key_code, duration_days, used_by, created_at, expiry, consumed_at
FROM keys
WHERE key_code = ?
`, strings.TrimSpace(code))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, types.ErrKeyNotFound
	}
	if err != nil {
		return 0, err
	}
	if k.Used() {
		return 0, types.ErrKeyAlreadyUsed
	}

	// The user row normally exists already (created on first contact), but a
	// redemption must not depend on that.
	if _, err := tx.Exec(`
INSERT INTO users (telegram_id, username, active, expiry, notified_expiry)
VALUES (?, '', 0, 0, 0)
ON CONFLICT (telegram_id) DO NOTHING
`, telegramID); err != nil {
		return 0, err
	}

	var currentExpiry int64
	if err := tx.Get(&currentExpiry, `SELECT expiry FROM users WHERE telegram_id = ?`, telegramID); err != nil {
		return 0, err
	}

	// Unexpired time extends from the remaining expiry, not from now.
	base := now
	if currentExpiry > base {
		base = currentExpiry
	}
	newExpiry := base + int64(k.DurationDays)*86400

	if _, err := tx.Exec(`
UPDATE users SET active = 1, expiry = ?, notified_expiry = 0
WHERE telegram_id = ?
`, newExpiry, telegramID); err != nil {
		return 0, err
	}

	res, err := tx.Exec(`
UPDATE keys SET used_by = ?, consumed_at = ?, expiry = ?
WHERE id = ? AND used_by IS NULL
`, telegramID, now, newExpiry, k.ID)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected != 1 {
		return 0, types.ErrKeyAlreadyUsed
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newExpiry, nil
}
