package repos

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrQuotaExceeded is returned when a write would push the stored bytes past the quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// SlotRepo stores string values under string keys, bounded by a byte quota
// shared by all keys.
type SlotRepo struct {
	db    *sqlx.DB
	quota int
}

// NewSlotRepo returns a repo; quota <= 0 disables the limit.
func NewSlotRepo(db *sqlx.DB, quota int) *SlotRepo { return &SlotRepo{db: db, quota: quota} }

// Get returns the value for key.
// If no row exists, it returns sql.ErrNoRows from sqlx.Get.
func (r *SlotRepo) Get(key string) (string, error) {
	var v string
	if err := r.db.Get(&v, `SELECT value FROM slots WHERE key = ?`, key); err != nil {
		return "", err
	}
	return v, nil
}

// Put upserts key. The existing value is left untouched when the quota would be exceeded.
func (r *SlotRepo) Put(key, value string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if r.quota > 0 {
		var others int
		if err := tx.Get(&others, `
			SELECT COALESCE(SUM(LENGTH(CAST(value AS BLOB))), 0)
			FROM slots WHERE key != ?
		`, key); err != nil {
			return err
		}
		if others+len(value) > r.quota {
			return fmt.Errorf("put %s (%d bytes, quota %d): %w", key, len(value), r.quota, ErrQuotaExceeded)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO slots(key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

// Usage reports the bytes currently stored across all keys.
func (r *SlotRepo) Usage() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COALESCE(SUM(LENGTH(CAST(value AS BLOB))), 0) FROM slots`)
	return n, err
}
