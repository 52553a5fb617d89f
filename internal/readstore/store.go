// Package readstore persists per-channel read cursors on the local
// device, keyed by user ID. It is the durable half of the unread
// engine: loads fail soft and saves are best-effort, so the client
// stays usable when local storage is missing or broken — everything
// just degrades to "treat as unread".
package readstore

import (
	"time"

	"go.uber.org/zap"
)

// Store reads and writes a user's read cursors. It assumes a single
// logical writer per user per device; the session lock enforces that.
type Store struct {
	db     *DB
	logger *zap.Logger
}

// NewStore creates a cursor store over an opened, migrated database.
func NewStore(db *DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Load returns the stored channel→messageID cursor map for a user.
// Missing or unreadable data yields an empty map, never an error.
func (s *Store) Load(userID string) map[string]int64 {
	cursors := make(map[string]int64)

	rows, err := s.db.Query(`
		SELECT channel_id, message_id FROM read_cursors WHERE user_id = ?`, userID)
	if err != nil {
		s.logger.Warn("read cursor load failed", zap.Error(err), zap.String("user_id", userID))
		return cursors
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var channelID string
		var messageID int64
		if err := rows.Scan(&channelID, &messageID); err != nil {
			s.logger.Warn("read cursor row malformed", zap.Error(err), zap.String("user_id", userID))
			continue
		}
		cursors[channelID] = messageID
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("read cursor load incomplete", zap.Error(err), zap.String("user_id", userID))
	}
	return cursors
}

// Save upserts cursor positions for a user. Best-effort: failures are
// logged and swallowed. The MAX() guard keeps a stored cursor from ever
// moving backwards, whatever order saves land in.
func (s *Store) Save(userID string, cursors map[string]int64) {
	if len(cursors) == 0 {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		s.logger.Warn("read cursor save failed", zap.Error(err), zap.String("user_id", userID))
		return
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for channelID, messageID := range cursors {
		if _, err := tx.Exec(`
			INSERT INTO read_cursors (user_id, channel_id, message_id, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id, channel_id) DO UPDATE SET
				message_id = MAX(read_cursors.message_id, excluded.message_id),
				updated_at = excluded.updated_at`,
			userID, channelID, messageID, now); err != nil {
			s.logger.Warn("read cursor upsert failed", zap.Error(err),
				zap.String("user_id", userID), zap.String("channel_id", channelID))
			return
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Warn("read cursor commit failed", zap.Error(err), zap.String("user_id", userID))
	}
}
