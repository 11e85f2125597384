package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/config"
)

/*
	-- Schema the repositories expect:

	CREATE TABLE users (
		id            UUID PRIMARY KEY,
		username      VARCHAR(50) UNIQUE NOT NULL,
		email         VARCHAR(100) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		last_seen     TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE conversations (
		id              UUID PRIMARY KEY,
		user1_id        UUID NOT NULL REFERENCES users(id),
		user2_id        UUID NOT NULL REFERENCES users(id),
		last_message_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE UNIQUE INDEX idx_conversations_pair
		ON conversations (LEAST(user1_id, user2_id), GREATEST(user1_id, user2_id));

	CREATE TABLE rooms (
		id              UUID PRIMARY KEY,
		name            VARCHAR(100) NOT NULL,
		description     TEXT,
		creator_id      UUID NOT NULL REFERENCES users(id),
		last_message_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE room_members (
		room_id   UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		user_id   UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (room_id, user_id)
	);

	CREATE TABLE messages (
		id           UUID PRIMARY KEY,
		channel_kind TEXT NOT NULL,
		channel_id   UUID NOT NULL,
		sender_id    UUID NOT NULL REFERENCES users(id),
		content      TEXT NOT NULL,
		message_type TEXT NOT NULL DEFAULT 'text',
		status       TEXT NOT NULL DEFAULT 'sent',
		is_encrypted BOOLEAN NOT NULL DEFAULT FALSE,
		reply_to_id  UUID REFERENCES messages(id),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX idx_messages_channel ON messages (channel_kind, channel_id, created_at);
	CREATE INDEX idx_messages_channel_status ON messages (channel_kind, channel_id, status);
*/

func New(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// Pool tuning
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	// Health check
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
