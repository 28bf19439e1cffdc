package database

import (
	"context"
	"errors"
	"fmt"

	"chatsphere/internal/models"
	"chatsphere/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createSchema(context.Background(), pool); err != nil {
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// Room Repository Implementation

func (db *PostgresDB) Exists(ctx context.Context, roomID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM rooms WHERE id = $1)`

	var exists bool
	err := db.pool.QueryRow(ctx, query, roomID).Scan(&exists)
	return exists, err
}

func (db *PostgresDB) GetRoomByID(ctx context.Context, roomID string) (*models.Room, error) {
	query := `SELECT id, name, is_public, owner_id, created_at FROM rooms WHERE id = $1`

	room := &models.Room{}
	err := db.pool.QueryRow(ctx, query, roomID).Scan(
		&room.ID, &room.Name, &room.IsPublic, &room.OwnerID, &room.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	return room, nil
}

func (db *PostgresDB) IsMember(ctx context.Context, userID, roomID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM memberships WHERE user_id = $1 AND room_id = $2)`

	var exists bool
	err := db.pool.QueryRow(ctx, query, userID, roomID).Scan(&exists)
	return exists, err
}

func (db *PostgresDB) AddMember(ctx context.Context, userID, roomID string) error {
	query := `
		INSERT INTO memberships (user_id, room_id) VALUES ($1, $2)
		ON CONFLICT (user_id, room_id) DO NOTHING`

	_, err := db.pool.Exec(ctx, query, userID, roomID)
	return err
}

func (db *PostgresDB) RemoveMember(ctx context.Context, userID, roomID string) error {
	query := `DELETE FROM memberships WHERE user_id = $1 AND room_id = $2`
	_, err := db.pool.Exec(ctx, query, userID, roomID)
	return err
}

func (db *PostgresDB) RoomsForUser(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT r.id
		FROM rooms r
		LEFT JOIN memberships m ON r.id = m.room_id AND m.user_id = $1
		WHERE r.is_public = true OR m.user_id IS NOT NULL
		ORDER BY r.name`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roomIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		roomIDs = append(roomIDs, id)
	}

	return roomIDs, rows.Err()
}

// Message Repository Implementation

func (db *PostgresDB) Append(ctx context.Context, msg *models.Message) (int64, error) {
	query := `
		INSERT INTO messages (id, room_id, sender_id, text, seq, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq`

	var seq int64
	err := db.pool.QueryRow(ctx, query,
		msg.ID, msg.RoomID, msg.SenderID, msg.Text, msg.Seq, msg.CreatedAt,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to append message: %w", err)
	}

	return seq, nil
}

func (db *PostgresDB) FetchSince(ctx context.Context, roomID string, seq int64, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, room_id, sender_id, text, seq, created_at
		FROM messages
		WHERE room_id = $1 AND seq > $2 AND deleted_at IS NULL
		ORDER BY seq ASC
		LIMIT $3`

	rows, err := db.pool.Query(ctx, query, roomID, seq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Text, &msg.Seq, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (db *PostgresDB) LatestSequence(ctx context.Context, roomID string) (int64, error) {
	query := `SELECT COALESCE(MAX(seq), 0) FROM messages WHERE room_id = $1`

	var seq int64
	err := db.pool.QueryRow(ctx, query, roomID).Scan(&seq)
	return seq, err
}
