package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a notification does not exist for the user.
var ErrNotFound = errors.New("notification not found")

// Item is one entry of a user's notification inbox.
type Item struct {
	ID        string     `json:"id"`
	UserID    string     `json:"-"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"message"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store persists inbox items per user.
type Store interface {
	Add(ctx context.Context, item Item) error
	List(ctx context.Context, userID string, limit int) ([]Item, error)
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

// PostgresStore keeps the inbox in the notifications table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed inbox store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Add(ctx context.Context, item Item) error {
	id, err := uuid.Parse(item.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(item.UserID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO notifications (id, user_id, kind, title, body, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID, item.Kind, item.Title, item.Body, item.CreatedAt.UTC())
	return err
}

func (s *PostgresStore) List(ctx context.Context, userID string, limit int) ([]Item, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return []Item{}, nil
	}
	rows, err := s.db.Query(ctx, `SELECT id, kind, title, body, read_at, created_at
        FROM notifications WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2`, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			id   uuid.UUID
			item = Item{UserID: userID}
		)
		if err := rows.Scan(&id, &item.Kind, &item.Title, &item.Body, &item.ReadAt, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.ID = id.String()
		item.Read = item.ReadAt != nil
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return ErrNotFound
	}
	nid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	var readAt *time.Time
	err = s.db.QueryRow(ctx, `UPDATE notifications SET read_at = COALESCE(read_at, $1)
        WHERE id = $2 AND user_id = $3
        RETURNING read_at`, at.UTC(), nid, uid).Scan(&readAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, nil
	}
	cmd, err := s.db.Exec(ctx, `UPDATE notifications SET read_at = $1
        WHERE user_id = $2 AND read_at IS NULL`, at.UTC(), uid)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (s *PostgresStore) CountUnread(ctx context.Context, userID string) (int, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, nil
	}
	var n int
	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, uid).Scan(&n)
	return n, err
}
