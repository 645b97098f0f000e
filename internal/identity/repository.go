package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByPhone(ctx context.Context, phone string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	IncrementTokenVersion(ctx context.Context, id string) (int, error)
	TouchLogin(ctx context.Context, id string, at time.Time, tier string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, phone, tier, pin_hash, first_name, middle_name, last_name, suffix, birthdate,
        gender, nationality, country, province, municipality, barangay, street, profile_image,
        token_version, created_at, last_login`

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	var birthdate *time.Time
	if !user.Birthdate.IsZero() {
		b := user.Birthdate.UTC()
		birthdate = &b
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NULL)`,
		userID, user.Phone, user.Tier, user.PINHash, user.FirstName, user.MiddleName, user.LastName, user.Suffix, birthdate,
		user.Gender, user.Nationality, user.Address.Country, user.Address.Province, user.Address.Municipality,
		user.Address.Barangay, user.Address.Street, user.ProfileImage, user.TokenVersion, user.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrPhoneTaken
	}
	return err
}

// FindByPhone fetches a user by phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
}

// FindByID fetches a user by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

// IncrementTokenVersion bumps the token version, revoking outstanding tokens.
func (r *PostgresRepository) IncrementTokenVersion(ctx context.Context, id string) (int, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return 0, ErrUserNotFound
	}
	var version int
	err = r.db.QueryRow(ctx, `UPDATE users SET token_version = token_version + 1 WHERE id = $1 RETURNING token_version`, userID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return version, err
}

// TouchLogin stores the time of the last successful login and the tier it earned.
func (r *PostgresRepository) TouchLogin(ctx context.Context, id string, at time.Time, tier string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrUserNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET last_login = $1, tier = $2 WHERE id = $3`, at.UTC(), tier, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		birthdate *time.Time
		lastLogin *time.Time
		user      User
	)
	err := row.Scan(&id, &user.Phone, &user.Tier, &user.PINHash, &user.FirstName, &user.MiddleName, &user.LastName,
		&user.Suffix, &birthdate, &user.Gender, &user.Nationality, &user.Address.Country, &user.Address.Province,
		&user.Address.Municipality, &user.Address.Barangay, &user.Address.Street, &user.ProfileImage,
		&user.TokenVersion, &user.CreatedAt, &lastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = user.CreatedAt.UTC()
	if birthdate != nil {
		user.Birthdate = birthdate.UTC()
	}
	if lastLogin != nil {
		t := lastLogin.UTC()
		user.LastLogin = &t
	}
	return user, nil
}
