package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/google/uuid"
)

// UserRepository handles persistence for users and their wardrobes in Postgres.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT id, username, email, password_hash, shirts, pants, created_at, updated_at
		FROM users
		WHERE username = $1`
	var user types.User
	var shirtsJSON, pantsJSON []byte
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&shirtsJSON,
		&pantsJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	if user.Shirts, err = decodeWardrobe(shirtsJSON); err != nil {
		return types.User{}, fmt.Errorf("decode shirts of %s: %w", username, err)
	}
	if user.Pants, err = decodeWardrobe(pantsJSON); err != nil {
		return types.User{}, fmt.Errorf("decode pants of %s: %w", username, err)
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Shirts == nil {
		user.Shirts = types.Wardrobe{}
	}
	if user.Pants == nil {
		user.Pants = types.Wardrobe{}
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	shirtsJSON, err := json.Marshal(user.Shirts)
	if err != nil {
		return types.User{}, err
	}
	pantsJSON, err := json.Marshal(user.Pants)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		INSERT INTO users (id, username, email, password_hash, shirts, pants, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		shirtsJSON,
		pantsJSON,
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrConflict
		}
		return types.User{}, err
	}
	return user, nil
}

// PutWardrobeItem sets wardrobe[category][color] = imageURL with a single
// jsonb merge, so concurrent writes to different keys never overwrite each other.
func (r *UserRepository) PutWardrobeItem(ctx context.Context, username string, category types.Category, color, imageURL string) error {
	var query string
	switch category {
	case types.CategoryTop:
		query = `
		UPDATE users
		SET shirts = COALESCE(shirts, '{}'::jsonb) || jsonb_build_object($2::text, $3::text),
			updated_at = $4
		WHERE username = $1`
	case types.CategoryBottom:
		query = `
		UPDATE users
		SET pants = COALESCE(pants, '{}'::jsonb) || jsonb_build_object($2::text, $3::text),
			updated_at = $4
		WHERE username = $1`
	default:
		return fmt.Errorf("unknown category %q", category)
	}

	result, err := r.db.ExecContext(ctx, query, username, color, imageURL, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeWardrobe(raw []byte) (types.Wardrobe, error) {
	wardrobe := types.Wardrobe{}
	if len(raw) == 0 {
		return wardrobe, nil
	}
	if err := json.Unmarshal(raw, &wardrobe); err != nil {
		return nil, err
	}
	if wardrobe == nil {
		// JSON null
		wardrobe = types.Wardrobe{}
	}
	return wardrobe, nil
}
