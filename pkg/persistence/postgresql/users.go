package postgresql

import (
	"context"
	"fmt"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/persistence"
)

// UserRepository handles user-related database operations.
type UserRepository struct {
	q querier
}

const userColumns = `id, email, name, profile_image, created_at`

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "GetByID", "user", id, persistence.ErrUserNotFound)
	}

	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email <> '' AND LOWER(email) = LOWER($1)`, email)

	user, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "GetByEmail", "user", email, persistence.ErrUserNotFound)
	}

	return user, nil
}

func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, profile_image, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			profile_image = EXCLUDED.profile_image
	`

	_, err := r.q.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.ProfileImage, user.CreatedAt)
	if err != nil {
		return persistence.NewEntityError("Save", "user", user.ID, mapError(err))
	}

	return nil
}

func scanUser(row scanner) (*models.User, error) {
	var user models.User

	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.ProfileImage, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &user, nil
}
