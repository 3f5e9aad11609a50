package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/dbx"
	"github.com/dmitrijs2005/strongholder/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	query :=
		`INSERT INTO credentials (id, username, scheme, wrapped_key, wrapped_client_key)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.UserName, c.Scheme, c.WrappedKey, c.WrappedClientKey).Scan(&c.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) ExistsByUsername(ctx context.Context, userName string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM credentials WHERE username = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userName).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, userName string) (*models.Credential, error) {
	query :=
		`SELECT id, username, scheme, wrapped_key, wrapped_client_key, created_at FROM credentials
		 WHERE username = $1
		 LIMIT 2
		 `

	rows, err := r.db.QueryContext(ctx, query, userName)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var found []*models.Credential
	for rows.Next() {
		c := &models.Credential{}
		if err := rows.Scan(&c.ID, &c.UserName, &c.Scheme, &c.WrappedKey, &c.WrappedClientKey, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		found = append(found, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, common.ErrorNotFound
	case 1:
		return found[0], nil
	default:
		return nil, common.ErrStorageIntegrity
	}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Credential, error) {
	query :=
		`SELECT id, username, scheme, wrapped_key, wrapped_client_key, created_at FROM credentials
		 WHERE id = $1
		 `

	c := &models.Credential{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.UserName, &c.Scheme, &c.WrappedKey, &c.WrappedClientKey, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}
