package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/portalops/ledger-backend/internal/models"
)

type clientsRepo struct{ pool *pgxpool.Pool }

func (r *clientsRepo) Create(ctx context.Context, c models.Client) (models.Client, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO clients(id, name, email) VALUES($1,$2,$3)
		 RETURNING created_at`,
		c.ID, c.Name, c.Email,
	).Scan(&c.CreatedAt)
	if err != nil {
		return models.Client{}, mapErr(err)
	}
	return c, nil
}

func (r *clientsRepo) GetByID(ctx context.Context, id string) (models.Client, error) {
	var c models.Client
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM clients WHERE id=$1`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt)
	if err != nil {
		return models.Client{}, mapErr(err)
	}
	return c, nil
}

func (r *clientsRepo) List(ctx context.Context) ([]models.Client, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, created_at FROM clients ORDER BY created_at DESC LIMIT 100`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *clientsRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE id=$1)`, id).Scan(&exists)
	if err != nil {
		return false, mapErr(err)
	}
	return exists, nil
}
