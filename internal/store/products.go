package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type ProductStore struct {
	db *sqlx.DB
}

func (ps *ProductStore) ListActive(ctx context.Context) ([]Product, error) {
	query := `SELECT id, kind, name, active
		FROM products
		WHERE active = true
		ORDER BY id`

	products := []Product{}
	if err := ps.db.SelectContext(ctx, &products, query); err != nil {
		return nil, err
	}
	return products, nil
}
