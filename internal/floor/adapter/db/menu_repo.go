package db

import (
	"context"

	"comanda-api/internal/floor/app/core"
	"comanda-api/internal/floor/domain/models"
)

type MenuRepo struct {
	db core.IDB
}

func NewMenuRepo(db core.IDB) *MenuRepo {
	return &MenuRepo{db: db}
}

func (mr *MenuRepo) List(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := mr.db.Pool().Query(ctx, `
		SELECT item_id, name, price_cents, category FROM menu_items ORDER BY name
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var m models.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.PriceCents, &m.Category); err != nil {
			return nil, mapError(err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (mr *MenuRepo) GetByIDs(ctx context.Context, ids []int) (map[int]models.MenuItem, error) {
	rows, err := mr.db.Pool().Query(ctx, `
		SELECT item_id, name, price_cents, category FROM menu_items WHERE item_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := make(map[int]models.MenuItem, len(ids))
	for rows.Next() {
		var m models.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.PriceCents, &m.Category); err != nil {
			return nil, mapError(err)
		}
		items[m.ID] = m
	}
	return items, rows.Err()
}
