package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Sections ---

const listMenuSections = `SELECT id, name FROM menu_sections ORDER BY id`

func (q *Queries) ListMenuSections(ctx context.Context) ([]MenuSection, error) {
	rows, err := q.db.Query(ctx, listMenuSections)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuSection
	for rows.Next() {
		var i MenuSection
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getMenuSection = `SELECT id, name FROM menu_sections WHERE id = $1`

func (q *Queries) GetMenuSection(ctx context.Context, id int32) (MenuSection, error) {
	row := q.db.QueryRow(ctx, getMenuSection, id)
	var i MenuSection
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const getMenuSectionByName = `SELECT id, name FROM menu_sections WHERE name = $1`

func (q *Queries) GetMenuSectionByName(ctx context.Context, name string) (MenuSection, error) {
	row := q.db.QueryRow(ctx, getMenuSectionByName, name)
	var i MenuSection
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const createMenuSection = `INSERT INTO menu_sections (name) VALUES ($1) RETURNING id, name`

func (q *Queries) CreateMenuSection(ctx context.Context, name string) (MenuSection, error) {
	row := q.db.QueryRow(ctx, createMenuSection, name)
	var i MenuSection
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const updateMenuSection = `UPDATE menu_sections SET name = $2 WHERE id = $1 RETURNING id, name`

type UpdateMenuSectionParams struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

func (q *Queries) UpdateMenuSection(ctx context.Context, arg UpdateMenuSectionParams) (MenuSection, error) {
	row := q.db.QueryRow(ctx, updateMenuSection, arg.ID, arg.Name)
	var i MenuSection
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const deleteMenuSection = `DELETE FROM menu_sections WHERE id = $1`

func (q *Queries) DeleteMenuSection(ctx context.Context, id int32) (int64, error) {
	result, err := q.db.Exec(ctx, deleteMenuSection, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// --- Items ---

const menuItemColumns = `id, section_id, name, note, price`

func scanMenuItem(row interface{ Scan(...any) error }) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.SectionID,
		&i.Name,
		&i.Note,
		&i.Price,
	)
	return i, err
}

func (q *Queries) queryMenuItems(ctx context.Context, sql string, args ...interface{}) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listMenuItems = `SELECT ` + menuItemColumns + ` FROM menu_items ORDER BY section_id, name`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	return q.queryMenuItems(ctx, listMenuItems)
}

const listMenuItemsBySection = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE section_id = $1 ORDER BY name`

func (q *Queries) ListMenuItemsBySection(ctx context.Context, sectionID int32) ([]MenuItem, error) {
	return q.queryMenuItems(ctx, listMenuItemsBySection, sectionID)
}

const getMenuItem = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const getMenuItemByName = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE name = $1`

func (q *Queries) GetMenuItemByName(ctx context.Context, name string) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItemByName, name))
}

const createMenuItem = `
INSERT INTO menu_items (section_id, name, note, price)
VALUES ($1, $2, $3, $4)
RETURNING ` + menuItemColumns

type CreateMenuItemParams struct {
	SectionID int32          `json:"section_id"`
	Name      string         `json:"name"`
	Note      pgtype.Text    `json:"note"`
	Price     pgtype.Numeric `json:"price"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		arg.SectionID,
		arg.Name,
		arg.Note,
		arg.Price,
	))
}

const updateMenuItem = `
UPDATE menu_items
SET section_id = $2, name = $3, note = $4, price = $5
WHERE id = $1
RETURNING ` + menuItemColumns

type UpdateMenuItemParams struct {
	ID        uuid.UUID      `json:"id"`
	SectionID int32          `json:"section_id"`
	Name      string         `json:"name"`
	Note      pgtype.Text    `json:"note"`
	Price     pgtype.Numeric `json:"price"`
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.SectionID,
		arg.Name,
		arg.Note,
		arg.Price,
	))
}

const deleteMenuItem = `DELETE FROM menu_items WHERE id = $1`

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteMenuItem, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteMenuItemsBySection = `DELETE FROM menu_items WHERE section_id = $1`

func (q *Queries) DeleteMenuItemsBySection(ctx context.Context, sectionID int32) (int64, error) {
	result, err := q.db.Exec(ctx, deleteMenuItemsBySection, sectionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
