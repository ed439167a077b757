package repository

import (
	"context"
	"database/sql"

	"afisha/internal/database"
	"afisha/internal/models"

	"github.com/lib/pq"
)

// CategoryRepository reads category snapshots from the catalog store.
type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]models.Category, error)
}

type categoryRepository struct {
	db *database.DB
}

func NewCategoryRepository(db *database.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	category := &models.Category{}
	query := `SELECT id, name FROM categories WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return category, err
}

func (r *categoryRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]models.Category, error) {
	result := make(map[int64]models.Category, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, name FROM categories WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, err
		}
		result[category.ID] = category
	}

	return result, rows.Err()
}
