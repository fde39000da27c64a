package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
)

// Querier is satisfied by *sql.DB and *sql.Tx so the same reads run inside
// or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type CropRepository struct {
	db *sql.DB
}

func NewCropRepository(db *sql.DB) *CropRepository {
	return &CropRepository{db: db}
}

const cropColumns = `crop_id, farmer_id, name, categories, price, is_available, created_at`

// ListPublic returns every available crop.
func (r *CropRepository) ListPublic(ctx context.Context) ([]domain.Crop, error) {
	return r.query(ctx, `
		SELECT `+cropColumns+`
		FROM crops
		WHERE is_available
		ORDER BY crop_id
	`)
}

// List returns the crops visible to actor: farmers see their own listings,
// customers see available crops and admins see everything.
func (r *CropRepository) List(ctx context.Context, actor domain.Actor) ([]domain.Crop, error) {
	switch actor.Role {
	case domain.RoleFarmer:
		return r.query(ctx, `
			SELECT `+cropColumns+`
			FROM crops
			WHERE farmer_id = $1
			ORDER BY crop_id
		`, actor.ID)
	case domain.RoleCustomer:
		return r.ListPublic(ctx)
	default:
		return r.query(ctx, `
			SELECT `+cropColumns+`
			FROM crops
			ORDER BY crop_id
		`)
	}
}

func (r *CropRepository) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Crop, error) {
	query := `SELECT ` + cropColumns + ` FROM crops WHERE crop_id = $1`
	args := []any{id}
	switch actor.Role {
	case domain.RoleFarmer:
		query += ` AND farmer_id = $2`
		args = append(args, actor.ID)
	case domain.RoleCustomer:
		query += ` AND is_available`
	}

	crop := &domain.Crop{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&crop.ID, &crop.FarmerID, &crop.Name, &crop.Categories, &crop.Price, &crop.IsAvailable, &crop.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCropNotFound
		}
		return nil, err
	}

	return crop, nil
}

func (r *CropRepository) query(ctx context.Context, query string, args ...any) ([]domain.Crop, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	crops := []domain.Crop{}
	for rows.Next() {
		var crop domain.Crop
		if err := rows.Scan(&crop.ID, &crop.FarmerID, &crop.Name, &crop.Categories, &crop.Price, &crop.IsAvailable, &crop.CreatedAt); err != nil {
			return nil, err
		}
		crops = append(crops, crop)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return crops, nil
}
