package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pickmarket/database"
	"pickmarket/models"
	"pickmarket/service"
)

// PackageRepository implements the PackageRepository interface
type PackageRepository struct {
	q queryable
}

// NewPackageRepository creates a new package repository
func NewPackageRepository(db *database.DB) *PackageRepository {
	return &PackageRepository{q: db.Pool}
}

// newPackageRepositoryWithTx creates a new package repository with a transaction
func newPackageRepositoryWithTx(tx queryable) *PackageRepository {
	return &PackageRepository{q: tx}
}

// CreateWithPicks creates a package and its pick memberships atomically
func (r *PackageRepository) CreateWithPicks(ctx context.Context, pkg *models.Package, pickIDs []int64) error {
	query := `
		INSERT INTO packages (handicapper_id, name, description, price, guaranteed, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		pkg.HandicapperID,
		pkg.Name,
		pkg.Description,
		pkg.Price,
		pkg.Guaranteed,
		pkg.Status,
	).Scan(&pkg.ID, &pkg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}

	for _, pickID := range pickIDs {
		_, err := r.q.Exec(ctx, `
			INSERT INTO package_picks (package_id, pick_id) VALUES ($1, $2)
		`, pkg.ID, pickID)
		if err != nil {
			return fmt.Errorf("failed to add pick %d to package %d: %w", pickID, pkg.ID, err)
		}
	}

	pkg.PickIDs = pickIDs
	return nil
}

// GetByID retrieves a package with its member pick ids
func (r *PackageRepository) GetByID(ctx context.Context, id int64) (*models.Package, error) {
	query := `
		SELECT id, handicapper_id, name, description, price, guaranteed, status, created_at, completed_at
		FROM packages
		WHERE id = $1
	`

	var pkg models.Package
	err := r.q.QueryRow(ctx, query, id).Scan(
		&pkg.ID,
		&pkg.HandicapperID,
		&pkg.Name,
		&pkg.Description,
		&pkg.Price,
		&pkg.Guaranteed,
		&pkg.Status,
		&pkg.CreatedAt,
		&pkg.CompletedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package %d: %w", id, err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT pick_id FROM package_picks WHERE package_id = $1 ORDER BY pick_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get picks for package %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var pickID int64
		if err := rows.Scan(&pickID); err != nil {
			return nil, fmt.Errorf("failed to scan package pick: %w", err)
		}
		pkg.PickIDs = append(pkg.PickIDs, pickID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate package picks: %w", err)
	}

	return &pkg, nil
}

// GetGuaranteedByPick returns the live guaranteed packages containing a pick
func (r *PackageRepository) GetGuaranteedByPick(ctx context.Context, pickID int64) ([]*models.Package, error) {
	query := `
		SELECT p.id, p.handicapper_id, p.name, p.description, p.price, p.guaranteed, p.status,
		       p.created_at, p.completed_at
		FROM packages p
		JOIN package_picks pp ON pp.package_id = p.id
		WHERE pp.pick_id = $1 AND p.guaranteed AND p.status = $2
	`

	rows, err := r.q.Query(ctx, query, pickID, models.PackageStatusLive)
	if err != nil {
		return nil, fmt.Errorf("failed to get guaranteed packages for pick %d: %w", pickID, err)
	}
	defer rows.Close()

	var packages []*models.Package
	for rows.Next() {
		var pkg models.Package
		err := rows.Scan(
			&pkg.ID,
			&pkg.HandicapperID,
			&pkg.Name,
			&pkg.Description,
			&pkg.Price,
			&pkg.Guaranteed,
			&pkg.Status,
			&pkg.CreatedAt,
			&pkg.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, &pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate packages: %w", err)
	}

	return packages, nil
}

// Complete marks a package Completed. The WHERE guard on the live status
// makes concurrent completions settle at most once.
func (r *PackageRepository) Complete(ctx context.Context, packageID int64) error {
	query := `
		UPDATE packages
		SET status = $1, completed_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.q.Exec(ctx, query, models.PackageStatusCompleted, packageID, models.PackageStatusLive)
	if err != nil {
		return fmt.Errorf("failed to complete package %d: %w", packageID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("package %d not live: %w", packageID, service.ErrAlreadyResolved)
	}

	return nil
}
