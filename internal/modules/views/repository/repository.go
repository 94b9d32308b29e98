// Package repository archives daily view buckets into the named analytics database.
package repository

import (
	"context"
	"fmt"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/domain"
	"github.com/gaborage/go-bricks/database"
)

const (
	dbUnavailableErrMsg = "failed to get analytics database connection: %w"
	dailyTable          = "product_view_daily"
)

// Repository defines the interface for archived view data.
type Repository interface {
	UpsertDaily(ctx context.Context, rows []domain.DailyViews) (int, error)
	GetTopViewed(ctx context.Context, since string, limit int) ([]domain.TopProduct, error)
}

// ArchiveRepository stores daily view counts in the analytics database.
type ArchiveRepository struct {
	// getDB wraps deps.DBByName(ctx, "analytics").
	getDB func(context.Context) (database.Interface, error)
}

// NewArchiveRepository creates a new archive repository.
func NewArchiveRepository(getDB func(context.Context) (database.Interface, error)) *ArchiveRepository {
	return &ArchiveRepository{
		getDB: getDB,
	}
}

// UpsertDaily writes each (day, product) count, replacing a previously archived value.
// Bucket counts only grow during a day, so overwriting keeps the archive current.
func (r *ArchiveRepository) UpsertDaily(ctx context.Context, rows []domain.DailyViews) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	db, err := r.getDB(ctx)
	if err != nil {
		return 0, fmt.Errorf(dbUnavailableErrMsg, err)
	}

	qb := database.NewQueryBuilder(database.PostgreSQL)
	written := 0
	for _, row := range rows {
		query, args, err := qb.Insert(dailyTable).
			Columns("day", "product_id", "views").
			Values(row.Day, row.ProductID, row.Views).
			Suffix("ON CONFLICT (day, product_id) DO UPDATE SET views = EXCLUDED.views").
			ToSql()
		if err != nil {
			return written, fmt.Errorf("failed to build upsert query: %w", err)
		}

		if _, err := db.Exec(ctx, query, args...); err != nil {
			return written, fmt.Errorf("failed to archive views of %s on %s: %w", row.ProductID, row.Day, err)
		}
		written++
	}

	return written, nil
}

// GetTopViewed returns the most viewed products since the given day (YYYY-MM-DD).
func (r *ArchiveRepository) GetTopViewed(ctx context.Context, since string, limit int) ([]domain.TopProduct, error) {
	db, err := r.getDB(ctx)
	if err != nil {
		return nil, fmt.Errorf(dbUnavailableErrMsg, err)
	}

	query := "SELECT product_id, SUM(views) AS total_views FROM " + dailyTable +
		" WHERE day >= $1 GROUP BY product_id ORDER BY total_views DESC, product_id LIMIT $2"

	rows, err := db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top viewed products: %w", err)
	}
	defer rows.Close()

	var results []domain.TopProduct
	for rows.Next() {
		var stat domain.TopProduct
		if err := rows.Scan(&stat.ProductID, &stat.TotalViews); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}
