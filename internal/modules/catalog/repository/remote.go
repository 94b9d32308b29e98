package repository

import (
	"context"
	"fmt"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
	"github.com/gaborage/go-bricks/database"
	"github.com/gaborage/go-bricks/logger"
)

const (
	dbUnavailableErrMsg = "failed to get database connection: %w"
)

// RemoteProvider is the optional remote catalog store.
type RemoteProvider interface {
	LoadAll(ctx context.Context) (Data, error)
	InsertRating(ctx context.Context, rating *domain.Rating) error
	MarkVoucherUsed(ctx context.Context, code string) error
}

// SQLRemoteProvider reads and writes the catalog tables of the remote database.
type SQLRemoteProvider struct {
	getDB  func(context.Context) (database.Interface, error)
	logger logger.Logger
}

func NewSQLRemoteProvider(getDB func(context.Context) (database.Interface, error), log logger.Logger) *SQLRemoteProvider {
	return &SQLRemoteProvider{
		getDB:  getDB,
		logger: log,
	}
}

// LoadAll reads sellers, products, ratings and vouchers.
// Rows failing schema validation are skipped and logged.
func (r *SQLRemoteProvider) LoadAll(ctx context.Context) (Data, error) {
	db, err := r.getDB(ctx)
	if err != nil {
		return Data{}, fmt.Errorf(dbUnavailableErrMsg, err)
	}

	var data Data
	if data.Sellers, err = r.loadSellers(ctx, db); err != nil {
		return Data{}, err
	}
	if data.Products, err = r.loadProducts(ctx, db); err != nil {
		return Data{}, err
	}
	if data.Ratings, err = r.loadRatings(ctx, db); err != nil {
		return Data{}, err
	}
	if data.Vouchers, err = r.loadVouchers(ctx, db); err != nil {
		return Data{}, err
	}
	return data, nil
}

func (r *SQLRemoteProvider) loadSellers(ctx context.Context, db database.Interface) ([]domain.Seller, error) {
	qb := database.NewQueryBuilder(database.PostgreSQL)
	query, args, err := qb.Select("id", "name",
		"COALESCE(phone, '') AS phone",
		"COALESCE(email, '') AS email",
		"COALESCE(city, '') AS city",
		"COALESCE(avatar, '') AS avatar",
		"created_at").
		From("sellers").
		OrderBy("created_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build sellers query: %w", err)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sellers: %w", err)
	}
	defer rows.Close()

	var sellers []domain.Seller
	for rows.Next() {
		var row domain.SellerRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Phone, &row.Email, &row.City, &row.Avatar, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan seller: %w", err)
		}
		if err := row.Validate(); err != nil {
			r.logger.Warn().Err(err).Str("sellerId", row.ID).Msg("Skipping invalid seller row")
			continue
		}
		sellers = append(sellers, row.ToSeller())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sellers: %w", err)
	}
	return sellers, nil
}

func (r *SQLRemoteProvider) loadProducts(ctx context.Context, db database.Interface) ([]domain.Product, error) {
	qb := database.NewQueryBuilder(database.PostgreSQL)
	query, args, err := qb.Select("id", "seller_id", "name",
		"COALESCE(description, '') AS description",
		"price",
		"COALESCE(category, '') AS category",
		"COALESCE(images::text, '[]') AS images",
		"COALESCE(verification_status, 'none') AS verification_status",
		"COALESCE(verified_at::text, '') AS verified_at",
		"created_at").
		From("products").
		OrderBy("created_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build products query: %w", err)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var row domain.ProductRow
		err := rows.Scan(
			&row.ID,
			&row.SellerID,
			&row.Name,
			&row.Description,
			&row.Price,
			&row.Category,
			&row.Images,
			&row.VerificationStatus,
			&row.VerifiedAt,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if err := row.Validate(); err != nil {
			r.logger.Warn().Err(err).Str("productId", row.ID).Msg("Skipping invalid product row")
			continue
		}
		products = append(products, row.ToProduct())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func (r *SQLRemoteProvider) loadRatings(ctx context.Context, db database.Interface) ([]domain.Rating, error) {
	qb := database.NewQueryBuilder(database.PostgreSQL)
	query, args, err := qb.Select("id", "seller_id", "buyer_name", "score",
		"COALESCE(comment, '') AS comment",
		"COALESCE(voucher_code, '') AS voucher_code",
		"created_at").
		From("ratings").
		OrderBy("created_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build ratings query: %w", err)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		var row domain.RatingRow
		if err := rows.Scan(&row.ID, &row.SellerID, &row.BuyerName, &row.Score, &row.Comment, &row.VoucherCode, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		if err := row.Validate(); err != nil {
			r.logger.Warn().Err(err).Str("ratingId", row.ID).Msg("Skipping invalid rating row")
			continue
		}
		ratings = append(ratings, row.ToRating())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}
	return ratings, nil
}

func (r *SQLRemoteProvider) loadVouchers(ctx context.Context, db database.Interface) ([]domain.Voucher, error) {
	qb := database.NewQueryBuilder(database.PostgreSQL)
	query, args, err := qb.Select("code", "seller_id", "used").
		From("vouchers").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build vouchers query: %w", err)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []domain.Voucher
	for rows.Next() {
		var row domain.VoucherRow
		if err := rows.Scan(&row.Code, &row.SellerID, &row.Used); err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		if err := row.Validate(); err != nil {
			r.logger.Warn().Err(err).Msg("Skipping invalid voucher row")
			continue
		}
		vouchers = append(vouchers, row.ToVoucher())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vouchers: %w", err)
	}
	return vouchers, nil
}

// InsertRating stores a new rating
func (r *SQLRemoteProvider) InsertRating(ctx context.Context, rating *domain.Rating) error {
	db, err := r.getDB(ctx)
	if err != nil {
		return fmt.Errorf(dbUnavailableErrMsg, err)
	}

	qb := database.NewQueryBuilder(database.PostgreSQL)
	query, args, err := qb.Insert("ratings").
		Columns("id", "seller_id", "buyer_name", "score", "comment", "voucher_code", "created_at").
		Values(rating.ID, rating.SellerID, rating.BuyerName, rating.Score, rating.Comment, rating.VoucherCode, rating.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert rating: %w", err)
	}
	return nil
}

// MarkVoucherUsed flags an unused voucher as consumed
func (r *SQLRemoteProvider) MarkVoucherUsed(ctx context.Context, code string) error {
	db, err := r.getDB(ctx)
	if err != nil {
		return fmt.Errorf(dbUnavailableErrMsg, err)
	}

	qb := database.NewQueryBuilder(database.PostgreSQL)
	f := qb.Filter()
	query, args, err := qb.Update("vouchers").
		Set("used", true).
		Where(f.And(f.Eq("code", code), f.Eq("used", false))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	result, err := db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark voucher used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrVoucherNotFound
	}
	return nil
}
