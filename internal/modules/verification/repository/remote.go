package repository

import (
	"context"
	"encoding/json"
	"fmt"

	catalog "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
	catalogrepo "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/repository"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/verification/domain"
	"github.com/gaborage/go-bricks/database"
	"github.com/gaborage/go-bricks/logger"
)

const (
	dbUnavailableErrMsg = "failed to get database connection: %w"
	requestsTable       = "verification_requests"
)

// Transition is one verification state change: the request to drop or store and
// the resulting product status.
type Transition struct {
	Save       *domain.Request
	DropID     string
	ProductID  string
	Status     catalog.VerificationStatus
	VerifiedAt string
}

// Remote is the remote store for verification outcomes.
type Remote interface {
	ApplyTransition(ctx context.Context, t Transition) error
}

// SQLRemote writes verification requests and the product status columns.
type SQLRemote struct {
	getDB  func(context.Context) (database.Interface, error)
	logger logger.Logger
}

func NewSQLRemote(getDB func(context.Context) (database.Interface, error), log logger.Logger) *SQLRemote {
	return &SQLRemote{
		getDB:  getDB,
		logger: log,
	}
}

// ApplyTransition writes the whole transition in one transaction.
// Nothing is kept when any statement fails.
func (r *SQLRemote) ApplyTransition(ctx context.Context, t Transition) error {
	db, err := r.getDB(ctx)
	if err != nil {
		return fmt.Errorf(dbUnavailableErrMsg, err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	qb := database.NewQueryBuilder(database.PostgreSQL)
	if t.DropID != "" {
		if err := deleteRequest(ctx, tx, qb, t.DropID); err != nil {
			return err
		}
	}
	if t.Save != nil {
		if err := saveRequest(ctx, tx, qb, t.Save); err != nil {
			return err
		}
	}
	if err := setProductStatus(ctx, tx, qb, t.ProductID, t.Status, t.VerifiedAt); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit verification transition: %w", err)
	}
	r.logger.Debug().Str("productId", t.ProductID).Str("status", string(t.Status)).Msg("Verification transition committed")
	return nil
}

// saveRequest inserts the request or overwrites its review fields.
func saveRequest(ctx context.Context, tx database.Tx, qb *database.QueryBuilder, req *domain.Request) error {
	documents := "[]"
	if len(req.Documents) > 0 {
		b, err := json.Marshal(req.Documents)
		if err != nil {
			return fmt.Errorf("failed to encode documents: %w", err)
		}
		documents = string(b)
	}

	var reviewedAt any
	if req.ReviewedAt != nil {
		reviewedAt = req.ReviewedAt.UTC()
	}

	query, args, err := qb.Insert(requestsTable).
		Columns("id", "product_id", "seller_id", "status", "requested_at", "reviewed_at", "reviewed_by", "rejection_reason", "documents").
		Values(req.ID, req.ProductID, req.SellerID, string(req.Status), req.RequestedAt.UTC(), reviewedAt, req.ReviewedBy, req.RejectionReason, documents).
		Suffix("ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, reviewed_at = EXCLUDED.reviewed_at, " +
			"reviewed_by = EXCLUDED.reviewed_by, rejection_reason = EXCLUDED.rejection_reason").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save verification request: %w", err)
	}
	return nil
}

// deleteRequest removes a cancelled request. Deleting an absent row is not an error.
func deleteRequest(ctx context.Context, tx database.Tx, qb *database.QueryBuilder, id string) error {
	f := qb.Filter()
	query, args, err := qb.Delete(requestsTable).
		Where(f.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete verification request: %w", err)
	}
	return nil
}

// setProductStatus updates the verification columns of a product row.
func setProductStatus(ctx context.Context, tx database.Tx, qb *database.QueryBuilder, productID string, status catalog.VerificationStatus, verifiedAt string) error {
	var verified any
	if status == catalog.StatusVerified && verifiedAt != "" {
		verified = verifiedAt
	}

	f := qb.Filter()
	query, args, err := qb.Update("products").
		Set("verification_status", string(status)).
		Set("verified_at", verified).
		Where(f.Eq("id", productID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	result, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product verification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return catalogrepo.ErrProductNotFound
	}
	return nil
}
