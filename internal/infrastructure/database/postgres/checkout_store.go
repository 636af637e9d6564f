package postgres

import (
	"context"

	"gorm.io/gorm"

	"bnpl-risk-core/internal/domain/credit"
	"bnpl-risk-core/internal/domain/plan"
	"bnpl-risk-core/internal/domain/transaction"
)

// CheckoutStore implements checkout.Store. An approved checkout writes
// the transaction row, the plan, its N installments and the account
// debit in one database transaction so no partial state is observable.
type CheckoutStore struct {
	db *gorm.DB
}

// NewCheckoutStore creates a new checkout store
func NewCheckoutStore(client *Client) *CheckoutStore {
	return &CheckoutStore{db: client.DB()}
}

// CreateApproved persists an approved checkout atomically. The debit is
// guarded: if available credit is below the amount no row matches, the
// whole write rolls back and ErrInsufficientCredit is returned.
func (s *CheckoutStore) CreateApproved(ctx context.Context, tx *transaction.Transaction, p *plan.PaymentPlan, installments []*plan.Installment) error {
	return s.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		res := dbtx.Model(&AccountModel{}).
			Where("user_id = ? AND available_credit >= ?", tx.UserID, tx.Amount).
			Updates(map[string]interface{}{
				"available_credit":  gorm.Expr("available_credit - ?", tx.Amount),
				"total_outstanding": gorm.Expr("total_outstanding + ?", tx.Amount),
				"updated_at":        tx.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return credit.ErrInsufficientCredit
		}

		if err := dbtx.Create(transactionToModel(tx)).Error; err != nil {
			return err
		}
		if err := dbtx.Create(planToModel(p)).Error; err != nil {
			return err
		}
		models := make([]*InstallmentModel, len(installments))
		for i, inst := range installments {
			models[i] = installmentToModel(inst, p.UserID)
		}
		return dbtx.Create(models).Error
	})
}

// CreateBlocked persists a blocked checkout's transaction row only.
func (s *CheckoutStore) CreateBlocked(ctx context.Context, tx *transaction.Transaction) error {
	return s.db.WithContext(ctx).Create(transactionToModel(tx)).Error
}
