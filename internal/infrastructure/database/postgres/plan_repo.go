package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bnpl-risk-core/internal/domain/plan"
)

// PaymentPlanModel is the database model for payment plans
type PaymentPlanModel struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID               uuid.UUID       `gorm:"type:uuid;index;not null"`
	TransactionID        uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	RemainingAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	NumberOfInstallments int             `gorm:"not null"`
	InstallmentAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	StartDate            time.Time       `gorm:"not null"`
	EndDate              time.Time       `gorm:"index;not null"`
	Status               string          `gorm:"type:varchar(20);index;not null"`
	LateFee              decimal.Decimal `gorm:"type:decimal(15,2)"`
	DaysLate             int
	RescheduleCount      int
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

// TableName returns the table name for payment plans
func (PaymentPlanModel) TableName() string {
	return "payment_plans"
}

// InstallmentModel is the database model for installments
type InstallmentModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PlanID            uuid.UUID       `gorm:"type:uuid;index;not null"`
	UserID            uuid.UUID       `gorm:"type:uuid;index;not null"`
	InstallmentNumber int             `gorm:"not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	DueDate           time.Time       `gorm:"index;not null"`
	Status            string          `gorm:"type:varchar(20);index;not null"`
	PaidDate          *time.Time
	PaidAmount        decimal.Decimal `gorm:"type:decimal(15,2)"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for installments
func (InstallmentModel) TableName() string {
	return "installments"
}

// RescheduleModel is the database model for the reschedule log
type RescheduleModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PlanID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	PreviousEndDate time.Time       `gorm:"not null"`
	NewEndDate      time.Time       `gorm:"not null"`
	Reason          string          `gorm:"type:text"`
	Fee             decimal.Decimal `gorm:"type:decimal(15,2)"`
	AdminID         *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the reschedule log
func (RescheduleModel) TableName() string {
	return "plan_reschedules"
}

// PlanRepository implements plan.Repository
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(client *Client) *PlanRepository {
	return &PlanRepository{db: client.DB()}
}

// GetByID retrieves a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*plan.PaymentPlan, error) {
	var model PaymentPlanModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, plan.ErrPlanNotFound
		}
		return nil, err
	}
	return modelToPlan(&model), nil
}

// ListByStatus returns plans in any of the given states
func (r *PlanRepository) ListByStatus(ctx context.Context, statuses ...plan.Status) ([]*plan.PaymentPlan, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	var models []PaymentPlanModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", values).
		Order("end_date ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToPlans(models), nil
}

// ListByUserID returns a user's plans, newest first
func (r *PlanRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*plan.PaymentPlan, error) {
	var models []PaymentPlanModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToPlans(models), nil
}

// Update persists plan changes
func (r *PlanRepository) Update(ctx context.Context, p *plan.PaymentPlan) error {
	return r.db.WithContext(ctx).Save(planToModel(p)).Error
}

// ListInstallments returns a plan's installments in schedule order
func (r *PlanRepository) ListInstallments(ctx context.Context, planID uuid.UUID) ([]*plan.Installment, error) {
	var models []InstallmentModel
	if err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("installment_number ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	rows := make([]*plan.Installment, len(models))
	for i, m := range models {
		rows[i] = modelToInstallment(&m)
	}
	return rows, nil
}

// ListInstallmentsByUser returns all installments across a user's plans
func (r *PlanRepository) ListInstallmentsByUser(ctx context.Context, userID uuid.UUID) ([]*plan.Installment, error) {
	var models []InstallmentModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("due_date ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	rows := make([]*plan.Installment, len(models))
	for i, m := range models {
		rows[i] = modelToInstallment(&m)
	}
	return rows, nil
}

// UpdateInstallment persists installment changes
func (r *PlanRepository) UpdateInstallment(ctx context.Context, inst *plan.Installment) error {
	return r.db.WithContext(ctx).
		Model(&InstallmentModel{}).
		Where("id = ?", inst.ID).
		Updates(map[string]interface{}{
			"status":      string(inst.Status),
			"paid_date":   inst.PaidDate,
			"paid_amount": inst.PaidAmount,
			"updated_at":  inst.UpdatedAt,
		}).Error
}

// AppendReschedule persists the plan update and its log row atomically
func (r *PlanRepository) AppendReschedule(ctx context.Context, p *plan.PaymentPlan, rec *plan.RescheduleRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(planToModel(p)).Error; err != nil {
			return err
		}
		return tx.Create(&RescheduleModel{
			ID:              rec.ID,
			PlanID:          rec.PlanID,
			PreviousEndDate: rec.PreviousEndDate,
			NewEndDate:      rec.NewEndDate,
			Reason:          rec.Reason,
			Fee:             rec.Fee,
			AdminID:         rec.AdminID,
			CreatedAt:       rec.CreatedAt,
		}).Error
	})
}

// ListReschedules returns a plan's reschedule log, oldest first
func (r *PlanRepository) ListReschedules(ctx context.Context, planID uuid.UUID) ([]*plan.RescheduleRecord, error) {
	var models []RescheduleModel
	if err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	rows := make([]*plan.RescheduleRecord, len(models))
	for i, m := range models {
		rows[i] = &plan.RescheduleRecord{
			ID:              m.ID,
			PlanID:          m.PlanID,
			PreviousEndDate: m.PreviousEndDate,
			NewEndDate:      m.NewEndDate,
			Reason:          m.Reason,
			Fee:             m.Fee,
			AdminID:         m.AdminID,
			CreatedAt:       m.CreatedAt,
		}
	}
	return rows, nil
}

// SavePayment persists the plan and installment updates and releases the
// captured amount back to the user's account, all in one transaction.
func (r *PlanRepository) SavePayment(ctx context.Context, p *plan.PaymentPlan, inst *plan.Installment, released decimal.Decimal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(planToModel(p)).Error; err != nil {
			return err
		}
		if err := tx.Model(&InstallmentModel{}).
			Where("id = ?", inst.ID).
			Updates(map[string]interface{}{
				"status":      string(inst.Status),
				"paid_date":   inst.PaidDate,
				"paid_amount": inst.PaidAmount,
				"updated_at":  inst.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&AccountModel{}).
			Where("user_id = ?", p.UserID).
			Updates(map[string]interface{}{
				"available_credit":  gorm.Expr("available_credit + ?", released),
				"total_outstanding": gorm.Expr("total_outstanding - ?", released),
				"updated_at":        inst.UpdatedAt,
			}).Error
	})
}

func planToModel(p *plan.PaymentPlan) *PaymentPlanModel {
	return &PaymentPlanModel{
		ID:                   p.ID,
		UserID:               p.UserID,
		TransactionID:        p.TransactionID,
		TotalAmount:          p.TotalAmount,
		RemainingAmount:      p.RemainingAmount,
		NumberOfInstallments: p.NumberOfInstallments,
		InstallmentAmount:    p.InstallmentAmount,
		StartDate:            p.StartDate,
		EndDate:              p.EndDate,
		Status:               string(p.Status),
		LateFee:              p.LateFee,
		DaysLate:             p.DaysLate,
		RescheduleCount:      p.RescheduleCount,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func modelToPlan(m *PaymentPlanModel) *plan.PaymentPlan {
	return &plan.PaymentPlan{
		ID:                   m.ID,
		UserID:               m.UserID,
		TransactionID:        m.TransactionID,
		TotalAmount:          m.TotalAmount,
		RemainingAmount:      m.RemainingAmount,
		NumberOfInstallments: m.NumberOfInstallments,
		InstallmentAmount:    m.InstallmentAmount,
		StartDate:            m.StartDate,
		EndDate:              m.EndDate,
		Status:               plan.Status(m.Status),
		LateFee:              m.LateFee,
		DaysLate:             m.DaysLate,
		RescheduleCount:      m.RescheduleCount,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func modelsToPlans(models []PaymentPlanModel) []*plan.PaymentPlan {
	plans := make([]*plan.PaymentPlan, len(models))
	for i, m := range models {
		plans[i] = modelToPlan(&m)
	}
	return plans
}

func installmentToModel(inst *plan.Installment, userID uuid.UUID) *InstallmentModel {
	return &InstallmentModel{
		ID:                inst.ID,
		PlanID:            inst.PlanID,
		UserID:            userID,
		InstallmentNumber: inst.InstallmentNumber,
		Amount:            inst.Amount,
		DueDate:           inst.DueDate,
		Status:            string(inst.Status),
		PaidDate:          inst.PaidDate,
		PaidAmount:        inst.PaidAmount,
		CreatedAt:         inst.CreatedAt,
		UpdatedAt:         inst.UpdatedAt,
	}
}

func modelToInstallment(m *InstallmentModel) *plan.Installment {
	return &plan.Installment{
		ID:                m.ID,
		PlanID:            m.PlanID,
		InstallmentNumber: m.InstallmentNumber,
		Amount:            m.Amount,
		DueDate:           m.DueDate,
		Status:            plan.InstallmentStatus(m.Status),
		PaidDate:          m.PaidDate,
		PaidAmount:        m.PaidAmount,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
