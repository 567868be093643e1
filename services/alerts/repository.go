package alerts

import (
	"encoding/json"
	"fmt"
	"time"

	"finanzas_backend/models"

	"gorm.io/gorm"
)

// Repository is the alert store gateway. It owns every query the engine
// makes against the alert table plus the subject-enumeration queries the
// scheduler and smart trigger need.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new alert repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindRecentAlert returns the most recent alert for the user matching
// kind and the candidate's entity reference, created at or after since.
// Returns nil when no such alert exists.
func (r *Repository) FindRecentAlert(userID uint, kind string, ref Candidate, since time.Time) (*models.Alert, error) {
	query := r.db.Where("user_id = ? AND kind = ? AND created_at >= ?", userID, kind, since)

	switch {
	case ref.BudgetID != nil:
		query = query.Where("budget_id = ?", *ref.BudgetID)
	case ref.RecurringPaymentID != nil:
		query = query.Where("recurring_payment_id = ?", *ref.RecurringPaymentID)
	case ref.LoanID != nil:
		query = query.Where("loan_id = ?", *ref.LoanID)
	case ref.InvestmentID != nil:
		query = query.Where("investment_id = ?", *ref.InvestmentID)
	case ref.TaskID != nil:
		query = query.Where("task_id = ?", *ref.TaskID)
	case ref.GastoID != nil:
		query = query.Where("gasto_id = ?", *ref.GastoID)
	}

	var alert models.Alert
	if err := query.Order("created_at DESC").First(&alert).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query recent alerts: %w", err)
	}
	return &alert, nil
}

// CreateAlert persists a candidate as an immutable alert row. CreatedAt
// is stamped from the evaluation's clock so cooldown windows line up
// with the pass that produced the alert.
func (r *Repository) CreateAlert(userID uint, c Candidate, now time.Time, expiresAt *time.Time) (*models.Alert, error) {
	metadata := ""
	if len(c.Metadata) > 0 {
		raw, err := json.Marshal(c.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal alert metadata: %w", err)
		}
		metadata = string(raw)
	}

	alert := models.Alert{
		UserID:             userID,
		Kind:               c.Kind,
		Priority:           c.Priority,
		Title:              c.Title,
		Message:            c.Message,
		Metadata:           metadata,
		ExpiresAt:          expiresAt,
		CreatedAt:          now,
		BudgetID:           c.BudgetID,
		RecurringPaymentID: c.RecurringPaymentID,
		LoanID:             c.LoanID,
		InvestmentID:       c.InvestmentID,
		TaskID:             c.TaskID,
		GastoID:            c.GastoID,
	}

	if err := r.db.Create(&alert).Error; err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return &alert, nil
}

// DeleteExpiredAlerts removes alerts whose expires_at has passed
func (r *Repository) DeleteExpiredAlerts(now time.Time) (int64, error) {
	result := r.db.Where("expires_at IS NOT NULL AND expires_at < ?", now).Delete(&models.Alert{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired alerts: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// AlertsForUser returns a user's alerts, newest first
func (r *Repository) AlertsForUser(userID uint) ([]models.Alert, error) {
	var alertList []models.Alert
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&alertList).Error; err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}
	return alertList, nil
}

// ActiveUserIDs returns users considered active for the scheduler: a
// gasto inside the activity window, or a budget for the current or
// previous month.
func (r *Repository) ActiveUserIDs(now time.Time, activityWindow time.Duration) ([]uint, error) {
	since := now.Add(-activityWindow)

	curMonth, curYear := int(now.Month()), now.Year()
	prev := now.AddDate(0, -1, 0)
	prevMonth, prevYear := int(prev.Month()), prev.Year()

	var ids []uint
	err := r.db.Model(&models.User{}).
		Distinct().
		Joins("LEFT JOIN gastos ON gastos.user_id = users.id AND gastos.date >= ?", since).
		Joins("LEFT JOIN budgets ON budgets.user_id = users.id AND ((budgets.month = ? AND budgets.year = ?) OR (budgets.month = ? AND budgets.year = ?))",
			curMonth, curYear, prevMonth, prevYear).
		Where("users.is_active = ?", true).
		Where("(gastos.id IS NOT NULL OR budgets.id IS NOT NULL)").
		Pluck("users.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate active users: %w", err)
	}
	return ids, nil
}

// RecentlyActiveUserIDs returns users with a gasto inside the (narrower)
// recency window. Used by the smart trigger.
func (r *Repository) RecentlyActiveUserIDs(now time.Time, recencyWindow time.Duration) ([]uint, error) {
	since := now.Add(-recencyWindow)

	var ids []uint
	err := r.db.Model(&models.Gasto{}).
		Distinct().
		Joins("JOIN users ON users.id = gastos.user_id AND users.is_active = ?", true).
		Where("gastos.date >= ?", since).
		Pluck("gastos.user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate recently active users: %w", err)
	}
	return ids, nil
}

// AllUserIDs returns every active user, ignoring activity filters
func (r *Repository) AllUserIDs() ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.User{}).Where("is_active = ?", true).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to enumerate users: %w", err)
	}
	return ids, nil
}
