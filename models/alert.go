package models

import (
	"time"

	"gorm.io/gorm"
)

// Alert represents a notification emitted by the alert engine.
// Alerts are immutable: they are created once and only ever deleted
// when ExpiresAt passes, never updated.
type Alert struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Kind      string     `gorm:"index;not null" json:"kind"`
	Priority  string     `gorm:"not null" json:"priority"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Metadata  string     `gorm:"type:jsonb" json:"metadata"` // numeric facts that justified the alert
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`

	// Optional references to the triggering entity. At most one is set.
	BudgetID           *uint `gorm:"index" json:"budget_id"`
	RecurringPaymentID *uint `gorm:"index" json:"recurring_payment_id"`
	LoanID             *uint `gorm:"index" json:"loan_id"`
	InvestmentID       *uint `gorm:"index" json:"investment_id"`
	TaskID             *uint `gorm:"index" json:"task_id"`
	GastoID            *uint `gorm:"index" json:"gasto_id"`
}

// Alert kind constants
const (
	AlertKindBudget80           = "BUDGET_80"
	AlertKindBudget90           = "BUDGET_90"
	AlertKindBudgetExceeded     = "BUDGET_SUPERADO"
	AlertKindLoanInstallment    = "LOAN_INSTALLMENT"
	AlertKindInvestmentMaturity = "INVESTMENT_MATURITY"
	AlertKindRecurringPayment   = "RECURRING_PAYMENT"
	AlertKindTaskDue            = "TASK_DUE"
	AlertKindAnomalousExpense   = "ANOMALOUS_EXPENSE"
)

// Alert priority constants
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ValidAlertKinds returns all alert kinds the engine can emit
func ValidAlertKinds() []string {
	return []string{
		AlertKindBudget80,
		AlertKindBudget90,
		AlertKindBudgetExceeded,
		AlertKindLoanInstallment,
		AlertKindInvestmentMaturity,
		AlertKindRecurringPayment,
		AlertKindTaskDue,
		AlertKindAnomalousExpense,
	}
}

// IsValidAlertKind checks if the kind is one the engine emits
func IsValidAlertKind(kind string) bool {
	for _, valid := range ValidAlertKinds() {
		if kind == valid {
			return true
		}
	}
	return false
}

// MigrateAlertModels runs database migrations for alert models
func MigrateAlertModels(db *gorm.DB) error {
	return db.AutoMigrate(&Alert{})
}
