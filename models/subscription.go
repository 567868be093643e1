package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubscriptionPlan represents an available subscription plan.
// The designated free plan is the active plan whose name contains
// "Gratuito" (case-insensitive); exactly one must exist for the
// downgrade stage of the daily sweep to work.
type SubscriptionPlan struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"uniqueIndex;not null" json:"name"` // Gratuito, Premium, ...
	Description  string          `json:"description"`
	MonthlyPrice decimal.Decimal `gorm:"type:decimal(15,2)" json:"monthly_price"`
	Currency     string          `gorm:"default:'EUR'" json:"currency"`
	IsPaid       bool            `gorm:"default:false" json:"is_paid"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Subscription represents a user's subscription to a plan.
// An expired row is terminal; the downgrade stage creates a fresh
// active row on the free plan for the same user.
type Subscription struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	UserID         uint             `gorm:"index" json:"user_id"`
	User           User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PlanID         uint             `gorm:"index" json:"plan_id"`
	Plan           SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Status         string           `gorm:"index;default:'active'" json:"status"` // active, pending_renewal, expired
	ExpiresAt      time.Time        `gorm:"index" json:"expires_at"`
	AutoRenew      bool             `gorm:"default:true" json:"auto_renew"`
	FailedAttempts int              `gorm:"default:0" json:"failed_attempts"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Subscription status constants
const (
	SubscriptionActive         = "active"
	SubscriptionPendingRenewal = "pending_renewal"
	SubscriptionExpired        = "expired"
)

// ValidSubscriptionStatuses returns valid subscription statuses
func ValidSubscriptionStatuses() []string {
	return []string{SubscriptionActive, SubscriptionPendingRenewal, SubscriptionExpired}
}

// IsValidSubscriptionStatus checks if the status is valid
func IsValidSubscriptionStatus(status string) bool {
	for _, valid := range ValidSubscriptionStatuses() {
		if status == valid {
			return true
		}
	}
	return false
}

// MigrateSubscriptionModels runs database migrations for subscription-related models
func MigrateSubscriptionModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&SubscriptionPlan{},
		&Subscription{},
	)
}
