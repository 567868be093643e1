package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Budget represents a monthly (or yearly) spending limit for a category
type Budget struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index" json:"user_id"`
	User       User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CategoryID uint            `gorm:"index" json:"category_id"`
	Category   Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	Period     string          `gorm:"default:'monthly'" json:"period"` // monthly, yearly
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Gasto represents a single expense record
type Gasto struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"index" json:"user_id"`
	User        User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CategoryID  uint            `gorm:"index" json:"category_id"`
	Category    Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"index" json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RecurringPayment represents a recurring obligation (rent, utilities, ...)
type RecurringPayment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"index" json:"user_id"`
	User        User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Concept     string          `gorm:"not null" json:"concept"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	NextDueDate time.Time       `gorm:"index" json:"next_due_date"`
	Status      string          `gorm:"default:'pendiente'" json:"status"` // pendiente, parcial, pagado
	CategoryID  *uint           `json:"category_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Loan represents money borrowed by the user
type Loan struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	UserID              uint            `gorm:"index" json:"user_id"`
	User                User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Lender              string          `json:"lender"`
	InstallmentAmount   decimal.Decimal `gorm:"type:decimal(15,2)" json:"installment_amount"`
	NextInstallmentDate time.Time       `gorm:"index" json:"next_installment_date"`
	Status              string          `gorm:"default:'active'" json:"status"` // active, closed
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Investment represents a fixed-term investment held by the user
type Investment struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"index" json:"user_id"`
	User         User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name         string          `json:"name"`
	CurrentValue decimal.Decimal `gorm:"type:decimal(15,2)" json:"current_value"`
	MaturityDate time.Time       `gorm:"index" json:"maturity_date"`
	Status       string          `gorm:"default:'active'" json:"status"` // active, closed
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Task represents a to-do item, optionally flagged as financial
type Task struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `gorm:"index" json:"due_date"`
	Priority    string    `gorm:"default:'media'" json:"priority"` // baja, media, alta
	IsFinancial bool      `gorm:"default:false" json:"is_financial"`
	Status      string    `gorm:"default:'pendiente'" json:"status"` // pendiente, completada
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Recurring payment status constants
const (
	RecurringStatusPending = "pendiente"
	RecurringStatusPartial = "parcial"
	RecurringStatusPaid    = "pagado"
)

// Loan and investment status constants
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Task status and priority constants
const (
	TaskStatusPending = "pendiente"
	TaskStatusDone    = "completada"

	TaskPriorityLow    = "baja"
	TaskPriorityMedium = "media"
	TaskPriorityHigh   = "alta"
)

// MigrateFinanceModels runs database migrations for financial data models
func MigrateFinanceModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Budget{},
		&Gasto{},
		&RecurringPayment{},
		&Loan{},
		&Investment{},
		&Task{},
	)
}
