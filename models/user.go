package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account holder whose financial data is evaluated
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	FullName    string     `json:"full_name"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	PlanID      *uint      `gorm:"index" json:"plan_id"` // current subscription plan
	Preferences string     `gorm:"type:jsonb" json:"preferences"` // JSON for user preferences
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Category groups gastos and budgets
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name      string    `gorm:"not null" json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MigrateUserModels runs database migrations for user-related models
func MigrateUserModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Category{},
	)
}
