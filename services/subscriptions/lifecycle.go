package subscriptions

import (
	"errors"
	"fmt"
	"log"
	"time"

	"finanzas_backend/models"

	"gorm.io/gorm"
)

// Grace and extension periods for the daily sweep
const (
	renewalHorizon  = 24 * time.Hour
	gracePeriodDays = 7
)

// ErrNoFreePlan is returned when the downgrade stage cannot find the
// designated free plan. It is an operational misconfiguration: the stage
// aborts for the pass and retries on the next daily sweep.
var ErrNoFreePlan = errors.New("no active free plan configured")

// Service drives the daily subscription lifecycle sweep: renewal with
// grace period, then downgrade of expired paid subscriptions to the
// free plan.
type Service struct {
	db *gorm.DB
}

// NewService creates a subscription lifecycle service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SweepReport summarizes one daily sweep
type SweepReport struct {
	GracePeriodsGranted int
	FreeRenewals        int
	Downgraded          int
}

// RunDailySweep runs the renewal stage then the downgrade stage. Both
// stages are idempotent per day. A downgrade-stage misconfiguration is
// logged and reported, never fatal.
func (s *Service) RunDailySweep(now time.Time) (SweepReport, error) {
	report := SweepReport{}

	if err := s.runRenewalStage(now, &report); err != nil {
		return report, fmt.Errorf("renewal stage failed: %w", err)
	}

	if err := s.runDowngradeStage(now, &report); err != nil {
		if errors.Is(err, ErrNoFreePlan) {
			log.Printf("Subscription sweep: downgrade stage skipped: %v", err)
			return report, nil
		}
		return report, fmt.Errorf("downgrade stage failed: %w", err)
	}

	return report, nil
}

// runRenewalStage handles subscriptions expiring within the next day.
// Paid plans get a 7-day grace period in pending_renewal; free and
// lifetime plans are silently extended a year.
func (s *Service) runRenewalStage(now time.Time, report *SweepReport) error {
	var subs []models.Subscription
	err := s.db.Preload("Plan").
		Where("auto_renew = ? AND status = ?", true, models.SubscriptionActive).
		Where("expires_at >= ? AND expires_at <= ?", now, now.Add(renewalHorizon)).
		Find(&subs).Error
	if err != nil {
		return fmt.Errorf("failed to load renewable subscriptions: %w", err)
	}

	for i := range subs {
		sub := subs[i]

		if sub.Plan.IsPaid {
			updates := map[string]interface{}{
				"status":          models.SubscriptionPendingRenewal,
				"expires_at":      now.AddDate(0, 0, gracePeriodDays),
				"failed_attempts": sub.FailedAttempts + 1,
			}
			if err := s.db.Model(&models.Subscription{}).Where("id = ?", sub.ID).Updates(updates).Error; err != nil {
				log.Printf("Subscription sweep: error granting grace period to subscription %d: %v", sub.ID, err)
				continue
			}
			report.GracePeriodsGranted++
			log.Printf("Subscription sweep: subscription %d (user %d) entered grace period", sub.ID, sub.UserID)
			continue
		}

		// Free plan: auto-extend a year, no state change
		if err := s.db.Model(&models.Subscription{}).Where("id = ?", sub.ID).
			Update("expires_at", now.AddDate(1, 0, 0)).Error; err != nil {
			log.Printf("Subscription sweep: error extending subscription %d: %v", sub.ID, err)
			continue
		}
		report.FreeRenewals++
	}
	return nil
}

// runDowngradeStage expires paid subscriptions past their expiry date
// and gives each affected user a fresh active subscription on the free
// plan.
func (s *Service) runDowngradeStage(now time.Time, report *SweepReport) error {
	var subs []models.Subscription
	err := s.db.Preload("Plan").
		Where("status IN ?", []string{models.SubscriptionActive, models.SubscriptionPendingRenewal}).
		Where("expires_at < ?", now).
		Find(&subs).Error
	if err != nil {
		return fmt.Errorf("failed to load expired subscriptions: %w", err)
	}

	var expired []models.Subscription
	for i := range subs {
		if subs[i].Plan.IsPaid {
			expired = append(expired, subs[i])
		}
	}
	if len(expired) == 0 {
		return nil
	}

	freePlan, err := s.FindFreePlan()
	if err != nil {
		return err
	}

	for i := range expired {
		sub := expired[i]

		if err := s.db.Model(&models.Subscription{}).Where("id = ?", sub.ID).
			Update("status", models.SubscriptionExpired).Error; err != nil {
			log.Printf("Subscription sweep: error expiring subscription %d: %v", sub.ID, err)
			continue
		}

		replacement := models.Subscription{
			UserID:    sub.UserID,
			PlanID:    freePlan.ID,
			Status:    models.SubscriptionActive,
			ExpiresAt: now.AddDate(1, 0, 0),
			AutoRenew: true,
		}
		if err := s.db.Create(&replacement).Error; err != nil {
			log.Printf("Subscription sweep: error creating free subscription for user %d: %v", sub.UserID, err)
			continue
		}

		if err := s.db.Model(&models.User{}).Where("id = ?", sub.UserID).
			Update("plan_id", freePlan.ID).Error; err != nil {
			log.Printf("Subscription sweep: error updating plan reference for user %d: %v", sub.UserID, err)
		}

		report.Downgraded++
		log.Printf("Subscription sweep: user %d downgraded to plan %q", sub.UserID, freePlan.Name)
	}
	return nil
}

// FindFreePlan returns the designated free plan: the active plan whose
// name contains "Gratuito", case-insensitive.
func (s *Service) FindFreePlan() (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := s.db.Where("LOWER(name) LIKE ? AND is_active = ?", "%gratuito%", true).First(&plan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNoFreePlan
		}
		return nil, fmt.Errorf("failed to look up free plan: %w", err)
	}
	return &plan, nil
}
