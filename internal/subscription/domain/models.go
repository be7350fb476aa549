// Package domain contains the persistence model for customer subscriptions.
// Subscriptions are stored and loaded alongside customers; no service mutates them yet.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/membership/internal/payment/domain"
)

// BillingCycle is how often a subscription falls due.
type BillingCycle string

const (
	BillingCycleMonthly    BillingCycle = "Monthly"
	BillingCycleQuarterly  BillingCycle = "Quarterly"
	BillingCycleSemiannual BillingCycle = "Semiannual"
	BillingCycleAnnual     BillingCycle = "Annual"
)

func (c BillingCycle) Valid() bool {
	switch c {
	case BillingCycleMonthly, BillingCycleQuarterly, BillingCycleSemiannual, BillingCycleAnnual:
		return true
	default:
		return false
	}
}

// Months returns the cycle length in calendar months.
func (c BillingCycle) Months() int {
	switch c {
	case BillingCycleMonthly:
		return 1
	case BillingCycleQuarterly:
		return 3
	case BillingCycleSemiannual:
		return 6
	case BillingCycleAnnual:
		return 12
	default:
		return 0
	}
}

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "Active"
	SubscriptionStatusSuspended SubscriptionStatus = "Suspended"
	SubscriptionStatusCancelled SubscriptionStatus = "Cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "Expired"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusSuspended, SubscriptionStatusCancelled, SubscriptionStatusExpired:
		return true
	default:
		return false
	}
}

// Subscription is a recurring charge attached to a customer. Price is in
// minor currency units (cents) and must be positive.
type Subscription struct {
	ID           snowflake.ID       `gorm:"primaryKey" json:"id"`
	Name         string             `gorm:"type:varchar(255);not null" json:"name"`
	Description  *string            `gorm:"type:varchar(1000)" json:"description,omitempty"`
	Price        int64              `gorm:"not null;check:chk_subscriptions_price_positive,price > 0" json:"price"`
	BillingCycle BillingCycle       `gorm:"type:varchar(20);not null" json:"billingCycle"`
	Status       SubscriptionStatus `gorm:"type:varchar(20);not null;default:Active;index" json:"status"`
	StartDate    time.Time          `gorm:"not null" json:"startDate"`
	EndDate      *time.Time         `json:"endDate,omitempty"`
	NextDueDate  time.Time          `gorm:"not null" json:"nextDueDate"`
	CustomerID   snowflake.ID       `gorm:"not null;index" json:"customerId"`
	CreatedAt    time.Time          `gorm:"not null;index" json:"createdAt"`
	UpdatedAt    time.Time          `gorm:"not null" json:"updatedAt"`

	Payments []paymentdomain.Payment `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// NextDueAfter returns the due date one cycle after from.
func (s Subscription) NextDueAfter(from time.Time) time.Time {
	return from.AddDate(0, s.BillingCycle.Months(), 0)
}
