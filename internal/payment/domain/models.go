// Package domain contains the persistence model for subscription payments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PaymentStatus represents the settlement state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusPaid      PaymentStatus = "Paid"
	PaymentStatusFailed    PaymentStatus = "Failed"
	PaymentStatusCancelled PaymentStatus = "Cancelled"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// Payment is a single charge against a subscription. Amount is in minor units.
type Payment struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	Amount         int64         `gorm:"not null;check:chk_payments_amount_positive,amount > 0" json:"amount"`
	PaymentMethod  string        `gorm:"type:varchar(50);not null" json:"paymentMethod"`
	Status         PaymentStatus `gorm:"type:varchar(20);not null;default:Pending;index" json:"status"`
	TransactionID  *string       `gorm:"type:varchar(255);index" json:"transactionId,omitempty"`
	PaymentDate    time.Time     `gorm:"not null;index" json:"paymentDate"`
	DueDate        time.Time     `gorm:"not null" json:"dueDate"`
	ProcessedAt    *time.Time    `json:"processedAt,omitempty"`
	Notes          *string       `gorm:"type:varchar(1000)" json:"notes,omitempty"`
	SubscriptionID snowflake.ID  `gorm:"not null;index" json:"subscriptionId"`
	CreatedAt      time.Time     `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time     `gorm:"not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
