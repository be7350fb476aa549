package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/membership/internal/auth/domain"
	subscriptiondomain "github.com/smallbiznis/membership/internal/subscription/domain"
	"gorm.io/datatypes"
)

// Customer belongs to exactly one owner. Document and email are unique per
// owner when present; empty values are stored as NULL.
type Customer struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Email     *string         `gorm:"type:varchar(255);index;uniqueIndex:ux_customers_owner_email,priority:2,where:email IS NOT NULL" json:"email"`
	Phone     *string         `gorm:"type:varchar(20)" json:"phone"`
	Document  *string         `gorm:"type:varchar(20);index;uniqueIndex:ux_customers_owner_document,priority:2,where:document IS NOT NULL" json:"document"`
	Address   *string         `gorm:"type:varchar(500)" json:"address"`
	BirthDate *datatypes.Date `json:"birthDate"`
	IsActive  bool            `gorm:"not null" json:"isActive"`
	Notes     *string         `gorm:"type:varchar(1000)" json:"notes"`
	OwnerID   snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_customers_owner_document,priority:1,where:document IS NOT NULL;uniqueIndex:ux_customers_owner_email,priority:1,where:email IS NOT NULL" json:"ownerId"`
	CreatedAt time.Time       `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime:false" json:"updatedAt"`

	Owner         *authdomain.User                  `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"-"`
	Subscriptions []subscriptiondomain.Subscription `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"subscriptions,omitempty"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
