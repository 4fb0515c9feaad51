package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Customer is one tracked account with purchased and consumed service hours.
// hours_used is owned by the reconciliation pipeline; everything else is
// maintained through the admin CRUD surface.
type Customer struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	CustomerName   string            `gorm:"not null" json:"customer_name"`
	CompanyName    string            `gorm:"not null" json:"company_name"`
	Email          string            `gorm:"not null" json:"email"`
	HoursPurchased float64           `gorm:"not null;default:0" json:"hours_purchased"`
	HoursUsed      float64           `gorm:"not null;default:0" json:"hours_used"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// HoursRemaining derives the unconsumed balance.
func (c Customer) HoursRemaining() float64 {
	return c.HoursPurchased - c.HoursUsed
}

// UsagePercentage derives consumed hours as a share of purchased hours.
// Zero purchased hours yields zero rather than a division error.
func (c Customer) UsagePercentage() float64 {
	if c.HoursPurchased == 0 {
		return 0
	}
	return c.HoursUsed / c.HoursPurchased * 100
}

// BillingNameMatch is the result of a case-insensitive name lookup for
// reconciliation. Matched reports how many records matched; when more than
// one does, Customer is the one with the lowest ID.
type BillingNameMatch struct {
	Customer *Customer
	Matched  int
}

// Overview aggregates the dashboard headline numbers across all customers.
type Overview struct {
	TotalCustomers      int64   `json:"total_customers"`
	TotalHoursPurchased float64 `json:"total_hours_purchased"`
	TotalHoursUsed      float64 `json:"total_hours_used"`
	TotalHoursRemaining float64 `json:"total_hours_remaining"`
}
