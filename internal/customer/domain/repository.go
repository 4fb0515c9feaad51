package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, filter ListCustomerFilter) ([]*Customer, error)
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	Overview(ctx context.Context, db *gorm.DB) (Overview, error)

	// FindByBillingName matches a remote billing client name against
	// customer_name or company_name, case-insensitively. Ties break on the
	// lowest ID.
	FindByBillingName(ctx context.Context, db *gorm.DB, name string) (BillingNameMatch, error)

	// UpdateHoursUsed overwrites hours_used and refreshes updated_at. It is
	// only ever called inside the reconciliation transaction.
	UpdateHoursUsed(ctx context.Context, db *gorm.DB, id snowflake.ID, hours float64, now time.Time) error
}
