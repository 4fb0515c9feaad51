package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hourdesk/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", id).
		Take(&customer).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCustomerFilter) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	stmt := db.WithContext(ctx).Model(&domain.Customer{})
	if filter.Name != "" {
		stmt = stmt.Where("LOWER(customer_name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	if filter.Company != "" {
		stmt = stmt.Where("LOWER(company_name) LIKE LOWER(?)", "%"+filter.Company+"%")
	}
	err := stmt.
		Order("customer_name asc, id asc").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"customer_name":   customer.CustomerName,
			"company_name":    customer.CompanyName,
			"email":           customer.Email,
			"hours_purchased": customer.HoursPurchased,
			"hours_used":      customer.HoursUsed,
			"updated_at":      customer.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Customer{}).Error
}

func (r *repo) Overview(ctx context.Context, db *gorm.DB) (domain.Overview, error) {
	var overview domain.Overview
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS total_customers,
			COALESCE(SUM(hours_purchased), 0) AS total_hours_purchased,
			COALESCE(SUM(hours_used), 0) AS total_hours_used,
			COALESCE(SUM(hours_purchased - hours_used), 0) AS total_hours_remaining
		 FROM customers`,
	).Scan(&overview).Error
	if err != nil {
		return domain.Overview{}, err
	}
	return overview, nil
}

func (r *repo) FindByBillingName(ctx context.Context, db *gorm.DB, name string) (domain.BillingNameMatch, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("LOWER(customer_name) = LOWER(?) OR LOWER(company_name) = LOWER(?)", name, name).
		Count(&count).Error
	if err != nil {
		return domain.BillingNameMatch{}, err
	}
	if count == 0 {
		return domain.BillingNameMatch{}, nil
	}

	var customer domain.Customer
	err = db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("LOWER(customer_name) = LOWER(?) OR LOWER(company_name) = LOWER(?)", name, name).
		Order("id asc").
		Take(&customer).Error
	if err != nil {
		return domain.BillingNameMatch{}, err
	}
	return domain.BillingNameMatch{Customer: &customer, Matched: int(count)}, nil
}

func (r *repo) UpdateHoursUsed(ctx context.Context, db *gorm.DB, id snowflake.ID, hours float64, now time.Time) error {
	result := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"hours_used": hours,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
