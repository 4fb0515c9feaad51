package domain

import (
	"context"
	"errors"
)

type CreateCustomerRequest struct {
	CustomerName   string
	CompanyName    string
	Email          string
	HoursPurchased float64
	HoursUsed      float64
}

type UpdateCustomerRequest struct {
	ID             string
	CustomerName   string
	CompanyName    string
	Email          string
	HoursPurchased float64
	HoursUsed      float64
}

type ListCustomerRequest struct {
	Name    string
	Company string
}

type ListCustomerFilter struct {
	Name    string
	Company string
}

type ListCustomerResponse struct {
	Customers []Customer `json:"customers"`
}

type GetCustomerRequest struct {
	ID string
}

type OverviewResponse struct {
	Overview
	Customers []CustomerUsage `json:"customers"`
}

// CustomerUsage is a customer row decorated with derived dashboard figures.
type CustomerUsage struct {
	Customer
	HoursRemaining  float64 `json:"hours_remaining"`
	UsagePercentage float64 `json:"usage_percentage"`
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	Delete(context.Context, GetCustomerRequest) error
	Overview(context.Context) (OverviewResponse, error)
}

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrInvalidHours   = errors.New("invalid_hours")
	ErrInvalidID      = errors.New("invalid_id")
	ErrDuplicateEmail = errors.New("duplicate_email")
	ErrNotFound       = errors.New("not_found")
)
