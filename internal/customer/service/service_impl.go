package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hourdesk/internal/customer/domain"
	"github.com/smallbiznis/hourdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}
	if email := strings.TrimSpace(req.Email); email != "" && !strings.Contains(email, "@") {
		return domain.Customer{}, domain.ErrInvalidEmail
	}
	if req.HoursPurchased < 0 || req.HoursUsed < 0 {
		return domain.Customer{}, domain.ErrInvalidHours
	}

	now := time.Now().UTC()
	customer := domain.Customer{
		ID:             s.genID.Generate(),
		CustomerName:   name,
		CompanyName:    strings.TrimSpace(req.CompanyName),
		Email:          strings.TrimSpace(req.Email),
		HoursPurchased: req.HoursPurchased,
		HoursUsed:      req.HoursUsed,
		Metadata:       datatypes.JSONMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Customer{}, domain.ErrDuplicateEmail
		}
		return domain.Customer{}, err
	}

	return customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListCustomerFilter{
		Name:    strings.TrimSpace(req.Name),
		Company: strings.TrimSpace(req.Company),
	})
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	return domain.ListCustomerResponse{Customers: customers}, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}
	if email := strings.TrimSpace(req.Email); email != "" && !strings.Contains(email, "@") {
		return domain.Customer{}, domain.ErrInvalidEmail
	}
	if req.HoursPurchased < 0 || req.HoursUsed < 0 {
		return domain.Customer{}, domain.ErrInvalidHours
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if existing == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	existing.CustomerName = name
	existing.CompanyName = strings.TrimSpace(req.CompanyName)
	existing.Email = strings.TrimSpace(req.Email)
	existing.HoursPurchased = req.HoursPurchased
	existing.HoursUsed = req.HoursUsed
	existing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Customer{}, domain.ErrDuplicateEmail
		}
		return domain.Customer{}, err
	}

	return *existing, nil
}

func (s *Service) Delete(ctx context.Context, req domain.GetCustomerRequest) error {
	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, id)
}

func (s *Service) Overview(ctx context.Context) (domain.OverviewResponse, error) {
	overview, err := s.repo.Overview(ctx, s.db)
	if err != nil {
		return domain.OverviewResponse{}, err
	}

	items, err := s.repo.List(ctx, s.db, domain.ListCustomerFilter{})
	if err != nil {
		return domain.OverviewResponse{}, err
	}

	usages := make([]domain.CustomerUsage, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		usages = append(usages, domain.CustomerUsage{
			Customer:        *item,
			HoursRemaining:  item.HoursRemaining(),
			UsagePercentage: item.UsagePercentage(),
		})
	}

	return domain.OverviewResponse{Overview: overview, Customers: usages}, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
