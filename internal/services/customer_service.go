package services

import (
	"context"
	"strings"
	"time"

	"orderhub/internal/common"
	"orderhub/internal/models"
	"orderhub/internal/repositories"

	"github.com/google/uuid"
)

type AddressInput struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

type CreateCustomerInput struct {
	Name        string       `json:"name" validate:"required,min=2,max=200"`
	Email       string       `json:"email" validate:"required,email"`
	Address     AddressInput `json:"address"`
	PhoneNumber *string      `json:"phoneNumber" validate:"omitempty,max=30"`
}

type CustomerService interface {
	Create(ctx context.Context, input CreateCustomerInput) (*models.Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, limit, offset int) ([]*models.Customer, error)
}

type customerService struct {
	customerRepo repositories.CustomerRepository
	validator    *common.Validator
}

func NewCustomerService(customerRepo repositories.CustomerRepository, validator *common.Validator) CustomerService {
	return &customerService{customerRepo: customerRepo, validator: validator}
}

func (s *customerService) Create(ctx context.Context, input CreateCustomerInput) (*models.Customer, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		ID:    uuid.New(),
		Name:  strings.TrimSpace(input.Name),
		Email: strings.ToLower(strings.TrimSpace(input.Email)),
		Address: models.Address{
			Street:     input.Address.Street,
			City:       input.Address.City,
			State:      input.Address.State,
			PostalCode: input.Address.PostalCode,
			Country:    input.Address.Country,
		},
		PhoneNumber: input.PhoneNumber,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, common.CustomerNotFound(id.String())
	}
	return customer, nil
}

func (s *customerService) List(ctx context.Context, limit, offset int) ([]*models.Customer, error) {
	return s.customerRepo.List(ctx, limit, offset)
}
