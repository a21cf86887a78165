package models

import (
	"strings"
	"time"

	"orderhub/internal/common"

	"github.com/google/uuid"
)

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Customer struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	Address     Address   `json:"address" db:"address"`
	PhoneNumber *string   `json:"phoneNumber,omitempty" db:"phone_number"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

func (c *Customer) Validate() error {
	if len(strings.TrimSpace(c.Name)) < 2 {
		return common.NewValidationError("name", "must be at least 2 characters")
	}
	if !strings.Contains(c.Email, "@") {
		return common.NewValidationError("email", "must be a valid email address")
	}
	return nil
}
