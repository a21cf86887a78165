package repositories

import (
	"context"
	"encoding/json"

	"orderhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	// GetByID returns nil, nil when no customer matches.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, limit, offset int) ([]*models.Customer, error)
}

type customerRepo struct {
	db DBTX
}

func NewCustomerRepo(db DBTX) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) Create(ctx context.Context, customer *models.Customer) error {
	address, err := json.Marshal(customer.Address)
	if err != nil {
		return errors.Wrap(err, "encode customer address")
	}
	query := `
		INSERT INTO customers (id, name, email, address, phone_number, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query, customer.ID, customer.Name, customer.Email, address, customer.PhoneNumber, customer.IsActive, customer.CreatedAt)
	return mapError(err, "create customer")
}

func (r *customerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	query := `
		SELECT id, name, email, address, phone_number, is_active, created_at
		FROM customers
		WHERE id = $1
	`
	customer, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get customer")
	}
	return customer, nil
}

func (r *customerRepo) List(ctx context.Context, limit, offset int) ([]*models.Customer, error) {
	query := `
		SELECT id, name, email, address, phone_number, is_active, created_at
		FROM customers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list customers")
	}
	defer rows.Close()

	customers := []*models.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan customer")
		}
		customers = append(customers, customer)
	}
	return customers, errors.Wrap(rows.Err(), "list customers")
}

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	customer := &models.Customer{}
	var address []byte
	if err := row.Scan(&customer.ID, &customer.Name, &customer.Email, &address, &customer.PhoneNumber, &customer.IsActive, &customer.CreatedAt); err != nil {
		return nil, err
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &customer.Address); err != nil {
			return nil, errors.Wrap(err, "decode customer address")
		}
	}
	return customer, nil
}
