package repositories

import (
	"context"

	"orderhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	// Save upserts the order header and reconciles its items on tx.
	Save(ctx context.Context, tx DBTX, order *models.Order) (ItemChanges, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, limit, offset int) ([]*models.Order, error)
}

type orderRepo struct {
	db DBTX
}

func NewOrderRepo(db DBTX) OrderRepository {
	return &orderRepo{db: db}
}

var orderItemColumns = []string{"id", "order_number", "sku", "quantity", "price", "created_at", "updated_at"}

func (r *orderRepo) Save(ctx context.Context, tx DBTX, order *models.Order) (ItemChanges, error) {
	query := `
		INSERT INTO orders (id, customer_id, order_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_number) DO UPDATE
		SET status = EXCLUDED.status, customer_id = EXCLUDED.customer_id, updated_at = EXCLUDED.updated_at
	`
	_, err := tx.Exec(ctx, query, order.ID(), order.CustomerID(), order.OrderNumber(), string(order.Status()), order.CreatedAt(), order.UpdatedAt())
	if err != nil {
		return ItemChanges{}, mapError(err, "upsert order")
	}

	existing, err := listItems(ctx, tx, order.OrderNumber())
	if err != nil {
		return ItemChanges{}, err
	}

	diff := DiffOrderItems(existing, order.Items())

	if len(diff.Created) > 0 {
		rows := diff.Created
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"order_items"}, orderItemColumns,
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				item := rows[i]
				return []any{item.ID, order.OrderNumber(), item.Sku, item.Quantity, numeric(item.Price), item.CreatedAt, item.UpdatedAt}, nil
			}))
		if err != nil {
			return ItemChanges{}, mapError(err, "create order items")
		}
	}

	for _, item := range diff.Updated {
		query := `
			UPDATE order_items
			SET quantity = $1, price = $2, updated_at = NOW()
			WHERE order_number = $3 AND sku = $4
		`
		if _, err := tx.Exec(ctx, query, item.Quantity, numeric(item.Price), order.OrderNumber(), item.Sku); err != nil {
			return ItemChanges{}, mapError(err, "update order item "+item.Sku)
		}
	}

	if len(diff.Deleted) > 0 {
		ids := make([]uuid.UUID, 0, len(diff.Deleted))
		for _, item := range diff.Deleted {
			ids = append(ids, item.ID)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE id = ANY($1)`, ids); err != nil {
			return ItemChanges{}, mapError(err, "delete order items")
		}
	}

	return diff, nil
}

func (r *orderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	query := `
		SELECT id, customer_id, order_number, status, created_at, updated_at
		FROM orders
		WHERE order_number = $1
	`
	return r.findOne(ctx, query, orderNumber)
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `
		SELECT id, customer_id, order_number, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	return r.findOne(ctx, query, id)
}

// findOne returns nil, nil when no order matches.
func (r *orderRepo) findOne(ctx context.Context, query string, arg any) (*models.Order, error) {
	var props models.OrderProps
	var status string
	err := r.db.QueryRow(ctx, query, arg).Scan(&props.ID, &props.CustomerID, &props.OrderNumber, &status, &props.CreatedAt, &props.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find order")
	}
	props.Status = models.OrderStatus(status)

	props.Items, err = listItems(ctx, r.db, props.OrderNumber)
	if err != nil {
		return nil, err
	}
	return models.NewOrder(props)
}

func (r *orderRepo) List(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT id, customer_id, order_number, status, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	var headers []models.OrderProps
	var numbers []string
	for rows.Next() {
		var props models.OrderProps
		var status string
		if err := rows.Scan(&props.ID, &props.CustomerID, &props.OrderNumber, &status, &props.CreatedAt, &props.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		props.Status = models.OrderStatus(status)
		headers = append(headers, props)
		numbers = append(numbers, props.OrderNumber)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if len(headers) == 0 {
		return []*models.Order{}, nil
	}

	itemsByOrder, err := listItemsForOrders(ctx, r.db, numbers)
	if err != nil {
		return nil, err
	}

	orders := make([]*models.Order, 0, len(headers))
	for _, props := range headers {
		props.Items = itemsByOrder[props.OrderNumber]
		order, err := models.NewOrder(props)
		if err != nil {
			return nil, errors.Wrapf(err, "rehydrate order %s", props.OrderNumber)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func listItems(ctx context.Context, q DBTX, orderNumber string) ([]*models.OrderItem, error) {
	query := `
		SELECT id, order_number, sku, quantity, price::text, created_at, updated_at
		FROM order_items
		WHERE order_number = $1
		ORDER BY created_at, sku
	`
	rows, err := q.Query(ctx, query, orderNumber)
	if err != nil {
		return nil, errors.Wrap(err, "load order items")
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, errors.Wrap(rows.Err(), "load order items")
}

func listItemsForOrders(ctx context.Context, q DBTX, orderNumbers []string) (map[string][]*models.OrderItem, error) {
	query := `
		SELECT id, order_number, sku, quantity, price::text, created_at, updated_at
		FROM order_items
		WHERE order_number = ANY($1)
		ORDER BY created_at, sku
	`
	rows, err := q.Query(ctx, query, orderNumbers)
	if err != nil {
		return nil, errors.Wrap(err, "load order items")
	}
	defer rows.Close()

	byOrder := make(map[string][]*models.OrderItem, len(orderNumbers))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		byOrder[item.OrderNumber] = append(byOrder[item.OrderNumber], item)
	}
	return byOrder, errors.Wrap(rows.Err(), "load order items")
}

func scanItem(rows pgx.Rows) (*models.OrderItem, error) {
	item := &models.OrderItem{}
	var price string
	if err := rows.Scan(&item.ID, &item.OrderNumber, &item.Sku, &item.Quantity, &price, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, errors.Wrap(err, "scan order item")
	}
	var err error
	if item.Price, err = decimal.NewFromString(price); err != nil {
		return nil, errors.Wrapf(err, "parse price of %s", item.Sku)
	}
	return item, nil
}

// numeric converts a decimal into the pgx NUMERIC representation.
func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
