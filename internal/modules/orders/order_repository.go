package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/models"
	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/storage"
)

// RepositoryInterface defines the contract for the order record store.
type RepositoryInterface interface {
	Insert(ctx context.Context, record models.StoredOrder) error
	FindByID(ctx context.Context, id string) (*models.StoredOrder, error)
	ListAll(ctx context.Context) ([]*models.StoredOrder, error)
	Update(ctx context.Context, id string, patch models.OrderPatch) (*models.StoredOrder, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// Repository implements the RepositoryInterface on Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new order repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const orderColumns = `id, order_date, service, restaurant, pay, miles,
	start_time, rest_arrival_time, rest_departure_time, delivery_time,
	seg_to_restaurant, seg_at_restaurant, seg_to_customer, seg_return_to_hotspot,
	total_duration, gross_hourly_pay, net_hourly_pay, saved_at`

// Insert stores a new record. The id and save timestamp are assigned by the
// service before the write reaches this layer.
func (r *Repository) Insert(ctx context.Context, record models.StoredOrder) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := r.db.Exec(ctx, query,
		record.ID, record.Date, record.Service, record.Restaurant, record.Pay, record.Miles,
		record.StartTime, record.RestArrivalTime, record.RestDepartureTime, record.DeliveryTime,
		record.Segments.ToRestaurant, record.Segments.AtRestaurant,
		record.Segments.ToCustomer, record.Segments.ReturnToHotspot,
		record.TotalDuration, record.GrossHourlyPay, record.NetHourlyPay, record.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("repository.Insert: %w", storage.WriteFailure(err))
	}
	return nil
}

// scanOrder is a helper function to scan a row into a StoredOrder.
func (r *Repository) scanOrder(row pgx.Row) (*models.StoredOrder, error) {
	var o models.StoredOrder
	err := row.Scan(
		&o.ID,
		&o.Date,
		&o.Service,
		&o.Restaurant,
		&o.Pay,
		&o.Miles,
		&o.StartTime,
		&o.RestArrivalTime,
		&o.RestDepartureTime,
		&o.DeliveryTime,
		&o.Segments.ToRestaurant,
		&o.Segments.AtRestaurant,
		&o.Segments.ToCustomer,
		&o.Segments.ReturnToHotspot,
		&o.TotalDuration,
		&o.GrossHourlyPay,
		&o.NetHourlyPay,
		&o.SavedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", storage.ReadFailure(err))
	}
	return &o, nil
}

// FindByID retrieves a single record by its ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.StoredOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	record, err := r.scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return record, nil
}

// ListAll retrieves the whole collection, newest first. The id tiebreak
// keeps the order stable when two records land in the same instant.
func (r *Repository) ListAll(ctx context.Context) ([]*models.StoredOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY saved_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.ListAll.Query: %w", storage.ReadFailure(err))
	}
	defer rows.Close()

	var records []*models.StoredOrder
	for rows.Next() {
		record, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListAll.scanOrder: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListAll: %w", storage.ReadFailure(err))
	}
	return records, nil
}

// Update applies the non-nil fields of the patch and returns the updated
// record. An unknown id yields models.ErrNotFound.
func (r *Repository) Update(ctx context.Context, id string, patch models.OrderPatch) (*models.StoredOrder, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	set := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if patch.Date != nil {
		set("order_date", *patch.Date)
	}
	if patch.Service != nil {
		set("service", *patch.Service)
	}
	if patch.Restaurant != nil {
		set("restaurant", *patch.Restaurant)
	}
	if patch.Pay != nil {
		set("pay", *patch.Pay)
	}
	if patch.Miles != nil {
		set("miles", *patch.Miles)
	}
	if patch.StartTime != nil {
		set("start_time", *patch.StartTime)
	}
	if patch.RestArrivalTime != nil {
		set("rest_arrival_time", *patch.RestArrivalTime)
	}
	if patch.RestDepartureTime != nil {
		set("rest_departure_time", *patch.RestDepartureTime)
	}
	if patch.DeliveryTime != nil {
		set("delivery_time", *patch.DeliveryTime)
	}
	if patch.Segments != nil {
		set("seg_to_restaurant", patch.Segments.ToRestaurant)
		set("seg_at_restaurant", patch.Segments.AtRestaurant)
		set("seg_to_customer", patch.Segments.ToCustomer)
		set("seg_return_to_hotspot", patch.Segments.ReturnToHotspot)
	}
	if patch.TotalDuration != nil {
		set("total_duration", *patch.TotalDuration)
	}
	if patch.GrossHourlyPay != nil {
		set("gross_hourly_pay", *patch.GrossHourlyPay)
	}
	if patch.NetHourlyPay != nil {
		set("net_hourly_pay", *patch.NetHourlyPay)
	}

	if len(setClauses) == 0 {
		// No fields to update, return the current record.
		return r.FindByID(ctx, id)
	}

	args = append(args, id) // For the WHERE clause.

	query := fmt.Sprintf(`
		UPDATE orders SET %s
		WHERE id = $%d
		RETURNING `+orderColumns,
		strings.Join(setClauses, ", "), argIdx)

	record, err := r.scanOrder(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.Update: %w", storage.WriteFailure(err))
	}
	return record, nil
}

// Delete removes a record. An unknown id is a silent no-op.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("repository.Delete: %w", storage.WriteFailure(err))
	}
	return nil
}

// DeleteAll empties the collection.
func (r *Repository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("repository.DeleteAll: %w", storage.WriteFailure(err))
	}
	return nil
}
