package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pharmadispatch/internal/apperr"
	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/geo"
	"pharmadispatch/internal/ports/dispatchtx"
)

const deliveryColumns = `id, order_id, status, courier_id,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	subtotal, delivery_fee, service_fee, payment_fee, total,
	created_at, assigned_at, accepted_at, picked_up_at, in_transit_at,
	delivered_at, cancelled_at, cancel_reason`

// DeliveryRepo represents delivery repository.
type DeliveryRepo struct {
	db *pgxpool.Pool
}

// NewDeliveryRepo creates a new DeliveryRepo.
func NewDeliveryRepo(db *pgxpool.Pool) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

// WithTx opens a transaction and executes fn within it.
func (r *DeliveryRepo) WithTx(ctx context.Context, fn func(tx dispatchtx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	// rollback on panic, then re-panic
	defer func() {
		if p := recover(); p != nil {
			err = tx.Rollback(ctx)
			if err != nil {
				panic(err)
			}
			panic(p)
		}
	}()

	wrapped := &TxRepo{tx: tx}

	if err := fn(wrapped); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// Create persists a new delivery in pending state with its order totals.
func (r *DeliveryRepo) Create(ctx context.Context, d *domain.Delivery) (int64, error) {
	var (
		pickupLat, pickupLng *float64
	)
	if d.Pickup != nil {
		pickupLat, pickupLng = &d.Pickup.Lat, &d.Pickup.Lng
	}

	var id int64
	err := r.db.QueryRow(ctx, `
        INSERT INTO deliveries (
            order_id, status,
            pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
            subtotal, delivery_fee, service_fee, payment_fee, total
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `, d.OrderID, domain.DeliveryPending,
		pickupLat, pickupLng, d.Dropoff.Lat, d.Dropoff.Lng,
		d.Totals.Subtotal, d.Totals.DeliveryFee, d.Totals.ServiceFee,
		d.Totals.PaymentFee, d.Totals.Total,
	).Scan(&id)
	if err != nil {
		if IsDuplicate(err) {
			return 0, apperr.ErrConflict
		}
		return 0, fmt.Errorf("create delivery for order %q: %w", d.OrderID, err)
	}
	return id, nil
}

// Get returns a delivery by its ID.
func (r *DeliveryRepo) Get(ctx context.Context, id int64) (*domain.Delivery, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id)
	d, err := scanDelivery(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery %d: %w", id, err)
	}
	return d, nil
}

// GetByOrderID returns a delivery by its order ID.
func (r *DeliveryRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.Delivery, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE order_id = $1`, orderID)
	d, err := scanDelivery(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery by order %q: %w", orderID, err)
	}
	return d, nil
}

// ListPending returns the IDs of deliveries waiting for assignment, oldest
// first. Used by bulk assignment.
func (r *DeliveryRepo) ListPending(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
        SELECT id FROM deliveries
        WHERE status = $1
        ORDER BY created_at
        LIMIT $2
    `, domain.DeliveryPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending deliveries: %w", err)
	}
	defer rows.Close()

	out := make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanDelivery(row rowScanner) (*domain.Delivery, error) {
	var (
		d                    domain.Delivery
		pickupLat, pickupLng *float64
	)
	err := row.Scan(&d.ID, &d.OrderID, &d.Status, &d.CourierID,
		&pickupLat, &pickupLng, &d.Dropoff.Lat, &d.Dropoff.Lng,
		&d.Totals.Subtotal, &d.Totals.DeliveryFee, &d.Totals.ServiceFee,
		&d.Totals.PaymentFee, &d.Totals.Total,
		&d.CreatedAt, &d.AssignedAt, &d.AcceptedAt, &d.PickedUpAt, &d.InTransitAt,
		&d.DeliveredAt, &d.CancelledAt, &d.CancelReason)
	if err != nil {
		return nil, err
	}
	if pickupLat != nil && pickupLng != nil {
		p := geo.Point{Lat: *pickupLat, Lng: *pickupLng}
		d.Pickup = &p
	}
	return &d, nil
}
