package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pharmadispatch/internal/dispatch"
	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/geo"
	"pharmadispatch/internal/ports/dispatchtx"
	"pharmadispatch/internal/ports/wallettx"
)

// TxRepo represents transaction repository.
type TxRepo struct {
	tx pgx.Tx
}

var (
	_ dispatchtx.Repository = (*TxRepo)(nil)
	_ wallettx.Repository   = (*TxRepo)(nil)
)

// GetDeliveryForUpdate loads and locks a delivery row.
func (r *TxRepo) GetDeliveryForUpdate(ctx context.Context, id int64) (*domain.Delivery, error) {
	row := r.tx.QueryRow(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1 FOR UPDATE`, id)
	d, err := scanDelivery(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock delivery %d: %w", id, err)
	}
	return d, nil
}

// SetDeliveryAssigned moves a delivery to assigned with its courier.
func (r *TxRepo) SetDeliveryAssigned(ctx context.Context, id, courierID int64, at time.Time) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE deliveries
        SET status = $2, courier_id = $3, assigned_at = $4
        WHERE id = $1
    `, id, domain.DeliveryAssigned, courierID, at)
	if err != nil {
		return fmt.Errorf("assign delivery %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delivery %d not found", id)
	}
	return nil
}

// statusTimestamp maps a delivery status to the column stamped on entry.
// failed shares the cancellation timestamp: both are termination times.
var statusTimestamp = map[domain.DeliveryStatus]string{
	domain.DeliveryAccepted:  "accepted_at",
	domain.DeliveryPickedUp:  "picked_up_at",
	domain.DeliveryInTransit: "in_transit_at",
	domain.DeliveryDelivered: "delivered_at",
	domain.DeliveryCancelled: "cancelled_at",
	domain.DeliveryFailed:    "cancelled_at",
}

// SetDeliveryStatus updates the delivery status and stamps the transition time.
func (r *TxRepo) SetDeliveryStatus(ctx context.Context, id int64, status domain.DeliveryStatus, at time.Time) error {
	q := `UPDATE deliveries SET status = $2 WHERE id = $1`
	args := []any{id, status}
	if col, ok := statusTimestamp[status]; ok {
		q = fmt.Sprintf(`UPDATE deliveries SET status = $2, %s = $3 WHERE id = $1`, col)
		args = append(args, at)
	}
	ct, err := r.tx.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("set delivery %d status %s: %w", id, status, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delivery %d not found", id)
	}
	return nil
}

// ResetDeliveryToPending clears the courier and every assignment timestamp,
// recording why the delivery went back to the pool.
func (r *TxRepo) ResetDeliveryToPending(ctx context.Context, id int64, reason string) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE deliveries
        SET status = $2, courier_id = NULL,
            assigned_at = NULL, accepted_at = NULL,
            reassign_reason = $3
        WHERE id = $1
    `, id, domain.DeliveryPending, reason)
	if err != nil {
		return fmt.Errorf("reset delivery %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delivery %d not found", id)
	}
	return nil
}

// SetDeliveryCancelReason records the cancellation reason.
func (r *TxRepo) SetDeliveryCancelReason(ctx context.Context, id int64, reason string) error {
	ct, err := r.tx.Exec(ctx,
		`UPDATE deliveries SET cancel_reason = $2 WHERE id = $1`, id, reason)
	if err != nil {
		return fmt.Errorf("set delivery %d cancel reason: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delivery %d not found", id)
	}
	return nil
}

// GetCourierForUpdate loads and locks a courier row.
func (r *TxRepo) GetCourierForUpdate(ctx context.Context, id int64) (*domain.Courier, error) {
	row := r.tx.QueryRow(ctx,
		`SELECT `+courierColumns+` FROM couriers WHERE id = $1 FOR UPDATE`, id)
	c, err := scanCourier(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock courier %d: %w", id, err)
	}
	return c, nil
}

// UpdateCourierStatus - update courier status.
func (r *TxRepo) UpdateCourierStatus(ctx context.Context, id int64, status domain.CourierStatus) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE couriers
        SET status = $2, updated_at = now()
        WHERE id = $1
    `, id, string(status))
	if err != nil {
		return fmt.Errorf("update courier status %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("courier %d not found", id)
	}
	return nil
}

// IncrementCompletedDeliveries bumps the lifetime completed-delivery count.
func (r *TxRepo) IncrementCompletedDeliveries(ctx context.Context, courierID int64) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE couriers
        SET completed_deliveries = completed_deliveries + 1, updated_at = now()
        WHERE id = $1
    `, courierID)
	if err != nil {
		return fmt.Errorf("increment courier %d completed deliveries: %w", courierID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("courier %d not found", courierID)
	}
	return nil
}

// activeStatuses are the delivery statuses that occupy a courier slot.
const activeStatuses = `'assigned','accepted','picked_up','in_transit'`

// CountActiveDeliveries returns how many deliveries currently occupy the courier.
func (r *TxRepo) CountActiveDeliveries(ctx context.Context, courierID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `
        SELECT COUNT(*) FROM deliveries
        WHERE courier_id = $1 AND status IN (`+activeStatuses+`)
    `, courierID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active deliveries for courier %d: %w", courierID, err)
	}
	return n, nil
}

// ListCandidates returns every available courier with its active-delivery
// count. Capacity and radius filtering happen in-process afterwards.
func (r *TxRepo) ListCandidates(ctx context.Context) ([]dispatch.Candidate, error) {
	rows, err := r.tx.Query(ctx, `
        SELECT `+courierColumns+`,
            (SELECT COUNT(*) FROM deliveries d
             WHERE d.courier_id = c.id AND d.status IN (`+activeStatuses+`)) AS active
        FROM couriers c
        WHERE c.status = $1
        ORDER BY c.id
    `, domain.CourierAvailable)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []dispatch.Candidate
	for rows.Next() {
		var (
			cand     dispatch.Candidate
			lat, lng *float64
		)
		c := &cand.Courier
		err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Status,
			&lat, &lng, &c.LocationUpdatedAt, &c.Rating, &c.CompletedDeliveries,
			&cand.Active)
		if err != nil {
			return nil, err
		}
		if lat != nil && lng != nil {
			c.Location = &geo.Point{Lat: *lat, Lng: *lng}
		}
		out = append(out, cand)
	}
	return out, rows.Err()
}
